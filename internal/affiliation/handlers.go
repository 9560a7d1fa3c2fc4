package affiliation

import (
	"errors"

	"github.com/DeLaConcha232/doggy-walking/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	walkerOnly := auth.RequireWalker()

	r.Post("/codes", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		code, err := svc.CreateCode(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(code)
	})

	r.Get("/codes/permanent", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		code, err := svc.PermanentCode(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"code": code})
	})

	r.Post("/scan", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&body); err != nil || body.Code == "" {
			return fiber.NewError(fiber.StatusBadRequest, "code required")
		}
		result, err := svc.Scan(c.Context(), auth.UserID(c), body.Code)
		if err != nil {
			switch {
			case errors.Is(err, ErrCodeInvalid):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrClientLimit):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		status := fiber.StatusCreated
		if result.AlreadyLinked {
			status = fiber.StatusOK
		}
		return c.Status(status).JSON(result)
	})

	r.Get("/clients", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		clients, err := svc.Clients(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(clients)
	})

	r.Get("/walkers", authMiddleware, func(c *fiber.Ctx) error {
		walkers, err := svc.Walkers(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(walkers)
	})

	r.Delete("/clients/:clientID", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		if err := svc.Unlink(c.Context(), auth.UserID(c), c.Params("clientID")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
