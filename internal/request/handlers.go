package request

import (
	"errors"

	"github.com/DeLaConcha232/doggy-walking/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	walkerOnly := auth.RequireWalker()

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		created, err := svc.Create(c.Context(), auth.UserID(c), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		requests, err := svc.ListForClient(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(requests)
	})

	r.Get("/incoming", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		requests, err := svc.ListForWalker(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(requests)
	})

	r.Post("/:id/cancel", authMiddleware, func(c *fiber.Ctx) error {
		cancelled, err := svc.Cancel(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			if errors.Is(err, ErrNotPending) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(cancelled)
	})

	r.Post("/:id/respond", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		var body RespondRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		responded, err := svc.Respond(c.Context(), auth.UserID(c), c.Params("id"), body)
		if err != nil {
			if errors.Is(err, ErrNotPending) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(responded)
	})
}
