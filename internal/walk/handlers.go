package walk

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
		w, code, err := svc.CreateWithCode(c.Context(), auth.UserID(c), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"walk": w, "qr_code": code})
	})

	r.Post("/group", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		var req GroupWalkRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		w, recipients, err := svc.StartGroupWalk(c.Context(), auth.UserID(c), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"walk": w, "notified": recipients})
	})

	r.Post("/scan", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		var body struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&body); err != nil || body.Code == "" {
			return fiber.NewError(fiber.StatusBadRequest, "code required")
		}
		w, err := svc.ScanCode(c.Context(), auth.UserID(c), body.Code)
		if err != nil {
			switch {
			case errors.Is(err, ErrCodeInvalid):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrInvalidTransition):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(w)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		walks, err := svc.List(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(walks)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		w, err := svc.Get(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			if errors.Is(err, ErrNotParticipant) {
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusNotFound, "walk not found")
		}
		return c.JSON(w)
	})

	r.Post("/:id/status", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil || body.Status == "" {
			return fiber.NewError(fiber.StatusBadRequest, "status required")
		}
		w, err := svc.SetStatus(c.Context(), c.Params("id"), auth.UserID(c), body.Status)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidTransition):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			case errors.Is(err, ErrNotParticipant):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(w)
	})

	r.Post("/:id/locations", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		var body struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		loc, err := svc.AddLocation(c.Context(), auth.UserID(c), c.Params("id"), body.Latitude, body.Longitude)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotParticipant):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			case errors.Is(err, ErrInvalidTransition):
				return fiber.NewError(fiber.StatusConflict, "walk is not active")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(loc)
	})

	r.Get("/:id/locations", authMiddleware, func(c *fiber.Ctx) error {
		locations, err := svc.Locations(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			if errors.Is(err, ErrNotParticipant) {
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(locations)
	})
}
