package tracking

import (
	"errors"

	"github.com/DeLaConcha232/doggy-walking/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler, intervalMinutes int) {
	walkerOnly := auth.RequireWalker()

	r.Get("/config", authMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"interval_seconds": int(Interval(intervalMinutes).Seconds()),
		})
	})

	r.Post("/start", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		var req BroadcastRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		loc, recipients, err := svc.Start(c.Context(), auth.UserID(c), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"location": loc, "notified": recipients})
	})

	r.Post("/publish", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		var req PublishRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		loc, err := svc.Publish(c.Context(), auth.UserID(c), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(loc)
	})

	r.Post("/stop", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		if err := svc.Stop(c.Context(), auth.UserID(c)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/walkers/:walkerID", authMiddleware, func(c *fiber.Ctx) error {
		loc, err := svc.Current(c.Context(), auth.UserID(c), c.Params("walkerID"))
		if err != nil {
			switch {
			case errors.Is(err, ErrNotAffiliated):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			case errors.Is(err, ErrNotTracking):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(loc)
	})
}
