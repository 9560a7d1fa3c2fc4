package profile

import (
	"github.com/DeLaConcha232/doggy-walking/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/me", authMiddleware, func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "profile not found")
		}
		return c.JSON(p)
	})

	r.Patch("/me", authMiddleware, func(c *fiber.Ctx) error {
		var req UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		p, err := svc.Update(c.Context(), auth.UserID(c), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(p)
	})

	r.Post("/me/avatar", authMiddleware, func(c *fiber.Ctx) error {
		var req AvatarRequest
		if err := c.BodyParser(&req); err != nil || req.AvatarURL == "" {
			return fiber.NewError(fiber.StatusBadRequest, "avatar_url required")
		}
		if err := svc.SetAvatar(c.Context(), auth.UserID(c), req.AvatarURL); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
