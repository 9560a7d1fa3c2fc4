package group

import (
	"errors"

	"github.com/DeLaConcha232/doggy-walking/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	walkerOnly := auth.RequireWalker()

	r.Post("/", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		var req SaveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		g, err := svc.Create(c.Context(), auth.UserID(c), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(g)
	})

	r.Get("/", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		groups, err := svc.List(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(groups)
	})

	r.Put("/:id", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		var req SaveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		g, err := svc.Update(c.Context(), auth.UserID(c), c.Params("id"), req)
		if err != nil {
			if errors.Is(err, ErrNotOwner) {
				return fiber.NewError(fiber.StatusNotFound, "group not found")
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(g)
	})

	r.Delete("/:id", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
			if errors.Is(err, ErrNotOwner) {
				return fiber.NewError(fiber.StatusNotFound, "group not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/members", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		members, err := svc.Members(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			if errors.Is(err, ErrNotOwner) {
				return fiber.NewError(fiber.StatusNotFound, "group not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(members)
	})

	r.Put("/:id/members", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		var req MembersRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := svc.SaveMembers(c.Context(), auth.UserID(c), c.Params("id"), req.UserIDs); err != nil {
			if errors.Is(err, ErrNotOwner) {
				return fiber.NewError(fiber.StatusNotFound, "group not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
