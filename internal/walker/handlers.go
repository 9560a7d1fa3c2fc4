package walker

import (
	"strconv"

	"github.com/DeLaConcha232/doggy-walking/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	walkerOnly := auth.RequireWalker()

	r.Put("/profile", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		var req WalkerProfile
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.UserID = auth.UserID(c)
		wp, err := svc.UpsertProfile(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(wp)
	})

	r.Get("/profile", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		wp, err := svc.GetProfile(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "walker profile not found")
		}
		return c.JSON(wp)
	})

	r.Get("/discover", authMiddleware, func(c *fiber.Ctx) error {
		lat, _ := strconv.ParseFloat(c.Query("lat"), 64)
		lng, _ := strconv.ParseFloat(c.Query("lng"), 64)
		listings, err := svc.Discover(c.Context(), c.Query("city"), lat, lng)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(listings)
	})

	r.Get("/plans", authMiddleware, func(c *fiber.Ctx) error {
		plans, err := svc.Plans(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(plans)
	})

	r.Get("/plan", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		status, err := svc.PlanStatusFor(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(status)
	})

	r.Post("/plan", authMiddleware, walkerOnly, func(c *fiber.Ctx) error {
		var body struct {
			PlanID string `json:"plan_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.PlanID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "plan_id required")
		}
		if err := svc.Subscribe(c.Context(), auth.UserID(c), body.PlanID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusCreated)
	})
}
