package server

import (
	"net/url"

	"github.com/DeLaConcha232/doggy-walking/internal/affiliation"
	"github.com/DeLaConcha232/doggy-walking/internal/auth"
	"github.com/DeLaConcha232/doggy-walking/internal/config"
	"github.com/DeLaConcha232/doggy-walking/internal/group"
	"github.com/DeLaConcha232/doggy-walking/internal/profile"
	"github.com/DeLaConcha232/doggy-walking/internal/request"
	"github.com/DeLaConcha232/doggy-walking/internal/stream"
	"github.com/DeLaConcha232/doggy-walking/internal/tracking"
	"github.com/DeLaConcha232/doggy-walking/internal/walk"
	"github.com/DeLaConcha232/doggy-walking/internal/walker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.App.Get("/support/whatsapp", func(c *fiber.Ctx) error {
		msg := url.QueryEscape("Hola, necesito ayuda con Doggy-walking")
		return c.JSON(fiber.Map{
			"url": "https://wa.me/" + s.Cfg.SupportWhatsAppNumber + "?text=" + msg,
		})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	walkerSvc := walker.NewService(s.DB)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	profile.RegisterRoutes(s.App.Group("/profiles"), profile.NewService(s.DB), jwtMiddleware)
	walker.RegisterRoutes(s.App.Group("/walkers"), walkerSvc, jwtMiddleware)
	affiliation.RegisterRoutes(s.App.Group("/affiliations"), affiliation.NewService(s.DB, walkerSvc), jwtMiddleware)
	walk.RegisterRoutes(s.App.Group("/walks"), walk.NewService(s.DB, s.Stream), jwtMiddleware)
	tracking.RegisterRoutes(s.App.Group("/tracking"), tracking.NewService(s.DB, s.Stream), jwtMiddleware, s.Cfg.TrackingIntervalMinutes)
	request.RegisterRoutes(s.App.Group("/requests"), request.NewService(s.DB, s.Stream), jwtMiddleware)
	group.RegisterRoutes(s.App.Group("/groups"), group.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
