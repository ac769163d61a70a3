package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"

	"github.com/sportsconnect/messaging/internal/auth"
	"github.com/sportsconnect/messaging/internal/metrics"
)

// NewServer wires the fiber app: health and metrics stay open, everything
// under /api/messages requires a bearer token. Route order matters:
// /conversations/list must be registered before /:userId.
func NewServer(svc MessagingService, validator *auth.Validator, limiter *RateLimiter, log *zap.SugaredLogger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	h := NewHandlers(svc, log)

	msgs := app.Group("/api/messages", BearerAuth(validator))
	if limiter != nil {
		msgs.Use(limiter.Middleware())
	}

	msgs.Get("/conversations/list", h.listConversations)
	msgs.Post("/", h.sendMessage)
	msgs.Put("/:id/read", h.markRead)
	msgs.Delete("/single/:id", h.deleteMessage)
	msgs.Get("/:userId", h.listThread)
	msgs.Delete("/:userId", h.deleteConversation)

	return app
}
