package server

import (
	"net/http"
	"time"

	"github.com/flowbaker/stickerzip/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

const serviceName = "stickerzip"

type HTTPServerDependencies struct {
	// BotUsername is reported by /health once the bot is authenticated.
	BotUsername    string
	MetricsHandler http.Handler
}

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: serviceName,
	})

	router.Use(logger.New(logger.Config{
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/metrics"
		},
	}))

	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   serviceName,
			"version":   version.GetVersion(),
			"bot":       deps.BotUsername,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	if deps.MetricsHandler != nil {
		router.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	return router
}
