// Package httpapi exposes the schedule parser over HTTP.
package httpapi

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/or-schedule/constants"
	"github.com/joseph-ayodele/or-schedule/internal/pipeline"
	"github.com/joseph-ayodele/or-schedule/internal/repository"
)

// NewApp builds the fiber app with /healthz and the /v1 schedule routes.
func NewApp(proc *pipeline.Processor, jobs repository.ParseJobRepository, logger *slog.Logger) *fiber.App {
	if logger == nil {
		logger = slog.Default()
	}
	app := fiber.New(fiber.Config{
		AppName:               "or-schedule",
		DisableStartupMessage: true,
		BodyLimit:             constants.MaxTextBytes,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          2 * time.Minute,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return ApplySuccessToResponse(c, fiber.Map{"status": "ok"})
	})

	api := &ScheduleAPI{Router: app.Group("/v1"), Processor: proc, Jobs: jobs, Logger: logger}
	api.Register()
	return app
}
