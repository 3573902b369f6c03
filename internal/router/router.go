package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/config"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/handler"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GradingHandler    *handler.GradingHandler
	BulkHandler       *handler.BulkHandler
	AssignmentHandler *handler.AssignmentHandler
	InstructorGuards  []fiber.Handler
	GradeRateLimit    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	instructor := deps.InstructorGuards

	if deps.GradingHandler != nil {
		var studentGuards []fiber.Handler
		if deps.GradeRateLimit != nil {
			studentGuards = append(studentGuards, deps.GradeRateLimit)
		}
		deps.GradingHandler.RegisterStudent(api, studentGuards...)
		deps.GradingHandler.RegisterInstructor(api, instructor...)
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments")
		deps.AssignmentHandler.RegisterRead(assignments)
		deps.AssignmentHandler.RegisterWrite(assignments, instructor...)
	}

	// The bulk prefix is exclusive to instructors, so the guard can sit on the group.
	if deps.BulkHandler != nil {
		bulk := api.Group("/bulk", instructor...)
		deps.BulkHandler.Register(bulk)
	}
}
