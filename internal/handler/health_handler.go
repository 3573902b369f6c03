package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/config"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/utils"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/ai"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/judge"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	Service          string    `json:"service"`
	Environment      string    `json:"environment"`
	ExecutionBackend string    `json:"executionBackend"`
	Languages        []string  `json:"languages"`
	Models           []string  `json:"models"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:           "ok",
			Timestamp:        time.Now().UTC(),
			Service:          cfg.AppName,
			Environment:      cfg.AppEnv,
			ExecutionBackend: cfg.ExecutionBackend,
			Languages:        judge.Languages(),
			Models:           ai.Models,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
