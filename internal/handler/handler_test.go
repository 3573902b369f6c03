package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/config"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/events"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/handler"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/repository"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/router"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/service"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/ai"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/judge"
)

// answerExecutor behaves like a program that always prints 42.
type answerExecutor struct{}

func (answerExecutor) Execute(_ context.Context, req judge.Request) (judge.RunResult, error) {
	status := judge.Status{ID: judge.StatusAccepted, Description: "Accepted"}
	if req.ExpectedOutput != "" && strings.TrimSpace(req.ExpectedOutput) != "42" {
		status = judge.Status{ID: judge.StatusWrongAnswer, Description: "Wrong Answer"}
	}
	return judge.RunResult{Stdout: "42\n", Status: status, Time: "0.010", Memory: 2048}, nil
}

type testEnv struct {
	app  *fiber.App
	repo repository.AssignmentRepository
	bulk service.BulkService
}

func answerAssignment() models.Assignment {
	return models.Assignment{
		ID:       "answer",
		Title:    "The answer",
		Language: "python",
		TestCases: []models.TestCase{
			{ID: "1", ExpectedOutput: "42"},
			{ID: "2", Input: "x", ExpectedOutput: "43"},
			{ID: "3", Input: "y", ExpectedOutput: "42", Hidden: true},
		},
		Rubric: models.Rubric{
			Correctness: models.RubricCategory{Points: 40},
			CodeQuality: models.RubricCategory{Points: 25},
			Efficiency:  models.RubricCategory{Points: 20},
			EdgeCases:   models.RubricCategory{Points: 15},
		},
		MaxScore: 100,
	}
}

func setupApp(t *testing.T, cfg config.Config, instructor []fiber.Handler) testEnv {
	t.Helper()

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.Nop()

	repo := repository.NewMemoryAssignmentRepository()
	seed := answerAssignment()
	require.NoError(t, repo.Create(context.Background(), &seed))

	evaluator := ai.WithFallback(nil, logger)
	publisher := events.NewNopPublisher()
	runner := service.NewTestRunner(answerExecutor{}, logger)

	grading := service.NewGradingService(repo, runner, evaluator, publisher, validate, logger, service.GradingConfig{})
	feedback := service.NewFeedbackService(repo, evaluator, validate, logger)
	bulk := service.NewBulkService(repo, grading, repository.NewMemoryBulkStore(), publisher, validate, logger)
	assignments := service.NewAssignmentService(repo, validate, logger)
	t.Cleanup(bulk.Wait)

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		GradingHandler:    handler.NewGradingHandler(grading, feedback, validate, logger),
		BulkHandler:       handler.NewBulkHandler(bulk, validate, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignments, validate, logger),
		InstructorGuards:  instructor,
	})

	return testEnv{app: app, repo: repo, bulk: bulk}
}

func newJSONRequest(t *testing.T, method, path string, payload interface{}) *http.Request {
	t.Helper()

	var body *bytes.Reader
	if payload == nil {
		body = bytes.NewReader(nil)
	} else {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}) *http.Response {
	t.Helper()
	resp, err := app.Test(newJSONRequest(t, method, path, payload), -1)
	require.NoError(t, err)
	return resp
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestHealthCheck(t *testing.T) {
	env := setupApp(t, config.Config{AppName: "Test", ExecutionBackend: "judge0"}, nil)

	resp := doJSON(t, env.app, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Test", resp.Header.Get("X-Application"))

	var body envelope[handler.HealthResponse]
	decodeResponse(t, resp, &body)
	require.Equal(t, "ok", body.Data.Status)
	require.Contains(t, body.Data.Languages, "python")
	require.Equal(t, "judge0", body.Data.ExecutionBackend)
}
