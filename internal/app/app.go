package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/config"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/database"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/events"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/handler"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/middleware"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/observability"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/repository"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/router"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/service"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/ai"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/judge"
)

const shutdownTimeout = 30 * time.Second

// App owns the HTTP server and every backing connection.
type App struct {
	Config      config.Config
	Fiber       *fiber.App
	Assignments service.AssignmentService
	Grading     service.GradingService
	Bulk        service.BulkService

	logger  zerolog.Logger
	closers []func() error
}

// Overrides replaces individual collaborators, mainly for tests.
type Overrides struct {
	Executor    judge.Executor
	Evaluator   ai.Evaluator
	Assignments repository.AssignmentRepository
	BulkStore   repository.BulkProgressStore
	Publisher   events.Publisher
}

// New connects the configured backends and builds the HTTP application.
func New(cfg config.Config, logger zerolog.Logger, overrides Overrides) (*App, error) {
	observability.RegisterMetrics()

	a := &App{Config: cfg, logger: logger}
	if err := a.build(overrides); err != nil {
		_ = a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(overrides Overrides) error {
	cfg := a.Config
	logger := a.logger

	assignments := overrides.Assignments
	if assignments == nil {
		repo, err := a.assignmentRepository()
		if err != nil {
			return err
		}
		assignments = repo
	}

	store := overrides.BulkStore
	if store == nil {
		s, err := a.bulkStore()
		if err != nil {
			return err
		}
		store = s
	}

	publisher := overrides.Publisher
	if publisher == nil {
		p, err := a.publisher()
		if err != nil {
			return err
		}
		publisher = p
	}

	executor := overrides.Executor
	if executor == nil {
		e, closer, err := NewExecutor(cfg, logger)
		if err != nil {
			return err
		}
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
		executor = e
	}

	evaluator := overrides.Evaluator
	if evaluator == nil {
		e, err := NewEvaluator(cfg, logger)
		if err != nil {
			return err
		}
		evaluator = e
	}
	resilient := ai.WithFallback(evaluator, logger)

	policy, err := service.ParseCorrectnessPolicy(cfg.CorrectnessPolicy)
	if err != nil {
		return err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	runner := service.NewTestRunner(executor, logger)
	a.Assignments = service.NewAssignmentService(assignments, validate, logger)
	a.Grading = service.NewGradingService(assignments, runner, resilient, publisher, validate, logger, service.GradingConfig{
		CorrectnessPolicy: policy,
	})
	a.Bulk = service.NewBulkService(assignments, a.Grading, store, publisher, validate, logger)
	feedback := service.NewFeedbackService(assignments, resilient, validate, logger)

	a.Fiber = fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    16 * 1024 * 1024,
		Immutable:    true,
	})

	middleware.Register(a.Fiber, middleware.Config{Logger: &logger, AllowOrigins: cfg.AllowOrigins})
	router.Register(a.Fiber, cfg, router.Dependencies{
		GradingHandler:    handler.NewGradingHandler(a.Grading, feedback, validate, logger),
		BulkHandler:       handler.NewBulkHandler(a.Bulk, validate, logger),
		AssignmentHandler: handler.NewAssignmentHandler(a.Assignments, validate, logger),
		InstructorGuards:  middleware.InstructorAuth(cfg.JWTSecret),
		GradeRateLimit:    middleware.RateLimit("grade", cfg.GradeRateLimit, time.Minute),
	})

	return nil
}

func (a *App) assignmentRepository() (repository.AssignmentRepository, error) {
	if a.Config.DatabaseURL == "" {
		a.logger.Warn().Msg("no database configured, assignments are kept in memory")
		return repository.NewMemoryAssignmentRepository(), nil
	}

	db, err := database.Connect(a.Config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return repository.NewAssignmentRepository(db), nil
}

func (a *App) bulkStore() (repository.BulkProgressStore, error) {
	if a.Config.RedisURL == "" {
		return repository.NewMemoryBulkStore(), nil
	}

	client, err := database.ConnectRedis(a.Config.RedisURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	return repository.NewRedisBulkStore(client, a.Config.BulkTTL), nil
}

func (a *App) publisher() (events.Publisher, error) {
	if a.Config.NATSURL == "" {
		return events.NewNopPublisher(), nil
	}

	nc, err := events.Connect(a.Config.NATSURL, a.Config.AppName)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		return nc.Drain()
	})
	return events.NewNATSPublisher(nc, a.logger), nil
}

// NewExecutor builds the configured execution backend. The returned closer may be nil.
func NewExecutor(cfg config.Config, logger zerolog.Logger) (judge.Executor, func() error, error) {
	switch cfg.ExecutionBackend {
	case config.BackendDocker:
		backend, err := judge.NewDockerBackend(judge.DockerConfig{
			Host:          cfg.DockerHost,
			Timeout:       cfg.ExecutionTimeout,
			MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
			CPUShares:     int64(cfg.CodeRunCPUShares),
			Logger:        logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return backend, backend.Close, nil
	case config.BackendJudge0, "":
		client, err := judge.NewJudge0Client(judge.Config{
			BaseURL:       cfg.Judge0URL,
			APIKey:        cfg.Judge0APIKey,
			RapidAPIHost:  cfg.Judge0RapidAPIHost,
			PollInterval:  cfg.Judge0PollInterval,
			MaxPolls:      cfg.Judge0MaxPolls,
			CPUTimeLimit:  cfg.CPUTimeLimit,
			MemoryLimitKB: cfg.MemoryLimitKB,
			Logger:        logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown execution backend %q", cfg.ExecutionBackend)
	}
}

// NewEvaluator builds the OpenAI evaluator, or returns nil when no API key is
// configured so that every evaluation uses the deterministic fallback.
func NewEvaluator(cfg config.Config, logger zerolog.Logger) (ai.Evaluator, error) {
	if cfg.OpenAIAPIKey == "" {
		logger.Warn().Msg("no openai api key configured, using fallback evaluations")
		return nil, nil
	}

	evaluator, err := ai.NewOpenAIEvaluator(ai.OpenAIConfig{
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.OpenAIModel,
		MaxTokens: cfg.OpenAIMaxTokens,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	return evaluator, nil
}

// Start listens on the configured address until Shutdown is called.
func (a *App) Start() error {
	a.logger.Info().Str("addr", a.Config.HTTPAddress()).Str("backend", a.Config.ExecutionBackend).Msg("autograder listening")
	return a.Fiber.Listen(a.Config.HTTPAddress())
}

// Shutdown stops accepting requests, waits for running bulk batches and
// closes every connection.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Fiber != nil {
		if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if a.Bulk != nil {
		done := make(chan struct{})
		go func() {
			a.Bulk.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			a.logger.Warn().Msg("shutdown deadline reached with bulk batches still running")
		}
	}

	if err := a.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewLogger builds the root logger at the configured level.
func NewLogger(cfg config.Config) zerolog.Logger {
	return zerolog.New(os.Stdout).Level(cfg.LogLevel).With().Timestamp().Str("service", cfg.AppName).Logger()
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- a.Start()
	}()

	select {
	case err := <-listenErr:
		_ = a.close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.logger.Info().Msg("server stopped")
	return nil
}
