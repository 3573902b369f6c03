package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/app"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg)

	application, err := app.New(cfg, logger, app.Overrides{})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
