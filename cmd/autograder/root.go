package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/app"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "autograder",
	Short: "Grades programming submissions with test runs and rubric feedback",
	Long: `Autograder runs student code against assignment test cases on a Judge0
compatible backend (or local Docker), scores it against a rubric and serves
the grading API.

	autograder serve
	autograder seed --dir assignments
	autograder grade --assignment assignments/sum.toml solution.py`,
	SilenceUsage: true,
}

// loadRuntime reads the configuration and builds the root logger.
func loadRuntime() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, app.NewLogger(cfg), nil
}
