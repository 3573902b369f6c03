package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/app"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/assignmentfile"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/events"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/repository"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/service"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/ai"
)

var gradeAssignmentPath string

var gradeCmd = &cobra.Command{
	Use:   "grade <source-file>",
	Short: "Grades one source file against a TOML assignment and prints the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}

		assignment, err := assignmentfile.Load(gradeAssignmentPath)
		if err != nil {
			return err
		}
		if err := assignment.Validate(); err != nil {
			return err
		}

		code, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read source file: %w", err)
		}

		executor, closeExecutor, err := app.NewExecutor(cfg, logger)
		if err != nil {
			return err
		}
		if closeExecutor != nil {
			defer closeExecutor()
		}

		evaluator, err := app.NewEvaluator(cfg, logger)
		if err != nil {
			return err
		}

		policy, err := service.ParseCorrectnessPolicy(cfg.CorrectnessPolicy)
		if err != nil {
			return err
		}

		grader := service.NewGradingService(
			repository.NewMemoryAssignmentRepository(),
			service.NewTestRunner(executor, logger),
			ai.WithFallback(evaluator, logger),
			events.NewNopPublisher(),
			validator.New(validator.WithRequiredStructEnabled()),
			logger,
			service.GradingConfig{CorrectnessPolicy: policy},
		)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		result, err := grader.GradeSubmission(ctx, assignment, string(code))
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	},
}

func init() {
	gradeCmd.Flags().StringVarP(&gradeAssignmentPath, "assignment", "a", "", "assignment TOML file")
	_ = gradeCmd.MarkFlagRequired("assignment")
	rootCmd.AddCommand(gradeCmd)
}
