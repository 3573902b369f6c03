package main

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/assignmentfile"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/database"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/repository"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/service"
)

var seedDir string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Loads TOML assignment definitions into the database",
	Long: `Loads every *.toml file in a directory and creates or replaces the
assignment with the same id. Requires AUTOGRADER_DATABASE_URL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("AUTOGRADER_DATABASE_URL is required to seed assignments")
		}

		assignments, err := assignmentfile.LoadDir(seedDir)
		if err != nil {
			return err
		}

		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := database.Migrate(db); err != nil {
			return err
		}

		svc := service.NewAssignmentService(repository.NewAssignmentRepository(db), validator.New(validator.WithRequiredStructEnabled()), logger)
		for _, assignment := range assignments {
			if _, err := svc.Upsert(cmd.Context(), assignment); err != nil {
				return fmt.Errorf("seed %s: %w", assignment.ID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s (%d test cases)\n", assignment.ID, len(assignment.TestCases))
		}

		logger.Info().Int("count", len(assignments)).Str("dir", seedDir).Msg("assignments seeded")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedDir, "dir", "assignments", "directory containing assignment TOML files")
	rootCmd.AddCommand(seedCmd)
}
