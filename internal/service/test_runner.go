package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/judge"
)

const timedOutMessage = "execution timed out"

// TestRunner executes code once per test case, in order, without stopping on failures.
type TestRunner interface {
	Run(ctx context.Context, testCases []models.TestCase, code string, languageID int) []models.TestResult
}

type testRunner struct {
	executor judge.Executor
	logger   zerolog.Logger
}

// NewTestRunner builds a TestRunner on top of an execution backend.
func NewTestRunner(executor judge.Executor, logger zerolog.Logger) TestRunner {
	return &testRunner{
		executor: executor,
		logger:   logger.With().Str("component", "test_runner").Logger(),
	}
}

// Run never fails: execution errors become failing results with nil output fields.
func (r *testRunner) Run(ctx context.Context, testCases []models.TestCase, code string, languageID int) []models.TestResult {
	results := make([]models.TestResult, 0, len(testCases))
	for _, tc := range testCases {
		results = append(results, r.runOne(ctx, tc, code, languageID))
	}
	return results
}

func (r *testRunner) runOne(ctx context.Context, tc models.TestCase, code string, languageID int) models.TestResult {
	result := models.TestResult{
		TestCaseID:     tc.ID,
		Hidden:         tc.Hidden,
		Input:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
	}

	run, err := r.executor.Execute(ctx, judge.Request{
		SourceCode:     code,
		LanguageID:     languageID,
		Stdin:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
	})
	if err != nil {
		message := err.Error()
		if errors.Is(err, judge.ErrExecutionTimedOut) {
			message = timedOutMessage
		}
		r.logger.Warn().Err(err).Str("test_case", tc.ID).Msg("test case execution failed")
		result.Error = &message
		return result
	}

	actual := run.Stdout
	result.ActualOutput = &actual
	result.Passed = run.Status.Accepted() && strings.TrimSpace(actual) == strings.TrimSpace(tc.ExpectedOutput)

	if detail := runErrorDetail(run); detail != "" {
		result.Error = &detail
	}
	if run.Time != "" {
		elapsed := run.Time
		result.ExecutionTime = &elapsed
	}
	if run.Memory > 0 {
		memory := run.Memory
		result.Memory = &memory
	}

	return result
}

func runErrorDetail(run judge.RunResult) string {
	switch {
	case strings.TrimSpace(run.CompileOutput) != "":
		return run.CompileOutput
	case strings.TrimSpace(run.Stderr) != "":
		return run.Stderr
	case !run.Status.Accepted() && run.Status.ID != judge.StatusWrongAnswer && run.Status.Description != "":
		return run.Status.Description
	default:
		return ""
	}
}

func summarizeTests(results []models.TestResult) (passed int, failures []string) {
	for _, result := range results {
		if result.Passed {
			passed++
			continue
		}
		failures = append(failures, describeFailure(result))
	}
	return passed, failures
}

func describeFailure(result models.TestResult) string {
	got := "no output"
	switch {
	case result.ActualOutput != nil:
		got = strings.TrimSpace(*result.ActualOutput)
	case result.Error != nil:
		got = "error: " + strings.TrimSpace(*result.Error)
	}
	return "Test " + result.TestCaseID + ": Expected " + strings.TrimSpace(result.ExpectedOutput) + " but got " + got
}
