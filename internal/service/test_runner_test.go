package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/judge"
)

func TestTestRunnerPassCriterion(t *testing.T) {
	executor := &fakeExecutor{run: func(req judge.Request) (judge.RunResult, error) {
		switch req.Stdin {
		case "trailing":
			return judge.RunResult{Stdout: "  hello world \n", Status: judge.Status{ID: judge.StatusAccepted}}, nil
		case "inner":
			return judge.RunResult{Stdout: "hello  world", Status: judge.Status{ID: judge.StatusAccepted}}, nil
		case "runtime":
			return judge.RunResult{Stdout: "hello world", Stderr: "Traceback", Status: judge.Status{ID: judge.StatusRuntimeError, Description: "Runtime Error (NZEC)"}}, nil
		default:
			return judge.RunResult{CompileOutput: "syntax error", Status: judge.Status{ID: judge.StatusCompilationError, Description: "Compilation Error"}}, nil
		}
	}}
	runner := NewTestRunner(executor, nopLogger())

	results := runner.Run(context.Background(), []models.TestCase{
		{ID: "a", Input: "trailing", ExpectedOutput: "hello world"},
		{ID: "b", Input: "inner", ExpectedOutput: "hello world"},
		{ID: "c", Input: "runtime", ExpectedOutput: "hello world"},
		{ID: "d", Input: "compile", ExpectedOutput: "hello world"},
	}, "print('hello world')", 71)

	require.Len(t, results, 4)
	require.True(t, results[0].Passed, "surrounding whitespace is ignored")
	require.False(t, results[1].Passed, "inner whitespace is significant")
	require.False(t, results[2].Passed, "non-accepted status fails despite matching output")
	require.Equal(t, "Traceback", *results[2].Error)
	require.False(t, results[3].Passed)
	require.Equal(t, "syntax error", *results[3].Error)
	require.Nil(t, results[0].Error)
}

func TestTestRunnerRecordsExecutionErrorsAndContinues(t *testing.T) {
	executor := &fakeExecutor{run: func(req judge.Request) (judge.RunResult, error) {
		switch req.Stdin {
		case "quota":
			return judge.RunResult{}, fmt.Errorf("submit: %w", judge.ErrQuotaExceeded)
		case "slow":
			return judge.RunResult{Status: judge.Status{ID: judge.StatusProcessing}}, fmt.Errorf("token abc: %w", judge.ErrExecutionTimedOut)
		default:
			return judge.RunResult{Stdout: "ok", Status: judge.Status{ID: judge.StatusAccepted}, Time: "0.1", Memory: 1024}, nil
		}
	}}
	runner := NewTestRunner(executor, nopLogger())

	results := runner.Run(context.Background(), []models.TestCase{
		{ID: "1", Input: "quota", ExpectedOutput: "ok"},
		{ID: "2", Input: "slow", ExpectedOutput: "ok"},
		{ID: "3", Input: "fine", ExpectedOutput: "ok"},
	}, "code", 63)

	require.Equal(t, 3, executor.callCount())
	require.Len(t, results, 3)

	require.False(t, results[0].Passed)
	require.Nil(t, results[0].ActualOutput)
	require.Nil(t, results[0].ExecutionTime)
	require.Nil(t, results[0].Memory)
	require.Contains(t, *results[0].Error, judge.ErrQuotaExceeded.Error())

	require.Equal(t, "execution timed out", *results[1].Error)
	require.Nil(t, results[1].ActualOutput)

	require.True(t, results[2].Passed)
	require.Equal(t, "0.1", *results[2].ExecutionTime)
	require.Equal(t, 1024, *results[2].Memory)
	require.Equal(t, []string{"1", "2", "3"}, []string{results[0].TestCaseID, results[1].TestCaseID, results[2].TestCaseID})
}

func TestTestRunnerIsIdempotentForDeterministicBackend(t *testing.T) {
	runner := NewTestRunner(printsConstant("42"), nopLogger())
	testCases := answerAssignment().TestCases

	first := runner.Run(context.Background(), testCases, "print(42)", 71)
	second := runner.Run(context.Background(), testCases, "print(42)", 71)
	require.Equal(t, first, second)
}

func TestTestRunnerPassesRequestThrough(t *testing.T) {
	executor := printsConstant("1")
	runner := NewTestRunner(executor, nopLogger())

	runner.Run(context.Background(), []models.TestCase{{ID: "1", Input: "in", ExpectedOutput: "1"}}, "src", 54)
	require.Equal(t, judge.Request{SourceCode: "src", LanguageID: 54, Stdin: "in", ExpectedOutput: "1"}, executor.calls[0])
}

func TestDescribeFailure(t *testing.T) {
	actual := "41\n"
	message := "boom"
	require.Equal(t, "Test 1: Expected 42 but got 41", describeFailure(models.TestResult{TestCaseID: "1", ExpectedOutput: "42", ActualOutput: &actual}))
	require.Equal(t, "Test 2: Expected 42 but got error: boom", describeFailure(models.TestResult{TestCaseID: "2", ExpectedOutput: "42", Error: &message}))

	passed, failures := summarizeTests([]models.TestResult{{Passed: true}, {TestCaseID: "9", ExpectedOutput: "x"}})
	require.Equal(t, 1, passed)
	require.Equal(t, []string{"Test 9: Expected x but got no output"}, failures)
}
