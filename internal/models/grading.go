package models

import (
	"time"

	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/ai"
)

// TestResult is the outcome of one test case. Nullable fields are nil when execution failed.
type TestResult struct {
	TestCaseID     string  `json:"testCaseId"`
	Passed         bool    `json:"passed"`
	Hidden         bool    `json:"hidden,omitempty"`
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expectedOutput"`
	ActualOutput   *string `json:"actualOutput"`
	Error          *string `json:"error"`
	ExecutionTime  *string `json:"executionTime"`
	Memory         *int    `json:"memory"`
}

// RubricScores holds one AI score per rubric category.
type RubricScores struct {
	Correctness float64 `json:"correctness"`
	CodeQuality float64 `json:"codeQuality"`
	Efficiency  float64 `json:"efficiency"`
	EdgeCases   float64 `json:"edgeCases"`
}

// Total sums the four categories.
func (s RubricScores) Total() float64 {
	return s.Correctness + s.CodeQuality + s.Efficiency + s.EdgeCases
}

// AIEvaluation is the rubric review attached to a grading result.
type AIEvaluation struct {
	Feedback     string          `json:"feedback"`
	RubricScores RubricScores    `json:"rubricScores"`
	Suggestions  []ai.Suggestion `json:"suggestions"`
	Strengths    []string        `json:"strengths"`
	Model        string          `json:"model,omitempty"`
	Fallback     bool            `json:"fallback"`
}

// AssignmentSnapshot is the part of an assignment copied into a grading result.
type AssignmentSnapshot struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Rubric   Rubric `json:"rubric"`
	MaxScore int    `json:"maxScore"`
}

// GradingResult is produced once per graded submission and never changed afterwards.
type GradingResult struct {
	Assignment   AssignmentSnapshot `json:"assignment"`
	Code         string             `json:"code"`
	TestResults  []TestResult       `json:"testResults"`
	PassedCount  int                `json:"passedCount"`
	TotalCount   int                `json:"totalCount"`
	TestScore    int                `json:"testScore"`
	AIEvaluation AIEvaluation       `json:"aiEvaluation"`
	FinalScore   float64            `json:"finalScore"`
	MaxScore     float64            `json:"maxScore"`
	GradedAt     time.Time          `json:"gradedAt"`
}

// WithoutHiddenCases returns a copy whose hidden results keep their verdict
// but drop the test input and expected output.
func (r GradingResult) WithoutHiddenCases() GradingResult {
	results := make([]TestResult, len(r.TestResults))
	for i, result := range r.TestResults {
		if result.Hidden {
			result.Input = ""
			result.ExpectedOutput = ""
		}
		results[i] = result
	}
	r.TestResults = results
	return r
}
