package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel indicates a model outside the supported list was requested.
var ErrUnknownModel = errors.New("unknown model")

// DefaultModel is used when a request does not name a model.
const DefaultModel = "gpt-4o-mini"

// Models lists the chat models instructors may pick for custom feedback.
var Models = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-4.1-mini",
	"gpt-4.1",
	"gpt-3.5-turbo",
}

// ResolveModel returns the canonical model name, DefaultModel for an empty
// value, or ErrUnknownModel.
func ResolveModel(model string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return DefaultModel, nil
	}
	for _, candidate := range Models {
		if strings.EqualFold(candidate, model) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, model)
}

// Criterion is one rubric category and the most points it can award.
type Criterion struct {
	MaxPoints   float64
	Description string
}

// Rubric carries the four scored categories.
type Rubric struct {
	Correctness Criterion
	CodeQuality Criterion
	Efficiency  Criterion
	EdgeCases   Criterion
}

// Total returns the sum of the category caps.
func (r Rubric) Total() float64 {
	return r.Correctness.MaxPoints + r.CodeQuality.MaxPoints + r.Efficiency.MaxPoints + r.EdgeCases.MaxPoints
}

// Scores holds one score per rubric category.
type Scores struct {
	Correctness float64 `json:"correctness"`
	CodeQuality float64 `json:"codeQuality"`
	Efficiency  float64 `json:"efficiency"`
	EdgeCases   float64 `json:"edgeCases"`
}

// Total returns the sum of all category scores.
func (s Scores) Total() float64 {
	return s.Correctness + s.CodeQuality + s.Efficiency + s.EdgeCases
}

// Suggestion is an improvement hint. Plain-text suggestions only carry a Description.
type Suggestion struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	Code        string `json:"code,omitempty"`
}

// TestSummary condenses test results for the prompt and for the fallback.
type TestSummary struct {
	Passed   int
	Total    int
	Failures []string
}

// PassRate returns Passed/Total, or 0 when nothing ran.
func (t TestSummary) PassRate() float64 {
	if t.Total <= 0 {
		return 0
	}
	return float64(t.Passed) / float64(t.Total)
}

// String renders the summary the way it is embedded in prompts.
func (t TestSummary) String() string {
	builder := strings.Builder{}
	fmt.Fprintf(&builder, "Passed %d of %d tests", t.Passed, t.Total)
	if len(t.Failures) > 0 {
		builder.WriteString("\nFailed tests:")
		for _, failure := range t.Failures {
			builder.WriteString("\n- ")
			builder.WriteString(failure)
		}
	}
	return builder.String()
}

// EvaluationInput is everything the rubric evaluation prompt embeds.
type EvaluationInput struct {
	Title        string
	Description  string
	Instructions string
	Language     string
	Code         string
	Tests        TestSummary
	Rubric       Rubric
}

// Evaluation is the rubric-scored review of a submission.
type Evaluation struct {
	Feedback    string       `json:"feedback"`
	Scores      Scores       `json:"rubricScores"`
	Suggestions []Suggestion `json:"suggestions"`
	Strengths   []string     `json:"strengths"`
	Model       string       `json:"model,omitempty"`
	Fallback    bool         `json:"fallback"`
}

// Evaluator grades code against a rubric using a remote model.
type Evaluator interface {
	Evaluate(ctx context.Context, input EvaluationInput) (Evaluation, error)
}

// CustomRequest drives the instructor-customised feedback variant.
type CustomRequest struct {
	Model        string
	Prompt       string
	Title        string
	Description  string
	Instructions string
	Language     string
	Code         string
	Tests        *TestSummary
	Rubric       Rubric
}

// Feedback is the response shape of the instructor-customised variant.
type Feedback struct {
	Score        float64            `json:"score"`
	Grade        string             `json:"grade"`
	Summary      string             `json:"summary"`
	Strengths    []string           `json:"strengths"`
	Improvements []string           `json:"improvements"`
	Suggestions  []Suggestion       `json:"suggestions"`
	RubricScores map[string]float64 `json:"rubricScores,omitempty"`
	Model        string             `json:"model"`
	Fallback     bool               `json:"fallback"`
}

// FeedbackGenerator produces free-form feedback from an instructor prompt.
type FeedbackGenerator interface {
	Generate(ctx context.Context, req CustomRequest) (Feedback, error)
}
