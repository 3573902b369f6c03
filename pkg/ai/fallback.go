package ai

import (
	"fmt"
	"math"
)

const partialCreditRatio = 0.7

// FallbackEvaluation derives a deterministic evaluation from the test pass
// rate alone. It is total: any summary, including 0 of 0, yields a valid result.
func FallbackEvaluation(tests TestSummary, rubric Rubric) Evaluation {
	rate := tests.PassRate()

	scores := Scores{
		Correctness: clampScore(math.Round(rate*rubric.Correctness.MaxPoints), rubric.Correctness.MaxPoints),
		CodeQuality: clampScore(math.Round(partialCreditRatio*rubric.CodeQuality.MaxPoints), rubric.CodeQuality.MaxPoints),
		Efficiency:  clampScore(math.Round(partialCreditRatio*rubric.Efficiency.MaxPoints), rubric.Efficiency.MaxPoints),
		EdgeCases:   clampScore(math.Round(rate*rubric.EdgeCases.MaxPoints), rubric.EdgeCases.MaxPoints),
	}

	feedback := fmt.Sprintf(
		"Automated review was unavailable, so this evaluation is based on test results. Your submission passed %d of %d tests (%.0f%%).",
		tests.Passed, tests.Total, rate*100,
	)

	strengths := []string{"Submission was received and executed against the test suite"}
	if tests.Total > 0 && tests.Passed == tests.Total {
		strengths = append(strengths, "All test cases pass")
	} else if tests.Passed > 0 {
		strengths = append(strengths, "Some test cases pass")
	}

	return Evaluation{
		Feedback: feedback,
		Scores:   scores,
		Suggestions: []Suggestion{
			{Title: "Review failing tests", Description: "Compare your output with the expected output for each failing test case."},
			{Title: "Consider edge cases", Description: "Check empty input, boundary values and unusual formatting."},
			{Title: "Keep code readable", Description: "Use descriptive names and small functions so the logic is easy to follow."},
		},
		Strengths: strengths,
		Fallback:  true,
	}
}

// FallbackFeedback is returned by the custom-prompt variant when no usable
// model answer is available.
func FallbackFeedback(model string) Feedback {
	return Feedback{
		Score:        50,
		Grade:        "C",
		Summary:      "AI feedback could not be generated for this submission. Please review it manually.",
		Strengths:    []string{"Submission received"},
		Improvements: []string{"Manual review recommended"},
		Suggestions:  []Suggestion{{Title: "Retry later", Description: "Feedback generation failed; try again or grade this submission by hand."}},
		Model:        model,
		Fallback:     true,
	}
}
