package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var testRubric = Rubric{
	Correctness: Criterion{MaxPoints: 40},
	CodeQuality: Criterion{MaxPoints: 25},
	Efficiency:  Criterion{MaxPoints: 20},
	EdgeCases:   Criterion{MaxPoints: 15},
}

func TestParseEvaluationMapsAllFields(t *testing.T) {
	content := `{
		"feedback": "Solid work",
		"rubricScores": {"correctness": 38, "codeQuality": 20.5, "efficiency": 18, "edgeCases": 10},
		"suggestions": ["Add comments", {"title": "Loop", "description": "Use range", "code": "for _, v := range xs {}"}],
		"strengths": ["Readable", "Correct"],
		"extra": true
	}`

	result, err := parseEvaluation(content, testRubric)
	require.NoError(t, err)
	require.Equal(t, "Solid work", result.Feedback)
	require.Equal(t, Scores{Correctness: 38, CodeQuality: 20.5, Efficiency: 18, EdgeCases: 10}, result.Scores)
	require.Equal(t, []Suggestion{
		{Description: "Add comments"},
		{Title: "Loop", Description: "Use range", Code: "for _, v := range xs {}"},
	}, result.Suggestions)
	require.Equal(t, []string{"Readable", "Correct"}, result.Strengths)
	require.False(t, result.Fallback)
}

func TestParseEvaluationClampsAndDefaultsScores(t *testing.T) {
	content := `{"rubricScores": {"correctness": 400, "codeQuality": -3, "edge_cases": "12"}}`

	result, err := parseEvaluation(content, testRubric)
	require.NoError(t, err)
	require.Equal(t, 40.0, result.Scores.Correctness)
	require.Equal(t, 0.0, result.Scores.CodeQuality)
	require.Equal(t, 0.0, result.Scores.Efficiency, "missing score defaults to zero")
	require.Equal(t, 12.0, result.Scores.EdgeCases)
	require.Empty(t, result.Feedback)
	require.NotNil(t, result.Suggestions)
	require.NotNil(t, result.Strengths)
}

func TestParseEvaluationScoresStayWithinRubric(t *testing.T) {
	inputs := []string{
		`{"rubricScores": {"correctness": 1e9, "codeQuality": 1e9, "efficiency": 1e9, "edgeCases": 1e9}}`,
		`{"rubricScores": {"correctness": -1e9, "codeQuality": "-5", "efficiency": null, "edgeCases": "abc"}}`,
		`{"rubricScores": {}}`,
		`{}`,
	}

	for _, content := range inputs {
		result, err := parseEvaluation(content, testRubric)
		require.NoError(t, err, content)
		require.GreaterOrEqual(t, result.Scores.Correctness, 0.0)
		require.LessOrEqual(t, result.Scores.Correctness, testRubric.Correctness.MaxPoints)
		require.GreaterOrEqual(t, result.Scores.CodeQuality, 0.0)
		require.LessOrEqual(t, result.Scores.CodeQuality, testRubric.CodeQuality.MaxPoints)
		require.GreaterOrEqual(t, result.Scores.Efficiency, 0.0)
		require.LessOrEqual(t, result.Scores.Efficiency, testRubric.Efficiency.MaxPoints)
		require.GreaterOrEqual(t, result.Scores.EdgeCases, 0.0)
		require.LessOrEqual(t, result.Scores.EdgeCases, testRubric.EdgeCases.MaxPoints)
		require.LessOrEqual(t, result.Scores.Total(), testRubric.Total())
	}
}

func TestParseEvaluationRejectsMalformedContent(t *testing.T) {
	inputs := []string{
		"",
		"not json",
		`["an", "array"]`,
		`{"feedback": 12}`,
		`{"rubricScores": "high"}`,
		`{"strengths": [1, 2]}`,
	}

	for _, content := range inputs {
		_, err := parseEvaluation(content, testRubric)
		require.Error(t, err, content)
		require.True(t, errors.Is(err, ErrInvalidResponse), content)
	}
}

func TestParseEvaluationStripsCodeFence(t *testing.T) {
	content := "```json\n{\"feedback\": \"fenced\", \"rubricScores\": {\"correctness\": 10}}\n```"

	result, err := parseEvaluation(content, testRubric)
	require.NoError(t, err)
	require.Equal(t, "fenced", result.Feedback)
	require.Equal(t, 10.0, result.Scores.Correctness)
}

func TestParseFeedbackDefaultsEachField(t *testing.T) {
	result, err := parseFeedback(`{"score": "87"}`, Rubric{})
	require.NoError(t, err)
	require.Equal(t, 87.0, result.Score)
	require.Equal(t, "B", result.Grade)
	require.Equal(t, "No summary was provided.", result.Summary)
	require.Empty(t, result.Strengths)
	require.Empty(t, result.Improvements)
	require.Empty(t, result.Suggestions)
	require.Nil(t, result.RubricScores)
}

func TestParseFeedbackClampsAndKeepsProvidedValues(t *testing.T) {
	content := `{
		"score": 140,
		"grade": "a",
		"feedback": "Great",
		"strengths": "Clear naming",
		"improvements": ["Handle empty input"],
		"rubricScores": {"correctness": 99, "efficiency": 5}
	}`

	result, err := parseFeedback(content, testRubric)
	require.NoError(t, err)
	require.Equal(t, 100.0, result.Score)
	require.Equal(t, "A", result.Grade)
	require.Equal(t, "Great", result.Summary)
	require.Equal(t, []string{"Clear naming"}, result.Strengths)
	require.Equal(t, []string{"Handle empty input"}, result.Improvements)
	require.Equal(t, map[string]float64{"correctness": 40, "efficiency": 5}, result.RubricScores)
}

func TestParseFeedbackRejectsNonObject(t *testing.T) {
	_, err := parseFeedback(`"just text"`, Rubric{})
	require.True(t, errors.Is(err, ErrInvalidResponse))
}

func TestLetterGrade(t *testing.T) {
	require.Equal(t, "A", LetterGrade(90))
	require.Equal(t, "B", LetterGrade(89.9))
	require.Equal(t, "C", LetterGrade(70))
	require.Equal(t, "D", LetterGrade(60))
	require.Equal(t, "F", LetterGrade(0))
}

func TestResolveModel(t *testing.T) {
	model, err := ResolveModel("")
	require.NoError(t, err)
	require.Equal(t, DefaultModel, model)

	model, err = ResolveModel("GPT-4o")
	require.NoError(t, err)
	require.Equal(t, "gpt-4o", model)

	_, err = ResolveModel("llama-7b")
	require.True(t, errors.Is(err, ErrUnknownModel))
}
