package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/dto"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/ai"
)

type stubGenerator struct {
	requests []ai.CustomRequest
	feedback ai.Feedback
	err      error
}

func (s *stubGenerator) Generate(ctx context.Context, req ai.CustomRequest) (ai.Feedback, error) {
	s.requests = append(s.requests, req)
	return s.feedback, s.err
}

func TestFeedbackServiceUsesStoredAssignment(t *testing.T) {
	generator := &stubGenerator{feedback: ai.Feedback{Score: 88, Grade: "B", Model: "gpt-4o"}}
	svc := NewFeedbackService(seededRepo(t, answerAssignment()), generator, newValidator(), nopLogger())

	actual := "41"
	feedback, err := svc.GradeIndividual(context.Background(), dto.GradeIndividualRequest{
		AssignmentID: "answer",
		Code:         "print(41)",
		Settings:     dto.FeedbackSettings{Model: "gpt-4o", CustomPrompt: "Focus on naming"},
		TestResults: []models.TestResult{
			{TestCaseID: "1", Passed: true},
			{TestCaseID: "2", ExpectedOutput: "42", ActualOutput: &actual},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 88.0, feedback.Score)

	require.Len(t, generator.requests, 1)
	req := generator.requests[0]
	require.Equal(t, "gpt-4o", req.Model)
	require.Equal(t, "Focus on naming", req.Prompt)
	require.Equal(t, "The answer", req.Title)
	require.Equal(t, &ai.TestSummary{Passed: 1, Total: 2, Failures: []string{"Test 2: Expected 42 but got 41"}}, req.Tests)
	require.Equal(t, 40.0, req.Rubric.Correctness.MaxPoints)
}

func TestFeedbackServiceInlineAssignment(t *testing.T) {
	generator := &stubGenerator{}
	svc := NewFeedbackService(seededRepo(t), generator, newValidator(), nopLogger())

	_, err := svc.GradeIndividual(context.Background(), dto.GradeIndividualRequest{
		Assignment: &dto.AssignmentPayload{Title: "Inline", Language: "java", Rubric: testRubric()},
		Code:       "class Main {}",
	})
	require.NoError(t, err)
	require.Equal(t, "Inline", generator.requests[0].Title)
	require.Equal(t, defaultFeedbackPrompt, generator.requests[0].Prompt)
	require.Nil(t, generator.requests[0].Tests)

	_, err = svc.GradeIndividual(context.Background(), dto.GradeIndividualRequest{
		Assignment: &dto.AssignmentPayload{Title: "Bad", Language: "java", Rubric: testRubric(), MaxScore: 10},
		Code:       "class Main {}",
	})
	require.True(t, errors.Is(err, models.ErrInvalidRubric))
}

func TestFeedbackServiceErrors(t *testing.T) {
	generator := &stubGenerator{err: ai.ErrUnknownModel}
	svc := NewFeedbackService(seededRepo(t, answerAssignment()), generator, newValidator(), nopLogger())
	ctx := context.Background()

	_, err := svc.GradeIndividual(ctx, dto.GradeIndividualRequest{Code: "x"})
	require.True(t, errors.Is(err, ErrAssignmentRequired))

	_, err = svc.GradeIndividual(ctx, dto.GradeIndividualRequest{AssignmentID: "missing", Code: "x"})
	require.True(t, errors.Is(err, ErrAssignmentNotFound))

	_, err = svc.GradeIndividual(ctx, dto.GradeIndividualRequest{AssignmentID: "answer"})
	require.Error(t, err, "code is required")

	_, err = svc.GradeIndividual(ctx, dto.GradeIndividualRequest{AssignmentID: "answer", Code: "x", Settings: dto.FeedbackSettings{Model: "other"}})
	require.True(t, errors.Is(err, ai.ErrUnknownModel))
}
