package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/dto"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/observability"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/repository"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/ai"
)

// ErrAssignmentRequired indicates neither an assignment id nor an inline assignment was given.
var ErrAssignmentRequired = errors.New("assignmentId or assignment is required")

const defaultFeedbackPrompt = "Review this submission as a programming instructor. Be specific, encouraging and concise."

// FeedbackService produces instructor-customised feedback for one submission.
type FeedbackService interface {
	GradeIndividual(ctx context.Context, req dto.GradeIndividualRequest) (ai.Feedback, error)
}

type feedbackService struct {
	assignments repository.AssignmentRepository
	generator   ai.FeedbackGenerator
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewFeedbackService constructs the custom-prompt feedback service.
func NewFeedbackService(assignments repository.AssignmentRepository, generator ai.FeedbackGenerator, validate *validator.Validate, logger zerolog.Logger) FeedbackService {
	return &feedbackService{
		assignments: assignments,
		generator:   generator,
		validator:   validate,
		logger:      logger.With().Str("component", "feedback_service").Logger(),
	}
}

func (s *feedbackService) GradeIndividual(ctx context.Context, req dto.GradeIndividualRequest) (ai.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return ai.Feedback{}, err
	}

	assignment, err := s.resolveAssignment(ctx, req)
	if err != nil {
		return ai.Feedback{}, err
	}

	prompt := strings.TrimSpace(req.Settings.CustomPrompt)
	if prompt == "" {
		prompt = defaultFeedbackPrompt
	}

	custom := ai.CustomRequest{
		Model:        req.Settings.Model,
		Prompt:       prompt,
		Title:        assignment.Title,
		Description:  assignment.Description,
		Instructions: assignment.Instructions,
		Language:     assignment.Language,
		Code:         req.Code,
		Rubric:       aiRubric(assignment.Rubric),
	}
	if len(req.TestResults) > 0 {
		passed, failures := summarizeTests(req.TestResults)
		custom.Tests = &ai.TestSummary{Passed: passed, Total: len(req.TestResults), Failures: failures}
	}

	start := time.Now()
	feedback, err := s.generator.Generate(ctx, custom)
	observability.GradingDuration().WithLabelValues("grade_individual").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.GradingOutcomes().WithLabelValues("grade_individual", "error").Inc()
		return ai.Feedback{}, err
	}
	observability.GradingOutcomes().WithLabelValues("grade_individual", "success").Inc()

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Str("model", feedback.Model).
		Float64("score", feedback.Score).
		Bool("fallback", feedback.Fallback).
		Msg("individual feedback generated")

	return feedback, nil
}

func (s *feedbackService) resolveAssignment(ctx context.Context, req dto.GradeIndividualRequest) (models.Assignment, error) {
	if req.Assignment != nil {
		assignment := req.Assignment.ToModel()
		if err := assignment.Validate(); err != nil {
			return models.Assignment{}, err
		}
		return assignment, nil
	}

	id := strings.TrimSpace(req.AssignmentID)
	if id == "" {
		return models.Assignment{}, ErrAssignmentRequired
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}
