package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/dto"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/events"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/observability"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/repository"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/ai"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/judge"
)

// ErrAssignmentNotFound indicates the assignment id does not resolve.
var ErrAssignmentNotFound = errors.New("assignment not found")

// CorrectnessPolicy decides whether test results bound the AI correctness score.
type CorrectnessPolicy string

const (
	// PolicyAI keeps the AI correctness score as returned.
	PolicyAI CorrectnessPolicy = "ai"
	// PolicyCapByTests caps correctness at the test pass rate share of its points.
	PolicyCapByTests CorrectnessPolicy = "cap_by_tests"
)

// ParseCorrectnessPolicy validates a configured policy name. Empty means PolicyAI.
func ParseCorrectnessPolicy(value string) (CorrectnessPolicy, error) {
	switch CorrectnessPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyAI:
		return PolicyAI, nil
	case PolicyCapByTests:
		return PolicyCapByTests, nil
	default:
		return "", fmt.Errorf("unknown correctness policy %q", value)
	}
}

// RubricEvaluator scores a submission. Implementations must not fail; see ai.ResilientEvaluator.
type RubricEvaluator interface {
	Evaluate(ctx context.Context, input ai.EvaluationInput) ai.Evaluation
}

// GradingConfig tunes the grading pipeline.
type GradingConfig struct {
	CorrectnessPolicy CorrectnessPolicy
}

// GradingService exposes the grading pipeline.
type GradingService interface {
	Execute(ctx context.Context, req dto.ExecuteRequest) (dto.ExecuteResponse, error)
	Grade(ctx context.Context, req dto.GradeRequest) (models.GradingResult, error)
	GradeSubmission(ctx context.Context, assignment models.Assignment, code string) (models.GradingResult, error)
	RunTests(ctx context.Context, req dto.RunTestsRequest) (dto.RunTestsResponse, error)
}

type gradingService struct {
	assignments repository.AssignmentRepository
	runner      TestRunner
	evaluator   RubricEvaluator
	publisher   events.Publisher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	config      GradingConfig
	now         func() time.Time
}

// NewGradingService wires the grading pipeline.
func NewGradingService(assignments repository.AssignmentRepository, runner TestRunner, evaluator RubricEvaluator, publisher events.Publisher, validate *validator.Validate, logger zerolog.Logger, cfg GradingConfig) GradingService {
	if cfg.CorrectnessPolicy == "" {
		cfg.CorrectnessPolicy = PolicyAI
	}
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}

	return &gradingService{
		assignments: assignments,
		runner:      runner,
		evaluator:   evaluator,
		publisher:   publisher,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      observability.Tracer("grading"),
		config:      cfg,
		now:         time.Now,
	}
}

func (s *gradingService) Execute(ctx context.Context, req dto.ExecuteRequest) (dto.ExecuteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ExecuteResponse{}, err
	}

	assignment, err := s.loadAssignment(ctx, req.AssignmentID)
	if err != nil {
		return dto.ExecuteResponse{}, err
	}

	language, err := judge.LookupLanguage(assignment.Language)
	if err != nil {
		return dto.ExecuteResponse{}, err
	}

	start := time.Now()
	results := s.runner.Run(ctx, assignment.VisibleTestCases(), req.Code, language.ID)
	observability.GradingDuration().WithLabelValues("execute").Observe(time.Since(start).Seconds())
	observability.GradingOutcomes().WithLabelValues("execute", "success").Inc()

	return dto.ExecuteResponse{TestResults: results}, nil
}

func (s *gradingService) Grade(ctx context.Context, req dto.GradeRequest) (models.GradingResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.GradingResult{}, err
	}

	assignment, err := s.loadAssignment(ctx, req.AssignmentID)
	if err != nil {
		return models.GradingResult{}, err
	}

	return s.GradeSubmission(ctx, assignment, req.Code)
}

// GradeSubmission runs every test case, asks the evaluator for rubric scores and
// combines them. Nothing is retried.
func (s *gradingService) GradeSubmission(parent context.Context, assignment models.Assignment, code string) (models.GradingResult, error) {
	ctx, span := s.tracer.Start(parent, "grading.grade_submission", trace.WithAttributes(
		attribute.String("assignment.id", assignment.ID),
		attribute.String("assignment.language", assignment.Language),
	))
	defer span.End()

	start := time.Now()
	language, err := judge.LookupLanguage(assignment.Language)
	if err != nil {
		observability.GradingOutcomes().WithLabelValues("grade", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.GradingResult{}, err
	}

	results := s.runner.Run(ctx, assignment.TestCases, code, language.ID)
	passed, failures := summarizeTests(results)

	rubric := aiRubric(assignment.Rubric)
	evaluation := s.evaluator.Evaluate(ctx, ai.EvaluationInput{
		Title:        assignment.Title,
		Description:  assignment.Description,
		Instructions: assignment.Instructions,
		Language:     language.Name,
		Code:         code,
		Tests:        ai.TestSummary{Passed: passed, Total: len(results), Failures: failures},
		Rubric:       rubric,
	})

	scores := s.boundScores(evaluation.Scores, assignment.Rubric, passed, len(results))
	result := models.GradingResult{
		Assignment:  assignment.Snapshot(),
		Code:        code,
		TestResults: results,
		PassedCount: passed,
		TotalCount:  len(results),
		TestScore:   testScore(passed, len(results)),
		AIEvaluation: models.AIEvaluation{
			Feedback:     evaluation.Feedback,
			RubricScores: scores,
			Suggestions:  nonNilSuggestions(evaluation.Suggestions),
			Strengths:    nonNilStrings(evaluation.Strengths),
			Model:        evaluation.Model,
			Fallback:     evaluation.Fallback,
		},
		FinalScore: scores.Total(),
		MaxScore:   float64(assignment.Rubric.Total()),
		GradedAt:   s.now().UTC(),
	}

	observability.GradingDuration().WithLabelValues("grade").Observe(time.Since(start).Seconds())
	observability.GradingOutcomes().WithLabelValues("grade", "success").Inc()
	if result.MaxScore > 0 {
		observability.GradingScoreRatio().Observe(result.FinalScore / result.MaxScore)
	}
	span.SetAttributes(
		attribute.Int("tests.passed", passed),
		attribute.Int("tests.total", len(results)),
		attribute.Float64("score.final", result.FinalScore),
		attribute.Bool("ai.fallback", evaluation.Fallback),
	)

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Int("passed", passed).
		Int("total", len(results)).
		Float64("final_score", result.FinalScore).
		Bool("fallback", evaluation.Fallback).
		Msg("submission graded")

	if err := s.publisher.Publish(ctx, events.SubjectGradingCompleted, events.GradingCompletedEvent{
		AssignmentID: assignment.ID,
		PassedCount:  passed,
		TotalCount:   len(results),
		FinalScore:   result.FinalScore,
		MaxScore:     result.MaxScore,
		Fallback:     evaluation.Fallback,
		GradedAt:     result.GradedAt,
	}); err != nil {
		s.logger.Warn().Err(err).Str("assignment_id", assignment.ID).Msg("failed to publish grading event")
	}

	return result, nil
}

func (s *gradingService) RunTests(ctx context.Context, req dto.RunTestsRequest) (dto.RunTestsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.RunTestsResponse{}, err
	}

	language, err := judge.LookupLanguage(req.Language)
	if err != nil {
		return dto.RunTestsResponse{}, err
	}

	testCases := req.Cases()
	for i := range testCases {
		if testCases[i].ID == "" {
			testCases[i].ID = fmt.Sprintf("%d", i+1)
		}
	}

	start := time.Now()
	results := s.runner.Run(ctx, testCases, req.Code, language.ID)
	observability.GradingDuration().WithLabelValues("run_tests").Observe(time.Since(start).Seconds())
	observability.GradingOutcomes().WithLabelValues("run_tests", "success").Inc()

	return dto.RunTestsResponse{
		TestResults: results,
		Summary:     dto.NewTestSummary(results),
	}, nil
}

func (s *gradingService) loadAssignment(ctx context.Context, id string) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Assignment{}, fmt.Errorf("%w: %s", ErrAssignmentNotFound, id)
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

// boundScores clamps every category to its rubric points and applies the correctness policy.
func (s *gradingService) boundScores(scores ai.Scores, rubric models.Rubric, passed, total int) models.RubricScores {
	bounded := models.RubricScores{
		Correctness: clampPoints(scores.Correctness, rubric.Correctness.Points),
		CodeQuality: clampPoints(scores.CodeQuality, rubric.CodeQuality.Points),
		Efficiency:  clampPoints(scores.Efficiency, rubric.Efficiency.Points),
		EdgeCases:   clampPoints(scores.EdgeCases, rubric.EdgeCases.Points),
	}

	if s.config.CorrectnessPolicy == PolicyCapByTests {
		rate := 0.0
		if total > 0 {
			rate = float64(passed) / float64(total)
		}
		limit := math.Round(rate * float64(rubric.Correctness.Points))
		if bounded.Correctness > limit {
			bounded.Correctness = limit
		}
	}

	return bounded
}

func clampPoints(value float64, points int) float64 {
	max := float64(points)
	if max < 0 {
		max = 0
	}
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	if value > max {
		return max
	}
	return value
}

func testScore(passed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(passed) / float64(total)))
}

func aiRubric(rubric models.Rubric) ai.Rubric {
	return ai.Rubric{
		Correctness: ai.Criterion{MaxPoints: float64(rubric.Correctness.Points), Description: rubric.Correctness.Description},
		CodeQuality: ai.Criterion{MaxPoints: float64(rubric.CodeQuality.Points), Description: rubric.CodeQuality.Description},
		Efficiency:  ai.Criterion{MaxPoints: float64(rubric.Efficiency.Points), Description: rubric.Efficiency.Description},
		EdgeCases:   ai.Criterion{MaxPoints: float64(rubric.EdgeCases.Points), Description: rubric.EdgeCases.Description},
	}
}

func nonNilSuggestions(values []ai.Suggestion) []ai.Suggestion {
	if values == nil {
		return []ai.Suggestion{}
	}
	return values
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
