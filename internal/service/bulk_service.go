package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/dto"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/events"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/observability"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/repository"
)

// ErrBatchNotFound indicates the batch id is unknown or expired.
var ErrBatchNotFound = errors.New("bulk batch not found")

var exportHeader = []string{
	"student_id", "student_name", "file_name", "assignment_id",
	"score", "tests_passed",
	"correctness", "code_quality", "efficiency", "edge_cases",
	"feedback",
}

// BulkService grades batches of submissions one item at a time.
type BulkService interface {
	Start(ctx context.Context, req dto.BulkGradeRequest) (models.BulkBatch, error)
	Process(ctx context.Context, batch models.BulkBatch) models.BulkBatch
	Get(ctx context.Context, id string) (models.BulkBatch, error)
	Export(ctx context.Context, id string) ([]byte, error)
	Wait()
}

type bulkService struct {
	assignments repository.AssignmentRepository
	grader      GradingService
	store       repository.BulkProgressStore
	publisher   events.Publisher
	validator   *validator.Validate
	logger      zerolog.Logger
	running     sync.WaitGroup
	now         func() time.Time
}

// NewBulkService constructs the bulk runner.
func NewBulkService(assignments repository.AssignmentRepository, grader GradingService, store repository.BulkProgressStore, publisher events.Publisher, validate *validator.Validate, logger zerolog.Logger) BulkService {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}

	return &bulkService{
		assignments: assignments,
		grader:      grader,
		store:       store,
		publisher:   publisher,
		validator:   validate,
		logger:      logger.With().Str("component", "bulk_service").Logger(),
		now:         time.Now,
	}
}

// Start stores a pending batch and processes it in the background. The
// request context is not used for processing since it ends with the request.
func (s *bulkService) Start(ctx context.Context, req dto.BulkGradeRequest) (models.BulkBatch, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.BulkBatch{}, err
	}

	now := s.now().UTC()
	batch := models.BulkBatch{
		ID:        uuid.NewString(),
		Items:     make([]models.BulkItem, 0, len(req.Items)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, item := range req.Items {
		batch.Items = append(batch.Items, models.BulkItem{
			Index:        i,
			StudentID:    strings.TrimSpace(item.StudentID),
			StudentName:  strings.TrimSpace(item.StudentName),
			FileName:     strings.TrimSpace(item.FileName),
			AssignmentID: strings.TrimSpace(item.AssignmentID),
			Code:         item.Code,
			Status:       models.BulkStatusPending,
		})
	}

	if err := s.store.Save(ctx, batch); err != nil {
		return models.BulkBatch{}, fmt.Errorf("save bulk batch: %w", err)
	}

	work := batch
	work.Items = append([]models.BulkItem(nil), batch.Items...)

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		s.Process(context.Background(), work)
	}()

	s.logger.Info().Str("batch_id", batch.ID).Int("items", len(batch.Items)).Msg("bulk batch started")
	return batch, nil
}

// Process grades items strictly in order. Every transition is stored and
// published before the next item starts.
func (s *bulkService) Process(ctx context.Context, batch models.BulkBatch) models.BulkBatch {
	observability.BulkBatchesRunning().Inc()
	defer observability.BulkBatchesRunning().Dec()

	logger := s.logger.With().Str("batch_id", batch.ID).Logger()
	for i := range batch.Items {
		item := &batch.Items[i]
		if item.Status.Terminal() {
			continue
		}

		if err := item.Advance(models.BulkStatusProcessing); err != nil {
			logger.Error().Err(err).Int("index", item.Index).Msg("bulk item cannot start")
			continue
		}
		s.record(ctx, &batch, item)

		result, err := s.gradeItem(ctx, *item)
		if err != nil {
			item.Error = err.Error()
			_ = item.Advance(models.BulkStatusFailed)
			logger.Warn().Err(err).Int("index", item.Index).Str("student_id", item.StudentID).Msg("bulk item failed")
		} else {
			item.Result = &result
			_ = item.Advance(models.BulkStatusCompleted)
		}
		observability.BulkItems().WithLabelValues(string(item.Status)).Inc()
		s.record(ctx, &batch, item)
	}

	counts := batch.Counts()
	logger.Info().
		Int("completed", counts[models.BulkStatusCompleted]).
		Int("failed", counts[models.BulkStatusFailed]).
		Msg("bulk batch finished")
	return batch
}

func (s *bulkService) gradeItem(ctx context.Context, item models.BulkItem) (models.GradingResult, error) {
	assignment, err := s.assignments.GetByID(ctx, item.AssignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.GradingResult{}, fmt.Errorf("%w: %s", ErrAssignmentNotFound, item.AssignmentID)
		}
		return models.GradingResult{}, err
	}
	return s.grader.GradeSubmission(ctx, assignment, item.Code)
}

func (s *bulkService) record(ctx context.Context, batch *models.BulkBatch, item *models.BulkItem) {
	batch.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, *batch); err != nil {
		s.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to save bulk progress")
	}

	event := events.BulkItemEvent{
		BatchID:      batch.ID,
		Index:        item.Index,
		StudentID:    item.StudentID,
		AssignmentID: item.AssignmentID,
		Status:       string(item.Status),
		Error:        item.Error,
		Progress:     batch.Progress(),
		OccurredAt:   batch.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, events.SubjectBulkItem, event); err != nil {
		s.logger.Warn().Err(err).Str("batch_id", batch.ID).Msg("failed to publish bulk item event")
	}
}

func (s *bulkService) Get(ctx context.Context, id string) (models.BulkBatch, error) {
	batch, err := s.store.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.BulkBatch{}, ErrBatchNotFound
		}
		return models.BulkBatch{}, err
	}
	return batch, nil
}

// Export renders one CSV row per completed item.
func (s *bulkService) Export(ctx context.Context, id string) ([]byte, error) {
	batch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	if err := writer.Write(exportHeader); err != nil {
		return nil, err
	}

	for _, item := range batch.Items {
		if item.Status != models.BulkStatusCompleted || item.Result == nil {
			continue
		}
		result := item.Result
		scores := result.AIEvaluation.RubricScores
		row := []string{
			item.StudentID,
			item.StudentName,
			item.FileName,
			item.AssignmentID,
			formatScore(result.FinalScore) + "/" + formatScore(result.MaxScore),
			strconv.Itoa(result.PassedCount) + "/" + strconv.Itoa(result.TotalCount),
			formatScore(scores.Correctness),
			formatScore(scores.CodeQuality),
			formatScore(scores.Efficiency),
			formatScore(scores.EdgeCases),
			flattenLines(result.AIEvaluation.Feedback),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Wait blocks until every background batch has finished.
func (s *bulkService) Wait() {
	s.running.Wait()
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func flattenLines(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
