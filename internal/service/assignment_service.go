package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/dto"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/repository"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/judge"
)

// ErrAssignmentExists indicates an assignment with the same id is already stored.
var ErrAssignmentExists = errors.New("assignment already exists")

// AssignmentService manages assignment definitions.
type AssignmentService interface {
	List(ctx context.Context) ([]models.Assignment, error)
	Get(ctx context.Context, id string) (models.Assignment, error)
	Create(ctx context.Context, payload dto.AssignmentPayload) (models.Assignment, error)
	Update(ctx context.Context, id string, payload dto.AssignmentPayload) (models.Assignment, error)
	Delete(ctx context.Context, id string) error
	Upsert(ctx context.Context, assignment models.Assignment) (models.Assignment, error)
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssignmentService creates a new assignment service instance.
func NewAssignmentService(repo repository.AssignmentRepository, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) List(ctx context.Context) ([]models.Assignment, error) {
	return s.repo.GetAll(ctx)
}

func (s *assignmentService) Get(ctx context.Context, id string) (models.Assignment, error) {
	assignment, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return models.Assignment{}, translateRepoError(err)
	}
	return assignment, nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentPayload) (models.Assignment, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Assignment{}, err
	}

	assignment := payload.ToModel()
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if err := checkAssignment(assignment); err != nil {
		return models.Assignment{}, err
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return models.Assignment{}, translateRepoError(err)
	}

	s.logger.Info().Str("assignment_id", assignment.ID).Msg("assignment created")
	return assignment, nil
}

func (s *assignmentService) Update(ctx context.Context, id string, payload dto.AssignmentPayload) (models.Assignment, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Assignment{}, err
	}

	assignment := payload.ToModel()
	assignment.ID = strings.TrimSpace(id)
	if err := checkAssignment(assignment); err != nil {
		return models.Assignment{}, err
	}

	if err := s.repo.Update(ctx, &assignment); err != nil {
		return models.Assignment{}, translateRepoError(err)
	}

	s.logger.Info().Str("assignment_id", assignment.ID).Msg("assignment updated")
	return assignment, nil
}

func (s *assignmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		return translateRepoError(err)
	}
	s.logger.Info().Str("assignment_id", id).Msg("assignment deleted")
	return nil
}

// Upsert creates the assignment or replaces the stored one with the same id.
func (s *assignmentService) Upsert(ctx context.Context, assignment models.Assignment) (models.Assignment, error) {
	assignment.Normalize()
	if strings.TrimSpace(assignment.ID) == "" {
		return models.Assignment{}, errors.New("assignment id is required")
	}
	if err := checkAssignment(assignment); err != nil {
		return models.Assignment{}, err
	}

	err := s.repo.Update(ctx, &assignment)
	if errors.Is(err, repository.ErrNotFound) {
		err = s.repo.Create(ctx, &assignment)
	}
	if err != nil {
		return models.Assignment{}, translateRepoError(err)
	}
	return assignment, nil
}

func checkAssignment(assignment models.Assignment) error {
	if _, err := judge.LookupLanguage(assignment.Language); err != nil {
		return err
	}
	return assignment.Validate()
}

func translateRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrAssignmentNotFound
	case errors.Is(err, repository.ErrAlreadyExists):
		return ErrAssignmentExists
	default:
		return err
	}
}
