package repository

import (
	"context"
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
)

type memoryAssignmentRepository struct {
	items *xsync.MapOf[string, models.Assignment]
	now   func() time.Time
}

// NewMemoryAssignmentRepository returns an in-process repository used when no database is configured.
func NewMemoryAssignmentRepository() AssignmentRepository {
	return &memoryAssignmentRepository{
		items: xsync.NewMapOf[string, models.Assignment](),
		now:   time.Now,
	}
}

func (r *memoryAssignmentRepository) GetByID(_ context.Context, id string) (models.Assignment, error) {
	assignment, ok := r.items.Load(id)
	if !ok {
		return models.Assignment{}, ErrNotFound
	}
	return cloneAssignment(assignment), nil
}

func (r *memoryAssignmentRepository) GetAll(_ context.Context) ([]models.Assignment, error) {
	assignments := make([]models.Assignment, 0, r.items.Size())
	r.items.Range(func(_ string, assignment models.Assignment) bool {
		assignments = append(assignments, cloneAssignment(assignment))
		return true
	})

	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].CreatedAt.Equal(assignments[j].CreatedAt) {
			return assignments[i].ID < assignments[j].ID
		}
		return assignments[i].CreatedAt.Before(assignments[j].CreatedAt)
	})
	return assignments, nil
}

func (r *memoryAssignmentRepository) Create(_ context.Context, assignment *models.Assignment) error {
	now := r.now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	if _, loaded := r.items.LoadOrStore(assignment.ID, cloneAssignment(*assignment)); loaded {
		return ErrAlreadyExists
	}
	return nil
}

func (r *memoryAssignmentRepository) Update(_ context.Context, assignment *models.Assignment) error {
	found := false
	r.items.Compute(assignment.ID, func(old models.Assignment, loaded bool) (models.Assignment, bool) {
		if !loaded {
			return old, true
		}
		found = true
		assignment.CreatedAt = old.CreatedAt
		assignment.UpdatedAt = r.now().UTC()
		return cloneAssignment(*assignment), false
	})
	if !found {
		return ErrNotFound
	}
	return nil
}

func (r *memoryAssignmentRepository) Delete(_ context.Context, id string) error {
	if _, loaded := r.items.LoadAndDelete(id); !loaded {
		return ErrNotFound
	}
	return nil
}

func cloneAssignment(assignment models.Assignment) models.Assignment {
	if assignment.TestCases != nil {
		assignment.TestCases = append(assignment.TestCases[:0:0], assignment.TestCases...)
	}
	return assignment
}
