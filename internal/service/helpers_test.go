package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/repository"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/ai"
	"github.com/UVU-Autograder/autograder-demo-sub000/pkg/judge"
)

type fakeExecutor struct {
	mu    sync.Mutex
	calls []judge.Request
	run   func(req judge.Request) (judge.RunResult, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, req judge.Request) (judge.RunResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.run(req)
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// printsConstant behaves like a program that always prints output.
func printsConstant(output string) *fakeExecutor {
	return &fakeExecutor{run: func(req judge.Request) (judge.RunResult, error) {
		status := judge.Status{ID: judge.StatusAccepted, Description: "Accepted"}
		if req.ExpectedOutput != "" && strings.TrimSpace(req.ExpectedOutput) != strings.TrimSpace(output) {
			status = judge.Status{ID: judge.StatusWrongAnswer, Description: "Wrong Answer"}
		}
		return judge.RunResult{Stdout: output + "\n", Status: status, Time: "0.012", Memory: 3200}, nil
	}}
}

type stubRubricEvaluator struct {
	mu     sync.Mutex
	result ai.Evaluation
	inputs []ai.EvaluationInput
}

func (s *stubRubricEvaluator) Evaluate(ctx context.Context, input ai.EvaluationInput) ai.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, input)
	return s.result
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []interface{}
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, event)
	return nil
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func testRubric() models.Rubric {
	return models.Rubric{
		Correctness: models.RubricCategory{Points: 40},
		CodeQuality: models.RubricCategory{Points: 25},
		Efficiency:  models.RubricCategory{Points: 20},
		EdgeCases:   models.RubricCategory{Points: 15},
	}
}

// answerAssignment has two visible cases and one hidden case; only the first and the hidden one expect 42.
func answerAssignment() models.Assignment {
	return models.Assignment{
		ID:       "answer",
		Title:    "The answer",
		Language: "python",
		TestCases: []models.TestCase{
			{ID: "1", Input: "", ExpectedOutput: "42"},
			{ID: "2", Input: "x", ExpectedOutput: "43"},
			{ID: "3", Input: "y", ExpectedOutput: "42 ", Hidden: true},
		},
		Rubric:   testRubric(),
		MaxScore: 100,
	}
}

func seededRepo(t *testing.T, assignments ...models.Assignment) repository.AssignmentRepository {
	t.Helper()
	repo := repository.NewMemoryAssignmentRepository()
	for i := range assignments {
		require.NoError(t, repo.Create(context.Background(), &assignments[i]))
	}
	return repo
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
