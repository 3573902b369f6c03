package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/config"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/dto"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
)

func newAssignmentPayload(id string) dto.AssignmentPayload {
	return dto.AssignmentPayload{
		ID:       id,
		Title:    "Reverse a string",
		Language: "JavaScript",
		TestCases: []dto.TestCasePayload{
			{Input: "abc", ExpectedOutput: "cba"},
			{Input: "", ExpectedOutput: "", Hidden: true},
		},
		Rubric: models.Rubric{
			Correctness: models.RubricCategory{Points: 50},
			CodeQuality: models.RubricCategory{Points: 20},
			Efficiency:  models.RubricCategory{Points: 15},
			EdgeCases:   models.RubricCategory{Points: 15},
		},
	}
}

func TestAssignmentCRUD(t *testing.T) {
	env := setupApp(t, config.Config{}, nil)

	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/assignments", newAssignmentPayload("reverse"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created envelope[models.Assignment]
	decodeResponse(t, resp, &created)
	require.Equal(t, "reverse", created.Data.ID)
	require.Equal(t, "javascript", created.Data.Language)
	require.Equal(t, 100, created.Data.MaxScore)
	require.Len(t, created.Data.TestCases, 2)

	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/assignments", newAssignmentPayload("reverse"))
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/assignments/reverse", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var fetched envelope[models.Assignment]
	decodeResponse(t, resp, &fetched)
	require.Len(t, fetched.Data.TestCases, 1, "hidden test cases are not exposed")

	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/assignments", nil)
	var listed envelope[[]models.Assignment]
	decodeResponse(t, resp, &listed)
	require.Len(t, listed.Data, 2)

	update := newAssignmentPayload("")
	update.Title = "Reverse words"
	resp = doJSON(t, env.app, http.MethodPut, "/api/v1/assignments/reverse", update)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var updated envelope[models.Assignment]
	decodeResponse(t, resp, &updated)
	require.Equal(t, "Reverse words", updated.Data.Title)

	resp = doJSON(t, env.app, http.MethodDelete, "/api/v1/assignments/reverse", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodGet, "/api/v1/assignments/reverse", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPut, "/api/v1/assignments/reverse", update)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAssignmentValidation(t *testing.T) {
	env := setupApp(t, config.Config{}, nil)

	unsupported := newAssignmentPayload("")
	unsupported.Language = "cobol"
	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/assignments", unsupported)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	badRubric := newAssignmentPayload("")
	badRubric.MaxScore = 120
	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/assignments", badRubric)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	missingTitle := newAssignmentPayload("")
	missingTitle.Title = ""
	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/assignments", missingTitle)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdatedAssignmentStaysGradable(t *testing.T) {
	env := setupApp(t, config.Config{}, nil)

	update := dto.AssignmentPayload{
		Title:    "The answer, revised",
		Language: "python",
		TestCases: []dto.TestCasePayload{
			{ID: "1", ExpectedOutput: "42"},
			{ID: "2", Input: "y", ExpectedOutput: "42", Hidden: true},
		},
		Rubric: answerAssignment().Rubric,
	}
	resp := doJSON(t, env.app, http.MethodPut, "/api/v1/assignments/answer", update)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	for _, id := range []string{"QQQQQQ", "zzzzzz", "other1", "abcdef", "missing"} {
		for i := 0; i < 4; i++ {
			resp = doJSON(t, env.app, http.MethodGet, "/api/v1/assignments/"+id, nil)
			require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
			resp = doJSON(t, env.app, http.MethodPut, "/api/v1/assignments/"+id, update)
			require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		}
	}

	stored, err := env.repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "answer", stored[0].ID)

	resp = doJSON(t, env.app, http.MethodPost, "/api/v1/grade", dto.GradeRequest{AssignmentID: "answer", Code: "print(42)"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var graded envelope[models.GradingResult]
	decodeResponse(t, resp, &graded)
	require.Equal(t, "The answer, revised", graded.Data.Assignment.Title)
	require.Equal(t, 2, graded.Data.PassedCount)
}
