package dto

import (
	"strings"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
)

// AssignmentPayload creates or updates an assignment, or describes one inline.
type AssignmentPayload struct {
	ID           string            `json:"id" validate:"omitempty,max=64"`
	Title        string            `json:"title" validate:"required,max=255"`
	Language     string            `json:"language" validate:"required"`
	Description  string            `json:"description"`
	Instructions string            `json:"instructions"`
	StarterCode  string            `json:"starterCode"`
	TestCases    []TestCasePayload `json:"testCases"`
	Rubric       models.Rubric     `json:"rubric"`
	MaxScore     int               `json:"maxScore" validate:"gte=0"`
}

// ToModel converts the payload. MaxScore defaults to the rubric total.
func (p AssignmentPayload) ToModel() models.Assignment {
	assignment := models.Assignment{
		ID:           strings.TrimSpace(p.ID),
		Title:        strings.TrimSpace(p.Title),
		Language:     strings.ToLower(strings.TrimSpace(p.Language)),
		Description:  p.Description,
		Instructions: p.Instructions,
		StarterCode:  p.StarterCode,
		TestCases:    toTestCases(p.TestCases),
		Rubric:       p.Rubric,
		MaxScore:     p.MaxScore,
	}
	assignment.Normalize()
	return assignment
}
