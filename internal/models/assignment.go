package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ErrInvalidRubric indicates rubric points are negative or do not add up to the max score.
var ErrInvalidRubric = errors.New("invalid rubric")

// Assignment is an authored coding problem. The grading pipeline only reads it.
type Assignment struct {
	ID           string                        `gorm:"primaryKey;size:64" json:"id"`
	Title        string                        `gorm:"size:255;not null" json:"title"`
	Language     string                        `gorm:"size:32;not null" json:"language"`
	Description  string                        `gorm:"type:text" json:"description"`
	Instructions string                        `gorm:"type:text" json:"instructions"`
	StarterCode  string                        `gorm:"type:text" json:"starterCode"`
	TestCases    datatypes.JSONSlice[TestCase] `json:"testCases"`
	Rubric       Rubric                        `json:"rubric"`
	MaxScore     int                           `gorm:"not null" json:"maxScore"`
	CreatedAt    time.Time                     `json:"createdAt"`
	UpdatedAt    time.Time                     `json:"updatedAt"`
}

// TestCase is one stdin / expected stdout pair. Hidden cases only run when grading.
type TestCase struct {
	ID             string `json:"id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	Hidden         bool   `json:"hidden"`
}

// RubricCategory caps the points one category can award.
type RubricCategory struct {
	Points      int    `json:"points"`
	Description string `json:"description,omitempty"`
}

// Rubric is stored as a single JSON column.
type Rubric struct {
	Correctness RubricCategory `json:"correctness"`
	CodeQuality RubricCategory `json:"codeQuality"`
	Efficiency  RubricCategory `json:"efficiency"`
	EdgeCases   RubricCategory `json:"edgeCases"`
}

// Total sums the category points.
func (r Rubric) Total() int {
	return r.Correctness.Points + r.CodeQuality.Points + r.Efficiency.Points + r.EdgeCases.Points
}

// GormDataType stores the rubric as json.
func (Rubric) GormDataType() string {
	return "json"
}

// Value implements driver.Valuer.
func (r Rubric) Value() (driver.Value, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

// Scan implements sql.Scanner.
func (r *Rubric) Scan(value interface{}) error {
	var payload []byte
	switch v := value.(type) {
	case nil:
		*r = Rubric{}
		return nil
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		return fmt.Errorf("unsupported rubric column type %T", value)
	}
	if len(payload) == 0 {
		*r = Rubric{}
		return nil
	}
	return json.Unmarshal(payload, r)
}

// Normalize fills MaxScore from the rubric when it was left empty.
func (a *Assignment) Normalize() {
	if a.MaxScore == 0 {
		a.MaxScore = a.Rubric.Total()
	}
	if a.TestCases == nil {
		a.TestCases = datatypes.JSONSlice[TestCase]{}
	}
	for i := range a.TestCases {
		if a.TestCases[i].ID == "" {
			a.TestCases[i].ID = fmt.Sprintf("%d", i+1)
		}
	}
}

// Validate checks the rubric invariants: no negative category and MaxScore equals the point sum.
func (a Assignment) Validate() error {
	for name, category := range map[string]RubricCategory{
		"correctness": a.Rubric.Correctness,
		"codeQuality": a.Rubric.CodeQuality,
		"efficiency":  a.Rubric.Efficiency,
		"edgeCases":   a.Rubric.EdgeCases,
	} {
		if category.Points < 0 {
			return fmt.Errorf("%w: %s points must not be negative", ErrInvalidRubric, name)
		}
	}
	if a.MaxScore != a.Rubric.Total() {
		return fmt.Errorf("%w: max score %d does not match rubric total %d", ErrInvalidRubric, a.MaxScore, a.Rubric.Total())
	}
	return nil
}

// VisibleTestCases returns the cases students may run while practising.
func (a Assignment) VisibleTestCases() []TestCase {
	visible := make([]TestCase, 0, len(a.TestCases))
	for _, tc := range a.TestCases {
		if !tc.Hidden {
			visible = append(visible, tc)
		}
	}
	return visible
}

// Snapshot captures the assignment fields a grading result refers to.
func (a Assignment) Snapshot() AssignmentSnapshot {
	return AssignmentSnapshot{
		ID:       a.ID,
		Title:    a.Title,
		Language: a.Language,
		Rubric:   a.Rubric,
		MaxScore: a.MaxScore,
	}
}
