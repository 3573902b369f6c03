package assignmentfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
)

// fileTest is a [[tests]] entry.
type fileTest struct {
	ID             string `toml:"id"`
	Input          string `toml:"input"`
	ExpectedOutput string `toml:"expected_output"`
	Hidden         bool   `toml:"hidden"`
}

type fileCategory struct {
	Points      int    `toml:"points"`
	Description string `toml:"description"`
}

type fileRubric struct {
	Correctness fileCategory `toml:"correctness"`
	CodeQuality fileCategory `toml:"code_quality"`
	Efficiency  fileCategory `toml:"efficiency"`
	EdgeCases   fileCategory `toml:"edge_cases"`
}

type fileRoot struct {
	ID           string     `toml:"id"`
	Title        string     `toml:"title"`
	Language     string     `toml:"language"`
	Description  string     `toml:"description"`
	Instructions string     `toml:"instructions"`
	StarterCode  string     `toml:"starter_code"`
	MaxScore     int        `toml:"max_score"`
	Rubric       fileRubric `toml:"rubric"`
	Tests        []fileTest `toml:"tests"`
}

// Parse decodes one assignment definition. When the file has no id,
// fallbackID is used.
func Parse(data []byte, fallbackID string) (models.Assignment, error) {
	var root fileRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return models.Assignment{}, fmt.Errorf("failed to parse TOML: %w", err)
	}

	id := strings.TrimSpace(root.ID)
	if id == "" {
		id = strings.TrimSpace(fallbackID)
	}
	if id == "" {
		return models.Assignment{}, fmt.Errorf("assignment id is missing")
	}
	if strings.TrimSpace(root.Title) == "" || strings.TrimSpace(root.Language) == "" {
		return models.Assignment{}, fmt.Errorf("assignment %q requires title and language", id)
	}

	tests := make([]models.TestCase, 0, len(root.Tests))
	for _, t := range root.Tests {
		tests = append(tests, models.TestCase{
			ID:             strings.TrimSpace(t.ID),
			Input:          t.Input,
			ExpectedOutput: t.ExpectedOutput,
			Hidden:         t.Hidden,
		})
	}

	assignment := models.Assignment{
		ID:           id,
		Title:        strings.TrimSpace(root.Title),
		Language:     strings.ToLower(strings.TrimSpace(root.Language)),
		Description:  root.Description,
		Instructions: root.Instructions,
		StarterCode:  root.StarterCode,
		TestCases:    tests,
		Rubric: models.Rubric{
			Correctness: models.RubricCategory(root.Rubric.Correctness),
			CodeQuality: models.RubricCategory(root.Rubric.CodeQuality),
			Efficiency:  models.RubricCategory(root.Rubric.Efficiency),
			EdgeCases:   models.RubricCategory(root.Rubric.EdgeCases),
		},
		MaxScore: root.MaxScore,
	}
	assignment.Normalize()

	return assignment, nil
}

// Load reads an assignment file. The file name without extension is the default id.
func Load(path string) (models.Assignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Assignment{}, fmt.Errorf("failed to read assignment file: %w", err)
	}

	assignment, err := Parse(data, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if err != nil {
		return models.Assignment{}, fmt.Errorf("%s: %w", path, err)
	}
	return assignment, nil
}

// LoadDir loads every *.toml file in dir, ordered by file name.
func LoadDir(dir string) ([]models.Assignment, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	assignments := make([]models.Assignment, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		assignment, err := Load(path)
		if err != nil {
			return nil, err
		}
		if previous, ok := seen[assignment.ID]; ok {
			return nil, fmt.Errorf("assignment id %q defined in both %s and %s", assignment.ID, previous, path)
		}
		seen[assignment.ID] = path
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}
