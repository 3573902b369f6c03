package assignmentfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sumTwo = `
title = "Sum two numbers"
language = "Python"
instructions = "Read two integers and print their sum."

[rubric.correctness]
points = 50
description = "Produces the right sum"

[rubric.code_quality]
points = 20

[rubric.efficiency]
points = 15

[rubric.edge_cases]
points = 15

[[tests]]
input = "1 2"
expected_output = "3"

[[tests]]
id = "negatives"
input = "-4 1"
expected_output = "-3"
hidden = true
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadUsesFileNameAsDefaultID(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sum-two.toml", sumTwo)

	assignment, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "sum-two", assignment.ID)
	require.Equal(t, "python", assignment.Language)
	require.Equal(t, 100, assignment.MaxScore)
	require.Equal(t, 50, assignment.Rubric.Correctness.Points)
	require.Equal(t, "Produces the right sum", assignment.Rubric.Correctness.Description)
	require.Len(t, assignment.TestCases, 2)
	require.Equal(t, "1", assignment.TestCases[0].ID)
	require.Equal(t, "negatives", assignment.TestCases[1].ID)
	require.True(t, assignment.TestCases[1].Hidden)
	require.NoError(t, assignment.Validate())
}

func TestParseRequiresTitleAndLanguage(t *testing.T) {
	_, err := Parse([]byte(`id = "x"`), "")
	require.Error(t, err)

	_, err = Parse([]byte(`title = "t"
language = "c"`), "")
	require.Error(t, err)

	_, err = Parse([]byte(`title = [`), "x")
	require.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.toml", `title = "B"
language = "c"`)
	writeFile(t, dir, "a.toml", `title = "A"
language = "java"`)
	writeFile(t, dir, "notes.txt", "ignored")

	assignments, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.Equal(t, "a", assignments[0].ID)
	require.Equal(t, "b", assignments[1].ID)
}

func TestLoadDirRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.toml", `id = "same"
title = "One"
language = "c"`)
	writeFile(t, dir, "two.toml", `id = "same"
title = "Two"
language = "c"`)

	_, err := LoadDir(dir)
	require.ErrorContains(t, err, `"same"`)
}
