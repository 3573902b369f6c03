package ai

import (
	"fmt"
	"strings"
)

func evaluatorSystemPrompt() string {
	return "You are an experienced programming instructor grading a student's submission. " +
		"Respond only with a JSON object. Score each rubric category between 0 and its maximum points."
}

func buildEvaluationPrompt(input EvaluationInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Assignment\n")
	builder.WriteString(input.Title)
	if input.Description != "" {
		builder.WriteString("\n\n## Description\n")
		builder.WriteString(input.Description)
	}
	if input.Instructions != "" {
		builder.WriteString("\n\n## Instructions\n")
		builder.WriteString(input.Instructions)
	}
	builder.WriteString("\n\n## Language\n")
	builder.WriteString(input.Language)
	builder.WriteString("\n\n## Submission\n```")
	builder.WriteString(input.Language)
	builder.WriteString("\n")
	builder.WriteString(input.Code)
	builder.WriteString("\n```\n\n## Test Results\n")
	builder.WriteString(input.Tests.String())
	builder.WriteString("\n\n## Rubric\n")
	writeRubric(&builder, input.Rubric)
	builder.WriteString("\n## Response Format\n")
	builder.WriteString(`Return JSON with exactly these fields:
{
  "feedback": "overall feedback for the student",
  "rubricScores": {"correctness": number, "codeQuality": number, "efficiency": number, "edgeCases": number},
  "suggestions": [{"title": "short title", "description": "what to change", "code": "optional example"}],
  "strengths": ["what the student did well"]
}`)
	return builder.String()
}

func buildCustomPrompt(req CustomRequest) string {
	builder := strings.Builder{}
	builder.WriteString("# Instructor Instructions\n")
	builder.WriteString(strings.TrimSpace(req.Prompt))
	builder.WriteString("\n\n# Assignment\n")
	builder.WriteString(req.Title)
	if req.Description != "" {
		builder.WriteString("\n\n## Description\n")
		builder.WriteString(req.Description)
	}
	if req.Instructions != "" {
		builder.WriteString("\n\n## Instructions\n")
		builder.WriteString(req.Instructions)
	}
	builder.WriteString("\n\n## Submission (")
	builder.WriteString(req.Language)
	builder.WriteString(")\n```\n")
	builder.WriteString(req.Code)
	builder.WriteString("\n```\n")
	if req.Tests != nil {
		builder.WriteString("\n## Test Results\n")
		builder.WriteString(req.Tests.String())
		builder.WriteString("\n")
	}
	if req.Rubric.Total() > 0 {
		builder.WriteString("\n## Rubric\n")
		writeRubric(&builder, req.Rubric)
	}
	builder.WriteString("\n## Response Format\n")
	builder.WriteString(`Return JSON with these fields:
{
  "score": number from 0 to 100,
  "grade": "letter grade A-F",
  "summary": "overall feedback",
  "strengths": ["..."],
  "improvements": ["..."],
  "suggestions": [{"title": "...", "description": "...", "code": "optional"}],
  "rubricScores": {"correctness": number, "codeQuality": number, "efficiency": number, "edgeCases": number}
}`)
	return builder.String()
}

func writeRubric(builder *strings.Builder, rubric Rubric) {
	for _, entry := range []struct {
		key       string
		criterion Criterion
	}{
		{"correctness", rubric.Correctness},
		{"codeQuality", rubric.CodeQuality},
		{"efficiency", rubric.Efficiency},
		{"edgeCases", rubric.EdgeCases},
	} {
		fmt.Fprintf(builder, "- %s: up to %s points", entry.key, formatPoints(entry.criterion.MaxPoints))
		if entry.criterion.Description != "" {
			builder.WriteString(" (")
			builder.WriteString(entry.criterion.Description)
			builder.WriteString(")")
		}
		builder.WriteString("\n")
	}
}

func formatPoints(points float64) string {
	if points == float64(int64(points)) {
		return fmt.Sprintf("%d", int64(points))
	}
	return fmt.Sprintf("%.2f", points)
}
