package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidResponse indicates the model output could not be mapped to a result.
var ErrInvalidResponse = errors.New("invalid model response")

const evaluationSchemaJSON = `{
  "type": "object",
  "properties": {
    "feedback": {"type": ["string", "null"]},
    "rubricScores": {
      "type": ["object", "null"],
      "additionalProperties": {"type": ["number", "string", "null"]}
    },
    "suggestions": {
      "type": ["array", "null"],
      "items": {
        "anyOf": [
          {"type": "string"},
          {
            "type": "object",
            "properties": {
              "title": {"type": ["string", "null"]},
              "description": {"type": ["string", "null"]},
              "code": {"type": ["string", "null"]}
            }
          }
        ]
      }
    },
    "strengths": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

const feedbackSchemaJSON = `{"type": "object"}`

var (
	evaluationSchema = jsonschema.MustCompileString("evaluation.schema.json", evaluationSchemaJSON)
	feedbackSchema   = jsonschema.MustCompileString("feedback.schema.json", feedbackSchemaJSON)
)

// parseEvaluation maps the model's JSON content onto an Evaluation. Scores are
// taken per category, defaulting to 0, and clamped to the rubric caps.
func parseEvaluation(content string, rubric Rubric) (Evaluation, error) {
	doc, err := decodeDocument(content, evaluationSchema)
	if err != nil {
		return Evaluation{}, err
	}

	scores := asObject(doc["rubricScores"])
	return Evaluation{
		Feedback: strings.TrimSpace(asString(doc["feedback"])),
		Scores: Scores{
			Correctness: clampScore(lookupNumber(scores, "correctness"), rubric.Correctness.MaxPoints),
			CodeQuality: clampScore(lookupNumber(scores, "codeQuality", "code_quality"), rubric.CodeQuality.MaxPoints),
			Efficiency:  clampScore(lookupNumber(scores, "efficiency"), rubric.Efficiency.MaxPoints),
			EdgeCases:   clampScore(lookupNumber(scores, "edgeCases", "edge_cases"), rubric.EdgeCases.MaxPoints),
		},
		Suggestions: asSuggestions(doc["suggestions"]),
		Strengths:   asStrings(doc["strengths"]),
	}, nil
}

// parseFeedback maps the custom-prompt response. Every field falls back to a
// default on its own so a partially usable answer is still returned.
func parseFeedback(content string, rubric Rubric) (Feedback, error) {
	doc, err := decodeDocument(content, feedbackSchema)
	if err != nil {
		return Feedback{}, err
	}

	score := clampScore(lookupNumber(doc, "score"), 100)
	grade := strings.ToUpper(strings.TrimSpace(asString(doc["grade"])))
	if grade == "" {
		grade = LetterGrade(score)
	}

	summary := strings.TrimSpace(asString(doc["summary"]))
	if summary == "" {
		summary = strings.TrimSpace(asString(doc["feedback"]))
	}
	if summary == "" {
		summary = "No summary was provided."
	}

	feedback := Feedback{
		Score:        score,
		Grade:        grade,
		Summary:      summary,
		Strengths:    asStrings(doc["strengths"]),
		Improvements: asStrings(doc["improvements"]),
		Suggestions:  asSuggestions(doc["suggestions"]),
	}

	if scores := asObject(doc["rubricScores"]); scores != nil {
		feedback.RubricScores = map[string]float64{}
		for key, criterion := range map[string]Criterion{
			"correctness": rubric.Correctness,
			"codeQuality": rubric.CodeQuality,
			"efficiency":  rubric.Efficiency,
			"edgeCases":   rubric.EdgeCases,
		} {
			value, ok := toFloat(scores[key])
			if !ok {
				continue
			}
			if rubric.Total() > 0 {
				value = clampScore(value, criterion.MaxPoints)
			} else if value < 0 {
				value = 0
			}
			feedback.RubricScores[key] = value
		}
	}

	return feedback, nil
}

// LetterGrade converts a 0-100 score to a letter.
func LetterGrade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func decodeDocument(content string, schema *jsonschema.Schema) (map[string]interface{}, error) {
	content = stripCodeFence(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidResponse)
	}

	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()
	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expected a json object", ErrInvalidResponse)
	}
	return obj, nil
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if newline := strings.Index(content, "\n"); newline >= 0 {
		content = content[newline+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func clampScore(value float64, max float64) float64 {
	if max < 0 || math.IsNaN(max) {
		max = 0
	}
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	if value > max {
		return max
	}
	return value
}

func lookupNumber(obj map[string]interface{}, keys ...string) float64 {
	for _, key := range keys {
		if value, ok := toFloat(obj[key]); ok {
			return value
		}
	}
	return 0
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asObject(value interface{}) map[string]interface{} {
	obj, _ := value.(map[string]interface{})
	return obj
}

func asString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func asStrings(value interface{}) []string {
	out := []string{}
	switch v := value.(type) {
	case string:
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	case []interface{}:
		for _, item := range v {
			if text := strings.TrimSpace(asString(item)); text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}

func asSuggestions(value interface{}) []Suggestion {
	out := []Suggestion{}
	items, ok := value.([]interface{})
	if !ok {
		if text := strings.TrimSpace(asString(value)); text != "" {
			out = append(out, Suggestion{Description: text})
		}
		return out
	}

	for _, item := range items {
		switch v := item.(type) {
		case string:
			if text := strings.TrimSpace(v); text != "" {
				out = append(out, Suggestion{Description: text})
			}
		case map[string]interface{}:
			suggestion := Suggestion{
				Title:       strings.TrimSpace(asString(v["title"])),
				Description: strings.TrimSpace(asString(v["description"])),
				Code:        asString(v["code"]),
			}
			if suggestion.Title == "" && suggestion.Description == "" && suggestion.Code == "" {
				continue
			}
			out = append(out, suggestion)
		}
	}
	return out
}
