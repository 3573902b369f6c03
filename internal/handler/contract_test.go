package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/config"
	"github.com/UVU-Autograder/autograder-demo-sub000/internal/dto"
)

const gradeContract = `{
  "type": "object",
  "required": ["success", "message", "data"],
  "properties": {
    "success": {"const": true},
    "data": {
      "type": "object",
      "required": ["assignment", "code", "testResults", "passedCount", "totalCount", "testScore", "aiEvaluation", "finalScore", "maxScore", "gradedAt"],
      "properties": {
        "assignment": {
          "type": "object",
          "required": ["id", "title", "language", "rubric", "maxScore"],
          "not": {"required": ["testCases"]}
        },
        "testResults": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["testCaseId", "passed", "input", "expectedOutput", "actualOutput", "error"],
            "properties": {
              "passed": {"type": "boolean"},
              "actualOutput": {"type": ["string", "null"]},
              "error": {"type": ["string", "null"]}
            }
          }
        },
        "aiEvaluation": {
          "type": "object",
          "required": ["feedback", "rubricScores", "suggestions", "strengths"],
          "properties": {
            "rubricScores": {
              "type": "object",
              "required": ["correctness", "codeQuality", "efficiency", "edgeCases"]
            },
            "suggestions": {
              "type": "array",
              "items": {"type": "object", "required": ["description"]}
            },
            "strengths": {"type": "array", "items": {"type": "string"}}
          }
        },
        "finalScore": {"type": "number", "minimum": 0},
        "maxScore": {"type": "number", "minimum": 0}
      }
    }
  }
}`

const runTestsContract = `{
  "type": "object",
  "required": ["success", "data"],
  "properties": {
    "data": {
      "type": "object",
      "required": ["testResults", "summary"],
      "properties": {
        "summary": {
          "type": "object",
          "required": ["total", "passed", "failed"],
          "properties": {
            "total": {"type": "integer", "minimum": 0},
            "passed": {"type": "integer", "minimum": 0},
            "failed": {"type": "integer", "minimum": 0}
          },
          "additionalProperties": false
        }
      }
    }
  }
}`

func validateContract(t *testing.T, schemaSource string, resp *http.Response) {
	t.Helper()

	schema, err := jsonschema.CompileString("contract.json", schemaSource)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var document interface{}
	require.NoError(t, json.Unmarshal(raw, &document))
	require.NoError(t, schema.Validate(document))
}

func TestGradeResponseContract(t *testing.T) {
	env := setupApp(t, config.Config{}, nil)

	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/grade", dto.GradeRequest{AssignmentID: "answer", Code: "print(42)"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	validateContract(t, gradeContract, resp)
}

func TestRunTestsResponseContract(t *testing.T) {
	env := setupApp(t, config.Config{}, nil)

	payload := dto.RunTestsRequest{Code: "print(42)", Language: "python", TestCases: []dto.TestCasePayload{{ExpectedOutput: "42"}}}
	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/run-tests", payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	validateContract(t, runTestsContract, resp)
}
