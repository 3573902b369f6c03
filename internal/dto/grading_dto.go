package dto

import "github.com/UVU-Autograder/autograder-demo-sub000/internal/models"

// ExecuteRequest runs a submission against the visible test cases of an assignment.
type ExecuteRequest struct {
	AssignmentID string `json:"assignmentId" validate:"required"`
	Code         string `json:"code" validate:"required"`
}

// GradeRequest grades a submission against every test case of an assignment.
type GradeRequest struct {
	AssignmentID string `json:"assignmentId" validate:"required"`
	Code         string `json:"code" validate:"required"`
}

// TestCasePayload is a test case supplied in a request body.
type TestCasePayload struct {
	ID             string `json:"id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	Hidden         bool   `json:"hidden"`
}

// RunTestsRequest runs instructor supplied test cases, hidden ones included.
type RunTestsRequest struct {
	Code      string            `json:"code" validate:"required"`
	Language  string            `json:"language" validate:"required"`
	TestCases []TestCasePayload `json:"testCases" validate:"required,min=1"`
}

// ExecuteResponse is returned by the practice run endpoint.
type ExecuteResponse struct {
	TestResults []models.TestResult `json:"testResults"`
}

// TestSummary counts passing and failing results.
type TestSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// NewTestSummary counts results.
func NewTestSummary(results []models.TestResult) TestSummary {
	summary := TestSummary{Total: len(results)}
	for _, result := range results {
		if result.Passed {
			summary.Passed++
		}
	}
	summary.Failed = summary.Total - summary.Passed
	return summary
}

// RunTestsResponse is returned by the instructor test run endpoint.
type RunTestsResponse struct {
	TestResults []models.TestResult `json:"testResults"`
	Summary     TestSummary         `json:"summary"`
}

// FeedbackSettings tunes the instructor-customised feedback.
type FeedbackSettings struct {
	Model        string `json:"model"`
	CustomPrompt string `json:"customPrompt"`
}

// GradeIndividualRequest asks for customised feedback on one submission. Either
// AssignmentID or an inline Assignment must be present.
type GradeIndividualRequest struct {
	AssignmentID string              `json:"assignmentId"`
	Assignment   *AssignmentPayload  `json:"assignment"`
	Code         string              `json:"code" validate:"required"`
	Settings     FeedbackSettings    `json:"settings"`
	TestResults  []models.TestResult `json:"testResults"`
}

func toTestCases(payloads []TestCasePayload) []models.TestCase {
	testCases := make([]models.TestCase, 0, len(payloads))
	for _, payload := range payloads {
		testCases = append(testCases, models.TestCase{
			ID:             payload.ID,
			Input:          payload.Input,
			ExpectedOutput: payload.ExpectedOutput,
			Hidden:         payload.Hidden,
		})
	}
	return testCases
}

// Cases converts the payload into model test cases.
func (r RunTestsRequest) Cases() []models.TestCase {
	return toTestCases(r.TestCases)
}
