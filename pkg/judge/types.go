package judge

import (
	"context"
	"errors"
)

// Status identifiers reported by the execution backend. Anything other than
// StatusInQueue and StatusProcessing is terminal; only StatusAccepted counts
// as a successful run.
const (
	StatusInQueue           = 1
	StatusProcessing        = 2
	StatusAccepted          = 3
	StatusWrongAnswer       = 4
	StatusTimeLimitExceeded = 5
	StatusCompilationError  = 6
	StatusRuntimeError      = 11
	StatusInternalError     = 13
)

var (
	// ErrUnsupportedLanguage indicates the language has no runtime binding.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrExecutionTimedOut indicates the backend never reported a terminal status within the poll budget.
	ErrExecutionTimedOut = errors.New("execution timed out")
	// ErrQuotaExceeded indicates the backend rejected the call because of rate or quota limits.
	ErrQuotaExceeded = errors.New("execution quota exceeded")
	// ErrUnauthorized indicates the backend rejected the configured credentials.
	ErrUnauthorized = errors.New("execution backend rejected credentials")
	// ErrMissingCredentials indicates the backend requires credentials that were not configured.
	ErrMissingCredentials = errors.New("execution backend credentials missing")
	// ErrBackendUnreachable indicates the backend could not be contacted.
	ErrBackendUnreachable = errors.New("execution backend unreachable")
)

// Status is the backend's verdict for a run.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Terminal reports whether the backend has finished with the submission.
func (s Status) Terminal() bool {
	return s.ID != StatusInQueue && s.ID != StatusProcessing
}

// Accepted reports whether the run completed successfully.
func (s Status) Accepted() bool {
	return s.ID == StatusAccepted
}

// Request describes one program run against one stdin.
type Request struct {
	SourceCode     string
	LanguageID     int
	Stdin          string
	ExpectedOutput string
}

// RunResult is the normalised outcome of a run.
type RunResult struct {
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Status        Status `json:"status"`
	Time          string `json:"time"`
	Memory        int    `json:"memory"`
}

// Executor runs source code and reports the outcome.
type Executor interface {
	Execute(ctx context.Context, req Request) (RunResult, error)
}
