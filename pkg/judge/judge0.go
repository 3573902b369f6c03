package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const backendJudge0 = "judge0"

// Config groups the Judge0 client settings.
type Config struct {
	BaseURL       string
	APIKey        string
	RapidAPIHost  string
	PollInterval  time.Duration
	MaxPolls      int
	CPUTimeLimit  float64
	MemoryLimitKB int
	HTTPClient    *http.Client
	Logger        zerolog.Logger
}

// Judge0Client executes code on a Judge0 compatible API using its
// asynchronous submit-then-poll protocol.
type Judge0Client struct {
	baseURL *url.URL
	http    *http.Client
	cfg     Config
	tracer  trace.Tracer
	logger  zerolog.Logger
}

type submissionPayload struct {
	SourceCode     string  `json:"source_code"`
	LanguageID     int     `json:"language_id"`
	Stdin          string  `json:"stdin,omitempty"`
	ExpectedOutput string  `json:"expected_output,omitempty"`
	CPUTimeLimit   float64 `json:"cpu_time_limit,omitempty"`
	MemoryLimit    int     `json:"memory_limit,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// NewJudge0Client validates the configuration and constructs a client.
func NewJudge0Client(cfg Config) (*Judge0Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("judge0 base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse judge0 base url: %w", err)
	}
	if cfg.RapidAPIHost != "" && cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: rapidapi host %q needs an api key", ErrMissingCredentials, cfg.RapidAPIHost)
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 10
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Judge0Client{
		baseURL: base,
		http:    httpClient,
		cfg:     cfg,
		tracer:  otel.Tracer("github.com/UVU-Autograder/autograder-demo-sub000/pkg/judge"),
		logger:  logger.With().Str("component", "judge0_client").Logger(),
	}, nil
}

// Execute submits the program, then polls at the configured interval until the
// backend reports a terminal status. When the poll budget runs out the last
// observed result is returned together with ErrExecutionTimedOut.
func (c *Judge0Client) Execute(parent context.Context, req Request) (RunResult, error) {
	ctx, span := c.tracer.Start(parent, "judge0.execute", trace.WithAttributes(
		attribute.Int("judge.language_id", req.LanguageID),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		execDuration.WithLabelValues(backendJudge0).Observe(time.Since(start).Seconds())
	}()

	token, err := c.submit(ctx, req)
	if err != nil {
		execFailures.WithLabelValues(backendJudge0, "submit").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunResult{}, err
	}
	span.SetAttributes(attribute.String("judge.token", token))

	var last RunResult
	for attempt := 1; attempt <= c.cfg.MaxPolls; attempt++ {
		timer := time.NewTimer(c.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			span.RecordError(ctx.Err())
			span.SetStatus(codes.Error, "cancelled")
			return last, ctx.Err()
		case <-timer.C:
		}

		last, err = c.fetch(ctx, token)
		if err != nil {
			execFailures.WithLabelValues(backendJudge0, "poll").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return RunResult{}, err
		}

		if last.Status.Terminal() {
			span.SetAttributes(
				attribute.Int("judge.status_id", last.Status.ID),
				attribute.Int("judge.polls", attempt),
			)
			return last, nil
		}
	}

	execTimeouts.WithLabelValues(backendJudge0).Inc()
	c.logger.Warn().Str("token", token).Int("polls", c.cfg.MaxPolls).Msg("submission still pending after poll budget")
	span.SetStatus(codes.Error, "execution timed out")
	return last, fmt.Errorf("%w: token %s still %q after %d polls", ErrExecutionTimedOut, token, last.Status.Description, c.cfg.MaxPolls)
}

func (c *Judge0Client) submit(ctx context.Context, req Request) (string, error) {
	payload := submissionPayload{
		SourceCode:     req.SourceCode,
		LanguageID:     req.LanguageID,
		Stdin:          req.Stdin,
		ExpectedOutput: req.ExpectedOutput,
		CPUTimeLimit:   c.cfg.CPUTimeLimit,
		MemoryLimit:    c.cfg.MemoryLimitKB,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}

	endpoint := c.endpoint("submissions", url.Values{"base64_encoded": {"false"}, "wait": {"false"}})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out tokenResponse
	if err := c.do(httpReq, "submit", &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("judge0 submit: response carried no token")
	}
	return out.Token, nil
}

func (c *Judge0Client) fetch(ctx context.Context, token string) (RunResult, error) {
	endpoint := c.endpoint("submissions/"+token, url.Values{
		"base64_encoded": {"false"},
		"fields":         {"stdout,stderr,compile_output,status,time,memory"},
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RunResult{}, fmt.Errorf("build poll request: %w", err)
	}

	var out RunResult
	if err := c.do(httpReq, "poll", &out); err != nil {
		return RunResult{}, err
	}
	return out, nil
}

func (c *Judge0Client) do(req *http.Request, op string, target interface{}) error {
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return fmt.Errorf("judge0 %s: %w: connection refused", op, ErrBackendUnreachable)
		}
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return fmt.Errorf("judge0 %s: %w", op, ctxErr)
		}
		return fmt.Errorf("judge0 %s: %w: %v", op, ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("judge0 %s: read body: %w", op, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("judge0 %s: %w", op, ErrQuotaExceeded)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("judge0 %s: %w (status %d)", op, ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return fmt.Errorf("judge0 %s: unexpected status %d: %s", op, resp.StatusCode, truncate(string(data), 200))
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("judge0 %s: decode response: %w", op, err)
	}
	return nil
}

func (c *Judge0Client) authorize(req *http.Request) {
	switch {
	case c.cfg.RapidAPIHost != "":
		req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
		req.Header.Set("X-RapidAPI-Host", c.cfg.RapidAPIHost)
	case c.cfg.APIKey != "":
		req.Header.Set("X-Auth-Token", c.cfg.APIKey)
	}
}

func (c *Judge0Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + path
	u.RawQuery = query.Encode()
	return u.String()
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
