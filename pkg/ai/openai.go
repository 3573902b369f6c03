package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "autograder",
		Subsystem: "ai",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of AI evaluation requests",
	}, []string{"model", "kind"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autograder",
		Subsystem: "ai",
		Name:      "evaluation_failures_total",
		Help:      "Number of AI evaluation failures",
	}, []string{"model", "kind"})
)

// OpenAIConfig defines configuration options for the OpenAI evaluator.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIEvaluator talks to an OpenAI compatible chat completion API.
type OpenAIEvaluator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIEvaluator builds a new evaluator using the provided configuration.
func NewOpenAIEvaluator(cfg OpenAIConfig) (*OpenAIEvaluator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	model, err := ResolveModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	cfg.Model = model

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIEvaluator{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/UVU-Autograder/autograder-demo-sub000/pkg/ai/openai"),
		logger: logger.With().Str("component", "openai_evaluator").Logger(),
	}, nil
}

// Evaluate requests a rubric evaluation and parses the model's JSON answer.
func (e *OpenAIEvaluator) Evaluate(ctx context.Context, input EvaluationInput) (Evaluation, error) {
	content, err := e.complete(ctx, "rubric", e.cfg.Model, buildEvaluationPrompt(input))
	if err != nil {
		return Evaluation{}, err
	}

	result, err := parseEvaluation(content, input.Rubric)
	if err != nil {
		aiFailures.WithLabelValues(e.cfg.Model, "rubric").Inc()
		return Evaluation{}, err
	}
	result.Model = e.cfg.Model
	return result, nil
}

// Generate runs the instructor's custom prompt against the requested model.
func (e *OpenAIEvaluator) Generate(ctx context.Context, req CustomRequest) (Feedback, error) {
	model, err := ResolveModel(req.Model)
	if err != nil {
		return Feedback{}, err
	}

	content, err := e.complete(ctx, "custom", model, buildCustomPrompt(req))
	if err != nil {
		return Feedback{}, err
	}

	result, err := parseFeedback(content, req.Rubric)
	if err != nil {
		aiFailures.WithLabelValues(model, "custom").Inc()
		return Feedback{}, err
	}
	result.Model = model
	return result, nil
}

func (e *OpenAIEvaluator) complete(parent context.Context, kind string, model string, prompt string) (string, error) {
	ctx, span := e.tracer.Start(parent, "openai.complete", trace.WithAttributes(
		attribute.String("model", model),
		attribute.String("kind", kind),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: evaluatorSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := e.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(model, kind).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(model, kind).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openai %s completion: %w", kind, err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("%w: no choices returned", ErrInvalidResponse)
		aiFailures.WithLabelValues(model, kind).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	e.logger.Debug().
		Str("model", model).
		Str("kind", kind).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("completion received")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
