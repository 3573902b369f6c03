package ai

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var fallbacksUsed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "autograder",
	Subsystem: "ai",
	Name:      "fallbacks_total",
	Help:      "Number of evaluations answered by the deterministic fallback",
}, []string{"kind"})

// ResilientEvaluator wraps a remote evaluator and substitutes the
// deterministic fallback whenever the remote call or its parsing fails.
// Its methods never fail.
type ResilientEvaluator struct {
	evaluator Evaluator
	generator FeedbackGenerator
	logger    zerolog.Logger
}

// WithFallback wraps evaluator. A nil evaluator answers every call with the
// fallback. When evaluator also implements FeedbackGenerator it serves the
// custom-prompt variant as well.
func WithFallback(evaluator Evaluator, logger zerolog.Logger) *ResilientEvaluator {
	r := &ResilientEvaluator{
		evaluator: evaluator,
		logger:    logger.With().Str("component", "resilient_evaluator").Logger(),
	}
	if generator, ok := evaluator.(FeedbackGenerator); ok {
		r.generator = generator
	}
	return r
}

// Evaluate returns the remote evaluation, or the fallback derived from the test summary.
func (r *ResilientEvaluator) Evaluate(ctx context.Context, input EvaluationInput) Evaluation {
	if r.evaluator == nil {
		fallbacksUsed.WithLabelValues("rubric").Inc()
		return FallbackEvaluation(input.Tests, input.Rubric)
	}

	result, err := r.evaluator.Evaluate(ctx, input)
	if err != nil {
		fallbacksUsed.WithLabelValues("rubric").Inc()
		r.logger.Warn().Err(err).Msg("ai evaluation failed, using fallback")
		return FallbackEvaluation(input.Tests, input.Rubric)
	}
	return result
}

// Generate returns the custom-prompt feedback, or the fixed fallback. An
// unknown model is the only error reported, since it is a caller mistake.
func (r *ResilientEvaluator) Generate(ctx context.Context, req CustomRequest) (Feedback, error) {
	model, err := ResolveModel(req.Model)
	if err != nil {
		return Feedback{}, err
	}
	req.Model = model

	if r.generator == nil {
		fallbacksUsed.WithLabelValues("custom").Inc()
		return FallbackFeedback(model), nil
	}

	result, err := r.generator.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, ErrUnknownModel) {
			return Feedback{}, err
		}
		fallbacksUsed.WithLabelValues("custom").Inc()
		r.logger.Warn().Err(err).Str("model", model).Msg("custom feedback failed, using fallback")
		return FallbackFeedback(model), nil
	}
	return result, nil
}
