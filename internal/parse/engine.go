package parse

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
)

const (
	// ResponseTokens bounds the completion; a five-field JSON object is tiny.
	ResponseTokens = 1024

	// Temperature keeps decoding near-deterministic for extraction.
	Temperature = 0.2
)

// EngineHooks are optional callbacks for instrumentation. Nil fields are skipped.
type EngineHooks struct {
	// OnLLMCall fires after each provider call with token usage and duration in seconds.
	OnLLMCall func(inputTokens, outputTokens int, duration float64)

	// OnFallback fires once per field that needed a fallback value.
	OnFallback func(field string)

	// OnFailure fires when a run ends in a parse failure.
	OnFailure func(kind Kind, field string)
}

// Engine runs the single-turn parse: prompt, provider call, decode, validate.
// It holds no state between runs and is safe for concurrent use.
type Engine struct {
	provider Provider
	logger   log.Logger
	hooks    EngineHooks
	now      func() time.Time
}

// NewEngine creates a parse engine with the given provider and hooks.
func NewEngine(provider Provider, logger log.Logger, hooks EngineHooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		provider: provider,
		logger:   logger,
		hooks:    hooks,
		now:      time.Now,
	}
}

// Run sends the incident text through the provider and validates the response
// into a Record. All failures carry a parse Kind.
func (e *Engine) Run(ctx context.Context, text string) (*Record, error) {
	span := trace.SpanFromContext(ctx)

	start := e.now()
	resp, err := e.provider.Complete(ctx, &LLMRequest{
		MaxTokens:   ResponseTokens,
		Temperature: Temperature,
		System:      buildSystemPrompt(),
		Messages: []Message{
			{Role: "user", Content: buildUserPrompt(text)},
		},
	})
	llmDuration := e.now().Sub(start).Seconds()

	if err != nil {
		e.logger.Error(ctx, err, "llm call failed", "model", e.provider.Model())
		e.failure(KindUpstreamUnavailable, "")
		return nil, &Error{Kind: KindUpstreamUnavailable, Msg: "incident parser is temporarily unavailable", Err: err}
	}

	if e.hooks.OnLLMCall != nil {
		e.hooks.OnLLMCall(resp.Usage.InputTokens, resp.Usage.OutputTokens, llmDuration)
	}

	span.SetAttributes(
		attribute.Int("scribe.llm.input_tokens", resp.Usage.InputTokens),
		attribute.Int("scribe.llm.output_tokens", resp.Usage.OutputTokens),
		attribute.String("scribe.llm.stop_reason", string(resp.StopReason)),
	)

	e.logger.Info(ctx, "llm response",
		"stop_reason", resp.StopReason,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration_seconds", llmDuration,
	)

	raw, err := DecodeResponse(resp.Text())
	if err != nil {
		e.logger.Error(ctx, err, "model response not decodable", "response", truncateForLog(resp.Text()))
		e.reportFailure(err)
		return nil, err
	}

	rec, fallbacks, err := Validate(raw, e.now())
	for _, field := range fallbacks {
		if e.hooks.OnFallback != nil {
			e.hooks.OnFallback(field)
		}
		e.logger.Info(ctx, "applied field fallback", "field", field)
	}
	if err != nil {
		e.logger.Error(ctx, err, "model response failed validation")
		e.reportFailure(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("scribe.parse.severity", string(rec.Severity)))

	return rec, nil
}

func (e *Engine) failure(kind Kind, field string) {
	if e.hooks.OnFailure != nil {
		e.hooks.OnFailure(kind, field)
	}
}

func (e *Engine) reportFailure(err error) {
	var pe *Error
	if errors.As(err, &pe) {
		e.failure(pe.Kind, pe.Field)
	}
}

const maxLoggedResponse = 512

func truncateForLog(s string) string {
	if len(s) <= maxLoggedResponse {
		return s
	}
	return s[:maxLoggedResponse] + "..."
}
