package parse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
)

// MinTextLen is the minimum raw report length accepted. Shorter input is
// rejected before any provider call is made.
const MinTextLen = 10

// Notifier receives successfully parsed records for out-of-band delivery.
type Notifier interface {
	Send(ctx context.Context, parseID string, rec *Record) error
}

// Service is the business boundary for parse operations. It enforces the
// input precondition, correlates each request under a parse id, records
// metrics, and dispatches notifications for high-severity records.
type Service struct {
	engine   *Engine
	logger   log.Logger
	metrics  *Metrics
	notifier Notifier
}

// NewService creates a new parse service. metrics and notifier may be nil.
func NewService(engine *Engine, logger log.Logger, metrics *Metrics, notifier Notifier) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		engine:   engine,
		logger:   logger,
		metrics:  metrics,
		notifier: notifier,
	}
}

// Parse converts a free-text incident report into a Record.
func (s *Service) Parse(ctx context.Context, text string) (*Record, error) {
	text = strings.TrimSpace(text)
	if len(text) < MinTextLen {
		s.count("rejected")
		return nil, &Error{
			Kind: KindInputTooShort,
			Msg:  fmt.Sprintf("incident text must be at least %d characters long", MinTextLen),
		}
	}

	id := ulid.Make().String()
	L := s.logger.With("parse_id", id)
	L.Info(ctx, "parsing incident report", "text_length", len(text))

	start := time.Now()
	rec, err := s.engine.Run(log.WithContext(ctx, L), text)
	duration := time.Since(start).Seconds()

	if err != nil {
		kind, _ := KindOf(err)
		s.observe("failed", duration)
		L.Error(ctx, err, "parse failed", "kind", kind, "duration_seconds", duration)
		return nil, err
	}

	s.observe("success", duration)
	L.Info(ctx, "parse complete",
		"severity", rec.Severity,
		"component", rec.Component,
		"impact_count", rec.ImpactCount,
		"duration_seconds", duration,
	)

	if s.notifier != nil && rec.Severity == SeverityHigh {
		// detach from the request context so the webhook call survives the response
		go s.notify(context.WithoutCancel(ctx), id, rec)
	}

	return rec, nil
}

func (s *Service) notify(ctx context.Context, id string, rec *Record) {
	if err := s.notifier.Send(ctx, id, rec); err != nil {
		s.logger.Error(ctx, err, "notification failed", "parse_id", id)
		s.countNotify("error")
		return
	}
	s.countNotify("success")
}

func (s *Service) count(outcome string) {
	if s.metrics != nil {
		s.metrics.ParsesTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) observe(outcome string, duration float64) {
	if s.metrics != nil {
		s.metrics.ParsesTotal.WithLabelValues(outcome).Inc()
		s.metrics.ParseDuration.WithLabelValues(outcome).Observe(duration)
	}
}

func (s *Service) countNotify(status string) {
	if s.metrics != nil {
		s.metrics.NotifiesTotal.WithLabelValues(status).Inc()
	}
}
