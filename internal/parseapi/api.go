// Package parseapi exposes the incident parsing HTTP API.
package parseapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	v "github.com/linnemanlabs/go-core/version"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/scribe/internal/parse"
)

// ParseService defines the business operations parseapi needs.
type ParseService interface {
	Parse(ctx context.Context, text string) (*parse.Record, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    ParseService
}

// New creates a new API handler.
func New(logger log.Logger, svc ParseService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("parse service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Post("/api/parse-incident", a.handleParseIncident)
	r.Get("/", a.handleRoot)
}

type parseRequest struct {
	Text string `json:"text"`
}

// parseResponse is the uniform envelope: a fully populated record or a single
// user-facing error string, never a partial result.
type parseResponse struct {
	Success bool          `json:"success"`
	Data    *parse.Record `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func (a *API) handleParseIncident(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeResponse(r.Context(), w, http.StatusBadRequest, parseResponse{
			Success: false,
			Error:   "request body must be a JSON object with a \"text\" field",
		})
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.Int("scribe.request.text_length", len(req.Text)))

	rec, err := a.svc.Parse(r.Context(), req.Text)
	if err != nil {
		kind, _ := parse.KindOf(err)
		span.SetAttributes(attribute.String("scribe.parse.failure_kind", string(kind)))
		a.writeResponse(r.Context(), w, statusFor(err), parseResponse{
			Success: false,
			Error:   parse.UserMessage(err),
		})
		return
	}

	span.SetAttributes(attribute.String("scribe.parse.severity", string(rec.Severity)))

	a.writeResponse(r.Context(), w, http.StatusOK, parseResponse{
		Success: true,
		Data:    rec,
	})
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	vi := v.Get()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"service": vi.AppName,
		"status":  "running",
		"version": vi.Version,
	})
}

func (a *API) writeResponse(ctx context.Context, w http.ResponseWriter, status int, resp parseResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		a.logger.Error(ctx, err, "failed to write response")
	}
}

// statusFor maps a parse failure to an HTTP status. Bad input is the caller's
// fault; everything the provider got wrong surfaces as a bad gateway.
func statusFor(err error) int {
	var pe *parse.Error
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError
	}
	switch pe.Kind {
	case parse.KindInputTooShort:
		return http.StatusBadRequest
	case parse.KindUpstreamUnavailable, parse.KindMalformedResponse,
		parse.KindMissingField, parse.KindInvalidEnum:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
