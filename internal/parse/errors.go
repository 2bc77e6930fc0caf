package parse

import "errors"

// Kind classifies a parse failure.
type Kind string

const (
	// KindInputTooShort means the raw report text failed the length precondition.
	KindInputTooShort Kind = "input_too_short"

	// KindUpstreamUnavailable means the LLM provider call failed (network, timeout, non-2xx).
	KindUpstreamUnavailable Kind = "upstream_unavailable"

	// KindMalformedResponse means the provider returned something that is not a JSON object.
	KindMalformedResponse Kind = "malformed_response"

	// KindMissingField means a required field without a safe fallback is absent or blank.
	KindMissingField Kind = "missing_field"

	// KindInvalidEnum means severity matched no recognized value or synonym.
	KindInvalidEnum Kind = "invalid_enum"
)

// Error is a structured parse failure. Msg is safe to show to an end user;
// Err carries the underlying cause for logs.
type Error struct {
	Kind  Kind
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err if it is (or wraps) a parse Error.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// UserMessage returns the user-facing message for err, or a generic message
// if err is not a parse Error.
func UserMessage(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Msg
	}
	return "internal error"
}
