package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DecodeResponse strips Markdown code fences from the model's raw text and
// decodes it as a JSON object. A response that cannot be decoded fails with
// KindMalformedResponse; we never guess a partial structure.
func DecodeResponse(text string) (map[string]any, error) {
	cleaned := stripFences(text)
	if cleaned == "" {
		return nil, &Error{Kind: KindMalformedResponse, Msg: "model returned an empty response"}
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Msg: "model response is not a JSON object", Err: err}
	}
	return raw, nil
}

// stripFences removes a leading ```json / ``` fence and a trailing ``` fence.
// Models occasionally wrap output in fences despite being told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// Validate converts a decoded provider response into a Record or a structured
// failure. It is a pure function of raw and now.
//
// Fallbacks apply in a fixed order: timestamp -> now, impact_count -> 0,
// then the fatal checks on severity and component. suspected_cause falls back
// to "Unknown". The returned slice names the fields that needed a fallback;
// an already-valid record passes through unchanged with no fallbacks.
func Validate(raw map[string]any, now time.Time) (*Record, []string, error) {
	if raw == nil {
		return nil, nil, &Error{Kind: KindMalformedResponse, Msg: "model response is not a JSON object"}
	}

	var fallbacks []string
	rec := &Record{}

	ts, usedFallback := normalizeTimestamp(raw["timestamp"], now)
	rec.Timestamp = ts
	if usedFallback {
		fallbacks = append(fallbacks, "timestamp")
	}

	count, usedFallback := normalizeImpactCount(raw["impact_count"])
	rec.ImpactCount = count
	if usedFallback {
		fallbacks = append(fallbacks, "impact_count")
	}

	sev, err := normalizeSeverity(raw["severity"])
	if err != nil {
		return nil, fallbacks, err
	}
	rec.Severity = sev

	component, ok := nonEmptyString(raw["component"])
	if !ok {
		return nil, fallbacks, &Error{Kind: KindMissingField, Field: "component", Msg: "missing required field: component"}
	}
	rec.Component = component

	cause, ok := nonEmptyString(raw["suspected_cause"])
	if !ok {
		cause = "Unknown"
		fallbacks = append(fallbacks, "suspected_cause")
	}
	rec.SuspectedCause = cause

	return rec, fallbacks, nil
}

// normalizeSeverity maps the raw severity value onto the High/Med/Low enum.
// Matching is case-insensitive and tolerates common synonyms; anything else
// is an invalid enum, not a silent default.
func normalizeSeverity(v any) (Severity, error) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", &Error{Kind: KindMissingField, Field: "severity", Msg: "missing required field: severity"}
	}

	switch lower := strings.ToLower(strings.TrimSpace(s)); {
	case lower == "high" || lower == "med" || lower == "low":
		return Severity(strings.ToUpper(lower[:1]) + lower[1:]), nil
	case strings.Contains(lower, "high"), strings.Contains(lower, "critical"),
		lower == "p1", lower == "sev1":
		return SeverityHigh, nil
	case strings.Contains(lower, "med"), strings.Contains(lower, "moderate"),
		lower == "p2", lower == "sev2":
		return SeverityMed, nil
	case strings.Contains(lower, "low"), strings.Contains(lower, "minor"),
		strings.Contains(lower, "trivial"), lower == "p3", lower == "sev3":
		return SeverityLow, nil
	}

	return "", &Error{
		Kind:  KindInvalidEnum,
		Field: "severity",
		Msg:   fmt.Sprintf("unrecognized severity %q (expected High, Med, or Low)", s),
	}
}

var digitsRe = regexp.MustCompile(`\d+`)

// normalizeImpactCount coerces the raw impact count to a non-negative integer.
// Integers are accepted as-is (negatives clamp to 0), text yields its first
// run of digits, and anything unparsable falls back to 0.
func normalizeImpactCount(v any) (count int, usedFallback bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, true
		}
		return int(n), false
	case string:
		match := digitsRe.FindString(n)
		if match == "" {
			return 0, true
		}
		parsed, err := strconv.Atoi(match)
		if err != nil {
			return 0, true
		}
		return parsed, false
	default:
		return 0, true
	}
}

// tsLayouts are the non-RFC3339 shapes we convert. Zone-less layouts parse as UTC.
var tsLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// clockRe matches bare clock times like "18:30", "6:30:05 PM".
var clockRe = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*(am|pm)?$`)

// normalizeTimestamp coerces the raw timestamp to RFC 3339. Valid RFC 3339
// input passes through byte-identical so that re-validating an encoded record
// is idempotent. Clock-only times combine with now's date; unparsable or
// absent values fall back to now.
func normalizeTimestamp(v any, now time.Time) (ts string, usedFallback bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return now.Format(time.RFC3339), true
	}
	s = strings.TrimSpace(s)

	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return s, false
	}

	for _, layout := range tsLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.RFC3339), false
		}
	}

	if m := clockRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		sec := 0
		if m[3] != "" {
			sec, _ = strconv.Atoi(m[3])
		}
		switch strings.ToLower(m[4]) {
		case "pm":
			if hour != 12 {
				hour = (hour + 12) % 24
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		if hour < 24 && minute < 60 && sec < 60 {
			t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, sec, 0, now.Location())
			return t.Format(time.RFC3339), false
		}
	}

	return now.Format(time.RFC3339), true
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}
