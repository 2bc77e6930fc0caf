// Package slack sends parsed incident notifications to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/scribe/internal/parse"
)

const (
	maxCauseLen = 1000
	httpTimeout = 10 * time.Second
)

// Notifier sends parsed incident records to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts a parsed incident to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, parseID string, rec *parse.Record) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(parseID, rec)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(parseID string, rec *parse.Record) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(rec),
			{"type": "divider"},
			fieldsBlock(rec),
			{"type": "divider"},
			causeBlock(rec),
			{"type": "divider"},
			contextBlock(parseID, rec),
		},
	}
}

func headerBlock(rec *parse.Record) map[string]any {
	text := fmt.Sprintf("%s Incident Reported: %s", severityEmoji(rec.Severity), rec.Component)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(rec *parse.Record) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Severity:* %s", rec.Severity),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Component:* %s", rec.Component),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Time:* %s", rec.Timestamp),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Users affected:* %d", rec.ImpactCount),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func causeBlock(rec *parse.Record) map[string]any {
	text := truncate(rec.SuspectedCause, maxCauseLen)
	if text == "" {
		text = "_Unknown._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Suspected cause*\n\n%s", text),
		},
	}
}

func contextBlock(parseID string, rec *parse.Record) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("scribe • parse %s • %s", parseID, rec.Timestamp),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func severityEmoji(sev parse.Severity) string {
	switch sev {
	case parse.SeverityHigh:
		return "\U0001f534" // red circle
	case parse.SeverityMed:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
