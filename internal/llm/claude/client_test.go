package claude

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/linnemanlabs/scribe/internal/parse"
)

func TestNew_ModelAndBaseURL(t *testing.T) {
	t.Parallel()

	c := New("test-key", "claude-sonnet-4-20250514", "")
	if c.Model() != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q, want claude-sonnet-4-20250514", c.Model())
	}

	c = New("test-key", "claude-sonnet-4-20250514", "http://localhost:9999")
	if c.Model() != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q after base URL override", c.Model())
	}
}

func TestToSDKMessages(t *testing.T) {
	t.Parallel()

	msgs := []parse.Message{
		{Role: "user", Content: "Incident report text: the db is down"},
	}

	result := toSDKMessages(msgs)

	if len(result) != 1 {
		t.Fatalf("len = %d, want 1", len(result))
	}
	if result[0].Role != "user" {
		t.Errorf("role = %q, want %q", result[0].Role, "user")
	}
	if len(result[0].Content) != 1 {
		t.Fatalf("content len = %d, want 1", len(result[0].Content))
	}
	if result[0].Content[0].OfText == nil {
		t.Fatal("expected OfText to be set")
	}
	if result[0].Content[0].OfText.Text != "Incident report text: the db is down" {
		t.Errorf("text = %q", result[0].Content[0].OfText.Text)
	}
}

func TestToSDKMessages_MultipleTurns(t *testing.T) {
	t.Parallel()

	msgs := []parse.Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "{"},
	}

	result := toSDKMessages(msgs)

	if len(result) != 2 {
		t.Fatalf("len = %d, want 2", len(result))
	}
	if result[1].Role != "assistant" {
		t.Errorf("role = %q, want assistant", result[1].Role)
	}
	if result[1].Content[0].OfText.Text != "{" {
		t.Errorf("text = %q, want {", result[1].Content[0].OfText.Text)
	}
}

func TestFromSDKResponse_TextContent(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: `{"severity":"High"}`},
		},
		StopReason: anthropic.StopReasonEndTurn,
		Usage:      anthropic.Usage{InputTokens: 100, OutputTokens: 50},
	}

	result := fromSDKResponse(msg)

	if len(result.Content) != 1 {
		t.Fatalf("content len = %d, want 1", len(result.Content))
	}
	if result.Content[0].Type != "text" {
		t.Errorf("type = %q, want text", result.Content[0].Type)
	}
	if result.Text() != `{"severity":"High"}` {
		t.Errorf("text = %q", result.Text())
	}
}

func TestFromSDKResponse_SkipsNonTextContent(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "thinking", Text: "hmm"},
			{Type: "text", Text: "{}"},
		},
		StopReason: anthropic.StopReasonEndTurn,
	}

	result := fromSDKResponse(msg)

	if len(result.Content) != 1 {
		t.Fatalf("content len = %d, want 1", len(result.Content))
	}
	if result.Text() != "{}" {
		t.Errorf("text = %q, want {}", result.Text())
	}
}

func TestFromSDKResponse_StopReasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sdk      anthropic.StopReason
		expected parse.StopReason
	}{
		{"end_turn", anthropic.StopReasonEndTurn, parse.StopEnd},
		{"max_tokens", anthropic.StopReasonMaxTokens, parse.StopMaxTokens},
		{"unknown", anthropic.StopReason("refusal"), parse.StopReason("refusal")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := &anthropic.Message{
				StopReason: tt.sdk,
				Usage:      anthropic.Usage{},
			}
			result := fromSDKResponse(msg)
			if result.StopReason != tt.expected {
				t.Errorf("stop reason = %q, want %q", result.StopReason, tt.expected)
			}
		})
	}
}

func TestFromSDKResponse_Usage(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		StopReason: anthropic.StopReasonEndTurn,
		Usage:      anthropic.Usage{InputTokens: 1234, OutputTokens: 567},
		Model:      "claude-sonnet-4-20250514",
	}

	result := fromSDKResponse(msg)

	if result.Usage.InputTokens != 1234 {
		t.Errorf("input tokens = %d, want 1234", result.Usage.InputTokens)
	}
	if result.Usage.OutputTokens != 567 {
		t.Errorf("output tokens = %d, want 567", result.Usage.OutputTokens)
	}
	if result.Model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", result.Model)
	}
}
