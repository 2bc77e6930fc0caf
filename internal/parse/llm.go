package parse

import "context"

// Provider is the interface for any LLM backend.
type Provider interface {
	Complete(ctx context.Context, req *LLMRequest) (*LLMResponse, error)
	Model() string
}

// LLMRequest represents a single-turn completion request: a system prompt,
// the conversation (one user message for parsing), and decoding parameters.
type LLMRequest struct {
	MaxTokens   int
	Temperature float64
	System      string
	Messages    []Message
}

// Message is a single text message in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMResponse represents the provider output: generated content blocks,
// stop reason, and token usage.
type LLMResponse struct {
	Content    []ContentBlock
	StopReason StopReason
	Usage      Usage
	Model      string
}

// ContentBlock is a single block of generated content. Parsing only ever
// consumes text blocks.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// StopReason indicates why the LLM stopped generating content.
type StopReason string

const (
	StopEnd       StopReason = "end_turn"
	StopMaxTokens StopReason = "max_tokens"
)

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Text returns the concatenated text content of the response.
func (r *LLMResponse) Text() string {
	var out string
	for _, block := range r.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out
}
