// Package claude implements parse.Provider on top of the Anthropic Messages API.
package claude

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/scribe/internal/parse"
)

// Client is a Claude-backed parse.Provider.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a Claude client for the given API key and model. baseURL is
// optional and overrides the default API endpoint when set.
func New(apiKey, model, baseURL string) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Complete sends a single completion request and returns the response.
func (c *Client) Complete(ctx context.Context, req *parse.LLMRequest) (*parse.LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  toSDKMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude: send message: %w", err)
	}

	return fromSDKResponse(msg), nil
}

// toSDKMessages converts parse messages to SDK message params.
func toSDKMessages(msgs []parse.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, anthropic.MessageParam{
			Role: anthropic.MessageParamRole(m.Role),
			Content: []anthropic.ContentBlockParamUnion{
				{OfText: &anthropic.TextBlockParam{Text: m.Content}},
			},
		})
	}
	return out
}

// fromSDKResponse converts an SDK response to the parse response type,
// keeping only text content.
func fromSDKResponse(msg *anthropic.Message) *parse.LLMResponse {
	out := &parse.LLMResponse{
		StopReason: parse.StopReason(msg.StopReason),
		Model:      string(msg.Model),
		Usage: parse.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.Content = append(out.Content, parse.ContentBlock{Type: "text", Text: block.Text})
		}
	}
	return out
}
