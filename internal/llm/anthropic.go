package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements Provider for Claude models.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates a Claude provider. SDK-level retries are
// disabled; the analysis client owns the retry policy.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	return &AnthropicClient{client: anthropic.NewClient(opts...)}, nil
}

// Complete sends one Messages API request.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	if req.Model == "" {
		return "", &Error{Kind: KindUnexpected, Cause: errors.New("no model specified")}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", mapAnthropicError(req.Model, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &Error{Kind: KindProvider, Model: req.Model, Cause: errors.New("no text blocks in response")}
	}
	return sb.String(), nil
}

// Close is a no-op; the SDK client holds no resources.
func (c *AnthropicClient) Close() error { return nil }

func mapAnthropicError(model string, err error) *Error {
	if kind := transportKind(err); kind != "" {
		return &Error{Kind: kind, Model: model, Cause: err}
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &Error{Kind: kindForStatus(apiErr.StatusCode), Model: model, StatusCode: apiErr.StatusCode, Cause: err}
	}
	return &Error{Kind: KindUnexpected, Model: model, Cause: err}
}
