// Package anthropic adapts the Anthropic Messages API to chat.Completer.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"source-annotator/internal/domain"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultMaxTokens = 8192
)

// TokenSource yields the API key for each request.
type TokenSource interface {
	Resolve(ctx context.Context) (string, error)
}

type Client struct {
	sdk        anthropic.Client
	token      TokenSource
	baseURL    string
	maxTokens  int64
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if u := strings.TrimSpace(baseURL); u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMaxTokens caps the reply length. The Messages API requires a cap.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = int64(n)
		}
	}
}

func NewClient(token TokenSource, opts ...Option) (*Client, error) {
	if token == nil {
		return nil, errors.New("anthropic: token source must not be nil")
	}
	c := &Client{token: token, baseURL: defaultBaseURL, maxTokens: defaultMaxTokens}
	for _, opt := range opts {
		opt(c)
	}

	sdkOpts := []option.RequestOption{
		option.WithBaseURL(c.baseURL),
		option.WithMaxRetries(0),
	}
	if c.httpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(c.httpClient))
	}
	c.sdk = anthropic.NewClient(sdkOpts...)
	return c, nil
}

func (c *Client) Complete(ctx context.Context, model string, messages []domain.ChatMessage) (domain.ChatResponse, error) {
	if strings.TrimSpace(model) == "" {
		return domain.ChatResponse{}, errors.New("anthropic: model must not be empty")
	}
	apiKey, err := c.token.Resolve(ctx)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("anthropic: resolve api key: %w", err)
	}
	if apiKey == "" {
		return domain.ChatResponse{}, errors.New("anthropic: api key is empty")
	}

	turns, system := splitSystem(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: c.maxTokens,
		Messages:  turns,
	}
	if len(system) > 0 {
		params.System = system
	}

	msg, err := c.sdk.Messages.New(ctx, params, option.WithAPIKey(apiKey))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return domain.ChatResponse{}, fmt.Errorf("anthropic: unexpected status %d: %w", apiErr.StatusCode, err)
		}
		return domain.ChatResponse{}, fmt.Errorf("anthropic: request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return domain.ChatResponse{}, errors.New("anthropic: no text content in response")
	}

	return domain.ChatResponse{
		Content:     text.String(),
		TotalTokens: int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}, nil
}

// splitSystem moves system messages into the separate system parameter the
// Messages API expects.
func splitSystem(messages []domain.ChatMessage) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var system []anthropic.TextBlockParam
	turns := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case domain.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return turns, system
}
