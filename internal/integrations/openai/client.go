package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"source-annotator/internal/domain"
)

const defaultBaseURL = "https://api.openai.com/v1"

// TokenSource yields the API key for each request.
type TokenSource interface {
	Resolve(ctx context.Context) (string, error)
}

// Client sends chat completions through the official OpenAI SDK. It also
// works against OpenAI-compatible gateways via WithBaseURL.
type Client struct {
	sdk        openai.Client
	token      TokenSource
	baseURL    string
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

// NewClient creates a Client whose key is resolved from token on every
// request. SDK retries are disabled: a failed request is reported as is.
func NewClient(token TokenSource, opts ...Option) (*Client, error) {
	if token == nil {
		return nil, errors.New("openai: token source must not be nil")
	}
	c := &Client{token: token, baseURL: defaultBaseURL}
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
	c.sdk = openai.NewClient(sdkOpts...)
	return c, nil
}

func (c *Client) Complete(ctx context.Context, model string, messages []domain.ChatMessage) (domain.ChatResponse, error) {
	if strings.TrimSpace(model) == "" {
		return domain.ChatResponse{}, errors.New("openai: model must not be empty")
	}
	apiKey, err := c.token.Resolve(ctx)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("openai: resolve api key: %w", err)
	}
	if apiKey == "" {
		return domain.ChatResponse{}, errors.New("openai: api key is empty")
	}

	completion, err := c.sdk.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toSDKMessages(messages),
	}, option.WithAPIKey(apiKey))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return domain.ChatResponse{}, fmt.Errorf("openai: unexpected status %d: %w", apiErr.StatusCode, err)
		}
		return domain.ChatResponse{}, fmt.Errorf("openai: request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.ChatResponse{}, errors.New("openai: no choices in response")
	}

	return domain.ChatResponse{
		Content:     completion.Choices[0].Message.Content,
		TotalTokens: int(completion.Usage.TotalTokens),
	}, nil
}

func toSDKMessages(messages []domain.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case domain.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
