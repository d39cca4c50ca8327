// Package ollama adapts a local Ollama server to chat.Completer.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"source-annotator/internal/domain"
)

const defaultBaseURL = "http://localhost:11434"

type Client struct {
	api *api.Client
}

// NewClient connects to baseURL, defaulting to the local Ollama port. A nil
// httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("ollama: invalid base url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{api: api.NewClient(parsed, httpClient)}, nil
}

func (c *Client) Complete(ctx context.Context, model string, messages []domain.ChatMessage) (domain.ChatResponse, error) {
	if strings.TrimSpace(model) == "" {
		return domain.ChatResponse{}, errors.New("ollama: model must not be empty")
	}

	msgs := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Content})
	}
	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   &stream,
	}

	var (
		text  strings.Builder
		final api.ChatResponse
	)
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		if resp.Done {
			final = resp
		}
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return domain.ChatResponse{}, fmt.Errorf("ollama: unexpected status %d: %w", statusErr.StatusCode, err)
		}
		return domain.ChatResponse{}, fmt.Errorf("ollama: request failed: %w", err)
	}
	if !final.Done {
		return domain.ChatResponse{}, errors.New("ollama: response ended before completion")
	}

	return domain.ChatResponse{
		Content:     text.String(),
		TotalTokens: final.PromptEvalCount + final.EvalCount,
	}, nil
}
