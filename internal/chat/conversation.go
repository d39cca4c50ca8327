// Package chat holds the conversation session used to talk to a completion
// provider. A Conversation accumulates role-tagged messages and submits the
// whole history on Send.
package chat

import (
	"context"
	"errors"
	"strings"

	"source-annotator/internal/domain"
)

// Completer is implemented by every provider adapter.
type Completer interface {
	Complete(ctx context.Context, model string, messages []domain.ChatMessage) (domain.ChatResponse, error)
}

// Conversation is an ordered message history bound to one model. It is not
// safe for concurrent use.
type Conversation struct {
	completer Completer
	model     string
	messages  []domain.ChatMessage
}

// NewConversation starts an empty conversation against model.
func NewConversation(c Completer, model string) (*Conversation, error) {
	if c == nil {
		return nil, errors.New("chat: completer must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("chat: model must not be empty")
	}
	return &Conversation{completer: c, model: model}, nil
}

// Model returns the model identifier the conversation was created with.
func (c *Conversation) Model() string {
	return c.model
}

// Append adds context without contacting the provider.
func (c *Conversation) Append(msg domain.ChatMessage) {
	c.messages = append(c.messages, msg)
}

// Send appends msg, submits the history and blocks until the provider
// answers. The assistant reply is appended on success; on failure the
// history keeps msg so the caller can inspect what was sent.
func (c *Conversation) Send(ctx context.Context, msg domain.ChatMessage) (domain.ChatResponse, error) {
	c.Append(msg)
	resp, err := c.completer.Complete(ctx, c.model, c.Messages())
	if err != nil {
		return domain.ChatResponse{}, err
	}
	c.Append(domain.ChatMessage{Role: domain.RoleAssistant, Content: resp.Content})
	return resp, nil
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}
