package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"source-annotator/internal/domain"
)

type fakeToken struct {
	val string
	err error
}

func (f fakeToken) Resolve(context.Context) (string, error) { return f.val, f.err }

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	}, opts...)
	c, err := NewClient(fakeToken{val: "sk-ant-test"}, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_NilToken(t *testing.T) {
	_, err := NewClient(nil)
	require.ErrorContains(t, err, "nil")
}

func TestClient_Complete_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			System    []struct {
				Text string `json:"text"`
			} `json:"system"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		require.Equal(t, "claude-test", body.Model)
		require.Equal(t, 2048, body.MaxTokens)
		require.Len(t, body.System, 1)
		require.Equal(t, "persona", body.System[0].Text)
		require.Len(t, body.Messages, 1)
		require.Equal(t, "user", body.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "annotated"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 30, "output_tokens": 12}
		}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv, WithMaxTokens(2048)).Complete(context.Background(), "claude-test", []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "persona"},
		{Role: domain.RoleUser, Content: "annotate this"},
	})
	require.NoError(t, err)
	require.Equal(t, "annotated", resp.Content)
	require.Equal(t, 42, resp.TotalTokens)
}

func TestClient_Complete_StatusError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Complete(context.Background(), "claude-test", []domain.ChatMessage{{Role: domain.RoleUser, Content: "x"}})
	require.ErrorContains(t, err, "unexpected status 429")
	require.Equal(t, 1, calls)
}

func TestClient_Complete_NoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","content":[],"usage":{"input_tokens":1,"output_tokens":0}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Complete(context.Background(), "claude-test", []domain.ChatMessage{{Role: domain.RoleUser, Content: "x"}})
	require.ErrorContains(t, err, "no text content")
}

func TestClient_Complete_TokenError(t *testing.T) {
	c, err := NewClient(fakeToken{err: errors.New("ssm unavailable")})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "claude-test", nil)
	require.ErrorContains(t, err, "ssm unavailable")
}

func TestSplitSystem(t *testing.T) {
	turns, system := splitSystem([]domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "a"},
		{Role: domain.RoleSystem, Content: "b"},
		{Role: domain.RoleUser, Content: "c"},
		{Role: domain.RoleAssistant, Content: "d"},
	})
	require.Len(t, system, 2)
	require.Equal(t, "b", system[1].Text)
	require.Len(t, turns, 2)
	require.Equal(t, "user", string(turns[0].Role))
	require.Equal(t, "assistant", string(turns[1].Role))
}
