package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// tokenPayload is the JSON shape stored in SSM for provider API tokens.
type tokenPayload struct {
	Token string `json:"token"`
}

// Token is a provider API token that is either fixed at construction or
// fetched from SSM on first use and cached for the process lifetime.
type Token struct {
	getter Getter
	name   string

	once  sync.Once
	value string
	err   error
}

// StaticToken wraps an already known token. An empty value is allowed and
// resolves to "" so keyless providers can share the same plumbing.
func StaticToken(value string) *Token {
	t := &Token{value: strings.TrimSpace(value)}
	t.once.Do(func() {})
	return t
}

// UnavailableToken is a Token whose Resolve always fails with err. It lets a
// missing key surface on the first request instead of at startup.
func UnavailableToken(err error) *Token {
	t := &Token{err: err}
	t.once.Do(func() {})
	return t
}

// NewToken returns a Token read lazily from the SSM parameter name.
func NewToken(getter Getter, name string) (*Token, error) {
	if getter == nil {
		return nil, errors.New("paramstore: token getter must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("paramstore: token parameter name is empty")
	}
	return &Token{getter: getter, name: name}, nil
}

// Resolve returns the token, contacting SSM at most once. A failed fetch is
// cached as well; the CLI runs once per process so there is no retry.
func (t *Token) Resolve(ctx context.Context) (string, error) {
	t.once.Do(func() {
		t.value, t.err = fetchToken(ctx, t.getter, t.name)
	})
	return t.value, t.err
}

func fetchToken(ctx context.Context, getter Getter, name string) (string, error) {
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch token: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("paramstore: unmarshal token value as JSON: %w", err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", errors.New("paramstore: API token is empty")
	}
	return strings.TrimSpace(tp.Token), nil
}
