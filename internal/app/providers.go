package app

import (
	"errors"
	"fmt"
	"os"

	"source-annotator/internal/chat"
	"source-annotator/internal/config"
	"source-annotator/internal/integrations/anthropic"
	"source-annotator/internal/integrations/ollama"
	"source-annotator/internal/integrations/openai"
	"source-annotator/internal/integrations/paramstore"
)

// standardKeyEnv is consulted when neither an explicit key nor an SSM prefix
// is configured.
var standardKeyEnv = map[string]string{
	config.ProviderOpenAI:    "OPENAI_API_KEY",
	config.ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// newTokenSource picks where the provider API key comes from: an explicit
// key, then SSM when a parameter prefix is set, then the provider's usual
// environment variable. getter may be nil when no prefix is configured.
// A missing key is reported when the first request resolves it, after the
// source file has been read.
func newTokenSource(cfg config.Config, getter paramstore.Getter) (*paramstore.Token, error) {
	if cfg.APIKey != "" {
		return paramstore.StaticToken(cfg.APIKey), nil
	}
	if cfg.ParamPrefix != "" {
		if getter == nil {
			return nil, errors.New("app: parameter store client is required when param_prefix is set")
		}
		return paramstore.NewToken(getter, paramstore.Join(cfg.ParamPrefix, cfg.Provider+"-token"))
	}
	if name, ok := standardKeyEnv[cfg.Provider]; ok {
		if v := os.Getenv(name); v != "" {
			return paramstore.StaticToken(v), nil
		}
		return paramstore.UnavailableToken(fmt.Errorf("app: no API key for %s (set ANNOTATOR_API_KEY, %s or ANNOTATOR_PARAM_PREFIX)", cfg.Provider, name)), nil
	}
	return paramstore.StaticToken(""), nil
}

// NewChatClient creates the completion client for cfg.Provider.
func NewChatClient(cfg config.Config, token *paramstore.Token) (chat.Completer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c, err := openai.NewClient(token, openai.WithBaseURL(cfg.BaseURL))
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderAnthropic:
		c, err := anthropic.NewClient(token,
			anthropic.WithBaseURL(cfg.BaseURL),
			anthropic.WithMaxTokens(cfg.MaxTokens),
		)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderOllama:
		c, err := ollama.NewClient(cfg.BaseURL, nil)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("app: unknown provider %q", cfg.Provider)
	}
}
