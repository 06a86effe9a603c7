package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"appforge/internal/config"
)

const claudeMaxTokens = 8192

// KeyStore resolves API keys that are not present in the static config,
// typically from the OS keyring.
type KeyStore interface {
	GetApiKey(provider string) (string, error)
}

// ModelFactory builds chat models per provider from configuration.
type ModelFactory struct {
	cfg  config.ProvidersConfig
	keys KeyStore
}

func NewModelFactory(cfg config.ProvidersConfig, keys KeyStore) *ModelFactory {
	return &ModelFactory{cfg: cfg, keys: keys}
}

// Build constructs a tool-calling chat model for the given provider.
func (f *ModelFactory) Build(ctx context.Context, provider Provider) (model.ToolCallingChatModel, error) {
	switch provider {
	case ProviderOpenAI:
		key, err := f.apiKey("openai", f.cfg.OpenAI.APIKey)
		if err != nil {
			return nil, err
		}
		m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  key,
			Model:   f.cfg.OpenAI.Model,
			BaseURL: f.cfg.OpenAI.BaseURL,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create openai chat model")
		}
		return m, nil

	case ProviderDeepSeek, ProviderDeepSeekReasoning:
		key, err := f.apiKey("deepseek", f.cfg.DeepSeek.APIKey)
		if err != nil {
			return nil, err
		}
		modelName := f.cfg.DeepSeek.Model
		if provider == ProviderDeepSeekReasoning {
			modelName = f.cfg.DeepSeek.ReasoningModel
		}
		m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  key,
			Model:   modelName,
			BaseURL: f.cfg.DeepSeek.BaseURL,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create deepseek chat model")
		}
		return m, nil

	case ProviderClaude:
		key, err := f.apiKey("claude", f.cfg.Claude.APIKey)
		if err != nil {
			return nil, err
		}
		conf := &claude.Config{
			APIKey:    key,
			Model:     f.cfg.Claude.Model,
			MaxTokens: claudeMaxTokens,
		}
		if f.cfg.Claude.BaseURL != "" {
			baseURL := f.cfg.Claude.BaseURL
			conf.BaseURL = &baseURL
		}
		m, err := claude.NewChatModel(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "create claude chat model")
		}
		return m, nil

	case ProviderGemini:
		key, err := f.apiKey("gemini", f.cfg.Gemini.APIKey)
		if err != nil {
			return nil, err
		}
		genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create genai client")
		}
		m, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client: genaiClient,
			Model:  f.cfg.Gemini.Model,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create gemini chat model")
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// apiKey returns the configured key, falling back to the keyring.
func (f *ModelFactory) apiKey(provider, configured string) (string, error) {
	if strings.TrimSpace(configured) != "" {
		return configured, nil
	}
	if f.keys != nil {
		key, err := f.keys.GetApiKey(provider)
		if err == nil && strings.TrimSpace(key) != "" {
			return key, nil
		}
		if err != nil {
			log.Debug().Str("provider", provider).Err(err).Msg("keyring lookup failed")
		}
	}
	return "", fmt.Errorf("no API key configured for provider %q", provider)
}
