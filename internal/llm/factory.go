package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"career-mentor/internal/config"
)

const (
	ProviderGemini    = string(config.ProviderGemini)
	ProviderOpenAI    = string(config.ProviderOpenAI)
	ProviderAnthropic = string(config.ProviderAnthropic)
	ProviderYandex    = string(config.ProviderYandex)
)

// Factory creates providers with consistent logic
type Factory struct {
	cfg *config.Config
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg}
}

// Build returns the configured providers in priority order. Providers without
// credentials or whose construction fails are logged and skipped; an unknown
// name is a configuration error.
func (f *Factory) Build(ctx context.Context) ([]Provider, error) {
	var out []Provider
	for _, name := range f.cfg.ProviderPriority {
		p, err := f.CreateProvider(ctx, name)
		if err != nil {
			if err == errNotConfigured {
				log.Info().Str("provider", name).Msg("provider not configured, skipping")
				continue
			}
			if _, unknown := err.(unknownProviderError); unknown {
				return nil, err
			}
			log.Warn().Err(err).Str("provider", name).Msg("provider init failed, skipping")
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		log.Warn().Msg("no llm providers available, replies will use canned text")
	}
	return out, nil
}

var errNotConfigured = fmt.Errorf("provider not configured")

type unknownProviderError string

func (e unknownProviderError) Error() string { return "unknown llm provider: " + string(e) }

func (f *Factory) CreateProvider(ctx context.Context, name string) (Provider, error) {
	c := f.cfg
	switch name {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return nil, errNotConfigured
		}
		return NewGemini(ctx, c.GeminiAPIKey, Settings{Model: c.GeminiModel, Temperature: c.GeminiTemperature, MaxTokens: c.GeminiMaxTokens})
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return nil, errNotConfigured
		}
		return NewOpenAI(c.OpenAIAPIKey, c.OpenAIBaseURL, c.OpenRouterReferrer, c.OpenRouterTitle,
			Settings{Model: c.OpenAIModel, Temperature: c.OpenAITemperature, MaxTokens: c.OpenAIMaxTokens}), nil
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return nil, errNotConfigured
		}
		return NewAnthropic(c.AnthropicAPIKey, c.AnthropicBaseURL,
			Settings{Model: c.AnthropicModel, Temperature: c.AnthropicTemperature, MaxTokens: c.AnthropicMaxTokens}), nil
	case ProviderYandex:
		if c.YandexOAuthToken == "" || c.YandexFolderID == "" {
			return nil, errNotConfigured
		}
		return NewYandex(c.YandexOAuthToken, c.YandexFolderID)
	default:
		return nil, unknownProviderError(name)
	}
}
