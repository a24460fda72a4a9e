package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type LLMProvider string

const (
	ProviderGemini    LLMProvider = "gemini"
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderYandex    LLMProvider = "yandex"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	AdminUserID      int64  `env:"ADMIN_USER"`

	// LLM settings
	ProviderPriority []string      `env:"AI_PROVIDER_PRIORITY" envSeparator:"," envDefault:"gemini,openai,anthropic,yandex"`
	ProviderTimeout  time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`

	GeminiAPIKey      string  `env:"GEMINI_API_KEY"`
	GeminiModel       string  `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiTemperature float32 `env:"GEMINI_TEMPERATURE" envDefault:"0.7"`
	GeminiMaxTokens   int     `env:"GEMINI_MAX_TOKENS" envDefault:"4096"`

	OpenAIAPIKey      string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string  `env:"OPENAI_BASE_URL"`
	OpenAIModel       string  `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAITemperature float32 `env:"OPENAI_TEMPERATURE" envDefault:"0.7"`
	OpenAIMaxTokens   int     `env:"OPENAI_MAX_TOKENS" envDefault:"2000"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	AnthropicAPIKey      string  `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL     string  `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com/v1/"`
	AnthropicModel       string  `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-latest"`
	AnthropicTemperature float32 `env:"ANTHROPIC_TEMPERATURE" envDefault:"0.7"`
	AnthropicMaxTokens   int     `env:"ANTHROPIC_MAX_TOKENS" envDefault:"2000"`

	YandexOAuthToken string `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string `env:"YANDEX_FOLDER_ID"`

	// Rate limiting
	RateLimitRequests  int           `env:"RATE_LIMIT_REQUESTS" envDefault:"50"`
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`
	RateLimitKeyPrefix string        `env:"RATE_LIMIT_KEY_PREFIX" envDefault:"rate_limit:user:"`
	RedisAddr          string        `env:"REDIS_ADDR"`
	RedisPassword      string        `env:"REDIS_PASSWORD"`
	RedisDB            int           `env:"REDIS_DB" envDefault:"0"`

	// Interview
	MinMessageLength      int    `env:"MIN_MESSAGE_LENGTH" envDefault:"10"`
	MentoringContextTurns int    `env:"MENTORING_CONTEXT_TURNS" envDefault:"5"`
	FieldsFilePath        string `env:"FIELDS_FILE_PATH"`

	// Logging and storage
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`
	LogFilePath string `env:"LOG_FILE_PATH" envDefault:"logs/events.jsonl"`

	// Schedules
	ReportCron string `env:"REPORT_CRON" envDefault:"0 21 * * *"`
	SweepCron  string `env:"SWEEP_CRON" envDefault:"@every 10m"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	for i, p := range cfg.ProviderPriority {
		cfg.ProviderPriority[i] = strings.ToLower(strings.TrimSpace(p))
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func New() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	return cfg
}

// Validate checks values that would otherwise fail deep inside the engine.
func (c *Config) Validate() error {
	if len(c.ProviderPriority) == 0 {
		return errors.New("AI_PROVIDER_PRIORITY cannot be empty")
	}
	for _, p := range c.ProviderPriority {
		switch LLMProvider(p) {
		case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderYandex:
		default:
			return errors.Errorf("unknown llm provider in AI_PROVIDER_PRIORITY: %q", p)
		}
	}
	if c.ProviderTimeout <= 0 {
		return errors.New("AI_TIMEOUT must be > 0")
	}
	if c.RateLimitRequests <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be > 0")
	}
	if c.MinMessageLength < 0 {
		return errors.New("MIN_MESSAGE_LENGTH must be >= 0")
	}
	if c.MentoringContextTurns <= 0 {
		return errors.New("MENTORING_CONTEXT_TURNS must be > 0")
	}
	return nil
}
