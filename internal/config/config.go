package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN,required"`
	AdminChatIDs     []int64 `env:"ADMIN_CHAT_IDS,required" envSeparator:":"`
	AdminUserIDs     []int64 `env:"ADMIN_USER_IDS" envSeparator:":"`

	// Storage
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/bot.db"`
	JournalPath  string `env:"JOURNAL_PATH" envDefault:"logs/questions.jsonl"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Content
	ContentPath string `env:"CONTENT_PATH"`
	MediaDir    string `env:"MEDIA_DIR" envDefault:"."`

	// Broadcast
	BroadcastWorkers int           `env:"BROADCAST_WORKERS" envDefault:"8"`
	BroadcastTimeout time.Duration `env:"BROADCAST_TIMEOUT" envDefault:"10s"`

	// Daily report, empty disables it
	ReportSchedule string `env:"REPORT_SCHEDULE" envDefault:"0 18 * * *"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Formatting
	MessageParseMode string `env:"MESSAGE_PARSE_MODE" envDefault:"HTML"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.TelegramBotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is empty"))
	}
	if len(c.AdminChatIDs) == 0 {
		errs = append(errs, errors.New("ADMIN_CHAT_IDS must list at least one chat"))
	}
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case ProviderYandex:
		if c.YandexOAuthToken == "" || c.YandexFolderID == "" {
			errs = append(errs, errors.New("YANDEX_OAUTH_TOKEN and YANDEX_FOLDER_ID are required for the yandex provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	if c.BroadcastWorkers < 1 {
		errs = append(errs, errors.New("BROADCAST_WORKERS must be positive"))
	}
	if c.BroadcastTimeout <= 0 {
		errs = append(errs, errors.New("BROADCAST_TIMEOUT must be positive"))
	}
	switch c.LogFormat {
	case "text", "json", "color":
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
