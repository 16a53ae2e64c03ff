package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type StoreDriver string

const (
	StoreBolt   StoreDriver = "bolt"
	StoreMongo  StoreDriver = "mongo"
	StoreMemory StoreDriver = "memory"
)

type NotifyDriver string

const (
	NotifyNone     NotifyDriver = "none"
	NotifyGmail    NotifyDriver = "gmail"
	NotifyTelegram NotifyDriver = "telegram"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8000"`
	RepoURL  string `env:"REPO_URL" envDefault:"https://github.com/bosingva/my_ai_assistant"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// 0 sends the whole history on every turn.
	MaxHistoryMessages int `env:"MAX_HISTORY_MESSAGES" envDefault:"0"`

	// Persona
	AssistantName    string   `env:"ASSISTANT_NAME" envDefault:"Dimitri"`
	PersonaDocuments []string `env:"PERSONA_DOCUMENTS" envSeparator:"," envDefault:"Profile=docs/profile.md,Current Infrastructure (This Application)=docs/infrastructure.md,EKS Online Boutique Project=docs/eks_project.md"`

	// Storage
	StoreDriver           StoreDriver   `env:"STORE_DRIVER" envDefault:"bolt"`
	BoltPath              string        `env:"BOLT_PATH" envDefault:"data/conversations.bolt"`
	MongoURI              string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase         string        `env:"MONGO_DATABASE" envDefault:"assistant"`
	ConversationsTable    string        `env:"CONVERSATIONS_TABLE" envDefault:"ai-assistant-conversations"`
	Region                string        `env:"AWS_REGION" envDefault:"us-east-1"`
	RecordLinkTemplate    string        `env:"RECORD_LINK_TEMPLATE"`
	ConversationRetention time.Duration `env:"CONVERSATION_RETENTION" envDefault:"2160h"`

	// Session cookie
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`

	// Notifications
	NotifyDriver      NotifyDriver `env:"NOTIFY_DRIVER" envDefault:"none"`
	NotifyRecipient   string       `env:"NOTIFY_RECIPIENT"`
	NotifySender      string       `env:"NOTIFY_SENDER" envDefault:"noreply@talk-to-my-ai.click"`
	GmailClientID     string       `env:"GMAIL_CLIENT_ID"`
	GmailClientSecret string       `env:"GMAIL_CLIENT_SECRET"`
	GmailRefreshToken string       `env:"GMAIL_REFRESH_TOKEN"`
	TelegramBotToken  string       `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID    int64        `env:"TELEGRAM_CHAT_ID"`

	// Scheduled jobs; an empty schedule disables the job.
	RetentionSchedule string `env:"RETENTION_SCHEDULE" envDefault:"@hourly"`
	DigestSchedule    string `env:"DIGEST_SCHEDULE"`

	ExposeConversations bool `env:"EXPOSE_CONVERSATIONS" envDefault:"false"`

	// Logging
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// New parses the process environment into a Config and validates it.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderYandex:
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLMProvider)
	}
	switch c.StoreDriver {
	case StoreBolt, StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("unknown store driver: %s", c.StoreDriver)
	}
	switch c.NotifyDriver {
	case NotifyNone:
	case NotifyGmail:
		if c.NotifyRecipient == "" {
			return fmt.Errorf("NOTIFY_RECIPIENT is required for the gmail notifier")
		}
	case NotifyTelegram:
		if c.TelegramChatID == 0 {
			return fmt.Errorf("TELEGRAM_CHAT_ID is required for the telegram notifier")
		}
	default:
		return fmt.Errorf("unknown notify driver: %s", c.NotifyDriver)
	}
	if c.MaxHistoryMessages < 0 {
		return fmt.Errorf("MAX_HISTORY_MESSAGES must not be negative")
	}
	if c.ConversationRetention <= 0 {
		return fmt.Errorf("CONVERSATION_RETENTION must be positive")
	}
	return nil
}
