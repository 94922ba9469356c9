package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `yaml:"port" env:"PORT" env-default:"8080"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL" env-required:"true"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`

	EncryptionKey string `yaml:"encryption_key" env:"ENCRYPTION_KEY" env-required:"true"`
	OwnerUserID   string `yaml:"owner_user_id" env:"OWNER_USER_ID" env-default:"owner"`

	Log       LogConfig       `yaml:"log"`
	Discord   DiscordConfig   `yaml:"discord"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	NgrokAuthtoken     string        `yaml:"ngrok_authtoken" env:"NGROK_AUTHTOKEN"`
	WebhookTimeout     time.Duration `yaml:"webhook_timeout" env:"WEBHOOK_TIMEOUT" env-default:"10s"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"logfmt"`
}

type DiscordConfig struct {
	BotToken       string        `yaml:"bot_token" env:"DISCORD_BOT_TOKEN"`
	AlertChannelID string        `yaml:"alert_channel_id" env:"DISCORD_ALERT_CHANNEL_ID"`
	NotifyTimeout  time.Duration `yaml:"notify_timeout" env:"NOTIFY_TIMEOUT" env-default:"10s"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL string `yaml:"base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
	Model   string `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
}

type SchedulerConfig struct {
	AlertSchedule      string `yaml:"alert_schedule" env:"ALERT_SCHEDULE" env-default:"0 * * * *"`
	A2PSummarySchedule string `yaml:"a2p_summary_schedule" env:"A2P_SUMMARY_SCHEDULE" env-default:"0 9 * * *"`
	Timezone           string `yaml:"timezone" env:"SCHEDULER_TIMEZONE" env-default:"UTC"`
}

// LoadEnv populates the process environment from a local .env file.
// Hosted deploys inject variables directly, so the file is skipped there.
func LoadEnv() error {
	if os.Getenv("RAILWAY_ENVIRONMENT") != "" {
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("LoadEnv: %w", err)
	}
	return nil
}

// Load reads configuration from CONFIG_PATH (when set) and the environment.
// Environment values take precedence over the file.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.EncryptionKey) != 32 {
		return errors.New("ENCRYPTION_KEY must be 32 characters long for AES-256 encryption")
	}
	switch strings.ToLower(c.Log.Format) {
	case "logfmt", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.Log.Format)
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("invalid SCHEDULER_TIMEZONE %q: %w", c.Scheduler.Timezone, err)
	}
	return nil
}

// Location returns the scheduler timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) DiscordEnabled() bool {
	return c.Discord.BotToken != ""
}
