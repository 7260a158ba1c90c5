package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type Config struct {
	Token            string        `env:"TOKEN_BOT,required,notEmpty"`
	AssetsDir        string        `env:"ASSETS_DIR" envDefault:".assets"`
	CatalogFile      string        `env:"CATALOG_FILE"`
	CatalogWatch     bool          `env:"CATALOG_WATCH" envDefault:"true"`
	Mode             string        `env:"MODE" envDefault:"polling"`
	PollTimeout      time.Duration `env:"POLL_TIMEOUT" envDefault:"10s"`
	WebhookURL       string        `env:"WEBHOOK_URL"`
	WebhookSecret    string        `env:"WEBHOOK_SECRET"`
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	KeyboardRowWidth int           `env:"KEYBOARD_ROW_WIDTH" envDefault:"2"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	DeveloperChatID  int64         `env:"DEVELOPER_CHAT_ID" envDefault:"0"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(dotenv ...string) (Config, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return Parse()
}

func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.WebhookURL == "" {
			return errors.New("WEBHOOK_URL is required in webhook mode")
		}
		if c.HTTPAddr == "" {
			return errors.New("HTTP_ADDR is required in webhook mode")
		}
	default:
		return fmt.Errorf("unknown MODE %q, want %q or %q", c.Mode, ModePolling, ModeWebhook)
	}
	if c.KeyboardRowWidth < 1 || c.KeyboardRowWidth > 8 {
		return fmt.Errorf("KEYBOARD_ROW_WIDTH must be between 1 and 8, got %d", c.KeyboardRowWidth)
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("POLL_TIMEOUT must be positive, got %s", c.PollTimeout)
	}
	return nil
}
