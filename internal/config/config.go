// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gitlab.com/yelinaung/savings-tracker/internal/telemetry"
)

// Defaults applied when the variable is unset.
const (
	DefaultHTTPAddr           = ":4000"
	DefaultCORSOrigin         = "http://localhost:5173"
	DefaultSessionTTLDays     = 30
	DefaultShareBaseURL       = "https://ahorro.app"
	DefaultReminderTimezone   = "Europe/Madrid"
	DefaultAutomationInterval = time.Hour
	DefaultAMQPExchange       = "savings.events"
	DefaultOTelServiceName    = "savings-tracker"
)

// Config holds all configuration for the application.
type Config struct {
	DatabaseURL    string
	HTTPAddr       string
	CORSOrigin     string
	SessionTTLDays int
	ShareBaseURL   string

	LogLevel  string
	LogFormat string

	// TelegramBotToken enables the bot. Empty disables it.
	TelegramBotToken string
	GeminiAPIKey     string
	GeminiModel      string

	// AMQPURL enables completion events. Empty disables them.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	ReminderTimezone   string
	AutomationInterval time.Duration

	OTelExporter    string
	OTelServiceName string

	Debug bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPAddr:         envOr("HTTP_ADDR", DefaultHTTPAddr),
		CORSOrigin:       envOr("CORS_ORIGIN", DefaultCORSOrigin),
		ShareBaseURL:     strings.TrimRight(envOr("SHARE_BASE_URL", DefaultShareBaseURL), "/"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        os.Getenv("LOG_FORMAT"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      os.Getenv("GEMINI_MODEL"),
		AMQPURL:          os.Getenv("AMQP_URL"),
		AMQPExchange:     envOr("AMQP_EXCHANGE", DefaultAMQPExchange),
		AMQPQueue:        os.Getenv("AMQP_QUEUE"),
		ReminderTimezone: envOr("REMINDER_TIMEZONE", DefaultReminderTimezone),
		OTelExporter:     strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_EXPORTER"))),
		OTelServiceName:  envOr("OTEL_SERVICE_NAME", DefaultOTelServiceName),
		Debug:            os.Getenv("DEBUG") == "true",
	}

	var parseErrs []string

	cfg.SessionTTLDays = DefaultSessionTTLDays
	if s := os.Getenv("TOKEN_TTL_DAYS"); s != "" {
		days, err := strconv.Atoi(s)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Sprintf("TOKEN_TTL_DAYS must be an integer, got %q", s))
		} else {
			cfg.SessionTTLDays = days
		}
	}

	cfg.AutomationInterval = DefaultAutomationInterval
	if s := os.Getenv("AUTOMATION_INTERVAL"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Sprintf("AUTOMATION_INTERVAL must be a duration, got %q", s))
		} else {
			cfg.AutomationInterval = d
		}
	}

	if err := cfg.validate(parseErrs...); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// validate checks that all required configuration is present and consistent.
func (c *Config) validate(errs ...string) error {
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.SessionTTLDays <= 0 {
		errs = append(errs, "TOKEN_TTL_DAYS must be positive")
	}

	if c.AutomationInterval <= 0 {
		errs = append(errs, "AUTOMATION_INTERVAL must be positive")
	}

	if _, err := time.LoadLocation(c.ReminderTimezone); err != nil {
		errs = append(errs, fmt.Sprintf("REMINDER_TIMEZONE %q is not a valid time zone", c.ReminderTimezone))
	}

	if !telemetry.ValidExporter(c.OTelExporter) {
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER %q is not one of stdout, otlp-http, otlp-grpc", c.OTelExporter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// SessionTTL is the lifetime of a login session.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLDays) * 24 * time.Hour
}

// Location returns the reminder time zone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BotEnabled reports whether the Telegram front-end should run.
func (c *Config) BotEnabled() bool {
	return c.TelegramBotToken != ""
}

// EventsEnabled reports whether completion events are published.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}
