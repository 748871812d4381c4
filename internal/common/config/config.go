package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Tracker TrackerConfig
	UI      UIConfig
	Alert   AlertConfig
	Logging LoggingConfig
}

// TrackerConfig for the remote tracking service the client talks to
type TrackerConfig struct {
	BaseURL      string        `validate:"required,url"`
	PollInterval time.Duration `validate:"required,min=1s"`
	HTTPTimeout  time.Duration `validate:"required,min=1s"`
	CatalogFile  string        // optional YAML stop catalog override
}

// UIConfig for the local presentation surface
type UIConfig struct {
	ListenAddr string `validate:"required"`
}

// AlertConfig for operator webhook alerts on poll failures
type AlertConfig struct {
	WebhookURL       string `validate:"omitempty,url"`
	FailureThreshold int    `validate:"min=1"`
}

type LoggingConfig struct {
	Level    string
	FilePath string
}

func Load() (*Config, error) {
	cfg := &Config{
		Tracker: TrackerConfig{
			BaseURL:      getEnv("TRACKER_BASE_URL", "http://localhost:5000"),
			PollInterval: getDurationEnv("POLL_INTERVAL", 5*time.Second),
			HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 10*time.Second),
			CatalogFile:  getEnv("CATALOG_FILE", ""),
		},
		UI: UIConfig{
			ListenAddr: getEnv("UI_LISTEN_ADDR", ":8080"),
		},
		Alert: AlertConfig{
			WebhookURL:       getEnv("ALERT_WEBHOOK_URL", ""),
			FailureThreshold: getIntEnv("ALERT_FAILURE_THRESHOLD", 5),
		},
		Logging: LoggingConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			FilePath: getEnv("LOG_FILE", "trolleytracker.log"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values against their struct tags.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c.Tracker); err != nil {
		return fmt.Errorf("tracker config: %w", err)
	}
	if err := v.Struct(c.UI); err != nil {
		return fmt.Errorf("ui config: %w", err)
	}
	if err := v.Struct(c.Alert); err != nil {
		return fmt.Errorf("alert config: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
