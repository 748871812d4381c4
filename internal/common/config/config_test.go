package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.Tracker.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Tracker.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Tracker.HTTPTimeout)
	assert.Equal(t, ":8080", cfg.UI.ListenAddr)
	assert.Equal(t, 5, cfg.Alert.FailureThreshold)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TRACKER_BASE_URL", "https://tracker.example.com")
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("UI_LISTEN_ADDR", ":9090")
	t.Setenv("ALERT_FAILURE_THRESHOLD", "10")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://tracker.example.com", cfg.Tracker.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Tracker.PollInterval)
	assert.Equal(t, ":9090", cfg.UI.ListenAddr)
	assert.Equal(t, 10, cfg.Alert.FailureThreshold)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Tracker.PollInterval)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("TRACKER_BASE_URL", "not a url")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsSubSecondInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "100ms")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsBadWebhookURL(t *testing.T) {
	t.Setenv("ALERT_WEBHOOK_URL", "::::")
	_, err := Load()
	assert.Error(t, err)
}
