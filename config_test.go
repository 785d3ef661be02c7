package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MELCLOUD_TOKEN", "")
	t.Setenv("MELCLOUD_EMAIL", "")
	t.Setenv("MELCLOUD_PASSWORD", "")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "tcp://127.0.0.1:1883", config.Mqtt.Server)
	assert.Equal(t, "melcloud2mqtt", config.TopicPrefix)
	assert.Equal(t, "homeassistant", config.HassPrefix)
	assert.Equal(t, INTEGRATION_CURRENT, config.Integration)
	assert.Equal(t, 5*time.Second, config.PollInterval)
	assert.Equal(t, "", config.Token)

	domain, err := config.Domain()
	require.NoError(t, err)
	assert.Equal(t, "melcloudexp", domain)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("MELCLOUD_TOKEN", "env-token")
	t.Setenv("MELCLOUD_EMAIL", "")
	t.Setenv("MELCLOUD_PASSWORD", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mqtt:
  server: tcp://broker:1883
  username: bridge
integration: legacy
poll_interval: 30s
token: file-token
`), 0600))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker:1883", config.Mqtt.Server)
	assert.Equal(t, "bridge", config.Mqtt.Username)
	assert.NotEmpty(t, config.Mqtt.ClientID)
	assert.Equal(t, 30*time.Second, config.PollInterval)
	assert.Equal(t, "env-token", config.Token)

	domain, err := config.Domain()
	require.NoError(t, err)
	assert.Equal(t, "melcloud", domain)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("integration: future\n"), 0600))
	_, err = LoadConfig(path)
	assert.True(t, errors.Is(err, ErrUnknownIntegration))

	require.NoError(t, os.WriteFile(path, []byte("poll_interval: 0s\n"), 0600))
	_, err = LoadConfig(path)
	assert.True(t, errors.Is(err, ErrInvalidPollInterval))

	require.NoError(t, os.WriteFile(path, []byte("poll_interval: -5s\n"), 0600))
	_, err = LoadConfig(path)
	assert.True(t, errors.Is(err, ErrInvalidPollInterval))
}

func TestLoadConfigIntervalFlag(t *testing.T) {
	t.Setenv("MELCLOUD_TOKEN", "")
	flagConfig = ""
	defer func() { flagInterval = 0 }()

	require.NoError(t, runCmd.Flags().Set("interval", "0s"))
	_, err := loadConfig(runCmd)
	assert.True(t, errors.Is(err, ErrInvalidPollInterval))

	require.NoError(t, runCmd.Flags().Set("interval", "10s"))
	config, err := loadConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, config.PollInterval)
}
