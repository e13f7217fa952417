package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 5*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, time.Minute, cfg.StatsInterval)
	assert.True(t, cfg.Notifications)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `{
		"channel": "sometv",
		"apiHost": "example.test",
		"brokerUrl": "wss://example.test/app/key",
		"heartbeatSeconds": 20,
		"reconnectDelaySeconds": 3,
		"notifications": false,
		"statsIntervalSeconds": 30,
		"pyroscope": {"enabled": true, "serverAddress": "http://pyroscope:4040"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sometv", cfg.Channel)
	assert.Equal(t, "example.test", cfg.APIHost)
	assert.Equal(t, "wss://example.test/app/key", cfg.BrokerURL)
	assert.Equal(t, 20*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 3*time.Second, cfg.ReconnectDelay)
	assert.False(t, cfg.Notifications)
	assert.Equal(t, 30*time.Second, cfg.StatsInterval)
	assert.True(t, cfg.Pyroscope.Enabled)
	assert.Equal(t, "http://pyroscope:4040", cfg.Pyroscope.ServerAddress)
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{"channel": "sometv"}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sometv", cfg.Channel)
	assert.Equal(t, 10*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 5*time.Second, cfg.ReconnectDelay)
	assert.True(t, cfg.Notifications)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeConfig(t, `{"channel":`)
	_, err := Load(path)
	require.Error(t, err)
}
