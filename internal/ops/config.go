package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/yanun0323/errors"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Channel               string          `json:"channel"`
	APIHost               string          `json:"apiHost"`
	BrokerURL             string          `json:"brokerUrl"`
	HeartbeatSeconds      int             `json:"heartbeatSeconds"`
	ReconnectDelaySeconds int             `json:"reconnectDelaySeconds"`
	Notifications         *bool           `json:"notifications"`
	StatsIntervalSeconds  int             `json:"statsIntervalSeconds"`
	Pyroscope             PyroscopeConfig `json:"pyroscope"`
}

// PyroscopeConfig captures optional profiler settings.
type PyroscopeConfig struct {
	Enabled       bool   `json:"enabled"`
	ServerAddress string `json:"serverAddress"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Channel           string
	APIHost           string
	BrokerURL         string
	HeartbeatInterval time.Duration
	ReconnectDelay    time.Duration
	Notifications     bool
	StatsInterval     time.Duration
	Pyroscope         PyroscopeConfig
}

// Default returns the resolved configuration with no file applied.
func Default() Loaded {
	return Loaded{
		HeartbeatInterval: 10 * time.Second,
		ReconnectDelay:    5 * time.Second,
		Notifications:     true,
		StatsInterval:     time.Minute,
	}
}

// Load reads a JSON config file and resolves defaults. The channel name may
// still be empty here; the caller merges flag overrides before validating.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config file")
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "parse config file")
	}
	return resolve(cfg), nil
}

func resolve(cfg FileConfig) Loaded {
	loaded := Default()
	loaded.Channel = cfg.Channel
	loaded.APIHost = cfg.APIHost
	loaded.BrokerURL = cfg.BrokerURL
	if cfg.HeartbeatSeconds > 0 {
		loaded.HeartbeatInterval = time.Duration(cfg.HeartbeatSeconds) * time.Second
	}
	if cfg.ReconnectDelaySeconds > 0 {
		loaded.ReconnectDelay = time.Duration(cfg.ReconnectDelaySeconds) * time.Second
	}
	if cfg.Notifications != nil {
		loaded.Notifications = *cfg.Notifications
	}
	if cfg.StatsIntervalSeconds > 0 {
		loaded.StatsInterval = time.Duration(cfg.StatsIntervalSeconds) * time.Second
	}
	loaded.Pyroscope = cfg.Pyroscope
	return loaded
}
