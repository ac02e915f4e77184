// Package settings loads command settings from FLUME_* environment variables.
package settings

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name.
const Prefix = "FLUME"

// Settings holds all command configuration.
type Settings struct {
	Log       LogSettings
	HTTP      HTTPSettings
	Redis     RedisSettings
	Store     StoreSettings
	RateLimit RateLimitSettings
}

// LogSettings holds logging configuration.
type LogSettings struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// HTTPSettings holds the serve command configuration.
type HTTPSettings struct {
	Addr    string `envconfig:"HTTP_ADDR" default:":8080"`
	Metrics bool   `envconfig:"HTTP_METRICS" default:"true"`
}

// RedisSettings holds the redis blueprint store configuration.
// An empty Addr disables redis.
type RedisSettings struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StoreSettings holds the blueprint store configuration.
type StoreSettings struct {
	// Backend is "file" (YAML files) or "loam" (JSON documents in a loam repository).
	Backend string `envconfig:"STORE_BACKEND" default:"file"`
	Dir     string `envconfig:"STORE_DIR" default:".flume/blueprints"`
	// Key is a base64 AES-256 key; when set blueprints are stored encrypted.
	Key string `envconfig:"STORE_KEY"`
	// Redact lists key patterns whose config values are masked on save.
	Redact []string `envconfig:"STORE_REDACT"`
}

// RateLimitSettings holds the scheduler step limit. Zero disables it.
type RateLimitSettings struct {
	StepsPerSecond float64 `envconfig:"STEPS_PER_SECOND" default:"0"`
	Burst          int     `envconfig:"STEPS_BURST" default:"1"`
}

// Load reads settings from the environment.
func Load() (*Settings, error) {
	var s Settings
	// Each group is processed on its own so variables stay FLUME_<TAG>
	// rather than FLUME_<GROUP>_<TAG>.
	for _, group := range []any{&s.Log, &s.HTTP, &s.Redis, &s.Store, &s.RateLimit} {
		if err := envconfig.Process(Prefix, group); err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
	}
	return &s, nil
}

// LoadOrDefault loads settings from the environment or returns the defaults.
func LoadOrDefault() *Settings {
	s, err := Load()
	if err != nil {
		return Default()
	}
	return s
}

// Default returns the default settings.
func Default() *Settings {
	return &Settings{
		Log:       LogSettings{Level: "info"},
		HTTP:      HTTPSettings{Addr: ":8080", Metrics: true},
		Store:     StoreSettings{Backend: "file", Dir: ".flume/blueprints"},
		RateLimit: RateLimitSettings{Burst: 1},
	}
}
