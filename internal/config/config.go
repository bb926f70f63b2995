package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes" validate:"gte=0"`

	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Matching MatchingConfig `mapstructure:"matching" yaml:"matching"`
	Presence PresenceConfig `mapstructure:"presence" yaml:"presence"`
	Client   ClientConfig   `mapstructure:"client" yaml:"client"`
	CORS     CORSConfig     `mapstructure:"cors" yaml:"cors"`
	Access   AccessConfig   `mapstructure:"access" yaml:"access"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history"`
}

// LogConfig selects log verbosity and output format.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=console json"`
}

// MatchingConfig selects how waiting users are paired.
type MatchingConfig struct {
	Policy         string `mapstructure:"policy" yaml:"policy" validate:"omitempty,oneof=fifo interest"`
	Fallback       bool   `mapstructure:"fallback" yaml:"fallback"`
	MaxInterests   int    `mapstructure:"max_interests" yaml:"max_interests" validate:"gte=0"`
	MaxInterestLen int    `mapstructure:"max_interest_len" yaml:"max_interest_len" validate:"gte=0"`
}

// PresenceConfig controls periodic online_stats broadcasts. Zero disables them.
type PresenceConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gte=0"`
}

// ClientConfig bounds per-connection buffering and inbound rate.
type ClientConfig struct {
	Buffer        int     `mapstructure:"buffer" yaml:"buffer" validate:"gte=0"`
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second" validate:"gte=0"`
	Burst         int     `mapstructure:"burst" yaml:"burst" validate:"gte=0"`
}

// CORSConfig lists browser origins allowed to call the API and open sockets.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// AccessConfig is the client IP allow-list. Entries are IPs, CIDRs or "*".
type AccessConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Allowed []string `mapstructure:"allowed" yaml:"allowed"`
}

// HistoryConfig enables the anonymous session history store.
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	DatabasePath string `mapstructure:"database_path" yaml:"database_path" validate:"required_if=Enabled true"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3001",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		MaxMessageBytes:   16 << 10,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Matching: MatchingConfig{
			Policy:         "interest",
			Fallback:       true,
			MaxInterests:   10,
			MaxInterestLen: 32,
		},
		Presence: PresenceConfig{
			Interval: 10 * time.Second,
		},
		Client: ClientConfig{
			Buffer:        32,
			RatePerSecond: 10,
			Burst:         20,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Access: AccessConfig{
			Enabled: false,
		},
		History: HistoryConfig{
			Enabled:      false,
			DatabasePath: "strangerchat.db",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Booleans are not merged since false cannot be told apart from unset.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
	if other.Matching.Policy != "" {
		c.Matching.Policy = other.Matching.Policy
	}
	if other.Matching.MaxInterests != 0 {
		c.Matching.MaxInterests = other.Matching.MaxInterests
	}
	if other.Matching.MaxInterestLen != 0 {
		c.Matching.MaxInterestLen = other.Matching.MaxInterestLen
	}
	if other.Presence.Interval != 0 {
		c.Presence.Interval = other.Presence.Interval
	}
	if other.Client.Buffer != 0 {
		c.Client.Buffer = other.Client.Buffer
	}
	if other.Client.RatePerSecond != 0 {
		c.Client.RatePerSecond = other.Client.RatePerSecond
	}
	if other.Client.Burst != 0 {
		c.Client.Burst = other.Client.Burst
	}
	if len(other.CORS.AllowedOrigins) > 0 {
		c.CORS.AllowedOrigins = other.CORS.AllowedOrigins
	}
	if len(other.Access.Allowed) > 0 {
		c.Access.Allowed = other.Access.Allowed
	}
	if other.History.DatabasePath != "" {
		c.History.DatabasePath = other.History.DatabasePath
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
