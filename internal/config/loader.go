package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "STRANGERCHAT"
	envConfigDefaultPath = "STRANGERCHAT_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()
	v := newViper(cfg)

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return cfg, configPath, err
	}
	return cfg, configPath, nil
}

// newViper registers every key with its default so that nested keys can be
// overridden from the environment, e.g. STRANGERCHAT_MATCHING_POLICY.
func newViper(cfg Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("max_message_bytes", cfg.MaxMessageBytes)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("matching.policy", cfg.Matching.Policy)
	v.SetDefault("matching.fallback", cfg.Matching.Fallback)
	v.SetDefault("matching.max_interests", cfg.Matching.MaxInterests)
	v.SetDefault("matching.max_interest_len", cfg.Matching.MaxInterestLen)
	v.SetDefault("presence.interval", cfg.Presence.Interval)
	v.SetDefault("client.buffer", cfg.Client.Buffer)
	v.SetDefault("client.rate_per_second", cfg.Client.RatePerSecond)
	v.SetDefault("client.burst", cfg.Client.Burst)
	v.SetDefault("cors.allowed_origins", cfg.CORS.AllowedOrigins)
	v.SetDefault("access.enabled", cfg.Access.Enabled)
	v.SetDefault("access.allowed", cfg.Access.Allowed)
	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.database_path", cfg.History.DatabasePath)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Marshal renders cfg as YAML in the same layout Load reads.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
