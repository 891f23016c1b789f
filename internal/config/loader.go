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
	envConfigDefaultPath = "MARKETCHAT_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "marketchat.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix("MARKETCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

// setDefaults registers every key so env vars bind even without a config file.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("api_url", cfg.APIURL)
	v.SetDefault("ws_url", cfg.WSURL)
	v.SetDefault("token", cfg.Token)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("locale", cfg.Locale)
	v.SetDefault("request_timeout", cfg.RequestTimeout)
	v.SetDefault("max_image_bytes", cfg.MaxImageBytes)
	v.SetDefault("notice_ttl", cfg.NoticeTTL)
	v.SetDefault("devserver.addr", cfg.DevServer.Addr)
	v.SetDefault("devserver.database_path", cfg.DevServer.DatabasePath)
	v.SetDefault("devserver.jwt_secret", cfg.DevServer.JWTSecret)
	v.SetDefault("devserver.jwt_issuer", cfg.DevServer.JWTIssuer)
	v.SetDefault("devserver.read_header_timeout", cfg.DevServer.ReadHeaderTimeout)
	v.SetDefault("devserver.shutdown_timeout", cfg.DevServer.ShutdownTimeout)
	v.SetDefault("devserver.send_rate_per_minute", cfg.DevServer.SendRatePerMinute)
	v.SetDefault("devserver.recall_window", cfg.DevServer.RecallWindow)
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
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
