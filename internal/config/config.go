package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds everything prhealth reads from the environment, an optional
// .env file and an optional YAML file.
type Config struct {
	ServerURL   string `yaml:"server_url" env:"PRHEALTH_SERVER_URL" env-default:"http://127.0.0.1:8000"`
	SessionFile string `yaml:"session_file" env:"PRHEALTH_SESSION_FILE"`
	LogFile     string `yaml:"log_file" env:"PRHEALTH_LOG_FILE"`
	LogLevel    string `yaml:"log_level" env:"PRHEALTH_LOG_LEVEL" env-default:"info"`
}

// Load reads configPath when given, the environment otherwise. A .env file
// in the working directory is applied first when present.
func Load(configPath string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	var err error
	if configPath != "" {
		err = cleanenv.ReadConfig(configPath, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.fillDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fillDefaults() error {
	if c.SessionFile != "" && c.LogFile != "" {
		return nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("user config dir: %w", err)
	}
	dir = filepath.Join(dir, "prhealth")
	if c.SessionFile == "" {
		c.SessionFile = filepath.Join(dir, "session.json")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(dir, "prhealth.log")
	}
	return nil
}

// Level maps LogLevel to a slog level; unknown values mean info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type contextKey string

const configKey contextKey = "prhealth-config"

// InjectConfig adds cfg to the command context.
func InjectConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext returns the injected config, if any.
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey).(*Config)
	return cfg, ok
}

// MustFromContext is for command bodies that run after the root command
// injected the config.
func MustFromContext(ctx context.Context) *Config {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("prhealth: config not found in context")
	}
	return cfg
}
