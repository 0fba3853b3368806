package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the CLI's view of ~/.taskctl/config.yaml and TASKCTL_* variables.
type Config struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	ProbeConcurrency int           `mapstructure:"probe_concurrency"`
}

// Dir returns the directory holding the CLI's config and session files.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".taskctl"), nil
}

// LoadConfig reads the config file, if present, then the environment.
// Environment variables win over the file.
func LoadConfig(v *viper.Viper) (Config, error) {
	v.SetDefault("base_url", "http://localhost:8000")
	v.SetDefault("timeout", "15s")
	v.SetDefault("probe_concurrency", 0)

	v.SetEnvPrefix("TASKCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() == "" {
		dir, err := Dir()
		if err != nil {
			return Config{}, err
		}
		v.SetConfigFile(filepath.Join(dir, "config.yaml"))
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return Config{}, errors.New("base_url is required")
	}
	if cfg.ProbeConcurrency < 0 {
		return Config{}, errors.New("probe_concurrency must not be negative")
	}
	return cfg, nil
}
