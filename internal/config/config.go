// Package config loads learnhub settings from defaults, a config file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (LEARNHUB_API_URL, ...).
const EnvPrefix = "LEARNHUB"

// Config holds all runtime settings.
type Config struct {
	APIURL            string        `mapstructure:"api_url"`
	TokenFile         string        `mapstructure:"token_file"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	SuccessResetDelay time.Duration `mapstructure:"success_reset_delay"`
	MaxAttachments    int           `mapstructure:"max_attachments"`
	LogLevel          string        `mapstructure:"log_level"`
	LogFormat         string        `mapstructure:"log_format"`
	LogFile           string        `mapstructure:"log_file"`
}

// Load reads configuration. configPath may be empty, in which case
// learnhub.yaml is searched for in the working directory and the user config dir.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// .env is optional
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("learnhub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := userConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://localhost:5000/api/v1")
	v.SetDefault("token_file", filepath.Join(userConfigDir(), "token"))
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("success_reset_delay", 3*time.Second)
	v.SetDefault("max_attachments", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_file", filepath.Join(os.TempDir(), "learnhub.log"))
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url %q is not an absolute URL", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.SuccessResetDelay < 0 {
		return errors.New("success_reset_delay must not be negative")
	}
	if c.MaxAttachments <= 0 {
		return errors.New("max_attachments must be positive")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error or off", c.LogLevel)
	}
	switch c.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("log_format %q must be json or console", c.LogFormat)
	}
	return nil
}

func userConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "learnhub")
}
