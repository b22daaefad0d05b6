package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration of the catalog server and CLI.
type Config struct {
	Port           string        `mapstructure:"app_port"`
	APIBaseURL     string        `mapstructure:"api_base_url"`
	APITimeout     time.Duration `mapstructure:"api_timeout"`
	SessionSecret  string        `mapstructure:"session_secret"`
	DBDSN          string        `mapstructure:"db_dsn"`
	LogLevel       string        `mapstructure:"log_level"`
	LogDev         bool          `mapstructure:"log_dev"`
	BreakerEnabled bool          `mapstructure:"breaker_enabled"`
}

const (
	DefaultAPIBaseURL = "https://fakestoreapi.com"
	devSessionSecret  = "dev_fallback_secret"
)

var keys = []string{
	"app_port", "api_base_url", "api_timeout", "session_secret",
	"db_dsn", "log_level", "log_dev", "breaker_enabled",
}

// LoadDotenv reads .env from the working directory and its parents (when started from cmd/server).
// Missing files are fine.
func LoadDotenv() {
	_ = godotenv.Overload(".env", "../.env", "../../.env")
}

// New returns a viper instance with defaults and environment binding.
// Flags may be bound to it before Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	for _, k := range keys {
		// AutomaticEnv upper-cases keys, BindEnv makes Unmarshal see them too
		_ = v.BindEnv(k)
	}
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_port", "8080")
	v.SetDefault("api_base_url", DefaultAPIBaseURL)
	v.SetDefault("api_timeout", 10*time.Second)
	v.SetDefault("session_secret", devSessionSecret)
	v.SetDefault("db_dsn", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dev", false)
	v.SetDefault("breaker_enabled", true)
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("api_base_url is empty")
	}
	if cfg.APITimeout < 0 {
		return nil, fmt.Errorf("api_timeout must not be negative, got %s", cfg.APITimeout)
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = devSessionSecret
	}
	return &cfg, nil
}

// DevSecret reports whether the fallback session secret is in use.
func (c *Config) DevSecret() bool {
	return c.SessionSecret == devSessionSecret
}
