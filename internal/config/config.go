// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. UNO_PORT or UNO_REDIS_ADDR.
const EnvPrefix = "UNO"

// Config is the resolved server and historian configuration.
type Config struct {
	Port           int           `mapstructure:"port"`
	LogLevel       string        `mapstructure:"log_level"`
	LogJSON        bool          `mapstructure:"log_json"`
	AIDelay        time.Duration `mapstructure:"ai_delay"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`

	RateLimit RateLimit `mapstructure:"rate_limit"`
	Redis     Redis     `mapstructure:"redis"`
	Database  Database  `mapstructure:"database"`
	Historian Historian `mapstructure:"historian"`
}

// RateLimit bounds inbound WebSocket events per connection: one token every Every, bursting to Burst.
type RateLimit struct {
	Every time.Duration `mapstructure:"every"`
	Burst int           `mapstructure:"burst"`
}

// Redis configures the room action queue. An empty Addr disables it.
type Redis struct {
	Addr  string `mapstructure:"addr"`
	DB    int    `mapstructure:"db"`
	Queue string `mapstructure:"queue"`
}

// Database configures the Postgres archive. An empty URL disables it.
type Database struct {
	URL string `mapstructure:"url"`
}

// Historian tunes how the historian batches queued actions into Postgres.
type Historian struct {
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// SetDefaults registers every known key so AutomaticEnv can resolve it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("ai_delay", 1500*time.Millisecond)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("max_message_size", 32*1024)
	v.SetDefault("rate_limit.every", 100*time.Millisecond)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.queue", "uno_actions")
	v.SetDefault("database.url", "")
	v.SetDefault("historian.batch_size", 20)
	v.SetDefault("historian.flush_interval", 500*time.Millisecond)
}

// New returns a viper instance with defaults and UNO_-prefixed environment overrides.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads cfgFile when given, otherwise looks for .unoroom.{yaml,toml,json} in the
// working directory and the home directory. A missing default file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".unoroom")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// env values arrive comma separated, possibly with spaces
	cfg.AllowedOrigins = splitList(strings.Join(cfg.AllowedOrigins, ","))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.AIDelay < 0 {
		return fmt.Errorf("ai_delay must not be negative, got %s", c.AIDelay)
	}
	if c.RateLimit.Every <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.every and rate_limit.burst must be positive")
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("max_message_size must be positive")
	}
	if c.Historian.BatchSize <= 0 {
		return fmt.Errorf("historian.batch_size must be positive")
	}
	if c.Historian.FlushInterval <= 0 {
		return fmt.Errorf("historian.flush_interval must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// NewLogger builds the process logger from the logging keys.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
