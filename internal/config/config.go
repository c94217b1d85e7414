package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	API    APIConfig    `yaml:"api" mapstructure:"api"`
	Sync   SyncConfig   `yaml:"sync" mapstructure:"sync"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// APIConfig configures the market API client.
type APIConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  int    `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int    `yaml:"burst" mapstructure:"burst"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	DelayMillis int    `yaml:"delay_millis" mapstructure:"delay_millis"`
}

// Timeout returns the request timeout as a duration.
func (c APIConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSecs) * time.Second }

// Delay returns the batch pacing delay as a duration.
func (c APIConfig) Delay() time.Duration { return time.Duration(c.DelayMillis) * time.Millisecond }

// SyncConfig configures sync behavior.
type SyncConfig struct {
	StaleAfterSecs int `yaml:"stale_after_secs" mapstructure:"stale_after_secs"`
}

// StaleAfter returns the price staleness window as a duration.
func (c SyncConfig) StaleAfter() time.Duration { return time.Duration(c.StaleAfterSecs) * time.Second }

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RELICSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "relic-sync.db")
	v.SetDefault("api.base_url", "https://api.warframe.market/v1")
	v.SetDefault("api.user_agent", "relic-sync/1.0")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_per_sec", 5)
	v.SetDefault("api.burst", 5)
	v.SetDefault("api.concurrency", 3)
	v.SetDefault("api.delay_millis", 700)
	v.SetDefault("sync.stale_after_secs", 86400)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
