package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the root configuration structure for the application
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// EngineConfig holds the behavioural switches of the store
type EngineConfig struct {
	Strict               bool          `mapstructure:"strict"`                 // ZADD takes score/member pairs in server order
	LazyExpire           bool          `mapstructure:"lazy_expire"`            // drop expired keys on read instead of only on sweep
	BlockingTimeout      time.Duration `mapstructure:"blocking_timeout"`       // used when a blocking pop passes 0
	BlockingPollInterval time.Duration `mapstructure:"blocking_poll_interval"` // sleep between blocking pop attempts
}

// LogConfig defines logging verbosity and output style
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stderr, stdout or a file path
}

// MetricsConfig controls the Prometheus collector
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Load reads the configuration from a file and overrides it with environment variables.
// path may be a directory searched for config.yaml or a file path; empty means the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if path != "" {
			v.AddConfigPath(path)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MOONMOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults populates viper with fallback values if they are not provided via file or ENV
func setDefaults(v *viper.Viper) {
	// Engine
	v.SetDefault("engine.strict", false)
	v.SetDefault("engine.lazy_expire", false)
	v.SetDefault("engine.blocking_timeout", "1s")
	v.SetDefault("engine.blocking_poll_interval", "10ms")

	// Logger
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "moonmock")
}
