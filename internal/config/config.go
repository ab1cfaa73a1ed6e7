// Package config loads application configuration from file and
// environment and initializes the global logger.
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
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Lookup  LookupConfig  `yaml:"lookup" mapstructure:"lookup"`
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	Pacing  PacingConfig  `yaml:"pacing" mapstructure:"pacing"`
	Journal JournalConfig `yaml:"journal" mapstructure:"journal"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// BatchConfig configures work partitioning and checkpointing.
type BatchConfig struct {
	Size            int `yaml:"size" mapstructure:"size"`
	CheckpointEvery int `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
	MaxRecords      int `yaml:"max_records" mapstructure:"max_records"`
}

// LookupConfig configures the search itself.
type LookupConfig struct {
	State               string  `yaml:"state" mapstructure:"state"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	ZeroResultsBlocking bool    `yaml:"zero_results_blocking" mapstructure:"zero_results_blocking"`
	SelectorsPath       string  `yaml:"selectors_path" mapstructure:"selectors_path"`
}

// SessionConfig configures session identity and lifecycle.
type SessionConfig struct {
	Backend            string   `yaml:"backend" mapstructure:"backend"`
	CooldownSecs       int      `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
	PageTimeoutSecs    int      `yaml:"page_timeout_secs" mapstructure:"page_timeout_secs"`
	ChromiumUserAgents []string `yaml:"chromium_user_agents" mapstructure:"chromium_user_agents"`
	FirefoxUserAgents  []string `yaml:"firefox_user_agents" mapstructure:"firefox_user_agents"`
}

// DelayRange is a [min,max] interval in milliseconds.
type DelayRange struct {
	MinMs int `yaml:"min_ms" mapstructure:"min_ms"`
	MaxMs int `yaml:"max_ms" mapstructure:"max_ms"`
}

// Range converts to time.Durations.
func (d DelayRange) Range() (time.Duration, time.Duration) {
	return time.Duration(d.MinMs) * time.Millisecond, time.Duration(d.MaxMs) * time.Millisecond
}

// PacingConfig configures the randomized delay classes and the absolute
// request-rate floor.
type PacingConfig struct {
	Quick                DelayRange `yaml:"quick" mapstructure:"quick"`
	Normal               DelayRange `yaml:"normal" mapstructure:"normal"`
	Typing               DelayRange `yaml:"typing" mapstructure:"typing"`
	BetweenSearches      DelayRange `yaml:"between_searches" mapstructure:"between_searches"`
	BetweenBatches       DelayRange `yaml:"between_batches" mapstructure:"between_batches"`
	SessionBreak         DelayRange `yaml:"session_break" mapstructure:"session_break"`
	MinRequestIntervalMs int        `yaml:"min_request_interval_ms" mapstructure:"min_request_interval_ms"`
}

// JournalConfig configures the run journal database.
type JournalConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the status server.
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
	v.SetEnvPrefix("SKIPTRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("batch.size", 15)
	v.SetDefault("batch.checkpoint_every", 5)
	v.SetDefault("batch.max_records", 0)
	v.SetDefault("lookup.state", "Florida")
	v.SetDefault("lookup.similarity_threshold", 0.7)
	v.SetDefault("lookup.zero_results_blocking", false)
	v.SetDefault("session.backend", "chromium")
	v.SetDefault("session.cooldown_secs", 2)
	v.SetDefault("session.page_timeout_secs", 30)
	v.SetDefault("pacing.quick", map[string]int{"min_ms": 500, "max_ms": 1200})
	v.SetDefault("pacing.normal", map[string]int{"min_ms": 1500, "max_ms": 3000})
	v.SetDefault("pacing.typing", map[string]int{"min_ms": 100, "max_ms": 300})
	v.SetDefault("pacing.between_searches", map[string]int{"min_ms": 2000, "max_ms": 4000})
	v.SetDefault("pacing.between_batches", map[string]int{"min_ms": 30000, "max_ms": 60000})
	v.SetDefault("pacing.session_break", map[string]int{"min_ms": 60000, "max_ms": 120000})
	v.SetDefault("pacing.min_request_interval_ms", 0)
	v.SetDefault("journal.path", "skiptrace.db")
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
