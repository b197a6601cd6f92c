// Package config loads application settings from an optional YAML file and
// POLEGION_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/abhisek/polegion/internal/adaptive"
	"github.com/abhisek/polegion/internal/llm"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// EnvPrefix is prepended to every environment override, e.g.
// POLEGION_ENGINE_LEARNING_RATE for engine.learning_rate.
const EnvPrefix = "POLEGION"

// Config is the full application configuration.
type Config struct {
	Engine  adaptive.Config `mapstructure:"engine"`
	Store   StoreConfig     `mapstructure:"store"`
	Redis   RedisConfig     `mapstructure:"redis"`
	Log     LogConfig       `mapstructure:"log"`
	LLM     llm.Config      `mapstructure:"llm"`
	Grading GradingConfig   `mapstructure:"grading"`
}

// StoreConfig selects where adaptive state lives.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	// DBPath is the SQLite file. Empty resolves to the default data path.
	DBPath string `mapstructure:"db_path"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// LogConfig selects the logger preset: "dev" or "prod".
type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

// GradingConfig controls how open-ended answers are graded.
type GradingConfig struct {
	// UseLLM adds the LLM grader after the answer-key grader.
	UseLLM bool `mapstructure:"use_llm"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: adaptive.DefaultConfig(),
		Store:  StoreConfig{Backend: BackendSQLite},
		Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "polegion"},
		Log:    LogConfig{Mode: "prod"},
		LLM:    llm.DefaultConfig(),
	}
}

// Load reads configuration. path may be empty, in which case polegion.yaml
// is looked up in the working directory and $XDG_CONFIG_HOME/polegion; a
// missing file is not an error. Environment variables override the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("polegion")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$XDG_CONFIG_HOME/polegion")
		v.AddConfigPath("$HOME/.config/polegion")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q (want sqlite, redis or memory)", c.Store.Backend)
	}
	if c.Grading.UseLLM {
		if err := c.LLM.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// have no value in the file.
func setDefaults(v *viper.Viper, d Config) {
	defaults := map[string]any{
		"engine.promotion_threshold":    d.Engine.PromotionThreshold,
		"engine.demotion_threshold":     d.Engine.DemotionThreshold,
		"engine.learning_rate":          d.Engine.LearningRate,
		"engine.normalize_reward":       d.Engine.NormalizeReward,
		"engine.require_existing_state": d.Engine.RequireExistingState,
		"store.backend":                 d.Store.Backend,
		"store.db_path":                 d.Store.DBPath,
		"redis.addr":                    d.Redis.Addr,
		"redis.password":                d.Redis.Password,
		"redis.db":                      d.Redis.DB,
		"redis.prefix":                  d.Redis.Prefix,
		"log.mode":                      d.Log.Mode,
		"grading.use_llm":               d.Grading.UseLLM,
		"llm.provider":                  d.LLM.Provider,
		"llm.timeout":                   d.LLM.Timeout,
		"llm.retry.max_attempts":        d.LLM.Retry.MaxAttempts,
		"llm.retry.initial_wait":        d.LLM.Retry.InitialWait,
		"llm.retry.max_wait":            d.LLM.Retry.MaxWait,
		"llm.retry.multiplier":          d.LLM.Retry.Multiplier,
	}
	endpoints := map[string]llm.EndpointConfig{
		llm.ProviderAnthropic:  d.LLM.Anthropic,
		llm.ProviderOpenAI:     d.LLM.OpenAI,
		llm.ProviderOpenRouter: d.LLM.OpenRouter,
		llm.ProviderGemini:     d.LLM.Gemini,
	}
	for name, ep := range endpoints {
		defaults["llm."+name+".api_key"] = ep.APIKey
		defaults["llm."+name+".model"] = ep.Model
		defaults["llm."+name+".base_url"] = ep.BaseURL
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}
