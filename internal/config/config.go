package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Agent    AgentConfig    `mapstructure:"agent" yaml:"agent"`
	Index    IndexConfig    `mapstructure:"index" yaml:"index"`
	Corpus   CorpusConfig   `mapstructure:"corpus" yaml:"corpus"`
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// LLMProvider defines the supported language model providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
)

// LLMModelConfig defines the configuration for a single language model.
type LLMModelConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// LLMRouterConfig configures the model routing logic.
type LLMRouterConfig struct {
	DefaultFastModel     string                    `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                    `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	Models               map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
	// RequestsPerMinute caps outbound model calls across all in-flight
	// question loops. Zero disables the limiter.
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// AgentConfig holds settings for the reasoning loop.
type AgentConfig struct {
	LLM LLMRouterConfig `mapstructure:"llm" yaml:"llm"`
	// MaxIterations bounds the number of reasoning steps per question.
	MaxIterations int `mapstructure:"max_iterations" yaml:"max_iterations"`
	// SearchResults bounds how many documents one keyword search returns.
	SearchResults int `mapstructure:"search_results" yaml:"search_results"`
	// DecisionTimeout bounds a single model call.
	DecisionTimeout time.Duration `mapstructure:"decision_timeout" yaml:"decision_timeout"`
}

// IndexConfig tunes the lexical search index.
type IndexConfig struct {
	// Boosts maps text field names to score multipliers.
	Boosts map[string]float64 `mapstructure:"boosts" yaml:"boosts"`
}

// CorpusConfig locates the bundled corpus data.
type CorpusConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// TelegramConfig holds delivery-channel settings. The token comes from the
// environment, never from a config file.
type TelegramConfig struct {
	Token          string        `mapstructure:"token" yaml:"-"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout" yaml:"poll_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	Debug          bool          `mapstructure:"debug" yaml:"debug"`
}

// DatabaseConfig holds the user-tracking database connection details.
// An empty URL disables tracking entirely.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"-"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "quran-ai")
	v.SetDefault("logger.log_file", "quran-ai.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Agent --
	v.SetDefault("agent.max_iterations", 3)
	v.SetDefault("agent.search_results", 5)
	v.SetDefault("agent.decision_timeout", "60s")
	v.SetDefault("agent.llm.default_fast_model", "gemini-flash")
	v.SetDefault("agent.llm.default_powerful_model", "gemini-pro")
	v.SetDefault("agent.llm.requests_per_minute", 0)
	v.SetDefault("agent.llm.models", map[string]interface{}{
		"gemini-flash": map[string]interface{}{
			"provider":    "gemini",
			"model":       "gemini-2.5-flash",
			"api_timeout": "45s",
			"temperature": 0.2,
		},
		"gemini-pro": map[string]interface{}{
			"provider":    "gemini",
			"model":       "gemini-2.5-pro",
			"api_timeout": "90s",
			"temperature": 0.2,
		},
	})

	// -- Index --
	v.SetDefault("index.boosts", map[string]float64{
		"question": 3.0,
		"section":  0.5,
	})

	// -- Corpus --
	v.SetDefault("corpus.path", "quran_with_tafsir.json")

	// -- Telegram --
	v.SetDefault("telegram.poll_timeout", "30s")
	v.SetDefault("telegram.request_timeout", "3m")
	v.SetDefault("telegram.debug", false)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	v.BindEnv("telegram.token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("database.url", "QURANAI_DATABASE_URL")
	v.BindEnv("agent.llm.models.gemini-flash.api_key", "GEMINI_API_KEY")
	v.BindEnv("agent.llm.models.gemini-pro.api_key", "GEMINI_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be a positive integer")
	}
	if c.Agent.SearchResults <= 0 {
		return fmt.Errorf("agent.search_results must be a positive integer")
	}
	if c.Agent.LLM.DefaultPowerfulModel == "" {
		return fmt.Errorf("agent.llm.default_powerful_model is required")
	}
	if c.Corpus.Path == "" {
		return fmt.Errorf("corpus.path is required")
	}
	for name, m := range c.Agent.LLM.Models {
		switch m.Provider {
		case ProviderGemini, ProviderOpenAI:
		default:
			return fmt.Errorf("agent.llm.models.%s: unsupported provider %q", name, m.Provider)
		}
	}
	return nil
}
