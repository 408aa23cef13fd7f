package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the article agent service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Search    SearchConfig    `mapstructure:"search"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	AllowOrigins []string      `mapstructure:"allow_origins"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
}

// OpenAIConfig contains model provider settings
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	ChatModel   string        `mapstructure:"chat_model"`
	ImageModel  string        `mapstructure:"image_model"`
	ImageSize   string        `mapstructure:"image_size"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SearchConfig contains web search provider settings
type SearchConfig struct {
	Provider     string `mapstructure:"provider"` // serper or brave
	SerperAPIKey string `mapstructure:"serper_api_key"`
	BraveAPIKey  string `mapstructure:"brave_api_key"`
}

// AgentConfig contains tool-loop settings
type AgentConfig struct {
	MaxSteps int `mapstructure:"max_steps"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads configuration from an optional JSON file and the
// MAQAL_* environment. A missing file is fine, defaults still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("MAQAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	overrideFromEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "30s")

	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.image_model", "dall-e-3")
	v.SetDefault("openai.image_size", "1792x1024")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.max_tokens", 4096)
	v.SetDefault("openai.timeout", "120s")

	v.SetDefault("search.provider", "serper")

	v.SetDefault("agent.max_steps", 10)

	v.SetDefault("telemetry.enabled", true)
}

// overrideFromEnv maps the well-known upstream variable names so the
// service picks up OPENAI_API_KEY etc. without the MAQAL_ prefix.
func overrideFromEnv(v *viper.Viper) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		v.Set("openai.api_key", key)
	}
	if key := os.Getenv("SERPER_API_KEY"); key != "" {
		v.Set("search.serper_api_key", key)
	}
	if key := os.Getenv("BRAVE_API_KEY"); key != "" {
		v.Set("search.brave_api_key", key)
	}
}

func validateConfig(config *Config) error {
	if config.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required (set OPENAI_API_KEY)")
	}
	switch config.Search.Provider {
	case "serper":
		if config.Search.SerperAPIKey == "" {
			return fmt.Errorf("search.serper_api_key is required (set SERPER_API_KEY)")
		}
	case "brave":
		if config.Search.BraveAPIKey == "" {
			return fmt.Errorf("search.brave_api_key is required (set BRAVE_API_KEY)")
		}
	default:
		return fmt.Errorf("search.provider must be serper or brave, got %q", config.Search.Provider)
	}
	if config.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent.max_steps must be greater than zero")
	}
	return nil
}

// SearchAPIKey returns the key for the configured search provider.
func (c *Config) SearchAPIKey() string {
	if c.Search.Provider == "brave" {
		return c.Search.BraveAPIKey
	}
	return c.Search.SerperAPIKey
}
