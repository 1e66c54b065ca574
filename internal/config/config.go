// Package config loads process configuration from defaults, an
// optional YAML file, and environment variables, in that precedence
// order, via viper/godotenv — the same mechanism and nested-struct
// shape as the teacher's own config package, trimmed to the settings
// this service actually consumes.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      App      `mapstructure:"app"`
	LLM      LLM      `mapstructure:"llm"`
	Database Database `mapstructure:"database"`
	Cache    Cache    `mapstructure:"cache"`
	Server   Server   `mapstructure:"server"`
	Discovery Discovery `mapstructure:"discovery"`
}

// App holds general process configuration.
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// LLM holds the provider keys and orchestrator-wide defaults (§6).
type LLM struct {
	OpenAIAPIKey    string        `mapstructure:"openai_api_key"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	GeminiAPIKey    string        `mapstructure:"gemini_api_key"`
	DefaultProvider string        `mapstructure:"default_provider"`
	DefaultModel    string        `mapstructure:"default_model"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxTokens       int32         `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RateLimitRPM    int           `mapstructure:"rate_limit_rpm"`

	EmbeddingProvider string `mapstructure:"embedding_provider"`
	EmbeddingModel    string `mapstructure:"embedding_model"`
}

// Database holds the relational store connection (articles/summaries/qa_pairs).
type Database struct {
	ConnectionString string `mapstructure:"connection_string"`
	MaxConnections   int    `mapstructure:"max_connections"`
	IdleConnections  int    `mapstructure:"idle_connections"`
}

// Cache holds the Redis cache connection and graceful-disable switch.
type Cache struct {
	Enabled       bool          `mapstructure:"enabled"`
	ConnectionURL string        `mapstructure:"connection_url"`
	DefaultTTL    time.Duration `mapstructure:"default_ttl"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// Server holds HTTP bind, CORS, and rate-limit configuration (§6).
type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	APIPrefix       string        `mapstructure:"api_prefix"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

// CORSConfig holds allowed-origins configuration.
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Discovery holds service-discovery settings for the front-facing
// service that calls into this one.
type Discovery struct {
	ContentServiceURL string `mapstructure:"content_service_url"`
}

var globalConfig *Config

// Load loads configuration from defaults, an optional config file, and
// environment variables. Subsequent calls return the already-loaded
// config; call Reset in tests that need a fresh load.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".contentproc")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration, loading it with defaults if
// Load hasn't run yet.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
		return cfg
	}
	return globalConfig
}

// Reset clears the cached global config, for tests that need to
// re-Load under a different environment.
func Reset() { globalConfig = nil }

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")

	viper.SetDefault("llm.default_provider", "openai")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 800)
	viper.SetDefault("llm.timeout", "30s")
	viper.SetDefault("llm.max_retries", 3)
	viper.SetDefault("llm.rate_limit_rpm", 60)
	viper.SetDefault("llm.embedding_provider", "openai")
	viper.SetDefault("llm.embedding_model", "text-embedding-3-small")

	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.idle_connections", 5)

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.default_ttl", "1h")
	viper.SetDefault("cache.retry_attempts", 5)
	viper.SetDefault("cache.retry_interval", "2s")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.api_prefix", "/api/v1")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("server.cors.enabled", true)
	viper.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
}

// bindEnvironmentVariables wires the spec's named environment keys
// (§6) to their viper paths, preferring the first populated alias.
func bindEnvironmentVariables() {
	bindEnvKeys("llm.openai_api_key", []string{"OPENAI_API_KEY"})
	bindEnvKeys("llm.anthropic_api_key", []string{"ANTHROPIC_API_KEY"})
	bindEnvKeys("llm.gemini_api_key", []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"})

	bindEnvKeys("llm.default_provider", []string{"LLM_DEFAULT_PROVIDER"})
	bindEnvKeys("llm.temperature", []string{"LLM_DEFAULT_TEMPERATURE"})
	bindEnvKeys("llm.max_tokens", []string{"LLM_DEFAULT_MAX_TOKENS"})
	bindEnvKeys("llm.timeout", []string{"LLM_GLOBAL_TIMEOUT"})
	bindEnvKeys("llm.max_retries", []string{"LLM_GLOBAL_MAX_RETRIES"})

	bindEnvKeys("database.connection_string", []string{"DATABASE_URL"})
	bindEnvKeys("cache.connection_url", []string{"REDIS_URL", "CACHE_URL"})
	bindEnvKeys("cache.enabled", []string{"ENABLE_CACHE"})
	bindEnvKeys("cache.default_ttl", []string{"CACHE_DEFAULT_TTL_SECONDS"})

	bindEnvKeys("server.host", []string{"HTTP_HOST"})
	bindEnvKeys("server.port", []string{"HTTP_PORT", "PORT"})
	bindEnvKeys("server.api_prefix", []string{"API_PREFIX"})
	bindEnvKeys("server.cors.allowed_origins", []string{"CORS_ALLOWED_ORIGINS"})

	bindEnvKeys("discovery.content_service_url", []string{"CONTENT_SERVICE_URL"})

	bindEnvKeys("app.debug", []string{"DEBUG"})
}

// bindEnvKeys binds the first populated environment variable in
// envKeys to the given viper key.
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// validateConfig ensures required configuration is present.
func validateConfig(cfg *Config) error {
	var errs []string

	if cfg.LLM.OpenAIAPIKey == "" && cfg.LLM.AnthropicAPIKey == "" && cfg.LLM.GeminiAPIKey == "" {
		errs = append(errs, "at least one of OPENAI_API_KEY, ANTHROPIC_API_KEY, or GOOGLE_API_KEY/GEMINI_API_KEY is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// Convenience getters for frequently accessed values.
func GetApp() App           { return Get().App }
func GetLLM() LLM           { return Get().LLM }
func GetDatabase() Database { return Get().Database }
func GetCacheConfig() Cache { return Get().Cache }
func GetServer() Server     { return Get().Server }
func IsDebugMode() bool     { return Get().App.Debug }
