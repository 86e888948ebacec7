package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application. It is built once by Load
// and handed to constructors by value; nothing reads the environment afterwards.
type Config struct {
	Environment Environment `mapstructure:"-"`

	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Drafts    DraftConfig     `mapstructure:"drafts"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" validate:"min=1,dive,url"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// OpenAIConfig holds the parameters of both generation services.
type OpenAIConfig struct {
	APIKey     string `mapstructure:"api_key" validate:"required"`
	APIKeyFile string `mapstructure:"api_key_file"`

	ChatURL       string        `mapstructure:"chat_url" validate:"required,url"`
	SystemMessage string        `mapstructure:"system_message" validate:"required"`
	Model         string        `mapstructure:"model" validate:"required"`
	MaxTokens     int           `mapstructure:"max_tokens" validate:"gte=1,lte=16384"`
	Temperature   float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	TopP          float64       `mapstructure:"top_p" validate:"gt=0,lte=1"`
	ChoiceCount   int           `mapstructure:"choice_count" validate:"gte=1,lte=10"`
	ChatTimeout   time.Duration `mapstructure:"chat_timeout" validate:"gt=0"`

	ImageURL     string        `mapstructure:"image_url" validate:"required,url"`
	ImageModel   string        `mapstructure:"image_model"`
	ImageCount   int           `mapstructure:"image_count" validate:"gte=1,lte=10"`
	ImageSize    string        `mapstructure:"image_size" validate:"oneof=256x256 512x512 1024x1024 1792x1024 1024x1792"`
	ImageTimeout time.Duration `mapstructure:"image_timeout" validate:"gt=0"`

	// RequestsPerSecond caps outbound calls per client. Zero disables the limiter.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
}

// StorageConfig describes where relocated images are written.
type StorageConfig struct {
	Bucket           string        `mapstructure:"bucket" validate:"required"`
	Region           string        `mapstructure:"region"`
	Endpoint         string        `mapstructure:"endpoint" validate:"omitempty,url"`
	Prefix           string        `mapstructure:"prefix" validate:"required"`
	PublicBaseURL    string        `mapstructure:"public_base_url" validate:"omitempty,url"`
	PublicReadPolicy bool          `mapstructure:"public_read_policy"`
	DownloadTimeout  time.Duration `mapstructure:"download_timeout" validate:"gt=0"`
	DownloadRetries  int           `mapstructure:"download_retries" validate:"gte=0,lte=5"`
	MaxImageBytes    int64         `mapstructure:"max_image_bytes" validate:"gt=0"`
}

// RedisConfig is optional; leave URL and Host empty to run without drafts and rate limiting.
type RedisConfig struct {
	URL      string `mapstructure:"url" validate:"omitempty,url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// Enabled reports whether a Redis server was configured
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Host != ""
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	DSN          string `mapstructure:"dsn" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Window    time.Duration `mapstructure:"window" validate:"gt=0"`
	Limit     int           `mapstructure:"limit" validate:"gte=1"`
	KeyPrefix string        `mapstructure:"key_prefix" validate:"required"`
}

type DraftConfig struct {
	TTL       time.Duration `mapstructure:"ttl" validate:"gt=0"`
	KeyPrefix string        `mapstructure:"key_prefix" validate:"required"`
}

// legacyEnv maps config keys to the environment variable names used by earlier deployments.
var legacyEnv = map[string]string{
	"openai.api_key":      "OPENAI_API_KEY",
	"openai.api_key_file": "OPENAI_API_KEY_FILE",
	"openai.image_url":    "OPENAI_IMAGES_API_URL",
	"storage.bucket":      "S3_BUCKET_NAME",
	"storage.region":      "AWS_REGION",
	"redis.url":           "REDIS_URL",
	"redis.host":          "REDIS_HOST",
	"redis.port":          "REDIS_PORT",
	"redis.password":      "REDIS_PASSWORD",
	"server.host":         "SERVER_HOST",
	"server.port":         "SERVER_PORT",
	"database.dsn":        "DATABASE_URL",
}

// Load reads configuration from an optional file, MEALGEN_* environment
// variables and the legacy variable names, then validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("MEALGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "MEALGEN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Environment = GetEnvironment()

	if err := cfg.resolveSecrets(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://frontend:5173"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.api_key_file", "")
	v.SetDefault("openai.chat_url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("openai.system_message", "You are a professional chef. Respond only with the JSON object requested.")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1500)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.top_p", 1.0)
	v.SetDefault("openai.choice_count", 1)
	v.SetDefault("openai.chat_timeout", "30s")
	v.SetDefault("openai.image_url", "https://api.openai.com/v1/images/generations")
	v.SetDefault("openai.image_model", "dall-e-3")
	v.SetDefault("openai.image_count", 1)
	v.SetDefault("openai.image_size", "1024x1024")
	v.SetDefault("openai.image_timeout", "30s")
	v.SetDefault("openai.requests_per_second", 0)

	v.SetDefault("storage.bucket", "alchemorsel-recipe-images")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.prefix", "generated-recipe-images")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.public_read_policy", false)
	v.SetDefault("storage.download_timeout", "30s")
	v.SetDefault("storage.download_retries", 0)
	v.SetDefault("storage.max_image_bytes", 20<<20)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost port=5432 user=postgres password=postgres dbname=alchemorsel sslmode=disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.window", "1h")
	v.SetDefault("rate_limit.limit", 20)
	v.SetDefault("rate_limit.key_prefix", "rate_limit:meal_generation")

	v.SetDefault("drafts.ttl", "24h")
	v.SetDefault("drafts.key_prefix", "meal:draft")
}

// resolveSecrets fills the API key from a key file or the secrets directory
// when it was not given directly.
func (c *Config) resolveSecrets() error {
	if c.OpenAI.APIKey != "" {
		return nil
	}

	if c.OpenAI.APIKeyFile != "" {
		data, err := os.ReadFile(c.OpenAI.APIKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read API key file: %w", err)
		}
		c.OpenAI.APIKey = strings.TrimSpace(string(data))
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("API key file is empty")
		}
		return nil
	}

	c.OpenAI.APIKey = readSecret("openai_api_key")
	return nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
