package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	OFF       OFFConfig
	Gemini    GeminiConfig
	Database  DatabaseConfig
	Scoring   ScoringConfig
	Reference ReferenceConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OFFConfig holds Open Food Facts client configuration
type OFFConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

// GeminiConfig holds the AI inferrer configuration. An empty API key
// disables inference entirely.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// DatabaseConfig holds the Postgres connection settings
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ScoringConfig holds the engine tunables
type ScoringConfig struct {
	NutriWeight         float64 `mapstructure:"nutri_weight"`
	AdditivesWeight     float64 `mapstructure:"additives_weight"`
	NovaWeight          float64 `mapstructure:"nova_weight"`
	HighRiskCap         int     `mapstructure:"high_risk_cap"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
}

// ReferenceConfig holds the reference table paths
type ReferenceConfig struct {
	IngredientsPath string `mapstructure:"ingredients_path"`
	AdditivesPath   string `mapstructure:"additives_path"`
}

// CacheConfig holds upstream-lookup cache settings
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/purio/")

	v.SetEnvPrefix("PURIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("off.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("off.user_agent", "Purio/1.0")
	v.SetDefault("off.timeout", "5s")
	v.SetDefault("off.requests_per_sec", 1.5)

	v.SetDefault("gemini.model", "gemini-1.5-flash")

	v.SetDefault("scoring.nutri_weight", 0.4)
	v.SetDefault("scoring.additives_weight", 0.3)
	v.SetDefault("scoring.nova_weight", 0.3)
	v.SetDefault("scoring.high_risk_cap", 49)
	v.SetDefault("scoring.similarity_threshold", 85)

	v.SetDefault("reference.ingredients_path", "data/ingredients.csv")
	v.SetDefault("reference.additives_path", "data/additives.yaml")

	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// validate validates the configuration
func validate(config *Config) error {
	weightSum := config.Scoring.NutriWeight + config.Scoring.AdditivesWeight + config.Scoring.NovaWeight
	if weightSum < 0.999 || weightSum > 1.001 {
		return fmt.Errorf("scoring weights must sum to 1, got %.3f", weightSum)
	}

	if config.Scoring.HighRiskCap < 0 || config.Scoring.HighRiskCap > 100 {
		return fmt.Errorf("high risk cap must be within 0-100, got %d", config.Scoring.HighRiskCap)
	}

	if config.Scoring.SimilarityThreshold <= 0 || config.Scoring.SimilarityThreshold > 100 {
		return fmt.Errorf("similarity threshold must be within (0,100], got %.1f", config.Scoring.SimilarityThreshold)
	}

	if config.Reference.IngredientsPath == "" || config.Reference.AdditivesPath == "" {
		return fmt.Errorf("reference table paths are required")
	}

	return nil
}
