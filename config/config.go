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
	OCR       OCRConfig
	Vision    VisionConfig
	Barcode   BarcodeConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OCRConfig selects and configures the text-recognition provider
type OCRConfig struct {
	Provider string `mapstructure:"provider"` // "ocrspace" or "tesseract"
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Language string `mapstructure:"language"`
}

// VisionConfig holds the vision annotation collaborator configuration.
// When disabled, image comparison uses only the local hash strategy.
type VisionConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// BarcodeConfig holds barcode enrichment configuration
type BarcodeConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute per client IP
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/labellens/")

	// Environment variable settings
	v.SetEnvPrefix("LABELLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	// OCR defaults
	v.SetDefault("ocr.provider", "ocrspace")
	v.SetDefault("ocr.base_url", "https://api.ocr.space")
	v.SetDefault("ocr.language", "eng")

	// Vision defaults
	v.SetDefault("vision.enabled", false)
	v.SetDefault("vision.base_url", "https://vision.googleapis.com")

	// Barcode defaults
	v.SetDefault("barcode.base_url", "https://world.openfoodfacts.org")

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.OCR.Provider {
	case "ocrspace":
		if config.OCR.APIKey == "" {
			return fmt.Errorf("OCR API key is required for the ocrspace provider (set LABELLENS_OCR_API_KEY)")
		}
	case "tesseract":
		// Local engine, no key needed
	default:
		return fmt.Errorf("OCR provider must be 'ocrspace' or 'tesseract', got: %s", config.OCR.Provider)
	}

	if config.Vision.Enabled && config.Vision.APIKey == "" {
		return fmt.Errorf("vision API key is required when vision is enabled (set LABELLENS_VISION_API_KEY)")
	}

	return nil
}
