package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Catalog API
	TMDBAPIKey          string
	CatalogCacheMinutes int // Minutes to cache catalog responses (default: 60)

	// Reconciliation
	UserID                 string
	ReconcileIntervalHours int // Hours between reconciliation passes (default: 24)

	// Notifications
	WebhookURL string // Optional push endpoint

	// Server
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/gotrackarr.db
	CacheFile    string // $CONFIG_DIR/episodes.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("USER_ID", "default")
	viper.SetDefault("RECONCILE_INTERVAL_HOURS", 24)
	viper.SetDefault("CATALOG_CACHE_MINUTES", 60)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "gotrackarr")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		TMDBAPIKey:          viper.GetString("TMDB_API_KEY"),
		CatalogCacheMinutes: viper.GetInt("CATALOG_CACHE_MINUTES"),

		UserID:                 viper.GetString("USER_ID"),
		ReconcileIntervalHours: viper.GetInt("RECONCILE_INTERVAL_HOURS"),

		WebhookURL: viper.GetString("WEBHOOK_URL"),

		ServerPort: viper.GetString("SERVER_PORT"),

		DatabaseFile: filepath.Join(configDir, "gotrackarr.db"),
		CacheFile:    filepath.Join(configDir, "episodes.db"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}
	if config.ReconcileIntervalHours < 1 {
		return nil, fmt.Errorf("RECONCILE_INTERVAL_HOURS must be at least 1")
	}

	return config, nil
}
