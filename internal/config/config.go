// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Registry snapshot store kinds
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the snapshot file and client_data.db (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	SEC      SECConfig
	Yahoo    YahooConfig
	Registry RegistryConfig

	HTTPTimeout time.Duration
	FilingType  string // Form type the pipeline locates, e.g. "10-Q"
	StagingTTL  time.Duration

	CleanupSchedule     string // cron spec for the client data cleanup job
	MaintenanceSchedule string // cron spec for the integrity check and WAL checkpoint
}

// SECConfig holds the regulatory data source endpoints
type SECConfig struct {
	// UserAgent identifies this client to the SEC; requests without it get throttled.
	UserAgent      string
	TickersURL     string
	SubmissionsURL string
	ArchivesURL    string
}

// YahooConfig holds the price quote source settings
type YahooConfig struct {
	ChartURL string
	Range    string // chart range, e.g. "5y"
}

// RegistryConfig holds identifier cache settings
type RegistryConfig struct {
	Freshness       time.Duration
	Store           string // "file" or "sqlite"
	RefreshSchedule string // cron spec for the proactive rebuild
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		SEC: SECConfig{
			UserAgent:      getEnv("SEC_USER_AGENT", ""),
			TickersURL:     getEnv("SEC_TICKERS_URL", "https://www.sec.gov/files/company_tickers.json"),
			SubmissionsURL: getEnv("SEC_SUBMISSIONS_URL", "https://data.sec.gov/submissions"),
			ArchivesURL:    getEnv("SEC_ARCHIVES_URL", "https://www.sec.gov/Archives/edgar/data"),
		},
		Yahoo: YahooConfig{
			ChartURL: getEnv("YAHOO_CHART_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
			Range:    getEnv("PRICE_RANGE", "5y"),
		},
		Registry: RegistryConfig{
			Freshness:       getEnvAsDuration("REGISTRY_FRESHNESS", 24*time.Hour),
			Store:           strings.ToLower(getEnv("REGISTRY_STORE", StoreFile)),
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 6h"),
		},
		HTTPTimeout:         getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		FilingType:          getEnv("FILING_TYPE", "10-Q"),
		StagingTTL:          getEnvAsDuration("STAGING_TTL", 24*time.Hour),
		CleanupSchedule:     getEnv("CLEANUP_SCHEDULE", "@daily"),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "@hourly"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SEC.UserAgent) == "" {
		return fmt.Errorf("SEC_USER_AGENT is required (e.g. \"Company Name admin@example.com\")")
	}
	if c.SEC.TickersURL == "" || c.SEC.SubmissionsURL == "" || c.SEC.ArchivesURL == "" {
		return fmt.Errorf("SEC endpoints must not be empty")
	}
	if c.Yahoo.ChartURL == "" {
		return fmt.Errorf("YAHOO_CHART_URL must not be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Registry.Freshness <= 0 {
		return fmt.Errorf("REGISTRY_FRESHNESS must be positive")
	}
	if c.StagingTTL <= 0 {
		return fmt.Errorf("STAGING_TTL must be positive")
	}
	if c.Registry.Store != StoreFile && c.Registry.Store != StoreSQLite {
		return fmt.Errorf("REGISTRY_STORE must be one of: %s, %s", StoreFile, StoreSQLite)
	}
	if c.FilingType == "" {
		return fmt.Errorf("FILING_TYPE must not be empty")
	}
	return nil
}

// SnapshotPath returns the registry snapshot file location
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "company_tickers.snapshot")
}

// ClientDataPath returns the client_data.db location
func (c *Config) ClientDataPath() string {
	return filepath.Join(c.DataDir, "client_data.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
