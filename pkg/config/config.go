package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// External APIs
	SEC           SECConfig
	Stooq         StooqConfig
	Yahoo         YahooConfig
	StockAnalysis StockAnalysisConfig

	// Fetcher
	Fetcher FetcherConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// SECConfig holds SEC EDGAR XBRL API configuration
// SEC rejects requests without a User-Agent identifying the caller
type SECConfig struct {
	BaseURL   string // data.sec.gov
	FilesURL  string // www.sec.gov (company_tickers.json)
	UserAgent string
	RateLimit float64 // requests per second against data.sec.gov
	RateBurst int
}

// StooqConfig holds Stooq CSV endpoint configuration
type StooqConfig struct {
	BaseURL string
	Suffix  string // market suffix appended to tickers, e.g. ".us"
}

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL string
	Range   string // chart range, e.g. "3y"
}

// StockAnalysisConfig holds stockanalysis.com configuration
type StockAnalysisConfig struct {
	BaseURL string
}

// FetcherConfig holds metrics computation parameters
type FetcherConfig struct {
	Workers            int // concurrent tickers in batch mode
	MaxQuarters        int // quarters kept in composed output
	LookbackYears      int
	LookbackGraceDays  int
	PriceToleranceDays int // nearest-date window for price lookup
	MatchToleranceDays int // nearest-date window for quarter-series alignment
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "stockmetrics"),
			User:            getEnv("DB_USER", "stockmetrics"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// External APIs
		SEC: SECConfig{
			BaseURL:   getEnv("SEC_BASE_URL", "https://data.sec.gov"),
			FilesURL:  getEnv("SEC_FILES_URL", "https://www.sec.gov"),
			UserAgent: getEnv("SEC_USER_AGENT", "stockmetrics/1.0 (contact: wonny@example.com)"),
			RateLimit: getEnvAsFloat("SEC_RATE_LIMIT", 8.0),
			RateBurst: getEnvAsInt("SEC_RATE_BURST", 8),
		},

		Stooq: StooqConfig{
			BaseURL: getEnv("STOOQ_BASE_URL", "https://stooq.com"),
			Suffix:  getEnv("STOOQ_SUFFIX", ".us"),
		},

		Yahoo: YahooConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			Range:   getEnv("YAHOO_CHART_RANGE", "3y"),
		},

		StockAnalysis: StockAnalysisConfig{
			BaseURL: getEnv("STOCKANALYSIS_BASE_URL", "https://stockanalysis.com"),
		},

		// Fetcher
		Fetcher: FetcherConfig{
			Workers:            getEnvAsInt("FETCHER_WORKERS", 5),
			MaxQuarters:        getEnvAsInt("FETCHER_MAX_QUARTERS", 12),
			LookbackYears:      getEnvAsInt("FETCHER_LOOKBACK_YEARS", 3),
			LookbackGraceDays:  getEnvAsInt("FETCHER_LOOKBACK_GRACE_DAYS", 7),
			PriceToleranceDays: getEnvAsInt("FETCHER_PRICE_TOLERANCE_DAYS", 5),
			MatchToleranceDays: getEnvAsInt("FETCHER_MATCH_TOLERANCE_DAYS", 10),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// SEC blocks anonymous clients
	if c.SEC.UserAgent == "" {
		return fmt.Errorf("SEC_USER_AGENT is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Fetcher.Workers < 1 {
		return fmt.Errorf("FETCHER_WORKERS must be at least 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
