package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Store selection
	StoreBackend string
	DataDir      string
	HouseholdID  string

	// Database
	SQLiteDBPath  string
	DatabaseURI   string
	MongoURI      string
	MongoDatabase string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// AI commentary
	AIAPIKey   string
	AIBaseURL  string
	AIModel    string
	AIModelPro string

	InsightCacheSize int
	InsightCacheTTL  time.Duration

	// Google Sheets mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Fixed-cost worker
	FixedCostInterval time.Duration
	FixedCostAutoPay  bool
	DefaultWalletID   string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		StoreBackend: getEnv("STORE_BACKEND", "memory"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		HouseholdID:  getEnv("HOUSEHOLD_ID", ""),

		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/manicash.db"),
		DatabaseURI:   getEnv("DATABASE_URI", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "manicash"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "manicash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		AIAPIKey:   getEnv("AI_API_KEY", ""),
		AIBaseURL:  getEnv("AI_BASE_URL", ""),
		AIModel:    getEnv("AI_MODEL", "gpt-4o-mini"),
		AIModelPro: getEnv("AI_MODEL_PRO", "gpt-4o"),

		InsightCacheSize: getEnvInt("INSIGHT_CACHE_SIZE", 64),
		InsightCacheTTL:  getEnvDuration("INSIGHT_CACHE_TTL", 6*time.Hour),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),

		FixedCostInterval: getEnvDuration("FIXED_COST_INTERVAL", time.Hour),
		FixedCostAutoPay:  getEnvBool("FIXED_COST_AUTOPAY", false),
		DefaultWalletID:   getEnv("DEFAULT_WALLET_ID", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// StoreBackends lists the accepted STORE_BACKEND values.
var StoreBackends = []string{"memory", "sqlite", "postgres", "mongo"}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	isValidBackend := false
	for _, backend := range StoreBackends {
		if c.StoreBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.StoreBackend, StoreBackends))
	}

	switch c.StoreBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.DatabaseURI == "" {
			errors = append(errors, "DATABASE_URI is required when using postgres backend")
		}
	case "mongo":
		if c.MongoURI == "" {
			errors = append(errors, "MONGO_URI is required when using mongo backend")
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "MONGO_DATABASE cannot be empty when using mongo backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.AIBaseURL != "" && !isAIPreset(c.AIBaseURL) {
		if parsedURL, err := url.Parse(c.AIBaseURL); err != nil || parsedURL.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid AI base URL '%s'", c.AIBaseURL))
		}
	}

	if c.InsightCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid insight cache size %d: must be at least 1", c.InsightCacheSize))
	}
	if c.InsightCacheTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid insight cache TTL %v: must be at least 1 minute", c.InsightCacheTTL))
	}

	if c.FixedCostInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid fixed cost interval %v: must be at least 1 second", c.FixedCostInterval))
	} else if c.FixedCostInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid fixed cost interval %v: must be at most 24 hours", c.FixedCostInterval))
	}
	if c.FixedCostAutoPay && c.DefaultWalletID == "" {
		errors = append(errors, "DEFAULT_WALLET_ID is required when FIXED_COST_AUTOPAY is enabled")
	}

	if _, ok := parseLevel(c.LogLevel); !ok {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AI_BASE_URL may name a known OpenAI-compatible provider instead of a URL.
func isAIPreset(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai", "groq", "gemini":
		return true
	}
	return false
}

// SheetsEnabled reports whether the Google Sheet mirror is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Level returns the slog level for LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
