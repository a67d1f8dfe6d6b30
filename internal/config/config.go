package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backends lists the accepted DATA_BACKEND values.
var Backends = []string{"jsonbin", "memory", "sqlite", "mongo"}

type Config struct {
	// HTTP Server
	Port           string
	CORSOrigin     string
	TrustedProxies []string
	RateLimit      int
	Debug          bool

	// Backend selection
	DataBackend  string
	StoreTimeout time.Duration
	DocumentID   string

	// JSONBin
	JSONBinBaseURL   string
	JSONBinBinID     string
	JSONBinMasterKey string

	// Other stores
	SQLiteDBPath   string
	MongoURI       string
	MongoDatabase  string
	MemorySeedFile string

	// Auth
	AdminPIN   string
	RequirePIN bool

	// Reports
	ReportCacheTTL  time.Duration
	ReportCacheSize int

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	TransactionsSheet        string
	MonthlySheet             string
	MirrorInterval           time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Deployment label shown by the debug endpoint
	VercelEnv string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		CORSOrigin:     getEnv("CORS_ORIGIN", "*"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
		RateLimit:      getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		Debug:          getEnvBool("DEBUG", false),

		DataBackend:  strings.ToLower(getEnv("DATA_BACKEND", "jsonbin")),
		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 12*time.Second),
		DocumentID:   getEnv("DOCUMENT_ID", "ledger"),

		JSONBinBaseURL:   getEnv("JSONBIN_BASE_URL", "https://api.jsonbin.io/v3"),
		JSONBinBinID:     firstEnv("JSONBIN_BIN_ID", "NEXT_PUBLIC_JSONBIN_BIN_ID"),
		JSONBinMasterKey: firstEnv("JSONBIN_SECRET_KEY", "JSONBIN_API_KEY", "JSONBIN_MASTER_KEY"),

		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/lapkeu.db"),
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDatabase:  getEnv("MONGO_DATABASE", "lapkeu"),
		MemorySeedFile: getEnv("MEMORY_SEED_FILE", ""),

		AdminPIN:   firstEnv("ADMIN_PIN", "SECRET_ADMIN_PIN", "NEXT_PUBLIC_ADMIN_PIN"),
		RequirePIN: getEnvBool("REQUIRE_PIN", false),

		ReportCacheTTL:  getEnvDuration("REPORT_CACHE_TTL", 30*time.Second),
		ReportCacheSize: getEnvInt("REPORT_CACHE_SIZE", 128),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "lapkeu"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changes"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: firstEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS"),
		TransactionsSheet:        getEnv("GOOGLE_TRANSACTIONS_SHEET", "Transactions"),
		MonthlySheet:             getEnv("GOOGLE_MONTHLY_SHEET", "Monthly"),
		MirrorInterval:           getEnvDuration("MIRROR_INTERVAL", 5*time.Minute),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		VercelEnv: getEnv("VERCEL_ENV", ""),
	}

	return cfg
}

// Validate checks the settings every process needs. Missing store secrets
// are not errors: the server starts and reports them per request.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "jsonbin":
		if u, err := url.Parse(c.JSONBinBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid JSONBin base URL '%s': must be an http(s) URL", c.JSONBinBaseURL))
		}
	case "memory":
		if c.MemorySeedFile != "" {
			if info, err := os.Stat(c.MemorySeedFile); err == nil && info.IsDir() {
				errors = append(errors, fmt.Sprintf("memory seed file '%s' is a directory", c.MemorySeedFile))
			}
		}
	}

	if c.DocumentID == "" {
		errors = append(errors, "document ID cannot be empty")
	}

	if c.StoreTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must be at least 100ms", c.StoreTimeout))
	} else if c.StoreTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must be at most 5 minutes", c.StoreTimeout))
	}

	if c.ReportCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must not be negative", c.ReportCacheTTL))
	}
	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit))
	}

	if c.CORSOrigin == "" {
		errors = append(errors, "CORS origin cannot be empty")
	}

	// AMQP is optional
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

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateMirror checks the extra settings the mirror worker needs.
func (c *Config) ValidateMirror() error {
	var errors []string

	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the mirror worker")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the mirror worker")
	}
	if c.GoogleServiceAccountFile != "" && c.GoogleServiceAccountJSON == "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if c.TransactionsSheet == "" || c.MonthlySheet == "" {
		errors = append(errors, "mirror sheet names cannot be empty")
	}
	if c.TransactionsSheet != "" && c.TransactionsSheet == c.MonthlySheet {
		errors = append(errors, fmt.Sprintf("mirror sheets must differ, both are '%s'", c.MonthlySheet))
	}

	if c.MirrorInterval < 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 10 seconds", c.MirrorInterval))
	} else if c.MirrorInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at most 24 hours", c.MirrorInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("mirror configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// EnvPresence reports which secrets are set, never their values.
func (c *Config) EnvPresence() map[string]any {
	return map[string]any{
		"JSONBIN_BIN_ID":     os.Getenv("JSONBIN_BIN_ID") != "",
		"JSONBIN_SECRET_KEY": os.Getenv("JSONBIN_SECRET_KEY") != "",
		"JSONBIN_API_KEY":    os.Getenv("JSONBIN_API_KEY") != "",
		"ADMIN_PIN":          c.AdminPIN != "",
		"vercel_env":         c.VercelEnv,
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-blank variable among keys.
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
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

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
