// Package config loads and validates the service configuration from
// environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Config carries everything the service reads from the environment.
type Config struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogRetentionWeeks int    // Number of weeks to keep log files
	MaxLogFileSize    int64  // Maximum log file size in bytes
	MaxRequestBody    int64  // Maximum request body size in bytes
	MaxHeaderSize     int64  // Maximum header size in bytes
	GoogleAPIKey      string // API key for the extraction model
	ExtractionModel   string // Model name used for label extraction
	DatasetPath       string // Path to the medicine reference CSV
	UploadDir         string // Directory for upload scratch files
}

// maxSizeLimit caps the request body and header limits at 100MB.
const maxSizeLimit = 100 << 20

// Load reads the configuration from the environment, applies defaults,
// and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              envOr("PORT", "8000"),
		Address:           envOr("ADDRESS", "127.0.0.1"),
		Env:               envOr("ENV", "dev"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		LogRetentionWeeks: envIntOr("LOG_RETENTION_WEEKS", 4),
		MaxLogFileSize:    envInt64Or("MAX_LOG_FILE_SIZE", 100<<20),
		MaxRequestBody:    envInt64Or("MAX_REQUEST_BODY", 20<<20), // label photos are large
		MaxHeaderSize:     envInt64Or("MAX_HEADER_SIZE", 1<<20),
		GoogleAPIKey:      os.Getenv("GOOGLE_API_KEY"),
		ExtractionModel:   envOr("EXTRACTION_MODEL", "gemini-1.5-flash"),
		DatasetPath:       envOr("DATASET_PATH", "medicine_data.csv"),
		UploadDir:         envOr("UPLOAD_DIR", os.TempDir()),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// validateConfig runs every check and reports the first failure.
func validateConfig(cfg *Config) error {
	checks := []struct {
		name string
		err  error
	}{
		{"PORT", checkPort(cfg.Port)},
		{"ADDRESS", checkAddress(cfg.Address)},
		{"ENV", oneOf("ENV", cfg.Env, "dev", "staging", "prod", "test")},
		{"LOG_LEVEL", oneOf("LOG_LEVEL", cfg.LogLevel, "debug", "info", "warn", "error")},
		{"MAX_REQUEST_BODY", checkRange("MAX_REQUEST_BODY", cfg.MaxRequestBody, 1, maxSizeLimit, "bytes")},
		{"MAX_HEADER_SIZE", checkRange("MAX_HEADER_SIZE", cfg.MaxHeaderSize, 1, maxSizeLimit, "bytes")},
		{"LOG_RETENTION_WEEKS", checkRange("LOG_RETENTION_WEEKS", int64(cfg.LogRetentionWeeks), 1, 52, "weeks")},
		{"MAX_LOG_FILE_SIZE", checkRange("MAX_LOG_FILE_SIZE", cfg.MaxLogFileSize, 1<<20, 1<<30, "bytes")},
		{"GOOGLE_API_KEY", checkAPIKey(cfg.GoogleAPIKey)},
		{"EXTRACTION_MODEL", checkSet("EXTRACTION_MODEL", cfg.ExtractionModel)},
		{"DATASET_PATH", checkSet("DATASET_PATH", cfg.DatasetPath)},
		{"UPLOAD_DIR", checkSet("UPLOAD_DIR", cfg.UploadDir)},
	}

	for _, check := range checks {
		if check.err != nil {
			return fmt.Errorf("invalid %s: %w", check.name, check.err)
		}
	}
	return nil
}

func checkPort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("not a number: %w", err)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("%d is outside 1-65535", n)
	}
	if n < 1024 {
		return fmt.Errorf("%d is privileged, use 1024-65535", n)
	}
	return nil
}

// checkAddress accepts loopback and private addresses only, the service
// is meant to sit behind a reverse proxy.
func checkAddress(addr string) error {
	if addr == "localhost" {
		return nil
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", addr)
	}
	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, bind to a loopback or private address", addr)
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	if slices.Contains(allowed, strings.ToLower(value)) {
		return nil
	}
	return fmt.Errorf("%s must be one of %v, got: %s", name, allowed, value)
}

func checkRange(name string, v, lo, hi int64, unit string) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s must be between %d and %d %s, got: %d", name, lo, hi, unit, v)
	}
	return nil
}

func checkAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("GOOGLE_API_KEY is required to call the extraction model")
	}
	return nil
}

func checkSet(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

// SlogLevel converts the configured LOG_LEVEL to a slog.Level
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envIntOr falls back to the default when the variable is unset or not a
// number.
func envIntOr(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return def
	}
	return v
}

// GetEnvVars names every variable the service reads.
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"GOOGLE_API_KEY",
		"EXTRACTION_MODEL",
		"DATASET_PATH",
		"UPLOAD_DIR",
	}
}

// ValidateAllEnvVars reports the variables that have no default and are
// not set in the environment.
func ValidateAllEnvVars() error {
	var missing []string
	for _, name := range []string{"GOOGLE_API_KEY"} {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}
