// Package config loads service and CLI settings from the environment after
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"Conduit/internal/calc/tables"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

type Config struct {
	// Server
	Addr       string
	TLSCert    string
	TLSKey     string
	CORSOrigin string

	// Auth and storage
	DatabaseURL string
	TokenKey    string

	// Rate limiting per client IP on /api
	RateLimitRPS   rate.Limit
	RateLimitBurst int

	// Logging
	LogLevel  string
	LogFormat string

	// Reference tables: a YAML edition file wins over a bundled edition name.
	TablesFile string
	Edition    string
}

// Load reads .env when present, then the environment. Values that are set
// but malformed are errors.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 1)
	if err != nil {
		return nil, err
	}
	burst, err := getEnvInt("RATE_LIMIT_BURST", 3)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:           getEnv("ADDR", ":8080"),
		TLSCert:        os.Getenv("TLS_CERT"),
		TLSKey:         os.Getenv("TLS_KEY"),
		CORSOrigin:     getEnv("CORS_ORIGIN", "*"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		TokenKey:       os.Getenv("TOKEN_KEY"),
		RateLimitRPS:   rate.Limit(rps),
		RateLimitBurst: burst,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		TablesFile:     os.Getenv("TABLES_FILE"),
		Edition:        os.Getenv("EDITION"),
	}

	if rps <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", rps)
	}
	if burst < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", burst)
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}
	return cfg, nil
}

// ValidateServer checks the settings only the HTTP service needs.
func (c *Config) ValidateServer() error {
	if c.TokenKey == "" {
		return fmt.Errorf("TOKEN_KEY is required")
	}
	if len(c.TokenKey) < 32 {
		return fmt.Errorf("TOKEN_KEY must be at least 32 bytes")
	}
	return nil
}

func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// Tables resolves the reference tables: TABLES_FILE, then EDITION, then the
// newest bundled edition.
func (c *Config) Tables() (*tables.Tables, error) {
	switch {
	case c.TablesFile != "":
		return tables.LoadFile(c.TablesFile)
	case c.Edition != "":
		return tables.Edition(c.Edition)
	default:
		return tables.Default(), nil
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, value)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, value)
	}
	return f, nil
}
