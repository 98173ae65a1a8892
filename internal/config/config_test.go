package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var keys = []string{
	"ADDR", "TLS_CERT", "TLS_KEY", "CORS_ORIGIN", "DATABASE_URL", "TOKEN_KEY",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL", "LOG_FORMAT", "TABLES_FILE", "EDITION",
}

// clean runs the test in an empty directory with every config key unset.
func clean(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clean(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.Equal(t, rate.Limit(1), cfg.RateLimitRPS)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.TLSEnabled())

	tb, err := cfg.Tables()
	require.NoError(t, err)
	assert.Equal(t, "NOM-001-SEDE-2012", tb.Standard())
}

func TestLoadFromEnv(t *testing.T) {
	clean(t)
	t.Setenv("ADDR", ":443")
	t.Setenv("TLS_CERT", "server.crt")
	t.Setenv("TLS_KEY", "server.key")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("EDITION", "NOM-001-SEDE-2012")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":443", cfg.Addr)
	assert.True(t, cfg.TLSEnabled())
	assert.Equal(t, rate.Limit(2.5), cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)

	_, err = cfg.Tables()
	require.NoError(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	clean(t)
	require.NoError(t, os.WriteFile(".env", []byte("LOG_LEVEL=debug\nCORS_ORIGIN=https://conduit.example\n"), 0o600))
	// godotenv does not override variables that are already set, even empty.
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("CORS_ORIGIN")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://conduit.example", cfg.CORSOrigin)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"rps not a number", map[string]string{"RATE_LIMIT_RPS": "fast"}},
		{"rps zero", map[string]string{"RATE_LIMIT_RPS": "0"}},
		{"burst not an integer", map[string]string{"RATE_LIMIT_BURST": "1.5"}},
		{"burst zero", map[string]string{"RATE_LIMIT_BURST": "0"}},
		{"cert without key", map[string]string{"TLS_CERT": "server.crt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ValidateServer())

	cfg.TokenKey = "short"
	assert.Error(t, cfg.ValidateServer())

	cfg.TokenKey = strings.Repeat("k", 32)
	assert.NoError(t, cfg.ValidateServer())
}

func TestTablesFile(t *testing.T) {
	clean(t)
	path := filepath.Join(t.TempDir(), "edition.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`standard: LOCAL
version: 1.0.0
conductors: [{insulation: THW, gauges: [{gauge: "12", area_mm2: 3.31}]}]
conduits: [{material: EMT, sizes: [{trade_size: "1/2", area_mm2: 196}]}]`), 0o600))
	t.Setenv("TABLES_FILE", path)
	t.Setenv("EDITION", "ignored")

	cfg, err := Load()
	require.NoError(t, err)
	tb, err := cfg.Tables()
	require.NoError(t, err)
	assert.Equal(t, "LOCAL", tb.Standard())

	cfg.TablesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Tables()
	assert.Error(t, err)
}
