package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DatabaseConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("DB_HOST", "test-db")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_NAME", "careops_test")
	defer func() {
		os.Unsetenv("DB_HOST")
		os.Unsetenv("DB_PORT")
		os.Unsetenv("DB_NAME")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "test-db", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "careops_test", cfg.Database.Database)
	assert.Equal(t, "host=test-db port=5433 user=postgres password= dbname=careops_test sslmode=disable", cfg.Database.DatabaseDSN())
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("TYPESENSE_URL")
	os.Unsetenv("TYPESENSE_API_KEY")
	os.Unsetenv("REDIS_ENABLED")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, "xyz", cfg.Typesense.APIKey)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
	assert.Equal(t, "careops-dashboard", cfg.OTEL.ServiceName)
	assert.False(t, cfg.OTEL.Enabled)
}

func TestLoad_BoolParsing(t *testing.T) {
	os.Setenv("TYPESENSE_ENABLED", "false")
	os.Setenv("OTEL_ENABLED", "not-a-bool")
	defer func() {
		os.Unsetenv("TYPESENSE_ENABLED")
		os.Unsetenv("OTEL_ENABLED")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.False(t, cfg.Typesense.Enabled)
	// Unparseable values fall back to the default
	assert.False(t, cfg.OTEL.Enabled)
}
