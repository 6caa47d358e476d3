package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, DriverPostgres, c.StoreDriver)
	assert.Equal(t, 60, c.RateLimitPerMinute)
	assert.Equal(t, 5*time.Minute, c.WebhookTolerance)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vidtube.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9000"
store_driver: memory
rate_limit_per_minute: 10
webhook_tolerance: 30s
cors_origins: ["https://a.example"]
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("CORS_ORIGINS", "https://b.example, https://c.example")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", c.HTTPAddr, "environment wins over the file")
	assert.Equal(t, DriverMemory, c.StoreDriver)
	assert.Equal(t, 10, c.RateLimitPerMinute)
	assert.Equal(t, 30*time.Second, c.WebhookTolerance)
	assert.Equal(t, []string{"https://b.example", "https://c.example"}, c.CORSOrigins)
}

func TestLoad_BadValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate_Production(t *testing.T) {
	c := defaults()
	c.Environment = "production"
	assert.Error(t, c.Validate())

	c.JWTSecret = "s"
	c.MuxWebhookSecret = "m"
	assert.NoError(t, c.Validate())

	c.StoreDriver = DriverMemory
	assert.Error(t, c.Validate())
}
