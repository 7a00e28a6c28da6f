package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "posts.db", cfg.Database.DSN)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "http://localhost:8080/graphql", cfg.Web.APIURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Web.LoadingWait)
}

func TestLoadDatabaseURLFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "host=db user=postgres dbname=posts sslmode=disable")
	t.Setenv("APP_DATABASE_DRIVER", "postgres")
	t.Setenv("APP_SERVER_PORT", "9090")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=db user=postgres dbname=posts sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://localhost:9090/graphql", cfg.Web.APIURL, "api url follows the server port")
}

func TestLoadExplicitAPIURL(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_WEB_API_URL", "http://api.internal:8000/graphql")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "http://api.internal:8000/graphql", cfg.Web.APIURL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("server:\n  port: 7000\nredis:\n  enabled: true\n  addr: cache:6379\n  ttl: 30s\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "http://localhost:7000/graphql", cfg.Web.APIURL)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("APP_DATABASE_DRIVER", "oracle")

	_, err := LoadFrom(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
