package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBenchDatabaseIgnoresServerDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "host=prod user=postgres dbname=posts")
	t.Setenv("APP_DATABASE_DRIVER", "postgres")
	t.Setenv("POSTBENCH_DSN", "")

	cfg := benchDatabase()
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, ":memory:", cfg.DSN)
}

func TestBenchDatabaseFromEnv(t *testing.T) {
	t.Setenv("POSTBENCH_DSN", "host=bench dbname=postbench")
	t.Setenv("POSTBENCH_DRIVER", "postgres")

	cfg := benchDatabase()
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "host=bench dbname=postbench", cfg.DSN)
}

func TestEnvInt(t *testing.T) {
	t.Setenv("POSTS", "12")
	assert.Equal(t, 12, envInt("POSTS", 5))
	t.Setenv("POSTS", "-1")
	assert.Equal(t, 5, envInt("POSTS", 5))
}
