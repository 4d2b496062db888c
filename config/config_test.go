package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, "students.json", cfg.DataFile)
	assert.Equal(t, "students", cfg.RedisKey)
	assert.False(t, cfg.Seed)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("GRADEBOOK_ADDR", ":9090")
	t.Setenv("GRADEBOOK_BACKEND", "redis")
	t.Setenv("GRADEBOOK_REDIS_DB", "3")
	t.Setenv("GRADEBOOK_SEED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.Seed)
}

func TestValidate(t *testing.T) {
	cfg := Config{Backend: BackendExcel}
	assert.Error(t, cfg.Validate())

	cfg.XLSXFile = "students.xlsx"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("GRADEBOOK_BACKEND", "postgres")
		_, err := Load()
		assert.ErrorContains(t, err, "unknown backend")
	})
	t.Run("bad redis db", func(t *testing.T) {
		t.Setenv("GRADEBOOK_REDIS_DB", "three")
		_, err := Load()
		assert.Error(t, err)
	})
}
