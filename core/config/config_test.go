package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocoder.BaseURL)
	assert.Equal(t, "memory", cfg.Import.SessionBackend)
	assert.Equal(t, 30, cfg.Import.SessionTTLMinutes)
	assert.Equal(t, 256, cfg.Import.SessionMax)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("IMPORT_SESSION_BACKEND", "redis")
	t.Setenv("GEOCODER_EMAIL", "ops@example.com")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "redis", cfg.Import.SessionBackend)
	assert.Equal(t, "ops@example.com", cfg.Geocoder.Email)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STORAGE_ENABLED=true\nSTORAGE_BUCKET=archive\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("STORAGE_ENABLED")
		os.Unsetenv("STORAGE_BUCKET")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, "archive", cfg.Storage.Bucket)
}
