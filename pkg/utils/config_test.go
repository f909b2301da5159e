package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADVOCATES_CONFIG", "")
	t.Setenv("ADVOCATES_DB_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.DB.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTDuration)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "http_addr: \":9090\"\ndb:\n  driver: postgres\n  dsn: postgres://file\nauth:\n  jwt_issuer: from-file\n  jwt_duration: 2h\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("ADVOCATES_CONFIG", path)
	t.Setenv("ADVOCATES_DB_DRIVER", "")
	t.Setenv("ADVOCATES_DB_DSN", "postgres://env")
	t.Setenv("ADVOCATES_JWT_TTL_HOURS", "bogus")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "postgres://env", cfg.DB.DSN)
	assert.Equal(t, "from-file", cfg.Auth.JWTIssuer)
	assert.Equal(t, 2*time.Hour, cfg.Auth.JWTDuration)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("ADVOCATES_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
