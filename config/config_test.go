package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CASS_DB", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("MONGO_DB_NAME", "")
	t.Setenv("EMAIL_FROM", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "yoosprint", cfg.MongoDBName)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Empty(t, cfg.CassandraHosts)
	assert.False(t, cfg.Email.Enabled())
}

func TestFromEnvRequiresSecretOutsideDev(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnvUnsetEnvIsNotDev(t *testing.T) {
	t.Setenv("ENV", "")
	os.Unsetenv("ENV")
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CASS_DB", "cass1, cass2,")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"cass1", "cass2"}, cfg.CassandraHosts)

	t.Setenv("SERVER_PORT", "http")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("MONGO_DB_NAME=from_file\n"), 0600))
	t.Setenv("ENV", "dev")
	t.Setenv("MONGO_DB_NAME", "")
	os.Unsetenv("MONGO_DB_NAME")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "from_file", cfg.MongoDBName)

	_, err = Load(filepath.Join(dir, "missing.env"))
	assert.NoError(t, err)
}
