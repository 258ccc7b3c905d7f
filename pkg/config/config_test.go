package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := load("", noEnv)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "default", cfg.Session)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, ".arbor/sessions", cfg.Store.Path)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "arbor:session:", cfg.Redis.Prefix)
	assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
history:
  limit: 10
store:
  driver: redis
redis:
  addr: cache:6379
  ttl: 1h
`), 0o644))

	cfg, err := load(path, envOf(map[string]string{
		"ARBOR_HISTORY_LIMIT":        "20",
		"ARBOR_REDIS_LOCK":           "true",
		"ARBOR_HTTP_ALLOWED_ORIGINS": "http://a.test,http://b.test",
	}))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 20, cfg.History.Limit, "env wins over file")
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.True(t, cfg.Redis.Lock)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, ".arbor/sessions", cfg.Store.Path, "untouched defaults survive the merge")
}

func TestLoad_Errors(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"), noEnv)
	assert.Error(t, err, "explicit file must exist")

	_, err = load("", envOf(map[string]string{"ARBOR_STORE_DRIVER": "sqlite"}))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = load("", envOf(map[string]string{"ARBOR_HISTORY_LIMIT": "-1"}))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = load("", envOf(map[string]string{"ARBOR_HTTP_READ_TIMEOUT": "soon"}))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "ARBOR_REDIS_LOCK_TTL", EnvName("redis.lock_ttl"))
	assert.Equal(t, "ARBOR_LOG_LEVEL", EnvName("log_level"))
}
