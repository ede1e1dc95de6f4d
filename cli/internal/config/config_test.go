package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/querykit/runtime/pool"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := AppFs
	fs := afero.NewMemMapFs()
	AppFs = fs
	t.Cleanup(func() { AppFs = prev })
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	useMemFs(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://app@localhost:5432/app")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://app@localhost:5432/app", cfg.DatabaseURL)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, pool.DefaultConfig(), cfg.PoolOptions())
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, time.Minute, cfg.Sweep.Interval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/etc/querykit.yaml", []byte(`
database_url: /var/lib/app.db
pool:
  max_open: 4
retry:
  max_attempts: 5
  base_delay: 250ms
  jitter: true
log:
  format: json
`), 0644))
	t.Setenv("QUERYKIT_RETRY_MAX_DELAY", "2s")
	t.Setenv("QUERYKIT_LOG_LEVEL", "debug")

	cfg, err := LoadConfig("/etc/querykit.yaml")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/app.db", cfg.DatabaseURL)
	assert.Equal(t, "sqlite3", cfg.Driver)
	assert.Equal(t, 4, cfg.Pool.MaxOpen)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 2*time.Second, cfg.Retry.MaxDelay)
	assert.True(t, cfg.Retry.Jitter)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	useMemFs(t)
	_, err := LoadConfig("/nope.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	fs := useMemFs(t)
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"DATABASE_URL", "QUERYKIT_DATABASE_URL", "QUERYKIT_DRIVER"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	require.NoError(t, afero.WriteFile(fs, ".env", []byte("DATABASE_URL=postgres://env@db/app\nQUERYKIT_DRIVER=postgres\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, ".env.local", []byte("DATABASE_URL=user:pw@tcp(localhost:3306)/app\n"), 0644))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "user:pw@tcp(localhost:3306)/app", cfg.DatabaseURL)
	assert.Equal(t, "postgres", cfg.Driver)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	useMemFs(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.Retry.MaxAttempts = 7
	cfg.Sweep.IdleThreshold = 90 * time.Second

	require.NoError(t, SaveConfig(cfg, "/home/me/.config/querykit/.querykit.yaml"))

	loaded, err := LoadConfig("/home/me/.config/querykit/.querykit.yaml")
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Retry.MaxAttempts)
	assert.Equal(t, 90*time.Second, loaded.Sweep.IdleThreshold)
}

func TestDetectDriver(t *testing.T) {
	tests := map[string]string{
		"postgres://u@h/db":           "postgres",
		"postgresql://u@h/db":         "postgres",
		"file:test.db?cache=shared":   "sqlite3",
		"/tmp/app.sqlite":             "sqlite3",
		":memory:":                    "sqlite3",
		"u:p@tcp(localhost:3306)/app": "mysql",
		"host=localhost dbname=app":   "postgres",
	}
	for url, want := range tests {
		assert.Equal(t, want, DetectDriver(url), url)
	}
}

func TestAcquirerOptions(t *testing.T) {
	cfg := &Config{Retry: RetryConfig{MaxAttempts: 4, BaseDelay: time.Second}}
	acq := pool.NewAcquirer(nil, cfg.AcquirerOptions(pool.NopLogger{})...)
	assert.Equal(t, 4, acq.RetryConfig().MaxAttempts)
	assert.Equal(t, time.Second, acq.RetryConfig().BaseDelay)

	lc := cfg.LoggerConfig(nil)
	assert.Equal(t, "", lc.Level)
}
