// ABOUTME: Tests for configuration loading and environment overrides
// ABOUTME: Redirects XDG data home to a temp dir so no real config is touched
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/harperreed/leadbook/db"
	"github.com/harperreed/leadbook/unify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempHome(t *testing.T) string {
	t.Helper()
	orig := xdg.DataHome
	tmp := t.TempDir()
	xdg.DataHome = tmp
	t.Cleanup(func() { xdg.DataHome = orig })
	t.Chdir(t.TempDir())
	return tmp
}

func TestLoadDefaults(t *testing.T) {
	home := useTempHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, db.DriverSQLite, cfg.DBDriver)
	assert.Equal(t, filepath.Join(home, "leadbook", "leadbook.db"), cfg.DSN)
	assert.Equal(t, uint(3), cfg.Retry.MaxAttempts)
	assert.Equal(t, unify.InvalidateSilent, cfg.Invalidation())
}

func TestSaveAndLoad(t *testing.T) {
	useTempHome(t)

	cfg := Default()
	cfg.DBDriver = db.DriverPostgres
	cfg.DSN = "postgres://localhost/leads"
	cfg.AutoRefetch = true
	cfg.Retry.MaxAttempts = 5
	cfg.Retry.MaxInterval = 5 * time.Second
	require.NoError(t, cfg.Save())

	info, err := os.Stat(Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, unify.InvalidateActive, loaded.Invalidation())
	assert.Equal(t, uint(5), loaded.Retry.Policy().MaxAttempts)
}

func TestEnvOverrides(t *testing.T) {
	useTempHome(t)
	t.Setenv("LEADBOOK_DB_DRIVER", "pgx")
	t.Setenv("LEADBOOK_DSN", "postgres://db/leads")
	t.Setenv("LEADBOOK_RETRY_ATTEMPTS", "7")
	t.Setenv("LEADBOOK_PRESETS", "/tmp/p.yaml")
	t.Setenv("LEADBOOK_AUTO_REFETCH", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "postgres://db/leads", cfg.DSN)
	assert.Equal(t, uint(7), cfg.Retry.MaxAttempts)
	assert.Equal(t, "/tmp/p.yaml", cfg.PresetsPath)
	assert.True(t, cfg.AutoRefetch)
}

func TestInvalidRetryAttempts(t *testing.T) {
	useTempHome(t)
	t.Setenv("LEADBOOK_RETRY_ATTEMPTS", "many")

	_, err := Load()
	assert.Error(t, err)
}

func TestDotEnvIsLoaded(t *testing.T) {
	useTempHome(t)
	require.NoError(t, os.WriteFile(".env", []byte("LEADBOOK_DSN=/data/from-dotenv.db\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("LEADBOOK_DSN") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/from-dotenv.db", cfg.DSN)
}

func TestCorruptConfigFails(t *testing.T) {
	useTempHome(t)
	require.NoError(t, os.MkdirAll(Dir(), 0700))
	require.NoError(t, os.WriteFile(Path(), []byte("{not json"), 0600))

	_, err := Load()
	assert.Error(t, err)
}
