package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, Dev, cfg.Env)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 40, cfg.PostsPerPage)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 500, cfg.Store.BatchSize)
	assert.Equal(t, "UTC", cfg.Location().String())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forumsync.yaml")
	require.Nil(t, os.WriteFile(path, []byte(`
loglevel: debug
postsperpage: 25
timezone: America/Chicago
store:
  driver: postgres
  batchsize: 100
  postgres:
    user: awful
    dbname: awful_test
`), 0o644))

	t.Run("file values", func(t *testing.T) {
		cfg, err := Load(path)
		require.Nil(t, err)
		assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
		assert.Equal(t, 25, cfg.PostsPerPage)
		assert.Equal(t, DriverPostgres, cfg.Store.Driver)
		assert.Equal(t, 100, cfg.Store.BatchSize)
		assert.Equal(t, "awful", cfg.Store.Postgres.User)
		assert.Equal(t, 5432, cfg.Store.Postgres.Port)
		assert.Equal(t, "user=awful password= host=localhost port=5432 dbname=awful_test", cfg.Store.Postgres.DSN())
	})
	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("FORUMSYNC_POSTSPERPAGE", "50")
		t.Setenv("FORUMSYNC_STORE_DRIVER", "memory")
		cfg, err := Load(path)
		require.Nil(t, err)
		assert.Equal(t, 50, cfg.PostsPerPage)
		assert.Equal(t, DriverMemory, cfg.Store.Driver)
	})
	t.Run("bad driver", func(t *testing.T) {
		t.Setenv("FORUMSYNC_STORE_DRIVER", "mongo")
		_, err := Load(path)
		assert.NotNil(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.NotNil(t, err)
	})
}
