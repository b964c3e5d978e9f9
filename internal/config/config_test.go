package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/phishing-campaigns/internal/config"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := config.Parse()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "campaign_launches", cfg.AMQPLaunchQueue)
	assert.Equal(t, 0.2, cfg.DefaultMaxSharePerDept)
	assert.Empty(t, cfg.AMQPURL)
	assert.Equal(t, "seed/users.json", cfg.MemoryUsersFile)
	assert.Equal(t, 2*time.Minute, cfg.GroupingLockLease)
	assert.Equal(t, 30*time.Second, cfg.HTTPWriteTimeout)
}

func TestParseRejectsBadValues(t *testing.T) {
	t.Run("postgres without db name", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "postgres")
		t.Setenv("DB_NAME", "")
		_, err := config.Parse()
		assert.ErrorContains(t, err, "DB_NAME")
	})
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mongo")
		_, err := config.Parse()
		assert.ErrorContains(t, err, "STORE_DRIVER")
	})
	t.Run("share out of range", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("GROUPING_MAX_SHARE_PER_DEPT", "1.5")
		_, err := config.Parse()
		assert.ErrorContains(t, err, "GROUPING_MAX_SHARE_PER_DEPT")
	})
	t.Run("non-positive lock lease", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("GROUPING_LOCK_LEASE", "-1s")
		_, err := config.Parse()
		assert.ErrorContains(t, err, "GROUPING_LOCK_LEASE")
	})
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("SHUTDOWN_TIMEOUT", "soon")
		_, err := config.Parse()
		assert.Error(t, err)
	})
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER=memory\nHTTP_ADDR=:9191\n"), 0o600))

	// godotenv does not override variables that are already set, so make
	// sure these are unset for the duration of the test.
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("HTTP_ADDR", "")
	os.Unsetenv("STORE_DRIVER")
	os.Unsetenv("HTTP_ADDR")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9191", cfg.HTTPAddr)
	assert.Equal(t, config.StoreDriverMemory, cfg.StoreDriver)
}
