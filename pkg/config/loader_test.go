package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/config"
)

type tablesConfig struct {
	Transitions string `env:"TEST_TRANSITIONS_TABLE" envDefault:"transitions"`
	History     string `env:"TEST_HISTORY_TABLE" envDefault:"transition_history"`
}

type stageConfig struct {
	Prefix string `env:"TEST_STAGE_PREFIX" envDefault:"statekit:stage:"`
}

type requiredConfig struct {
	DSN string `env:"TEST_REQUIRED_DSN,required"`
}

type fileConfig struct {
	UserModel string `env:"TEST_FILE_USER_MODEL"`
	RoleModel string `env:"TEST_FILE_ROLE_MODEL"`
}

func TestLoad(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_HISTORY_TABLE", "audit_history")

	var cfg tablesConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "transitions", cfg.Transitions)
	assert.Equal(t, "audit_history", cfg.History)

	t.Run("cached per type", func(t *testing.T) {
		t.Setenv("TEST_HISTORY_TABLE", "changed")

		var again tablesConfig
		require.NoError(t, config.Load(&again))
		assert.Equal(t, "audit_history", again.History)

		require.NoError(t, config.Reload(&again))
		assert.Equal(t, "changed", again.History)
	})

	t.Run("types are independent", func(t *testing.T) {
		var other stageConfig
		require.NoError(t, config.Load(&other))
		assert.Equal(t, "statekit:stage:", other.Prefix)
	})
}

func TestLoadMissingRequired(t *testing.T) {
	config.ResetCache()
	require.NoError(t, os.Unsetenv("TEST_REQUIRED_DSN"))

	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&cfg) })

	t.Setenv("TEST_REQUIRED_DSN", "postgres://localhost/statekit")
	require.NoError(t, config.Load(&cfg), "a failed parse can be retried")
	assert.Equal(t, "postgres://localhost/statekit", cfg.DSN)
}

func TestLoadNilPointer(t *testing.T) {
	var cfg *tablesConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoadEnv(t *testing.T) {
	config.ResetCache()
	dir := t.TempDir()
	path := filepath.Join(dir, ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("TEST_FILE_USER_MODEL=account\nTEST_FILE_ROLE_MODEL=group\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("TEST_FILE_USER_MODEL")
		_ = os.Unsetenv("TEST_FILE_ROLE_MODEL")
	})
	t.Setenv("TEST_FILE_ROLE_MODEL", "team")

	require.NoError(t, config.LoadEnv(path))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "account", cfg.UserModel)
	assert.Equal(t, "team", cfg.RoleModel, "existing variables win over the file")

	err := config.LoadEnv(filepath.Join(dir, "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	assert.Panics(t, func() { config.MustLoadEnv(filepath.Join(dir, "missing.env")) })
}
