package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "finances.db", cfg.DBPath)
	assert.Equal(t, 6, cfg.PageSize)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 32, cfg.MaxWorkers)
	assert.Equal(t, "finbot", cfg.AMQPExchange)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("STORAGE_BACKEND", "Supabase")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "secret")
	t.Setenv("TIMEZONE", "Europe/Moscow")
	t.Setenv("PAGE_SIZE", "4")
	t.Setenv("SESSION_TTL", "10m")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, BackendSupabase, cfg.StorageBackend)
	assert.Equal(t, 4, cfg.PageSize)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL)
	require.NotNil(t, cfg.Location)
	assert.Equal(t, "Europe/Moscow", cfg.Location.String())
	assert.NoError(t, cfg.ValidateBot())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{
		StorageBackend: BackendSupabase,
		Timezone:       "Mars/Olympus",
		PageSize:       0,
		MaxWorkers:     1,
		LogLevel:       "info",
	}

	err := cfg.ValidateBot()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "SUPABASE_URL")
	assert.Contains(t, msg, "SUPABASE_KEY")
	assert.Contains(t, msg, "TIMEZONE")
	assert.Contains(t, msg, "PAGE_SIZE")
	assert.Contains(t, msg, "TELEGRAM_TOKEN")
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := &Config{StorageBackend: "mongo", Location: time.UTC, PageSize: 6, MaxWorkers: 1}
	assert.ErrorContains(t, cfg.Validate(), "STORAGE_BACKEND")
}
