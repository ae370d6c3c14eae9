package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("ADMIN_CHAT_IDS", "10, 20,,x")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 8, cfg.App.Workers)
	assert.Equal(t, 10*time.Second, cfg.Store.Timeout)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "crm.db", cfg.Store.SQLiteDSN)
	assert.Equal(t, map[int64]struct{}{10: {}, 20: {}}, cfg.Telegram.AdminIDs)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "t")
	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("SQLITE_DSN", "/tmp/x.db")
	t.Setenv("WORKERS", "3")
	t.Setenv("STORE_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/x.db", cfg.Store.SQLiteDSN)
	assert.Equal(t, 3, cfg.App.Workers)
	assert.Equal(t, 2*time.Second, cfg.Store.Timeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:      AppConfig{Workers: 1, Timezone: "UTC"},
			Telegram: TelegramConfig{Token: "t"},
			Store:    StoreConfig{Backend: BackendSupabase, SupabaseURL: "http://x", SupabaseKey: "k", Timeout: time.Second},
		}
	}
	require.NoError(t, valid().Validate())

	c := valid()
	c.Telegram.Token = ""
	assert.ErrorContains(t, c.Validate(), "BOT_TOKEN")

	c = valid()
	c.Store.SupabaseKey = ""
	assert.ErrorContains(t, c.Validate(), "SUPABASE_URL/SUPABASE_KEY")

	c = valid()
	c.Store.Backend = BackendPostgres
	assert.ErrorContains(t, c.Validate(), "DATABASE_URL")

	c = valid()
	c.Store.Backend = "mongo"
	assert.ErrorContains(t, c.Validate(), "unknown STORE_BACKEND")

	c = valid()
	c.App.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, c.Validate(), "TIMEZONE")
}

func TestParseAdminIDs_Empty(t *testing.T) {
	assert.Empty(t, ParseAdminIDs("  "))
}

func TestRead_NoTokenNeededForStore(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("STORE_BACKEND", "sqlite")

	cfg := Read()
	assert.Error(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateStore())
}
