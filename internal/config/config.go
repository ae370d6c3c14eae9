// Package config читает настройки бота из окружения (и необязательного .env).
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

type Config struct {
	App      AppConfig
	Telegram TelegramConfig
	Store    StoreConfig
	HTTP     HTTPConfig
}

type AppConfig struct {
	Env      string
	LogLevel string
	Workers  int
	Timezone string
}

type TelegramConfig struct {
	Token    string
	AdminIDs map[int64]struct{}
}

// StoreConfig: Backend выбирает реализацию хранилища записей.
type StoreConfig struct {
	Backend      string
	SupabaseURL  string
	SupabaseKey  string
	DatabaseURL  string
	SQLiteDSN    string
	AnalyticsDSN string // пусто -> аналитика в памяти
	Timeout      time.Duration
}

type HTTPConfig struct {
	Addr string
}

// Load читает и проверяет конфигурацию бота.
func Load() (*Config, error) {
	cfg := Read()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Read читает конфигурацию без проверки. Переменные окружения имеют приоритет над файлом.
func Read() *Config {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // файла может не быть
	v.AutomaticEnv()

	setDefaults(v)

	return &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
			Workers:  v.GetInt("WORKERS"),
			Timezone: v.GetString("TIMEZONE"),
		},
		Telegram: TelegramConfig{
			Token:    strings.TrimSpace(v.GetString("BOT_TOKEN")),
			AdminIDs: ParseAdminIDs(v.GetString("ADMIN_CHAT_IDS")),
		},
		Store: StoreConfig{
			Backend:      strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
			SupabaseURL:  strings.TrimSpace(v.GetString("SUPABASE_URL")),
			SupabaseKey:  strings.TrimSpace(v.GetString("SUPABASE_KEY")),
			DatabaseURL:  strings.TrimSpace(v.GetString("DATABASE_URL")),
			SQLiteDSN:    v.GetString("SQLITE_DSN"),
			AnalyticsDSN: v.GetString("ANALYTICS_SQLITE_DSN"),
			Timeout:      v.GetDuration("STORE_TIMEOUT"),
		},
		HTTP: HTTPConfig{
			Addr: v.GetString("HTTP_ADDR"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("WORKERS", 8)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("STORE_BACKEND", BackendSupabase)
	v.SetDefault("SQLITE_DSN", "crm.db")
	v.SetDefault("STORE_TIMEOUT", "10s")
	v.SetDefault("HTTP_ADDR", ":8080")
}

// Validate проверяет обязательные параметры с учётом выбранного хранилища.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("BOT_TOKEN is not set")
	}
	if c.App.Workers <= 0 {
		return fmt.Errorf("WORKERS must be > 0")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	return c.ValidateStore()
}

// ValidateStore проверяет только параметры хранилища (для служебных команд без бота).
func (c *Config) ValidateStore() error {
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be > 0")
	}
	switch c.Store.Backend {
	case BackendSupabase:
		if c.Store.SupabaseURL == "" || c.Store.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL/SUPABASE_KEY are required for %q backend", c.Store.Backend)
		}
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %q backend", c.Store.Backend)
		}
	case BackendSQLite:
		if c.Store.SQLiteDSN == "" {
			return fmt.Errorf("SQLITE_DSN is required for %q backend", c.Store.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	return nil
}

// Location — часовой пояс, в котором пользователи вводят дедлайны.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseAdminIDs разбирает список chat id через запятую; мусор пропускается.
func ParseAdminIDs(raw string) map[int64]struct{} {
	ids := map[int64]struct{}{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ids
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids[id] = struct{}{}
		}
	}
	return ids
}
