// Package config загружает настройки бота из .env, окружения и флагов.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE должен работать и в образах без zoneinfo

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dorraborra/finbot/internal/logger"
)

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

// Ключи настроек. Совпадают с именами переменных окружения в нижнем регистре.
const (
	KeyTelegramToken  = "telegram_token"
	KeyStorageBackend = "storage_backend"
	KeyDBPath         = "db_path"
	KeySupabaseURL    = "supabase_url"
	KeySupabaseKey    = "supabase_key"
	KeyTimezone       = "timezone"
	KeyPageSize       = "page_size"
	KeySessionTTL     = "session_ttl"
	KeyMaxWorkers     = "max_workers"
	KeyAMQPURL        = "amqp_url"
	KeyAMQPExchange   = "amqp_exchange"
	KeyWebhookAddr    = "webhook_addr"
	KeyWebhookPath    = "webhook_path"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
)

type Config struct {
	TelegramToken  string
	StorageBackend string
	DBPath         string
	SupabaseURL    string
	SupabaseKey    string
	Timezone       string
	Location       *time.Location
	PageSize       int
	SessionTTL     time.Duration
	MaxWorkers     int
	AMQPURL        string
	AMQPExchange   string
	WebhookAddr    string
	WebhookPath    string
	LogLevel       string
	LogFormat      string
}

// SetDefaults регистрирует значения по умолчанию.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyStorageBackend, BackendSQLite)
	v.SetDefault(KeyDBPath, "finances.db")
	v.SetDefault(KeyTimezone, "UTC")
	v.SetDefault(KeyPageSize, 6)
	v.SetDefault(KeySessionTTL, 30*time.Minute)
	v.SetDefault(KeyMaxWorkers, 32)
	v.SetDefault(KeyAMQPExchange, "finbot")
	v.SetDefault(KeyWebhookAddr, ":8080")
	v.SetDefault(KeyWebhookPath, "/webhook")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// Load читает .env (если он есть), затем окружение и привязанные флаги.
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		TelegramToken:  v.GetString(KeyTelegramToken),
		StorageBackend: strings.ToLower(v.GetString(KeyStorageBackend)),
		DBPath:         v.GetString(KeyDBPath),
		SupabaseURL:    v.GetString(KeySupabaseURL),
		SupabaseKey:    v.GetString(KeySupabaseKey),
		Timezone:       v.GetString(KeyTimezone),
		PageSize:       v.GetInt(KeyPageSize),
		SessionTTL:     v.GetDuration(KeySessionTTL),
		MaxWorkers:     v.GetInt(KeyMaxWorkers),
		AMQPURL:        v.GetString(KeyAMQPURL),
		AMQPExchange:   v.GetString(KeyAMQPExchange),
		WebhookAddr:    v.GetString(KeyWebhookAddr),
		WebhookPath:    v.GetString(KeyWebhookPath),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err == nil {
		cfg.Location = loc
	}
	return cfg, nil
}

// Validate проверяет настройки хранилища и общие параметры.
// Возвращает все найденные проблемы одной ошибкой.
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite storage"))
		}
	case BackendSupabase:
		if c.SupabaseURL == "" {
			errs = append(errs, errors.New("SUPABASE_URL is required for supabase storage"))
		}
		if c.SupabaseKey == "" {
			errs = append(errs, errors.New("SUPABASE_KEY is required for supabase storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}

	if c.Location == nil {
		errs = append(errs, fmt.Errorf("unknown TIMEZONE %q", c.Timezone))
	}
	if c.PageSize < 1 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize))
	}
	if c.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("MAX_WORKERS must be positive, got %d", c.MaxWorkers))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must not be negative, got %s", c.SessionTTL))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateBot дополнительно требует токен Telegram.
func (c *Config) ValidateBot() error {
	err := c.Validate()
	if c.TelegramToken == "" {
		err = errors.Join(err, errors.New("TELEGRAM_TOKEN is required"))
	}
	return err
}
