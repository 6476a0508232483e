package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config настройки сервиса из переменных окружения
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":9091"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"organico.db"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"organico:"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"supersecret"`
	ClientTTL time.Duration `env:"CLIENT_TOKEN_TTL" envDefault:"720h"`

	// состояние клиента (корзина, оформление) удаляется после простоя
	ClientIdleTTL time.Duration `env:"CLIENT_IDLE_TTL" envDefault:"2h"`
	SweepInterval time.Duration `env:"CLIENT_SWEEP_INTERVAL" envDefault:"5m"`

	// пустой ADMIN_EMAIL отключает вход администратора
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@organico.com"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin"`

	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiBaseURL string        `env:"GEMINI_BASE_URL"`
	RecipeTimeout time.Duration `env:"RECIPE_TIMEOUT" envDefault:"30s"`
}

// DefaultJWTSecret годится только для локального запуска
const DefaultJWTSecret = "supersecret"

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Load читает .env (если есть) и окружение
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		// существующие переменные окружения не перезаписываются
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// InsecureSecret true, если JWT_SECRET не задан явно
func (c *Config) InsecureSecret() bool { return c.JWTSecret == DefaultJWTSecret }

func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	return lvl, nil
}
