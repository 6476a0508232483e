package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9091" || cfg.StoreDriver != DriverMemory {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AdminEmail != "admin@organico.com" || cfg.RecipeTimeout != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ClientIdleTTL != 2*time.Hour || cfg.SweepInterval != 5*time.Minute {
		t.Fatalf("unexpected idle defaults: %+v", cfg)
	}
	if !cfg.InsecureSecret() {
		t.Fatalf("default secret must be reported as insecure")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("RECIPE_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != DriverRedis || cfg.RecipeTimeout != 5*time.Second {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if lvl, _ := cfg.SlogLevel(); lvl != slog.LevelDebug {
		t.Fatalf("level: %v", lvl)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("GEMINI_MODEL=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv sets the variable in the process; clean it up afterwards
	t.Setenv("GEMINI_MODEL", "")
	os.Unsetenv("GEMINI_MODEL")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GeminiModel != "from-dotenv" {
		t.Fatalf("dotenv not applied: %q", cfg.GeminiModel)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := Config{StoreDriver: DriverMemory, JWTSecret: "x", LogLevel: "loud"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid log level")
	}
}

func TestInsecureSecret_Overridden(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InsecureSecret() {
		t.Fatalf("explicit secret reported as insecure")
	}
}
