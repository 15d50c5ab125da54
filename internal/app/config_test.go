package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

// clearEnv makes sure the keys start unset and are restored after the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t, "CONFIG_FILE", "LOG_MODE", "PORT", "JWT_SECRET_KEY", "DB_DRIVER", "OBJECT_STORAGE_MODE",
		"MAX_UPLOAD_BYTES", "REDIS_ADDR", "CORS_ALLOW_ORIGINS", "ACCESS_TOKEN_TTL", "OTEL_SAMPLE_PERCENT")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("address: want=:8080 got=%q", cfg.Address())
	}
	if cfg.JWTSecretKey != devJWTSecret {
		t.Fatalf("jwt secret: want dev default got=%q", cfg.JWTSecretKey)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("ttl: want=1h got=%s", cfg.AccessTokenTTL)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("driver: want=postgres got=%q", cfg.Database.Driver)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("max upload: want=%d got=%d", 10<<20, cfg.MaxUploadBytes)
	}
	if cfg.Redis.Addr != "" {
		t.Fatalf("redis addr should default to empty, got=%q", cfg.Redis.Addr)
	}
	if cfg.Otel.SampleRatio != 0.1 {
		t.Fatalf("sample ratio: want=0.1 got=%v", cfg.Otel.SampleRatio)
	}
	if len(cfg.AllowedOrigins) == 0 {
		t.Fatalf("expected default CORS origins")
	}
}

func TestLoadConfigProductionRequiresSecret(t *testing.T) {
	clearEnv(t, "CONFIG_FILE", "JWT_SECRET_KEY", "DB_DRIVER", "MAX_UPLOAD_BYTES", "ACCESS_TOKEN_TTL")
	t.Setenv("LOG_MODE", "production")

	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("expected error without JWT_SECRET_KEY in production")
	}
	t.Setenv("JWT_SECRET_KEY", "s3cr3t")
	if _, err := LoadConfig(logger.Nop()); err != nil {
		t.Fatalf("LoadConfig with secret: %v", err)
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	clearEnv(t, "CONFIG_FILE", "LOG_MODE", "MAX_UPLOAD_BYTES", "ACCESS_TOKEN_TTL")
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("expected error for DB_DRIVER=mysql")
	}
}

func TestLoadConfigFileDefaultsYieldToEnv(t *testing.T) {
	clearEnv(t, "LOG_MODE", "JWT_SECRET_KEY", "DB_DRIVER", "PORT", "MAX_UPLOAD_BYTES",
		"CORS_ALLOW_ORIGINS", "REDIS_CHANNEL", "ACCESS_TOKEN_TTL")

	path := filepath.Join(t.TempDir(), "taskmaster.yaml")
	body := []byte(`PORT: 9090
MAX_UPLOAD_BYTES: 2048
DB_DRIVER: sqlite
REDIS_CHANNEL: from-file
CORS_ALLOW_ORIGINS:
  - https://app.example.com
  - https://admin.example.com
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("REDIS_CHANNEL", "from-env")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port: want=9090 got=%q", cfg.Port)
	}
	if cfg.MaxUploadBytes != 2048 {
		t.Fatalf("max upload: want=2048 got=%d", cfg.MaxUploadBytes)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("driver: want=sqlite got=%q", cfg.Database.Driver)
	}
	if cfg.Redis.Channel != "from-env" {
		t.Fatalf("env should win over file: got=%q", cfg.Redis.Channel)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://admin.example.com" {
		t.Fatalf("origins: got=%v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
