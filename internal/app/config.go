package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/taskmaster-backend/internal/data/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/data/db"
	"github.com/yungbote/taskmaster-backend/internal/http/middleware"
	"github.com/yungbote/taskmaster-backend/internal/observability"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/platform/envutil"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/realtime/bus"
)

const (
	configFileEnv    = "CONFIG_FILE"
	devJWTSecret     = "defaultsecret"
	defaultSQLiteDSN = "file:taskmaster.db?_busy_timeout=5000"
)

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver      string
	SQLiteDSN   string
	Postgres    db.PostgresConfig
	AutoMigrate bool
}

type Config struct {
	LogMode         string
	Port            string
	ShutdownTimeout time.Duration

	Database DatabaseConfig

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	AllowedOrigins []string

	// StorageModeRaw is OBJECT_STORAGE_MODE as configured; Storage.Mode is
	// filled in when the provider is resolved.
	StorageModeRaw string
	Storage        blobstore.Config
	MaxUploadBytes int64

	Redis bus.RedisConfig

	Otel observability.OtelConfig

	MetricsEnabled         bool
	MetricsCollectInterval time.Duration
	SlowOperation          time.Duration
}

func (c Config) Production() bool {
	switch strings.ToLower(c.LogMode) {
	case "prod", "production":
		return true
	}
	return false
}

func (c Config) Address() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// LoadConfig reads the process environment. When CONFIG_FILE names a YAML
// file, its keys are applied first as defaults for unset variables.
func LoadConfig(log *logger.Logger) (Config, error) {
	if path := envutil.String(configFileEnv, ""); path != "" {
		n, err := applyFileDefaults(path)
		if err != nil {
			return Config{}, err
		}
		log.Info("Applied config file defaults", "path", path, "keys", n)
	}

	cfg := Config{
		LogMode:         envutil.String("LOG_MODE", "development"),
		Port:            envutil.String("PORT", "8080"),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		Database: DatabaseConfig{
			Driver:      strings.ToLower(envutil.String("DB_DRIVER", "postgres")),
			SQLiteDSN:   envutil.String("SQLITE_DSN", defaultSQLiteDSN),
			AutoMigrate: envutil.Bool("DB_AUTO_MIGRATE", true),
			Postgres: db.PostgresConfig{
				Host:            envutil.String("POSTGRES_HOST", "localhost"),
				Port:            envutil.Int("POSTGRES_PORT", 5432),
				User:            envutil.String("POSTGRES_USER", "postgres"),
				Password:        envutil.String("POSTGRES_PASSWORD", ""),
				Name:            envutil.String("POSTGRES_NAME", "taskmaster"),
				SSLMode:         envutil.String("POSTGRES_SSLMODE", "disable"),
				MaxOpenConns:    envutil.Int("POSTGRES_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    envutil.Int("POSTGRES_MAX_IDLE_CONNS", 5),
				ConnMaxLifetime: envutil.Duration("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
			},
		},
		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", ""),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", time.Hour),
		AllowedOrigins: envutil.CSV("CORS_ALLOW_ORIGINS", middleware.DefaultAllowedOrigins),
		StorageModeRaw: envutil.String("OBJECT_STORAGE_MODE", ""),
		Storage: blobstore.Config{
			Root:         envutil.String("STORAGE_ROOT", "./data/attachments"),
			Bucket:       envutil.String("ATTACHMENT_GCS_BUCKET_NAME", ""),
			EmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
		},
		MaxUploadBytes: envutil.Int64("MAX_UPLOAD_BYTES", aggregates.DefaultMaxUploadBytes),
		Redis: bus.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Channel:  envutil.String("REDIS_CHANNEL", bus.DefaultRedisChannel),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "taskmaster-api"),
			Environment: envutil.String("OTEL_ENVIRONMENT", ""),
			Version:     envutil.String("OTEL_SERVICE_VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
		MetricsEnabled:         envutil.Bool("METRICS_ENABLED", true),
		MetricsCollectInterval: envutil.Duration("METRICS_COLLECT_INTERVAL", 15*time.Second),
		SlowOperation:          envutil.Duration("SLOW_OPERATION_THRESHOLD", 500*time.Millisecond),
	}
	cfg.Otel.SampleRatio = float64(envutil.Int("OTEL_SAMPLE_PERCENT", 10)) / 100
	if cfg.Otel.Environment == "" {
		cfg.Otel.Environment = cfg.LogMode
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY not set; using development secret")
		cfg.JWTSecretKey = devJWTSecret
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Production() && (c.JWTSecretKey == "" || c.JWTSecretKey == devJWTSecret) {
		return fmt.Errorf("JWT_SECRET_KEY must be set in production")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid DB_DRIVER=%q (allowed: postgres, sqlite)", c.Database.Driver)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// applyFileDefaults sets every key of the YAML mapping at path that is not
// already present in the environment. It returns how many keys were applied.
func applyFileDefaults(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	n := 0
	for key, v := range values {
		key = strings.TrimSpace(key)
		if key == "" || v == nil {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, fileValue(v)); err != nil {
			return n, fmt.Errorf("apply %s: %w", key, err)
		}
		n++
	}
	return n, nil
}

func fileValue(v any) string {
	switch t := v.(type) {
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
