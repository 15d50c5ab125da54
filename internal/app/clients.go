package app

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/yungbote/taskmaster-backend/internal/data/db"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/realtime/bus"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openDatabase connects the configured driver and migrates the schema when
// asked to.
func openDatabase(log *logger.Logger, cfg Config) (*gorm.DB, io.Closer, error) {
	var (
		theDB  *gorm.DB
		closer io.Closer
	)
	switch cfg.Database.Driver {
	case "sqlite":
		svc, err := db.NewSQLiteService(log, cfg.Database.SQLiteDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite: %w", err)
		}
		theDB, closer = svc.DB(), closerFunc(svc.Close)
	default:
		svc, err := db.NewPostgresService(log, cfg.Database.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres: %w", err)
		}
		theDB, closer = svc.DB(), closerFunc(svc.Close)
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrateAll(theDB); err != nil {
			_ = closer.Close()
			return nil, nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	return theDB, closer, nil
}

// wireEventBus uses Redis pub/sub when REDIS_ADDR is set so events reach
// every API instance; otherwise events stay in process.
func wireEventBus(ctx context.Context, log *logger.Logger, cfg Config) (bus.Bus, error) {
	if cfg.Redis.Addr == "" {
		log.Info("Using in-process event bus")
		return bus.NewMemoryBus(), nil
	}
	b, err := bus.NewRedisBus(ctx, log, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init redis event bus: %w", err)
	}
	log.Info("Using Redis event bus", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	return b, nil
}
