package db

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

// SQLiteService backs single-node development setups. It has no row locks,
// so aggregate writes rely on its single writer.
type SQLiteService struct {
	db *gorm.DB
}

func NewSQLiteService(log *logger.Logger, dsn string) (*SQLiteService, error) {
	serviceLog := log.With("service", "SQLiteService")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   NewGormLogger(serviceLog, time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	serviceLog.Info("Opened SQLite database")
	return &SQLiteService{db: db}, nil
}

func (s *SQLiteService) DB() *gorm.DB { return s.db }

func (s *SQLiteService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
