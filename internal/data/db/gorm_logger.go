package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

// gormLog routes gorm's warnings, errors and slow queries into the zap logger.
type gormLog struct {
	log           *logger.Logger
	level         gormLogger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(log *logger.Logger, slowThreshold time.Duration) gormLogger.Interface {
	return &gormLog{log: log.With("component", "gorm"), level: gormLogger.Warn, slowThreshold: slowThreshold}
}

func (l *gormLog) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLog) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Info {
		l.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLog) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Warn {
		l.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLog) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Error {
		l.log.Error(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLog) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormLogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Error("SQL error", "error", err, "elapsed_ms", elapsed.Milliseconds(), "rows", rows, "sql", sql)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormLogger.Warn:
		sql, rows := fc()
		l.log.Warn("Slow SQL", "elapsed_ms", elapsed.Milliseconds(), "rows", rows, "sql", sql)
	case l.level >= gormLogger.Info:
		sql, rows := fc()
		l.log.Debug("SQL", "elapsed_ms", elapsed.Milliseconds(), "rows", rows, "sql", sql)
	}
}

var _ gormLogger.Interface = (*gormLog)(nil)
