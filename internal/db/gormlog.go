package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"menu-app-go/pkg/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormLogger forwards gorm traces into the application logger.
type GormLogger struct {
	log        logger.Logger
	logQueries bool
}

func NewGormLogger(log logger.Logger, logQueries bool) *GormLogger {
	return &GormLogger{log: log.With("component", "gorm"), logQueries: logQueries}
}

func (l *GormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	l.log.Info("db: "+msg, "args", args)
}

func (l *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	l.log.Warn("db: "+msg, "args", args)
}

func (l *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	l.log.Error("db: "+msg, "args", args)
}

func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, gorm.ErrDuplicatedKey):
		sql, rows := fc()
		l.log.InternalError("db: query failed", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case elapsed > slowQueryThreshold:
		sql, rows := fc()
		l.log.Warn("db: slow query", "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.logQueries:
		sql, rows := fc()
		l.log.Debug("db: query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
