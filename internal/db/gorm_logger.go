package db

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's query log through zerolog. Queries are traced at
// debug level, slow ones at warn, failures at error. Not-found is not a failure.
type GormLogger struct {
	log       zerolog.Logger
	level     gormlogger.LogLevel
	slowQuery time.Duration
}

func NewGormLogger(log zerolog.Logger, slowQuery time.Duration) *GormLogger {
	return &GormLogger{
		log:       log.With().Str("component", "gorm").Logger(),
		level:     gormlogger.Warn,
		slowQuery: slowQuery,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.Info().Msgf(msg, args...)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.Warn().Msgf(msg, args...)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.Error().Msgf(msg, args...)
	}
}

func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query failed")
	case l.slowQuery > 0 && elapsed > l.slowQuery && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow query")
	default:
		if event := l.log.Debug(); event.Enabled() {
			sql, rows := fc()
			event.Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query")
		}
	}
}
