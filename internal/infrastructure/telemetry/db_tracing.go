package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include query variables in spans, dev only
	SlowQueryThresh time.Duration // default 200ms
	DBSystem        string
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

type dbContextKey string

const queryStartKey dbContextKey = "otel_query_start"

// RegisterDBTracing installs otelgorm on db plus callbacks that tag slow
// queries on their span and log them.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey, time.Now())
		}
	}
	after := func(tx *gorm.DB) {
		slowQueryCallback(tx, cfg.SlowQueryThresh, logger)
	}

	cb := db.Callback()
	hooks := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("dropship:before_create", before) },
		func() error { return cb.Query().Before("gorm:query").Register("dropship:before_query", before) },
		func() error { return cb.Update().Before("gorm:update").Register("dropship:before_update", before) },
		func() error { return cb.Delete().Before("gorm:delete").Register("dropship:before_delete", before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("dropship:before_raw", before) },
		func() error { return cb.Create().After("gorm:create").Register("dropship:after_create", after) },
		func() error { return cb.Query().After("gorm:query").Register("dropship:after_query", after) },
		func() error { return cb.Update().After("gorm:update").Register("dropship:after_update", after) },
		func() error { return cb.Delete().After("gorm:delete").Register("dropship:after_delete", after) },
		func() error { return cb.Raw().After("gorm:raw").Register("dropship:after_raw", after) },
	}
	for _, register := range hooks {
		if err := register(); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func slowQueryCallback(tx *gorm.DB, threshold time.Duration, logger *zap.Logger) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() && tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if elapsed <= threshold {
		return
	}

	if span.IsRecording() {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
	fields := []zap.Field{
		zap.String("table", tx.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", tx.Statement.RowsAffected),
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		fields = append(fields, zap.Error(tx.Error))
	}
	logger.Warn("Slow database query", fields...)
}
