// Package app is the central wiring point for dependency injection: it turns
// the process-wide configuration into a ready-to-use pipeline with its logger,
// sink and telemetry defaults resolved.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/upb/microbench/bench"
	"github.com/upb/microbench/config"
	"github.com/upb/microbench/hooks"
	"github.com/upb/microbench/internal/observability"
	"github.com/upb/microbench/sink"
)

// Dependencies holds the wired collaborators behind a pipeline.
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sink     sink.Sink
	Pipeline *bench.Pipeline

	db *sql.DB
}

// NewDependencies wires a pipeline from the process configuration. The sink is
// the Postgres destination when MICROBENCH_DATABASE_URL is set, the configured
// results file otherwise. Telemetry interval and join timeout fall back to the
// configured defaults when the pipeline config leaves them zero.
func NewDependencies(ctx context.Context, cfg *config.Config, benchCfg bench.Config, reg *hooks.Registry) (*Dependencies, error) {
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initSink(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize sink: %w", err)
	}

	if benchCfg.Telemetry != nil {
		if benchCfg.Telemetry.Interval <= 0 {
			benchCfg.Telemetry.Interval = cfg.TelemetryInterval
		}
		if benchCfg.Telemetry.JoinTimeout <= 0 {
			benchCfg.Telemetry.JoinTimeout = cfg.TelemetryJoinTimeout
		}
	}

	pipeline, err := bench.New(benchCfg, reg, deps.Sink, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct pipeline: %w", err)
	}
	deps.Pipeline = pipeline

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initSink selects and connects the record destination.
func (d *Dependencies) initSink(ctx context.Context, cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		d.Sink = sink.NewFile(cfg.Outfile, d.Logger)
		return nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	d.db = db
	d.Sink = sink.NewPostgres(db, "", d.Logger)
	d.Logger.Info("database sink initialized")
	return nil
}

// Close releases the wired resources.
func (d *Dependencies) Close() error {
	_ = d.Logger.Sync()
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
