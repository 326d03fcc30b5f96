package main

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/animus-labs/tablefuel/internal/catalog"
	"github.com/animus-labs/tablefuel/internal/config"
	"github.com/animus-labs/tablefuel/internal/fuel"
	"github.com/animus-labs/tablefuel/internal/platform/database"
	"github.com/animus-labs/tablefuel/internal/platform/metrics"
	"github.com/animus-labs/tablefuel/internal/platform/objectstore"
	"github.com/animus-labs/tablefuel/internal/querygen"
	"github.com/animus-labs/tablefuel/internal/report"
	"github.com/animus-labs/tablefuel/internal/statement"
)

// The run context is not tied to SIGINT/SIGTERM: a fuel in progress is not
// cancellable and only ends with the process.
func runFuel(ctx context.Context, path string, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return invalid(err)
	}

	var opts []fuel.Option
	opts = append(opts, fuel.WithMetrics(metrics.New()))
	if cfg.Report.Enabled {
		archiver, err := newArchiver(cfg)
		if err != nil {
			return invalid(err)
		}
		opts = append(opts, fuel.WithArchiver(archiver))
	}

	db, err := database.Open(ctx, cfg.DatabaseConfig())
	if err != nil {
		logger.Error("database unavailable", "error", err)
		return failed(err)
	}
	defer func() { _ = db.Close() }()

	manager, err := newManager(cfg, db, logger, opts...)
	if err != nil {
		return invalid(err)
	}
	rep, err := manager.Fuel(ctx)
	if err != nil {
		return failed(err)
	}
	logger.Info("fuel complete", "run_id", rep.RunID.String(), "status", rep.Status)
	return nil
}

func newManager(cfg config.Config, db *sql.DB, logger *slog.Logger, opts ...fuel.Option) (*fuel.Manager, error) {
	cat, err := catalog.New(cfg.Database.Driver, db)
	if err != nil {
		return nil, err
	}
	dialect, err := querygen.DialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	stmts := statement.NewSQLExecutor(db, logger)
	return fuel.NewManager(cfg, cat, dialect, stmts, logger, opts...)
}

func newArchiver(cfg config.Config) (*report.Archiver, error) {
	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if bucket := strings.TrimSpace(cfg.Report.Bucket); bucket != "" {
		storeCfg.BucketReports = bucket
	}
	store, err := objectstore.NewMinioStore(storeCfg)
	if err != nil {
		return nil, err
	}
	return report.NewArchiver(store, storeCfg.BucketReports, cfg.Report.Prefix)
}
