package fuel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/animus-labs/tablefuel/internal/catalog"
	"github.com/animus-labs/tablefuel/internal/config"
	"github.com/animus-labs/tablefuel/internal/domain"
	"github.com/animus-labs/tablefuel/internal/execution/executor"
	"github.com/animus-labs/tablefuel/internal/platform/metrics"
	"github.com/animus-labs/tablefuel/internal/querygen"
	"github.com/animus-labs/tablefuel/internal/report"
)

// Plan is the request a fuel would execute and the facts it was derived from.
type Plan struct {
	Source     catalog.Table
	DropTarget bool
	Request    domain.ExecutionRequest
}

type Manager struct {
	cfg       config.Config
	catalog   catalog.Catalog
	generator *querygen.Generator
	stmts     executor.StatementExecutor
	logger    *slog.Logger

	archiver *report.Archiver
	metrics  *metrics.Recorder

	now      func() time.Time
	newRunID func() uuid.UUID
}

type Option func(*Manager)

// WithArchiver uploads every run report.
func WithArchiver(a *report.Archiver) Option {
	return func(m *Manager) { m.archiver = a }
}

// WithMetrics records every run; the recorder is pushed when a Pushgateway
// is configured.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Manager) { m.metrics = r }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(cfg config.Config, cat catalog.Catalog, dialect querygen.Dialect, stmts executor.StatementExecutor, logger *slog.Logger, opts ...Option) (*Manager, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if stmts == nil {
		return nil, errors.New("statement executor is required")
	}
	generator, err := querygen.NewGenerator(dialect, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		cfg:       cfg,
		catalog:   cat,
		generator: generator,
		stmts:     stmts,
		logger:    logger,
		now:       time.Now,
		newRunID:  uuid.New,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Plan reads the source metadata, decides whether the target is recreated
// and generates the request. Nothing is executed.
func (m *Manager) Plan(ctx context.Context) (Plan, error) {
	source, err := m.catalog.Table(ctx, m.cfg.SourceDatabase, m.cfg.SourceTable)
	if err != nil {
		return Plan{}, fmt.Errorf("describe source %s: %w", m.cfg.Source(), err)
	}

	dropTarget := m.cfg.PreFueling.DropTarget
	if _, err := m.catalog.Table(ctx, m.cfg.TargetDatabase, m.cfg.TargetTable); err != nil {
		if !errors.Is(err, catalog.ErrTableNotFound) {
			return Plan{}, fmt.Errorf("describe target %s: %w", m.cfg.Target(), err)
		}
		dropTarget = true
	}

	req, err := m.generator.Generate(source, dropTarget)
	if err != nil {
		return Plan{}, fmt.Errorf("generate request: %w", err)
	}
	return Plan{Source: source, DropTarget: dropTarget, Request: req}, nil
}

// Fuel plans and runs one copy. The report is returned for every outcome and
// is published to the configured sinks before Fuel returns; sink failures are
// logged and never change the run outcome.
func (m *Manager) Fuel(ctx context.Context) (report.Report, error) {
	rep := report.Report{
		RunID:     m.newRunID(),
		Source:    m.cfg.Source(),
		Target:    m.cfg.Target(),
		Strategy:  m.cfg.PartitionGrouping,
		StartedAt: m.now(),
	}
	logger := m.logger.With("run_id", rep.RunID.String(), "source", rep.Source, "target", rep.Target)

	p, err := m.Plan(ctx)
	if err != nil {
		rep.Complete(executor.Result{}, err, m.now())
		logger.Error("fuel planning failed", "error", err)
		m.publish(ctx, logger, rep)
		return rep, err
	}
	rep.DropTarget = p.DropTarget

	runner, err := executor.NewRunner(m.cfg.PartitionGrouping, m.stmts, logger)
	if err != nil {
		rep.Complete(executor.Result{}, err, m.now())
		m.publish(ctx, logger, rep)
		return rep, err
	}

	logger.Info("fuel started",
		"strategy", m.cfg.PartitionGrouping,
		"mode", p.Request.Mode(),
		"drop_target", p.DropTarget,
		"setup_commands", len(p.Request.SetupCommands),
	)
	result, runErr := runner.Run(ctx, p.Request)
	rep.Complete(result, runErr, m.now())
	if runErr != nil {
		logger.Error("fuel failed",
			"succeeded", rep.Succeeded,
			"failed", rep.Failed,
			"error", runErr,
		)
	} else {
		logger.Info("fuel finished",
			"succeeded", rep.Succeeded,
			"failed", rep.Failed,
			"final_batch_size", rep.FinalBatchSize,
			"duration", rep.Duration().String(),
		)
	}
	m.publish(ctx, logger, rep)
	return rep, runErr
}

func (m *Manager) publish(ctx context.Context, logger *slog.Logger, rep report.Report) {
	if m.metrics != nil {
		for _, attempt := range rep.Attempts {
			m.metrics.ObserveCommand(attempt.Kind, attempt.Status, attempt.Duration)
		}
		m.metrics.ObserveRun(rep.Status, rep.FinalBatchSize)
		if m.cfg.Metrics.PushgatewayURL != "" {
			if err := m.metrics.Push(ctx, m.cfg.Metrics.PushgatewayURL, m.cfg.Metrics.Job); err != nil {
				logger.Warn("metrics push failed", "error", err)
			}
		}
	}
	if m.archiver != nil {
		key, err := m.archiver.Archive(ctx, rep)
		if err != nil {
			logger.Warn("report archive failed", "error", err)
			return
		}
		logger.Info("report archived", "key", key)
	}
}
