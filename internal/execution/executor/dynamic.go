package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/animus-labs/tablefuel/internal/domain"
	"github.com/animus-labs/tablefuel/internal/execution/plan"
)

// DynamicRunner searches for a batch size the backend accepts. Every failed
// composite halves the batch (rounding up) and requeues the excess fragments
// ahead of the untried ones. The batch never grows back, and a failure at
// size one ends the run.
type DynamicRunner struct {
	stmts  StatementExecutor
	logger *slog.Logger
	now    func() time.Time
}

func NewDynamicRunner(stmts StatementExecutor, logger *slog.Logger) *DynamicRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &DynamicRunner{stmts: stmts, logger: logger, now: time.Now}
}

func (r *DynamicRunner) Run(ctx context.Context, req domain.ExecutionRequest) (Result, error) {
	if r == nil || r.stmts == nil {
		return Result{}, fmt.Errorf("statement executor is required")
	}
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if req.Static != nil {
		return Result{}, fmt.Errorf("dynamic runner: %w", ErrUnsupportedPlan)
	}

	result := Result{Mode: req.Mode()}
	s := &session{stmts: r.stmts, logger: r.logger, now: r.now}
	err := s.withSession(ctx, func() error {
		if err := s.runSetup(ctx, req); err != nil {
			return err
		}
		if req.Dynamic == nil {
			return nil
		}
		return r.runBatches(ctx, s, *req.Dynamic, &result)
	})
	result.Attempts = s.attempts
	return result, err
}

func (r *DynamicRunner) runBatches(ctx context.Context, s *session, p domain.DynamicPlan, result *Result) error {
	remaining := append([]string(nil), p.Fragments...)
	current := make([]string, 0, min(p.BatchSize, len(p.Fragments)))
	batchSize := min(p.BatchSize, len(p.Fragments))
	result.FinalBatchSize = batchSize

	r.logger.Info("dynamic partition batching started", "fragments", len(p.Fragments), "batch_size", batchSize)

	for len(remaining) > 0 || len(current) > 0 {
		for len(current) < batchSize && len(remaining) > 0 {
			current = append(current, remaining[0])
			remaining = remaining[1:]
		}

		for {
			command := plan.Filtered(p.Template, plan.Disjunction(current))
			attempt := Attempt{Kind: AttemptKindBatch, Fragments: len(current), BatchSize: batchSize}
			err := s.exec(ctx, attempt, command)
			if err == nil {
				result.Succeeded++
				r.logger.Info("batch command succeeded", "fragments", len(current), "batch_size", batchSize)
				current = current[:0]
				break
			}

			result.Failed++
			r.logger.Warn("batch command failed", "error", &GroupExecutionError{Fragments: len(current), Err: err})
			if batchSize == 1 {
				failed := append([]string(nil), current...)
				r.logger.Error("batch size is already 1, cannot shrink further", "fragment", failed[0])
				return &ShrinkExhaustedError{Fragments: failed, Err: err}
			}

			next := (len(current) + 1) / 2
			requeue := make([]string, 0, len(current)-next+len(remaining))
			requeue = append(requeue, current[next:]...)
			remaining = append(requeue, remaining...)
			current = current[:next]

			r.logger.Warn("reducing batch size", "from", batchSize, "to", next)
			batchSize = next
			result.FinalBatchSize = batchSize
		}
	}

	r.logger.Info("dynamic partition batching completed",
		"final_batch_size", batchSize,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return nil
}
