package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/animus-labs/tablefuel/internal/domain"
)

// StaticRunner executes requests grouped at plan time. A failed group is
// retried once, fragment by fragment; a failed fragment aborts the run.
type StaticRunner struct {
	stmts  StatementExecutor
	logger *slog.Logger
	now    func() time.Time
}

func NewStaticRunner(stmts StatementExecutor, logger *slog.Logger) *StaticRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &StaticRunner{stmts: stmts, logger: logger, now: time.Now}
}

func (r *StaticRunner) Run(ctx context.Context, req domain.ExecutionRequest) (Result, error) {
	if r == nil || r.stmts == nil {
		return Result{}, fmt.Errorf("statement executor is required")
	}
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if req.Dynamic != nil {
		return Result{}, fmt.Errorf("static runner: %w", ErrUnsupportedPlan)
	}

	result := Result{Mode: req.Mode()}
	s := &session{stmts: r.stmts, logger: r.logger, now: r.now}
	err := s.withSession(ctx, func() error {
		if err := s.runSetup(ctx, req); err != nil {
			return err
		}
		if req.Static == nil {
			return nil
		}
		return r.runGroups(ctx, s, req.Static.Groups, &result)
	})
	result.Attempts = s.attempts
	return result, err
}

func (r *StaticRunner) runGroups(ctx context.Context, s *session, groups []domain.CommandGroup, result *Result) error {
	for _, group := range groups {
		logger := r.logger.With("group_id", group.ID, "fragments", len(group.Fragments))
		attempt := Attempt{Kind: AttemptKindGroup, GroupID: group.ID, Fragments: len(group.Fragments), BatchSize: len(group.Fragments)}
		err := s.exec(ctx, attempt, group.Command)
		if err == nil {
			result.Succeeded++
			logger.Info("group command succeeded")
			continue
		}
		result.Failed++
		groupErr := &GroupExecutionError{GroupID: group.ID, Fragments: len(group.Fragments), Err: err}
		logger.Warn("group command failed, running fragments individually", "error", groupErr)

		for i, fallback := range group.Fallbacks {
			attempt := Attempt{Kind: AttemptKindFallback, GroupID: group.ID, Fragments: 1, BatchSize: 1}
			if err := s.exec(ctx, attempt, fallback); err != nil {
				result.Failed++
				logger.Error("fallback command failed", "index", i, "error", err)
				return &FallbackExecutionError{GroupID: group.ID, Index: i, Command: fallback, Err: err}
			}
			result.Succeeded++
			logger.Info("fallback command succeeded", "index", i)
		}
	}
	r.logger.Info("static partition groups completed",
		"groups", len(groups),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return nil
}
