package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/animus-labs/tablefuel/internal/domain"
)

// session wraps one StatementExecutor for the length of a run and records
// every command it issues.
type session struct {
	stmts    StatementExecutor
	logger   *slog.Logger
	now      func() time.Time
	attempts []Attempt
}

// withSession opens the session, runs fn and closes the session exactly once
// on every path, including a failed open.
func (s *session) withSession(ctx context.Context, fn func() error) error {
	defer func() {
		if err := s.stmts.Close(); err != nil {
			s.logger.Warn("close session failed", "error", err)
		}
	}()
	if err := s.stmts.Open(ctx); err != nil {
		return &SessionError{Err: err}
	}
	return fn()
}

func (s *session) exec(ctx context.Context, attempt Attempt, command string) error {
	start := s.now()
	err := s.stmts.Execute(ctx, command)
	attempt.Seq = len(s.attempts) + 1
	attempt.Duration = s.now().Sub(start)
	attempt.Status = StatusSucceeded
	if err != nil {
		attempt.Status = StatusFailed
		attempt.Error = err.Error()
	}
	s.attempts = append(s.attempts, attempt)
	return err
}

func (s *session) runSetup(ctx context.Context, req domain.ExecutionRequest) error {
	for i, command := range req.SetupCommands {
		if err := s.exec(ctx, Attempt{Kind: AttemptKindSetup}, command); err != nil {
			s.logger.Error("setup command failed", "index", i, "error", err)
			return &SetupError{Index: i, Command: command, Err: err}
		}
	}
	if len(req.SetupCommands) > 0 {
		s.logger.Info("setup commands executed", "count", len(req.SetupCommands))
	}
	return nil
}
