package executor

import (
	"context"
	"time"

	"github.com/animus-labs/tablefuel/internal/domain"
)

// StatementExecutor runs commands on one backend session.
type StatementExecutor interface {
	Open(ctx context.Context) error
	Execute(ctx context.Context, command string) error
	Close() error
}

// Runner consumes one ExecutionRequest end to end.
type Runner interface {
	Run(ctx context.Context, req domain.ExecutionRequest) (Result, error)
}

const (
	AttemptKindSetup    = "setup"
	AttemptKindGroup    = "group"
	AttemptKindFallback = "fallback"
	AttemptKindBatch    = "batch"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Result is returned by every run, including failed ones. Succeeded and
// Failed count partition commands (group, fallback and batch); setup
// commands only appear in Attempts.
type Result struct {
	Mode           string
	Succeeded      int
	Failed         int
	FinalBatchSize int
	Attempts       []Attempt
}

type Attempt struct {
	Seq       int
	Kind      string
	GroupID   string
	Fragments int
	BatchSize int
	Status    string
	Duration  time.Duration
	Error     string
}
