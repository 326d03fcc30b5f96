package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/animus-labs/tablefuel/internal/domain"
	"github.com/animus-labs/tablefuel/internal/execution/executor"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Report is the record of one fuel.
type Report struct {
	RunID          uuid.UUID
	Source         string
	Target         string
	Strategy       domain.PartitionGrouping
	DropTarget     bool
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         string
	Error          string
	Mode           string
	Succeeded      int
	Failed         int
	FinalBatchSize int
	Attempts       []executor.Attempt
}

// Complete copies the runner result into the report and stamps the outcome.
func (r *Report) Complete(result executor.Result, runErr error, finishedAt time.Time) {
	r.Mode = result.Mode
	r.Succeeded = result.Succeeded
	r.Failed = result.Failed
	r.FinalBatchSize = result.FinalBatchSize
	r.Attempts = append([]executor.Attempt(nil), result.Attempts...)
	r.FinishedAt = finishedAt
	if runErr != nil {
		r.Status = StatusFailed
		r.Error = runErr.Error()
		return
	}
	r.Status = StatusSucceeded
	r.Error = ""
}

func (r Report) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
