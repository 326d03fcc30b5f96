package report

import (
	"encoding/json"
	"io"
)

const (
	lineTypeRun     = "run"
	lineTypeAttempt = "attempt"
)

// NDJSONWriter writes a report as newline-delimited JSON: one run line, then
// one line per attempt in execution order.
type NDJSONWriter struct {
	enc *json.Encoder
}

func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	return &NDJSONWriter{enc: enc}
}

func (w *NDJSONWriter) Write(r Report) error {
	if err := w.enc.Encode(runLineFromReport(r)); err != nil {
		return err
	}
	for _, attempt := range r.Attempts {
		line := attemptLine{
			Type:       lineTypeAttempt,
			RunID:      r.RunID.String(),
			Seq:        attempt.Seq,
			Kind:       attempt.Kind,
			GroupID:    attempt.GroupID,
			Fragments:  attempt.Fragments,
			BatchSize:  attempt.BatchSize,
			Status:     attempt.Status,
			DurationMS: attempt.Duration.Milliseconds(),
			Error:      attempt.Error,
		}
		if err := w.enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

type runLine struct {
	Type           string `json:"type"`
	RunID          string `json:"run_id"`
	Source         string `json:"source"`
	Target         string `json:"target"`
	Strategy       string `json:"strategy"`
	Mode           string `json:"mode,omitempty"`
	DropTarget     bool   `json:"drop_target"`
	StartedAt      string `json:"started_at"`
	FinishedAt     string `json:"finished_at"`
	DurationMS     int64  `json:"duration_ms"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
	Succeeded      int    `json:"succeeded"`
	Failed         int    `json:"failed"`
	FinalBatchSize int    `json:"final_batch_size"`
	Attempts       int    `json:"attempts"`
}

type attemptLine struct {
	Type       string `json:"type"`
	RunID      string `json:"run_id"`
	Seq        int    `json:"seq"`
	Kind       string `json:"kind"`
	GroupID    string `json:"group_id,omitempty"`
	Fragments  int    `json:"fragments"`
	BatchSize  int    `json:"batch_size,omitempty"`
	Status     string `json:"status"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func runLineFromReport(r Report) runLine {
	return runLine{
		Type:           lineTypeRun,
		RunID:          r.RunID.String(),
		Source:         r.Source,
		Target:         r.Target,
		Strategy:       string(r.Strategy),
		Mode:           r.Mode,
		DropTarget:     r.DropTarget,
		StartedAt:      r.StartedAt.UTC().Format(timeFormatRFC3339Nano),
		FinishedAt:     r.FinishedAt.UTC().Format(timeFormatRFC3339Nano),
		DurationMS:     r.Duration().Milliseconds(),
		Status:         r.Status,
		Error:          r.Error,
		Succeeded:      r.Succeeded,
		Failed:         r.Failed,
		FinalBatchSize: r.FinalBatchSize,
		Attempts:       len(r.Attempts),
	}
}

const timeFormatRFC3339Nano = "2006-01-02T15:04:05.999999999Z07:00"
