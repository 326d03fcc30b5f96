package statement

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

var ErrSessionNotOpen = errors.New("session must be opened before running commands")

// StatementError is a command the backend rejected, with whatever detail the
// driver exposes.
type StatementError struct {
	Command string
	Elapsed time.Duration
	Code    string
	Detail  string
	Hint    string
	Err     error
}

func (e *StatementError) Error() string {
	msg := fmt.Sprintf("command failed (%s): %v", formatElapsed(e.Elapsed), e.Err)
	if e.Code != "" {
		msg += " [code " + e.Code + "]"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StatementError) Unwrap() error { return e.Err }

func newStatementError(command string, elapsed time.Duration, err error) *StatementError {
	out := &StatementError{Command: command, Elapsed: elapsed, Err: err}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		out.Code = pgErr.Code
		out.Detail = pgErr.Detail
		out.Hint = pgErr.Hint
		return out
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		out.Code = strconv.Itoa(liteErr.Code())
	}
	return out
}

// formatElapsed renders minutes and seconds; minutes do not wrap at an hour.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int64(d / time.Minute)
	seconds := int64((d % time.Minute) / time.Second)
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
