package statement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Conner hands out dedicated connections; *sql.DB satisfies it.
type Conner interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// SQLExecutor runs every command on one dedicated connection, so session
// state set by earlier commands (SET, PRAGMA, temp tables) holds for later
// ones. It is not safe for concurrent use.
type SQLExecutor struct {
	db     Conner
	logger *slog.Logger
	now    func() time.Time
	conn   *sql.Conn
}

func NewSQLExecutor(db Conner, logger *slog.Logger) *SQLExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLExecutor{db: db, logger: logger, now: time.Now}
}

// Open acquires the connection. Calling it again while open is a no-op.
func (e *SQLExecutor) Open(ctx context.Context) error {
	if e == nil || e.db == nil {
		return errors.New("database is required")
	}
	if e.conn != nil {
		return nil
	}
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	e.conn = conn
	return nil
}

func (e *SQLExecutor) Execute(ctx context.Context, command string) error {
	if strings.TrimSpace(command) == "" {
		return errors.New("command is required")
	}
	if e == nil || e.conn == nil {
		return ErrSessionNotOpen
	}

	start := e.now()
	e.logger.Info("running command", "command", command)
	_, err := e.conn.ExecContext(ctx, command)
	elapsed := e.now().Sub(start)
	if err != nil {
		stmtErr := newStatementError(command, elapsed, err)
		e.logger.Info("command failed", "elapsed", formatElapsed(elapsed), "error", stmtErr)
		return stmtErr
	}
	e.logger.Info("command succeeded", "elapsed", formatElapsed(elapsed))
	return nil
}

// Close releases the connection. It is safe without a prior Open and safe
// to call repeatedly.
func (e *SQLExecutor) Close() error {
	if e == nil || e.conn == nil {
		return nil
	}
	conn := e.conn
	e.conn = nil
	if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("release connection: %w", err)
	}
	return nil
}
