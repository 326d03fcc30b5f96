package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
)

// fakeStatements records every call and fails commands selected by fail.
type fakeStatements struct {
	opens    int
	closes   int
	commands []string
	openErr  error
	closeErr error
	fail     func(command string) bool
}

func (f *fakeStatements) Open(ctx context.Context) error {
	f.opens++
	return f.openErr
}

func (f *fakeStatements) Execute(ctx context.Context, command string) error {
	f.commands = append(f.commands, command)
	if f.fail != nil && f.fail(command) {
		return errors.New("backend rejected command")
	}
	return nil
}

func (f *fakeStatements) Close() error {
	f.closes++
	return f.closeErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

// orCount is the number of fragments a composite command carries.
func orCount(command string) int {
	idx := strings.Index(command, " WHERE ")
	if idx < 0 {
		return 0
	}
	return strings.Count(command[idx:], " OR ") + 1
}
