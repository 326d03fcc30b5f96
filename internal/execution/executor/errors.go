package executor

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedPlan = errors.New("runner cannot execute this plan")

// SessionError means the backend session could not be acquired.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string { return fmt.Sprintf("open session: %v", e.Err) }
func (e *SessionError) Unwrap() error { return e.Err }

// SetupError aborts a run before any partition command is issued.
type SetupError struct {
	Index   int
	Command string
	Err     error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup command %d failed: %v", e.Index, e.Err)
}
func (e *SetupError) Unwrap() error { return e.Err }

// GroupExecutionError is a failed composite command. Runners recover from
// it, so it is only logged.
type GroupExecutionError struct {
	GroupID   string
	Fragments int
	Err       error
}

func (e *GroupExecutionError) Error() string {
	if e.GroupID == "" {
		return fmt.Sprintf("composite command of %d fragments failed: %v", e.Fragments, e.Err)
	}
	return fmt.Sprintf("group %s of %d fragments failed: %v", e.GroupID, e.Fragments, e.Err)
}
func (e *GroupExecutionError) Unwrap() error { return e.Err }

// FallbackExecutionError is a failed single-fragment command of a static
// group. It is never retried.
type FallbackExecutionError struct {
	GroupID string
	Index   int
	Command string
	Err     error
}

func (e *FallbackExecutionError) Error() string {
	return fmt.Sprintf("fallback %d of group %s failed: %v", e.Index, e.GroupID, e.Err)
}
func (e *FallbackExecutionError) Unwrap() error { return e.Err }

// ShrinkExhaustedError is a dynamic batch of size one that still failed.
type ShrinkExhaustedError struct {
	Fragments []string
	Err       error
}

func (e *ShrinkExhaustedError) Error() string {
	return fmt.Sprintf("batch size already 1, fragment %s failed: %v", strings.Join(e.Fragments, " OR "), e.Err)
}
func (e *ShrinkExhaustedError) Unwrap() error { return e.Err }
