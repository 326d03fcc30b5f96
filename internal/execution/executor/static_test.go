package executor

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/animus-labs/tablefuel/internal/domain"
	"github.com/animus-labs/tablefuel/internal/execution/plan"
)

const tmpl = "INSERT INTO tgt SELECT * FROM src"

func staticRequest(t *testing.T, fragments []string, groupSize int) domain.ExecutionRequest {
	t.Helper()
	p, err := plan.BuildStaticPlan(tmpl, fragments, groupSize)
	if err != nil {
		t.Fatalf("BuildStaticPlan: %v", err)
	}
	req := domain.ExecutionRequest{SetupCommands: []string{"SET a = 1", "SET b = 2"}}
	if err := req.SetStaticPlan(p); err != nil {
		t.Fatalf("SetStaticPlan: %v", err)
	}
	return req
}

func newTestStaticRunner(stmts StatementExecutor) *StaticRunner {
	r := NewStaticRunner(stmts, discardLogger())
	r.now = fixedClock()
	return r
}

func TestStaticRunnerAllGroupsSucceed(t *testing.T) {
	stmts := &fakeStatements{}
	result, err := newTestStaticRunner(stmts).Run(context.Background(), staticRequest(t, []string{"f1", "f2", "f3", "f4"}, 2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"SET a = 1",
		"SET b = 2",
		tmpl + " WHERE f1 OR f2",
		tmpl + " WHERE f3 OR f4",
	}
	if !reflect.DeepEqual(stmts.commands, want) {
		t.Fatalf("unexpected commands:\n%v\nwant\n%v", stmts.commands, want)
	}
	if result.Succeeded != 2 || result.Failed != 0 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if stmts.opens != 1 || stmts.closes != 1 {
		t.Fatalf("expected one open and one close, got %d/%d", stmts.opens, stmts.closes)
	}
	if len(result.Attempts) != 4 {
		t.Fatalf("expected 4 attempts, got %d", len(result.Attempts))
	}
	for i, attempt := range result.Attempts {
		if attempt.Seq != i+1 {
			t.Fatalf("attempt %d has seq %d", i, attempt.Seq)
		}
		if attempt.Duration <= 0 {
			t.Fatalf("attempt %d has no duration", i)
		}
	}
	if result.Mode != domain.RequestModeStatic {
		t.Fatalf("unexpected mode %s", result.Mode)
	}
}

func TestStaticRunnerFallbackCostsOnePlusK(t *testing.T) {
	groupCommand := tmpl + " WHERE f1 OR f2 OR f3"
	stmts := &fakeStatements{fail: func(c string) bool { return c == groupCommand }}

	result, err := newTestStaticRunner(stmts).Run(context.Background(), staticRequest(t, []string{"f1", "f2", "f3", "f4"}, 3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	partition := stmts.commands[2:]
	want := []string{
		groupCommand,
		tmpl + " WHERE f1",
		tmpl + " WHERE f2",
		tmpl + " WHERE f3",
		tmpl + " WHERE f4",
	}
	if !reflect.DeepEqual(partition, want) {
		t.Fatalf("unexpected commands:\n%v\nwant\n%v", partition, want)
	}
	if result.Succeeded != 4 || result.Failed != 1 {
		t.Fatalf("unexpected counters: %+v", result)
	}

	kinds := make([]string, 0, len(result.Attempts))
	for _, a := range result.Attempts[2:] {
		kinds = append(kinds, a.Kind)
	}
	wantKinds := []string{AttemptKindGroup, AttemptKindFallback, AttemptKindFallback, AttemptKindFallback, AttemptKindGroup}
	if !reflect.DeepEqual(kinds, wantKinds) {
		t.Fatalf("unexpected attempt kinds: %v", kinds)
	}
	if result.Attempts[2].Status != StatusFailed || result.Attempts[2].Error == "" {
		t.Fatalf("expected failed group attempt with error, got %+v", result.Attempts[2])
	}
}

func TestStaticRunnerFallbackFailureIsFatal(t *testing.T) {
	stmts := &fakeStatements{fail: func(c string) bool {
		return strings.HasSuffix(c, "f1 OR f2") || strings.HasSuffix(c, "WHERE f2")
	}}

	result, err := newTestStaticRunner(stmts).Run(context.Background(), staticRequest(t, []string{"f1", "f2", "f3", "f4"}, 2))
	var fallbackErr *FallbackExecutionError
	if !errors.As(err, &fallbackErr) {
		t.Fatalf("expected FallbackExecutionError, got %v", err)
	}
	if fallbackErr.Index != 1 || fallbackErr.Command != tmpl+" WHERE f2" {
		t.Fatalf("unexpected fallback error: %+v", fallbackErr)
	}
	if fallbackErr.GroupID == "" {
		t.Fatalf("expected group id on fallback error")
	}

	last := stmts.commands[len(stmts.commands)-1]
	if last != tmpl+" WHERE f2" {
		t.Fatalf("expected run to stop at failed fallback, last command %q", last)
	}
	for _, c := range stmts.commands {
		if strings.Contains(c, "f3") {
			t.Fatalf("remaining groups must not run, saw %q", c)
		}
	}
	if stmts.closes != 1 {
		t.Fatalf("expected one close, got %d", stmts.closes)
	}
	if result.Failed != 2 || result.Succeeded != 1 {
		t.Fatalf("unexpected counters: %+v", result)
	}
}

func TestStaticRunnerSetupFailureIsFatal(t *testing.T) {
	stmts := &fakeStatements{fail: func(c string) bool { return c == "SET b = 2" }}

	result, err := newTestStaticRunner(stmts).Run(context.Background(), staticRequest(t, []string{"f1", "f2"}, 2))
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("expected SetupError, got %v", err)
	}
	if setupErr.Index != 1 {
		t.Fatalf("expected failing setup index 1, got %d", setupErr.Index)
	}
	if len(stmts.commands) != 2 {
		t.Fatalf("expected no commands after failed setup, got %v", stmts.commands)
	}
	if stmts.closes != 1 {
		t.Fatalf("expected one close, got %d", stmts.closes)
	}
	if result.Succeeded != 0 || result.Failed != 0 {
		t.Fatalf("setup commands must not count as partition commands: %+v", result)
	}
}

func TestStaticRunnerOpenFailureStillCloses(t *testing.T) {
	stmts := &fakeStatements{openErr: errors.New("connection refused")}

	_, err := newTestStaticRunner(stmts).Run(context.Background(), staticRequest(t, []string{"f1", "f2"}, 2))
	var sessionErr *SessionError
	if !errors.As(err, &sessionErr) {
		t.Fatalf("expected SessionError, got %v", err)
	}
	if len(stmts.commands) != 0 {
		t.Fatalf("expected no commands, got %v", stmts.commands)
	}
	if stmts.closes != 1 {
		t.Fatalf("expected one close, got %d", stmts.closes)
	}
}

func TestStaticRunnerCloseErrorIsNotFatal(t *testing.T) {
	stmts := &fakeStatements{closeErr: errors.New("already gone")}
	if _, err := newTestStaticRunner(stmts).Run(context.Background(), staticRequest(t, []string{"f1", "f2"}, 1)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stmts.closes != 1 {
		t.Fatalf("expected one close, got %d", stmts.closes)
	}
}

func TestStaticRunnerSetupOnlyRequest(t *testing.T) {
	stmts := &fakeStatements{}
	req := domain.ExecutionRequest{SetupCommands: []string{tmpl}}

	result, err := newTestStaticRunner(stmts).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(stmts.commands, []string{tmpl}) {
		t.Fatalf("unexpected commands: %v", stmts.commands)
	}
	if result.Mode != domain.RequestModeSetupOnly {
		t.Fatalf("unexpected mode %s", result.Mode)
	}
}

func TestStaticRunnerRejectsDynamicPlan(t *testing.T) {
	stmts := &fakeStatements{}
	req := domain.ExecutionRequest{Dynamic: &domain.DynamicPlan{Template: tmpl, Fragments: []string{"a"}, BatchSize: 1}}

	_, err := newTestStaticRunner(stmts).Run(context.Background(), req)
	if !errors.Is(err, ErrUnsupportedPlan) {
		t.Fatalf("expected ErrUnsupportedPlan, got %v", err)
	}
	if stmts.opens != 0 {
		t.Fatalf("invalid requests must not open a session")
	}
}

func TestStaticRunnerExecutesCollidingGroupsSeparately(t *testing.T) {
	stmts := &fakeStatements{}
	if _, err := newTestStaticRunner(stmts).Run(context.Background(), staticRequest(t, []string{"x", "x", "x", "x"}, 2)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(stmts.commands) - 2; got != 2 {
		t.Fatalf("expected both colliding groups to execute, got %d partition commands", got)
	}
}
