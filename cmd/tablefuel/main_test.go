package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/animus-labs/tablefuel/internal/config"
	"github.com/animus-labs/tablefuel/internal/domain"
	"github.com/animus-labs/tablefuel/internal/fuel"
	"github.com/animus-labs/tablefuel/internal/platform/database"
)

func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.db")
	cfg := database.DefaultConfig()
	cfg.Driver = database.DriverSQLite
	cfg.URL = path
	db, err := database.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	stmts := []string{
		`CREATE TABLE events (id INTEGER, day INTEGER)`,
		`INSERT INTO events (id, day) VALUES (1, 1), (2, 2), (3, 3)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return path
}

func writeConfig(t *testing.T, dbPath, grouping string) string {
	t.Helper()
	doc := strings.Join([]string{
		"sourceTable: events",
		"targetTable: events_copy",
		"partitionColumns: [day]",
		"partitionFilter: day = 1 OR day = 2 OR day = 3",
		"enablePartitionGrouping: true",
		"partitionGrouping: " + grouping,
		"insertPartitionGroupSize: 2",
		"database:",
		"  driver: sqlite",
		"  url: " + dbPath,
		"",
	}, "\n")
	path := filepath.Join(t.TempDir(), "fuel.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlanCommandPrintsStaticGroups(t *testing.T) {
	cfgPath := writeConfig(t, seedDatabase(t), "static")
	out, err := execute(t, "plan", "--config", cfgPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, want := range []string{
		"target: events_copy (drop: true)",
		"mode: static",
		"setup commands (2):",
		"groups (2, 3 fragments):",
		`WHERE day = 1 OR day = 2`,
		`fallback: INSERT INTO "events_copy" ("id", "day") SELECT "id", "day" FROM "events" WHERE day = 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("plan output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderPlanClampsInitialBatchSize(t *testing.T) {
	cfg := config.Config{SourceTable: "events", TargetTable: "events_copy", PartitionGrouping: domain.GroupingDynamic}
	p := fuel.Plan{Request: domain.ExecutionRequest{Dynamic: &domain.DynamicPlan{
		Template:  "INSERT INTO events_copy SELECT * FROM events",
		Fragments: []string{"day = 1", "day = 2"},
		BatchSize: 100,
	}}}
	var out bytes.Buffer
	if err := renderPlan(&out, cfg, p); err != nil {
		t.Fatalf("renderPlan: %v", err)
	}
	if !strings.Contains(out.String(), "dynamic batches: 2 fragments, initial batch size 2") {
		t.Fatalf("expected clamped batch size:\n%s", out.String())
	}
}

func TestFuelCommandCopiesRows(t *testing.T) {
	dbPath := seedDatabase(t)
	cfgPath := writeConfig(t, dbPath, "dynamic")
	if _, err := execute(t, "fuel", "--config", cfgPath); err != nil {
		t.Fatalf("fuel: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM events_copy`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("target rows=%d, want 3", n)
	}
}

func TestCommandExitCodes(t *testing.T) {
	_, err := execute(t, "fuel", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	var exitErr *exitError
	if !errors.As(err, &exitErr) || exitErr.code != 2 {
		t.Fatalf("expected config exit code 2, got %v", err)
	}

	cfgPath := writeConfig(t, seedDatabase(t), "static")
	doc, _ := os.ReadFile(cfgPath)
	broken := strings.Replace(string(doc), "sourceTable: events", "sourceTable: nothing_here", 1)
	if err := os.WriteFile(cfgPath, []byte(broken), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	_, err = execute(t, "fuel", "--config", cfgPath)
	if !errors.As(err, &exitErr) || exitErr.code != 1 {
		t.Fatalf("expected run exit code 1, got %v", err)
	}

	if _, err := execute(t, "plan"); err == nil {
		t.Fatalf("expected required flag error")
	}
}
