package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/animus-labs/tablefuel/internal/config"
	"github.com/animus-labs/tablefuel/internal/fuel"
	"github.com/animus-labs/tablefuel/internal/platform/database"
)

func runPlan(ctx context.Context, path string, out io.Writer, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return invalid(err)
	}
	db, err := database.Open(ctx, cfg.DatabaseConfig())
	if err != nil {
		logger.Error("database unavailable", "error", err)
		return failed(err)
	}
	defer func() { _ = db.Close() }()

	manager, err := newManager(cfg, db, logger)
	if err != nil {
		return invalid(err)
	}
	p, err := manager.Plan(ctx)
	if err != nil {
		return failed(err)
	}
	return renderPlan(out, cfg, p)
}

func renderPlan(w io.Writer, cfg config.Config, p fuel.Plan) error {
	req := p.Request
	lines := []string{
		fmt.Sprintf("source: %s", cfg.Source()),
		fmt.Sprintf("target: %s (drop: %t)", cfg.Target(), p.DropTarget),
		fmt.Sprintf("strategy: %s", cfg.PartitionGrouping),
		fmt.Sprintf("mode: %s", req.Mode()),
		"",
		fmt.Sprintf("setup commands (%d):", len(req.SetupCommands)),
	}
	for i, command := range req.SetupCommands {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, command))
	}

	switch {
	case req.Static != nil:
		lines = append(lines, "", fmt.Sprintf("groups (%d, %d fragments):", len(req.Static.Groups), req.Static.FragmentCount()))
		for i, group := range req.Static.Groups {
			lines = append(lines, fmt.Sprintf("  %d. [%s] %s", i+1, group.ID, group.Command))
			for _, fallback := range group.Fallbacks {
				lines = append(lines, "     fallback: "+fallback)
			}
		}
	case req.Dynamic != nil:
		lines = append(lines, "",
			fmt.Sprintf("dynamic batches: %d fragments, initial batch size %d", len(req.Dynamic.Fragments), min(req.Dynamic.BatchSize, len(req.Dynamic.Fragments))),
			"  template: "+req.Dynamic.Template,
		)
		for _, fragment := range req.Dynamic.Fragments {
			lines = append(lines, "  fragment: "+fragment)
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
