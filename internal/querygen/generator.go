package querygen

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/animus-labs/tablefuel/internal/catalog"
	"github.com/animus-labs/tablefuel/internal/config"
	"github.com/animus-labs/tablefuel/internal/domain"
	"github.com/animus-labs/tablefuel/internal/execution/plan"
)

// Generator turns a fuel config and the discovered source table into an
// execution request.
type Generator struct {
	dialect Dialect
	cfg     config.Config
}

func NewGenerator(dialect Dialect, cfg config.Config) (*Generator, error) {
	if dialect == nil {
		return nil, errors.New("dialect is required")
	}
	return &Generator{dialect: dialect, cfg: cfg}, nil
}

// Generate emits, in order: session settings, the drop and recreate of the
// target when dropTarget is set, the configured queries, the removal of the
// rows about to be rewritten when the target is kept, then the insert as
// either a setup command or a partition plan. A rerun therefore overwrites
// the selected partitions instead of appending to them.
func (g *Generator) Generate(source catalog.Table, dropTarget bool) (domain.ExecutionRequest, error) {
	var req domain.ExecutionRequest

	settings, err := g.sessionSettings()
	if err != nil {
		return domain.ExecutionRequest{}, err
	}
	if err := req.AddSetupCommands(settings); err != nil {
		return domain.ExecutionRequest{}, err
	}

	sourceName := g.dialect.Table(g.cfg.SourceDatabase, g.cfg.SourceTable)
	targetName := g.dialect.Table(g.cfg.TargetDatabase, g.cfg.TargetTable)

	if dropTarget {
		compression, err := g.dialect.Compression(g.cfg.TargetCompression)
		if err != nil {
			return domain.ExecutionRequest{}, err
		}
		ddl := append(compression,
			"DROP TABLE IF EXISTS "+targetName,
			g.dialect.CreateLike(targetName, sourceName),
		)
		if err := req.AddSetupCommands(ddl); err != nil {
			return domain.ExecutionRequest{}, err
		}
	}

	if err := req.AddSetupCommands(g.cfg.ConfigQueries); err != nil {
		return domain.ExecutionRequest{}, fmt.Errorf("config queries: %w", err)
	}

	columns, keys, err := g.layout(source)
	if err != nil {
		return domain.ExecutionRequest{}, err
	}
	if !dropTarget {
		if err := req.AddSetupCommand(g.clearTarget(targetName, len(keys) > 0)); err != nil {
			return domain.ExecutionRequest{}, err
		}
	}
	if len(keys) == 0 {
		insert := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", targetName, sourceName)
		if err := req.AddSetupCommand(insert); err != nil {
			return domain.ExecutionRequest{}, err
		}
		return req, nil
	}

	template := g.insertTemplate(targetName, sourceName, append(append([]string(nil), columns...), keys...))
	if err := g.addPartitionInsert(&req, template); err != nil {
		return domain.ExecutionRequest{}, err
	}
	return req, nil
}

// clearTarget deletes what the insert is about to write: the filtered
// partitions of a partitioned copy, everything otherwise.
func (g *Generator) clearTarget(target string, partitioned bool) string {
	command := "DELETE FROM " + target
	filter := strings.TrimSpace(g.cfg.PartitionFilter)
	if !partitioned || filter == "" {
		return command
	}
	return plan.Filtered(command, filter)
}

func (g *Generator) addPartitionInsert(req *domain.ExecutionRequest, template string) error {
	if g.cfg.PartitionGrouping == domain.GroupingNone {
		if g.cfg.PartitionFilter == "" {
			return req.AddSetupCommand(template)
		}
		return req.AddSetupCommand(plan.Filtered(template, g.cfg.PartitionFilter))
	}

	fragments := plan.SplitFilter(g.cfg.PartitionFilter)
	switch len(fragments) {
	case 0:
		return req.AddSetupCommand(template)
	case 1:
		return req.AddSetupCommand(plan.Filtered(template, fragments[0]))
	}

	switch g.cfg.PartitionGrouping {
	case domain.GroupingStatic:
		static, err := plan.BuildStaticPlan(template, fragments, g.cfg.InsertPartitionGroupSize)
		if err != nil {
			return err
		}
		return req.SetStaticPlan(static)
	case domain.GroupingDynamic:
		return req.SetDynamicPlan(domain.DynamicPlan{
			Template:  template,
			Fragments: fragments,
			BatchSize: g.cfg.InsertPartitionGroupSize,
		})
	default:
		return fmt.Errorf("unrecognized partition grouping: %q", g.cfg.PartitionGrouping)
	}
}

// layout splits the source into data columns and partition keys. Configured
// partition columns replace the discovered keys.
func (g *Generator) layout(source catalog.Table) ([]string, []string, error) {
	if len(g.cfg.PartitionColumns) == 0 {
		return source.Columns, source.PartitionKeys, nil
	}

	all := append(append([]string(nil), source.Columns...), source.PartitionKeys...)
	known := make(map[string]struct{}, len(all))
	for _, column := range all {
		known[column] = struct{}{}
	}
	keys := make(map[string]struct{}, len(g.cfg.PartitionColumns))
	for _, key := range g.cfg.PartitionColumns {
		if _, ok := known[key]; !ok {
			return nil, nil, fmt.Errorf("partition column %q not in %s", key, g.cfg.Source())
		}
		keys[key] = struct{}{}
	}
	columns := make([]string, 0, len(all))
	for _, column := range all {
		if _, ok := keys[column]; !ok {
			columns = append(columns, column)
		}
	}
	return columns, g.cfg.PartitionColumns, nil
}

func (g *Generator) insertTemplate(target, source string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = g.dialect.Column(column)
	}
	list := strings.Join(quoted, ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", target, list, list, source)
}

func (g *Generator) sessionSettings() ([]string, error) {
	keys := make([]string, 0, len(g.cfg.SessionSettings))
	for key := range g.cfg.SessionSettings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimSpace(key)
		if !settingKeyPattern.MatchString(name) {
			return nil, fmt.Errorf("invalid session setting name: %q", key)
		}
		out = append(out, g.dialect.SessionSetting(name, g.cfg.SessionSettings[key]))
	}
	return out, nil
}
