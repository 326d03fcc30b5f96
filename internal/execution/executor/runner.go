package executor

import (
	"fmt"
	"log/slog"

	"github.com/animus-labs/tablefuel/internal/domain"
)

// NewRunner picks the runner for a grouping strategy. Requests generated
// without grouping only carry setup commands, which the static runner
// handles.
func NewRunner(grouping domain.PartitionGrouping, stmts StatementExecutor, logger *slog.Logger) (Runner, error) {
	if stmts == nil {
		return nil, fmt.Errorf("statement executor is required")
	}
	switch grouping {
	case domain.GroupingDynamic:
		return NewDynamicRunner(stmts, logger), nil
	case domain.GroupingStatic, domain.GroupingNone:
		return NewStaticRunner(stmts, logger), nil
	default:
		return nil, fmt.Errorf("unsupported partition grouping: %q", grouping)
	}
}
