package domain

import (
	"fmt"
	"strings"
)

// PartitionGrouping selects how partition fragments are combined into commands.
type PartitionGrouping string

const (
	GroupingNone    PartitionGrouping = "none"
	GroupingStatic  PartitionGrouping = "static"
	GroupingDynamic PartitionGrouping = "dynamic"
)

func ParsePartitionGrouping(raw string) (PartitionGrouping, error) {
	switch value := PartitionGrouping(strings.ToLower(strings.TrimSpace(raw))); value {
	case "":
		return GroupingNone, nil
	case GroupingNone, GroupingStatic, GroupingDynamic:
		return value, nil
	default:
		return "", fmt.Errorf("unrecognized partition grouping: %q", raw)
	}
}
