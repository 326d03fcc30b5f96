package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/animus-labs/tablefuel/internal/platform/database"
)

var ErrTableNotFound = errors.New("table not found")

// Table describes a relation. Columns excludes the partition keys, which are
// listed separately in declaration order.
type Table struct {
	Schema        string
	Name          string
	Columns       []string
	PartitionKeys []string
}

func (t Table) Partitioned() bool {
	return len(t.PartitionKeys) > 0
}

type Catalog interface {
	Table(ctx context.Context, schema, name string) (Table, error)
}

type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// New returns the catalog for a database.Driver* name.
func New(driver string, db DB) (Catalog, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case database.DriverPostgres:
		return NewPostgresCatalog(db), nil
	case database.DriverSQLite:
		return NewSQLiteCatalog(db), nil
	default:
		return nil, fmt.Errorf("unsupported catalog driver: %q", driver)
	}
}

func queryNames(ctx context.Context, db DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func withoutKeys(columns, keys []string) []string {
	if len(keys) == 0 {
		return columns
	}
	skip := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		skip[key] = struct{}{}
	}
	out := make([]string, 0, len(columns))
	for _, column := range columns {
		if _, ok := skip[column]; ok {
			continue
		}
		out = append(out, column)
	}
	return out
}
