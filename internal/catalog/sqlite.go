package catalog

import (
	"context"
	"fmt"
	"strings"
)

const defaultSQLiteSchema = "main"

const sqliteColumnsQuery = `SELECT name FROM pragma_table_info(?, ?) ORDER BY cid`

// SQLiteCatalog reads column metadata. SQLite has no declarative partitions,
// so PartitionKeys is always empty.
type SQLiteCatalog struct {
	db DB
}

func NewSQLiteCatalog(db DB) *SQLiteCatalog {
	return &SQLiteCatalog{db: db}
}

func (c *SQLiteCatalog) Table(ctx context.Context, schema, name string) (Table, error) {
	if c == nil || c.db == nil {
		return Table{}, fmt.Errorf("sqlite catalog not initialized")
	}
	schema = strings.TrimSpace(schema)
	name = strings.TrimSpace(name)
	if name == "" {
		return Table{}, fmt.Errorf("table name is required")
	}
	if schema == "" {
		schema = defaultSQLiteSchema
	}

	columns, err := queryNames(ctx, c.db, sqliteColumnsQuery, name, schema)
	if err != nil {
		return Table{}, fmt.Errorf("read columns of %s.%s: %w", schema, name, err)
	}
	if len(columns) == 0 {
		return Table{}, fmt.Errorf("%s.%s: %w", schema, name, ErrTableNotFound)
	}
	return Table{Schema: schema, Name: name, Columns: columns}, nil
}
