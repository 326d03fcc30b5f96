package catalog

import (
	"context"
	"fmt"
	"strings"
)

const defaultPostgresSchema = "public"

const postgresColumnsQuery = `SELECT column_name
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2
	ORDER BY ordinal_position`

// Expression keys have attnum 0 and drop out of the join.
const postgresPartitionKeysQuery = `SELECT a.attname
	FROM pg_catalog.pg_partitioned_table p
	JOIN pg_catalog.pg_class c ON c.oid = p.partrelid
	JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
	CROSS JOIN LATERAL unnest(p.partattrs::int2[]) WITH ORDINALITY AS k(attnum, ord)
	JOIN pg_catalog.pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
	WHERE n.nspname = $1 AND c.relname = $2
	ORDER BY k.ord`

type PostgresCatalog struct {
	db DB
}

func NewPostgresCatalog(db DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (c *PostgresCatalog) Table(ctx context.Context, schema, name string) (Table, error) {
	if c == nil || c.db == nil {
		return Table{}, fmt.Errorf("postgres catalog not initialized")
	}
	schema = strings.TrimSpace(schema)
	name = strings.TrimSpace(name)
	if name == "" {
		return Table{}, fmt.Errorf("table name is required")
	}
	if schema == "" {
		schema = defaultPostgresSchema
	}

	columns, err := queryNames(ctx, c.db, postgresColumnsQuery, schema, name)
	if err != nil {
		return Table{}, fmt.Errorf("read columns of %s.%s: %w", schema, name, err)
	}
	if len(columns) == 0 {
		return Table{}, fmt.Errorf("%s.%s: %w", schema, name, ErrTableNotFound)
	}
	keys, err := queryNames(ctx, c.db, postgresPartitionKeysQuery, schema, name)
	if err != nil {
		return Table{}, fmt.Errorf("read partition keys of %s.%s: %w", schema, name, err)
	}
	return Table{
		Schema:        schema,
		Name:          name,
		Columns:       withoutKeys(columns, keys),
		PartitionKeys: keys,
	}, nil
}
