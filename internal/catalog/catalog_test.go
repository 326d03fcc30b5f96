package catalog

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/animus-labs/tablefuel/internal/platform/database"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	cfg := database.DefaultConfig()
	cfg.Driver = database.DriverSQLite
	cfg.URL = filepath.Join(t.TempDir(), "catalog.db")
	db, err := database.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteCatalogTable(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	if _, err := db.ExecContext(ctx, `CREATE TABLE events (id INTEGER, payload TEXT, day TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	cat, err := New(database.DriverSQLite, db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table, err := cat.Table(ctx, "", "events")
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if table.Schema != "main" || table.Name != "events" {
		t.Fatalf("unexpected identity: %+v", table)
	}
	if !reflect.DeepEqual(table.Columns, []string{"id", "payload", "day"}) {
		t.Fatalf("unexpected columns: %v", table.Columns)
	}
	if table.Partitioned() {
		t.Fatalf("sqlite tables are never partitioned")
	}
}

func TestSQLiteCatalogTableNotFound(t *testing.T) {
	cat := NewSQLiteCatalog(openSQLite(t))
	_, err := cat.Table(context.Background(), "main", "missing")
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
	if _, err := cat.Table(context.Background(), "main", " "); err == nil {
		t.Fatalf("expected error for blank name")
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New("oracle", openSQLite(t)); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
	if _, err := New(database.DriverPostgres, nil); err == nil {
		t.Fatalf("expected nil db error")
	}
}

func TestWithoutKeys(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		keys    []string
		want    []string
	}{
		{name: "no keys", columns: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "trailing keys", columns: []string{"a", "b", "day"}, keys: []string{"day"}, want: []string{"a", "b"}},
		{name: "interleaved", columns: []string{"region", "a", "day", "b"}, keys: []string{"day", "region"}, want: []string{"a", "b"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := withoutKeys(tc.columns, tc.keys); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("withoutKeys()=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestPostgresQueriesBindSchemaAndName(t *testing.T) {
	for _, query := range []string{postgresColumnsQuery, postgresPartitionKeysQuery} {
		if !strings.Contains(query, "$1") || !strings.Contains(query, "$2") {
			t.Fatalf("query must bind schema and name: %s", query)
		}
	}
	if !strings.Contains(postgresPartitionKeysQuery, "WITH ORDINALITY") {
		t.Fatalf("partition keys must keep declaration order")
	}
}
