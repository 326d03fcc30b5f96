package querygen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/animus-labs/tablefuel/internal/platform/database"
)

// Dialect renders the backend-specific statements of a fuel.
type Dialect interface {
	Name() string
	// Table renders a qualified, quoted table name; schema may be empty.
	Table(schema, name string) string
	Column(name string) string
	SessionSetting(key, value string) string
	Compression(codec string) ([]string, error)
	CreateLike(target, source string) string
}

var (
	settingKeyPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	bareValuePattern   = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
	noCompressionNames = map[string]struct{}{"": {}, "none": {}, "uncompressed": {}}
)

func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case database.DriverPostgres:
		return Postgres{}, nil
	case database.DriverSQLite:
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %q", driver)
	}
}

type Postgres struct{}

func (Postgres) Name() string { return database.DriverPostgres }

func (Postgres) Table(schema, name string) string {
	if schema == "" {
		return pgx.Identifier{name}.Sanitize()
	}
	return pgx.Identifier{schema, name}.Sanitize()
}

func (Postgres) Column(name string) string { return pgx.Identifier{name}.Sanitize() }

func (Postgres) SessionSetting(key, value string) string {
	return fmt.Sprintf("SET %s = %s", key, quoteLiteral(value))
}

func (p Postgres) Compression(codec string) ([]string, error) {
	codec = strings.ToLower(strings.TrimSpace(codec))
	if _, ok := noCompressionNames[codec]; ok {
		return nil, nil
	}
	switch codec {
	case "pglz", "lz4":
		return []string{p.SessionSetting("default_toast_compression", codec)}, nil
	default:
		return nil, fmt.Errorf("unsupported postgres compression: %q", codec)
	}
}

func (Postgres) CreateLike(target, source string) string {
	return fmt.Sprintf("CREATE TABLE %s (LIKE %s INCLUDING ALL)", target, source)
}

type SQLite struct{}

func (SQLite) Name() string { return database.DriverSQLite }

func (s SQLite) Table(schema, name string) string {
	if schema == "" {
		return s.Column(name)
	}
	return s.Column(schema) + "." + s.Column(name)
}

func (SQLite) Column(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) SessionSetting(key, value string) string {
	if !bareValuePattern.MatchString(value) {
		value = quoteLiteral(value)
	}
	return fmt.Sprintf("PRAGMA %s = %s", key, value)
}

func (SQLite) Compression(codec string) ([]string, error) {
	codec = strings.ToLower(strings.TrimSpace(codec))
	if _, ok := noCompressionNames[codec]; ok {
		return nil, nil
	}
	return nil, fmt.Errorf("sqlite does not support compression %q", codec)
}

func (SQLite) CreateLike(target, source string) string {
	return fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s WHERE 0", target, source)
}

func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
