// Package database reads table definitions from a live database catalog so
// they can be rendered to DDL and fed through the declaration pipeline.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/koba/ddl2ts/internal/schema"
)

// Config holds database connection configuration
type Config struct {
	Type     string // "mysql", "postgres", "sqlite" or "sqlserver"
	Host     string
	Port     string
	Database string // database name, or the file path for sqlite
	User     string
	Password string
	// DSN, when set, is passed to the driver as is and wins over the
	// individual fields.
	DSN string
	// Schema narrows postgres and sqlserver catalogs; defaults to public
	// and dbo.
	Schema string
}

// Database interface defines operations for database connections
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	GetAllTables(ctx context.Context) ([]string, error)
	GetTableSchema(ctx context.Context, tableName string) (*schema.Table, error)
}

// NewDatabase creates a new database connection based on type
func NewDatabase(config Config) (Database, error) {
	switch normalizeType(config.Type) {
	case "mysql":
		return NewMySQL(config), nil
	case "postgres":
		return NewPostgres(config), nil
	case "sqlite":
		return NewSQLite(config), nil
	case "sqlserver":
		return NewSQLServer(config), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

func normalizeType(t string) string {
	switch strings.ToLower(t) {
	case "mysql", "mariadb":
		return "mysql"
	case "postgres", "postgresql", "pg":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	case "sqlserver", "mssql":
		return "sqlserver"
	}
	return ""
}

// Flavor returns the canonical database type: mysql, postgres, sqlite or
// sqlserver. It is empty for unsupported types.
func (c Config) Flavor() string {
	return normalizeType(c.Type)
}

// Dialect returns the DDL dialect tag matching the database type.
func (c Config) Dialect() string {
	if f := c.Flavor(); f != "postgres" {
		return f
	}
	return "postgre"
}

// LoadConfigFromEnv loads database configuration from environment variables
func LoadConfigFromEnv() (Config, error) {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		return Config{}, fmt.Errorf("DB_TYPE environment variable is required")
	}
	if normalizeType(dbType) == "" {
		return Config{}, fmt.Errorf("unsupported database type: %s", dbType)
	}

	dsn := os.Getenv("DB_DSN")
	database := os.Getenv("DB_NAME")
	if database == "" && dsn == "" {
		return Config{}, fmt.Errorf("DB_NAME or DB_DSN environment variable is required")
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}

	port := os.Getenv("DB_PORT")
	if port == "" {
		switch normalizeType(dbType) {
		case "mysql":
			port = "3306"
		case "postgres":
			port = "5432"
		case "sqlserver":
			port = "1433"
		}
	}

	return Config{
		Type:     dbType,
		Host:     host,
		Port:     port,
		Database: database,
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DSN:      dsn,
		Schema:   os.Getenv("DB_SCHEMA"),
	}, nil
}

// Introspect reads the named tables, or every table when names is empty,
// in the order given.
func Introspect(ctx context.Context, db Database, names []string) ([]*schema.Table, error) {
	if len(names) == 0 {
		all, err := db.GetAllTables(ctx)
		if err != nil {
			return nil, err
		}
		names = all
	}

	tables := make([]*schema.Table, 0, len(names))
	for _, name := range names {
		t, err := db.GetTableSchema(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", name, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// queryStrings returns the first column of every row.
func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// indexSet groups per-column catalog rows into indexes, keeping the
// order in which index names first appear.
type indexSet struct {
	order  []string
	byName map[string]*schema.Index
}

func (s *indexSet) add(name, column string, unique, primary bool, typ string) {
	if s.byName == nil {
		s.byName = make(map[string]*schema.Index)
	}
	if idx, exists := s.byName[name]; exists {
		idx.Columns = append(idx.Columns, column)
		return
	}
	s.byName[name] = &schema.Index{
		Name:    name,
		Columns: []string{column},
		Unique:  unique,
		Primary: primary,
		Type:    typ,
	}
	s.order = append(s.order, name)
}

func (s *indexSet) list() []schema.Index {
	indexes := make([]schema.Index, 0, len(s.order))
	for _, name := range s.order {
		indexes = append(indexes, *s.byName[name])
	}
	return indexes
}

func newTable(name string) *schema.Table {
	return &schema.Table{
		Name:        name,
		Kind:        schema.KindTable,
		Columns:     []schema.Column{},
		Indexes:     []schema.Index{},
		ForeignKeys: []schema.ForeignKey{},
	}
}

// markPrimary flags the columns of the table's primary index.
func markPrimary(t *schema.Table) {
	for _, idx := range t.Indexes {
		if !idx.Primary {
			continue
		}
		for _, name := range idx.Columns {
			if c := t.Column(name); c != nil {
				c.PrimaryKey = true
			}
		}
	}
}
