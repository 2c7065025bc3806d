package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/koba/ddl2ts/internal/schema"
)

// MySQL implements the Database interface for MySQL
type MySQL struct {
	config Config
	db     *sql.DB
	schema string
}

// NewMySQL creates a new MySQL database connection
func NewMySQL(config Config) *MySQL {
	return &MySQL{config: config, schema: config.Database}
}

// dsn builds the driver DSN. An explicit DSN is parsed so its database
// name can scope the catalog queries.
func (m *MySQL) dsn() (string, error) {
	if m.config.DSN != "" {
		cfg, err := mysql.ParseDSN(m.config.DSN)
		if err != nil {
			return "", fmt.Errorf("failed to parse MySQL DSN: %w", err)
		}
		if m.schema == "" {
			m.schema = cfg.DBName
		}
		return cfg.FormatDSN(), nil
	}

	cfg := mysql.NewConfig()
	cfg.User = m.config.User
	cfg.Passwd = m.config.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(m.config.Host, m.config.Port)
	cfg.DBName = m.config.Database
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// Connect establishes a connection to MySQL
func (m *MySQL) Connect(ctx context.Context) error {
	dsn, err := m.dsn()
	if err != nil {
		return err
	}
	if m.schema == "" {
		return fmt.Errorf("MySQL database name is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping MySQL: %w", err)
	}

	m.db = db
	return nil
}

// Close closes the MySQL connection
func (m *MySQL) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// GetAllTables retrieves all base table names in the database
func (m *MySQL) GetAllTables(ctx context.Context) ([]string, error) {
	query := "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME"
	tables, err := queryStrings(ctx, m.db, query, m.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return tables, nil
}

// GetTableSchema retrieves the schema for a specific table
func (m *MySQL) GetTableSchema(ctx context.Context, tableName string) (*schema.Table, error) {
	t := newTable(tableName)

	query := "SELECT TABLE_COMMENT FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?"
	if err := m.db.QueryRowContext(ctx, query, m.schema, tableName).Scan(&t.Comment); err != nil {
		return nil, fmt.Errorf("failed to get table comment: %w", err)
	}

	columns, err := m.getColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	t.Columns = columns

	indexes, err := m.getIndexes(ctx, tableName)
	if err != nil {
		return nil, err
	}
	t.Indexes = indexes

	foreignKeys, err := m.getForeignKeys(ctx, tableName)
	if err != nil {
		return nil, err
	}
	t.ForeignKeys = foreignKeys

	markPrimary(t)
	return t, nil
}

func (m *MySQL) getColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			COLUMN_NAME,
			COLUMN_TYPE,
			IS_NULLABLE,
			COLUMN_DEFAULT,
			EXTRA,
			COLUMN_COMMENT,
			ORDINAL_POSITION
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
	rows, err := m.db.QueryContext(ctx, query, m.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	columns := []schema.Column{}
	for rows.Next() {
		var col schema.Column
		var nullable string
		var defaultValue sql.NullString
		var extra string

		if err := rows.Scan(&col.Name, &col.Type, &nullable, &defaultValue, &extra, &col.Comment, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Nullable = nullable == "YES"
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		col.AutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (m *MySQL) getIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT
			INDEX_NAME,
			COLUMN_NAME,
			NON_UNIQUE,
			INDEX_TYPE
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY INDEX_NAME = 'PRIMARY' DESC, INDEX_NAME, SEQ_IN_INDEX
	`
	rows, err := m.db.QueryContext(ctx, query, m.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}
	defer rows.Close()

	var set indexSet
	for rows.Next() {
		var indexName, columnName, indexType string
		var nonUnique int

		if err := rows.Scan(&indexName, &columnName, &nonUnique, &indexType); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		set.add(indexName, columnName, nonUnique == 0, indexName == "PRIMARY", indexType)
	}

	return set.list(), rows.Err()
}

func (m *MySQL) getForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	query := `
		SELECT
			k.CONSTRAINT_NAME,
			k.COLUMN_NAME,
			k.REFERENCED_TABLE_NAME,
			k.REFERENCED_COLUMN_NAME,
			r.DELETE_RULE,
			r.UPDATE_RULE
		FROM information_schema.KEY_COLUMN_USAGE k
		JOIN information_schema.REFERENTIAL_CONSTRAINTS r
			ON r.CONSTRAINT_SCHEMA = k.TABLE_SCHEMA AND r.CONSTRAINT_NAME = k.CONSTRAINT_NAME
		WHERE k.TABLE_SCHEMA = ? AND k.TABLE_NAME = ? AND k.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY k.CONSTRAINT_NAME, k.ORDINAL_POSITION
	`
	rows, err := m.db.QueryContext(ctx, query, m.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}
	defer rows.Close()

	foreignKeys := []schema.ForeignKey{}
	for rows.Next() {
		var fk schema.ForeignKey

		if err := rows.Scan(&fk.Name, &fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn, &fk.OnDelete, &fk.OnUpdate); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}

		foreignKeys = append(foreignKeys, fk)
	}

	return foreignKeys, rows.Err()
}
