package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/koba/ddl2ts/internal/schema"
)

// SQLServer implements the Database interface for Microsoft SQL Server
type SQLServer struct {
	config Config
	db     *sql.DB
	schema string
}

// NewSQLServer creates a new SQL Server database connection
func NewSQLServer(config Config) *SQLServer {
	s := config.Schema
	if s == "" {
		s = "dbo"
	}
	return &SQLServer{config: config, schema: s}
}

func (s *SQLServer) dsn() string {
	if s.config.DSN != "" {
		return s.config.DSN
	}
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(s.config.User, s.config.Password),
		Host:   net.JoinHostPort(s.config.Host, s.config.Port),
	}
	q := url.Values{}
	q.Set("database", s.config.Database)
	u.RawQuery = q.Encode()
	return u.String()
}

// Connect establishes a connection to SQL Server
func (s *SQLServer) Connect(ctx context.Context) error {
	connector, err := mssql.NewConnector(s.dsn())
	if err != nil {
		return fmt.Errorf("failed to parse SQL Server DSN: %w", err)
	}

	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping SQL Server: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the SQL Server connection
func (s *SQLServer) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetAllTables retrieves all base table names in the configured schema
func (s *SQLServer) GetAllTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`
	tables, err := queryStrings(ctx, s.db, query, s.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return tables, nil
}

// GetTableSchema retrieves the schema for a specific table
func (s *SQLServer) GetTableSchema(ctx context.Context, tableName string) (*schema.Table, error) {
	t := newTable(tableName)
	object := s.schema + "." + tableName

	columns, err := s.getColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	t.Columns = columns

	indexes, err := s.getIndexes(ctx, object)
	if err != nil {
		return nil, err
	}
	t.Indexes = indexes

	foreignKeys, err := s.getForeignKeys(ctx, object)
	if err != nil {
		return nil, err
	}
	t.ForeignKeys = foreignKeys

	markPrimary(t)
	return t, nil
}

func (s *SQLServer) getColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.CHARACTER_MAXIMUM_LENGTH,
			c.NUMERIC_PRECISION,
			c.NUMERIC_SCALE,
			c.IS_NULLABLE,
			c.COLUMN_DEFAULT,
			COLUMNPROPERTY(OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME), c.COLUMN_NAME, 'IsIdentity'),
			c.ORDINAL_POSITION
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION
	`
	rows, err := s.db.QueryContext(ctx, query, s.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	columns := []schema.Column{}
	for rows.Next() {
		var col schema.Column
		var length, precision, scale sql.NullInt64
		var nullable string
		var defaultValue sql.NullString
		var identity sql.NullInt64

		if err := rows.Scan(&col.Name, &col.Type, &length, &precision, &scale, &nullable, &defaultValue, &identity, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Type = sqlServerType(col.Type, length, precision, scale)
		col.Nullable = nullable == "YES"
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		col.AutoIncrement = identity.Int64 == 1

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// sqlServerType re-attaches the length or precision that
// INFORMATION_SCHEMA reports separately.
func sqlServerType(base string, length, precision, scale sql.NullInt64) string {
	switch strings.ToLower(base) {
	case "char", "varchar", "nchar", "nvarchar", "binary", "varbinary":
		if !length.Valid {
			return base
		}
		if length.Int64 == -1 {
			return base + "(max)"
		}
		return fmt.Sprintf("%s(%d)", base, length.Int64)
	case "decimal", "numeric":
		if precision.Valid {
			return fmt.Sprintf("%s(%d,%d)", base, precision.Int64, scale.Int64)
		}
	}
	return base
}

func (s *SQLServer) getIndexes(ctx context.Context, object string) ([]schema.Index, error) {
	query := `
		SELECT i.name, c.name, i.is_unique, i.is_primary_key, i.type_desc
		FROM sys.indexes i
		JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE i.object_id = OBJECT_ID(@p1) AND i.name IS NOT NULL AND ic.is_included_column = 0
		ORDER BY i.is_primary_key DESC, i.name, ic.key_ordinal
	`
	rows, err := s.db.QueryContext(ctx, query, object)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}
	defer rows.Close()

	var set indexSet
	for rows.Next() {
		var indexName, columnName, indexType string
		var unique, primary bool

		if err := rows.Scan(&indexName, &columnName, &unique, &primary, &indexType); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		set.add(indexName, columnName, unique, primary, indexType)
	}

	return set.list(), rows.Err()
}

func (s *SQLServer) getForeignKeys(ctx context.Context, object string) ([]schema.ForeignKey, error) {
	query := `
		SELECT
			fk.name,
			pc.name,
			OBJECT_NAME(fk.referenced_object_id),
			rc.name,
			fk.delete_referential_action_desc,
			fk.update_referential_action_desc
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		WHERE fk.parent_object_id = OBJECT_ID(@p1)
		ORDER BY fk.name, fkc.constraint_column_id
	`
	rows, err := s.db.QueryContext(ctx, query, object)
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
		fk.OnDelete = referentialAction(fk.OnDelete)
		fk.OnUpdate = referentialAction(fk.OnUpdate)

		foreignKeys = append(foreignKeys, fk)
	}

	return foreignKeys, rows.Err()
}

// referentialAction turns SET_NULL into SET NULL and drops the default.
func referentialAction(desc string) string {
	if desc == "NO_ACTION" {
		return ""
	}
	return strings.ReplaceAll(desc, "_", " ")
}
