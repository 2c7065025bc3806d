package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/koba/ddl2ts/internal/schema"
)

// SQLite implements the Database interface for SQLite files
type SQLite struct {
	config Config
	db     *sql.DB
}

// NewSQLite creates a new SQLite database connection
func NewSQLite(config Config) *SQLite {
	return &SQLite{config: config}
}

// Connect opens the database file named by DSN or Database
func (s *SQLite) Connect(ctx context.Context) error {
	dsn := s.config.DSN
	if dsn == "" {
		dsn = s.config.Database
	}
	if dsn == "" {
		return fmt.Errorf("SQLite database path is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping SQLite: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the SQLite connection
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetAllTables retrieves all user table names
func (s *SQLite) GetAllTables(ctx context.Context) ([]string, error) {
	query := "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	tables, err := queryStrings(ctx, s.db, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return tables, nil
}

var autoIncrementRe = regexp.MustCompile(`(?i)\bautoincrement\b`)

// GetTableSchema retrieves the schema for a specific table
func (s *SQLite) GetTableSchema(ctx context.Context, tableName string) (*schema.Table, error) {
	t := newTable(tableName)

	var ddl string
	query := "SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?"
	if err := s.db.QueryRowContext(ctx, query, tableName).Scan(&ddl); err != nil {
		return nil, fmt.Errorf("failed to get table definition: %w", err)
	}

	columns, pk, err := s.getColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	// AUTOINCREMENT is only legal on a single INTEGER PRIMARY KEY.
	if len(pk) == 1 && autoIncrementRe.MatchString(ddl) {
		if c := columnByName(columns, pk[0]); c != nil {
			c.AutoIncrement = true
		}
	}
	t.Columns = columns

	indexes, err := s.getIndexes(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if len(pk) > 0 {
		indexes = append([]schema.Index{{Name: "PRIMARY", Columns: pk, Unique: true, Primary: true}}, indexes...)
	}
	t.Indexes = indexes

	foreignKeys, err := s.getForeignKeys(ctx, tableName)
	if err != nil {
		return nil, err
	}
	t.ForeignKeys = foreignKeys

	markPrimary(t)
	return t, nil
}

// getColumns returns the columns and the primary key columns in key order.
func (s *SQLite) getColumns(ctx context.Context, tableName string) ([]schema.Column, []string, error) {
	query := `SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`
	rows, err := s.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	columns := []schema.Column{}
	keyed := map[int]string{}
	for rows.Next() {
		var col schema.Column
		var notNull, pkOrder int
		var defaultValue sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &notNull, &defaultValue, &pkOrder); err != nil {
			return nil, nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Position = len(columns) + 1
		col.Nullable = notNull == 0 && pkOrder == 0
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		if col.Type == "" {
			// columns declared without a type have BLOB affinity
			col.Type = "BLOB"
		}
		if pkOrder > 0 {
			keyed[pkOrder] = col.Name
		}

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	pk := make([]string, 0, len(keyed))
	for i := 1; i <= len(keyed); i++ {
		pk = append(pk, keyed[i])
	}
	return columns, pk, nil
}

func (s *SQLite) getIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT il.name, ii.name, il."unique"
		FROM pragma_index_list(?) AS il
		JOIN pragma_index_info(il.name) AS ii
		WHERE il.origin <> 'pk'
		ORDER BY il.name, ii.seqno
	`
	rows, err := s.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}
	defer rows.Close()

	var set indexSet
	for rows.Next() {
		var indexName, columnName string
		var unique int

		if err := rows.Scan(&indexName, &columnName, &unique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		set.add(indexName, columnName, unique == 1, false, "")
	}

	return set.list(), rows.Err()
}

func (s *SQLite) getForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	query := `SELECT id, "table", "from", "to", on_update, on_delete FROM pragma_foreign_key_list(?) ORDER BY id, seq`
	rows, err := s.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}
	defer rows.Close()

	foreignKeys := []schema.ForeignKey{}
	for rows.Next() {
		var fk schema.ForeignKey
		var id int
		var to sql.NullString

		if err := rows.Scan(&id, &fk.ReferencedTable, &fk.Column, &to, &fk.OnUpdate, &fk.OnDelete); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		// SQLite foreign keys are unnamed
		fk.Name = fmt.Sprintf("fk_%s_%d", tableName, id)
		fk.ReferencedColumn = to.String
		if fk.OnUpdate == "NO ACTION" {
			fk.OnUpdate = ""
		}
		if fk.OnDelete == "NO ACTION" {
			fk.OnDelete = ""
		}

		foreignKeys = append(foreignKeys, fk)
	}

	return foreignKeys, rows.Err()
}

func columnByName(columns []schema.Column, name string) *schema.Column {
	for i := range columns {
		if columns[i].Name == name {
			return &columns[i]
		}
	}
	return nil
}
