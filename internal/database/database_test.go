package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/ddl2ts/internal/schema"
)

func strPtr(s string) *string { return &s }

func TestMySQLGetAllTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT TABLE_NAME FROM information_schema\.TABLES`).
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("orders").AddRow("users"))

	m := &MySQL{db: db, schema: "shop"}
	tables, err := m.GetAllTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLGetTableSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`TABLE_COMMENT`).
		WithArgs("shop", "users").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_COMMENT"}).AddRow("app users"))
	mock.ExpectQuery(`information_schema\.COLUMNS`).
		WithArgs("shop", "users").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "COLUMN_TYPE", "IS_NULLABLE", "COLUMN_DEFAULT", "EXTRA", "COLUMN_COMMENT", "ORDINAL_POSITION"}).
			AddRow("id", "int unsigned", "NO", nil, "auto_increment", "", 1).
			AddRow("email", "varchar(255)", "NO", nil, "", "login", 2).
			AddRow("status", "enum('active','banned')", "YES", "active", "", "", 3))
	mock.ExpectQuery(`information_schema\.STATISTICS`).
		WithArgs("shop", "users").
		WillReturnRows(sqlmock.NewRows([]string{"INDEX_NAME", "COLUMN_NAME", "NON_UNIQUE", "INDEX_TYPE"}).
			AddRow("PRIMARY", "id", 0, "BTREE").
			AddRow("idx_email_status", "email", 1, "BTREE").
			AddRow("idx_email_status", "status", 1, "BTREE"))
	mock.ExpectQuery(`KEY_COLUMN_USAGE`).
		WithArgs("shop", "users").
		WillReturnRows(sqlmock.NewRows([]string{"CONSTRAINT_NAME", "COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME", "DELETE_RULE", "UPDATE_RULE"}))

	m := &MySQL{db: db, schema: "shop"}
	got, err := m.GetTableSchema(context.Background(), "users")
	require.NoError(t, err)

	want := &schema.Table{
		Name:    "users",
		Kind:    schema.KindTable,
		Comment: "app users",
		Columns: []schema.Column{
			{Name: "id", Type: "int unsigned", AutoIncrement: true, PrimaryKey: true, Position: 1},
			{Name: "email", Type: "varchar(255)", Comment: "login", Position: 2},
			{Name: "status", Type: "enum('active','banned')", Nullable: true, DefaultValue: strPtr("active"), Position: 3},
		},
		Indexes: []schema.Index{
			{Name: "PRIMARY", Columns: []string{"id"}, Unique: true, Primary: true, Type: "BTREE"},
			{Name: "idx_email_status", Columns: []string{"email", "status"}, Type: "BTREE"},
		},
		ForeignKeys: []schema.ForeignKey{},
	}
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLGetTableSchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`TABLE_COMMENT`).WillReturnError(sql.ErrConnDone)

	m := &MySQL{db: db, schema: "shop"}
	_, err = m.GetTableSchema(context.Background(), "users")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.Contains(t, err.Error(), "failed to get table comment")
}

func TestMySQLDSN(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		wantSchema string
		wantErr    bool
	}{
		{
			name:       "fields",
			config:     Config{Host: "db", Port: "3306", Database: "shop", User: "app", Password: "secret"},
			wantSchema: "shop",
		},
		{
			name:       "dsn supplies database",
			config:     Config{DSN: "app:secret@tcp(db:3306)/inventory"},
			wantSchema: "inventory",
		},
		{
			name:    "malformed dsn",
			config:  Config{DSN: "app:secret@tcp(db:3306"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMySQL(tt.config)
			dsn, err := m.dsn()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, dsn)
			assert.Equal(t, tt.wantSchema, m.schema)
		})
	}
}

func TestPostgresGetTableSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`obj_description`).
		WithArgs("public", "accounts").
		WillReturnRows(sqlmock.NewRows([]string{"comment"}).AddRow(""))
	mock.ExpectQuery(`format_type`).
		WithArgs("public", "accounts").
		WillReturnRows(sqlmock.NewRows([]string{"attname", "type", "nullable", "default", "identity", "comment", "attnum"}).
			AddRow("id", "integer", false, "nextval('accounts_id_seq'::regclass)", false, "", 1).
			AddRow("tags", "text[]", true, nil, false, "", 2).
			AddRow("created_at", "timestamp with time zone", false, "now()", false, "creation time", 3))
	mock.ExpectQuery(`pg_index`).
		WithArgs("public", "accounts").
		WillReturnRows(sqlmock.NewRows([]string{"relname", "columns", "indisunique", "indisprimary", "amname"}).
			AddRow("accounts_pkey", "{id}", true, true, "BTREE").
			AddRow("idx_accounts_tags", "{tags,created_at}", false, false, "GIN"))
	mock.ExpectQuery(`FOREIGN KEY`).
		WithArgs("public", "accounts").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name", "column_name", "referenced_table", "referenced_column", "update_rule", "delete_rule"}).
			AddRow("fk_owner", "id", "owners", "id", "NO ACTION", "CASCADE"))

	p := NewPostgres(Config{})
	p.db = db
	got, err := p.GetTableSchema(context.Background(), "accounts")
	require.NoError(t, err)

	assert.Equal(t, []schema.Column{
		{Name: "id", Type: "integer", AutoIncrement: true, PrimaryKey: true, Position: 1},
		{Name: "tags", Type: "text[]", Nullable: true, Position: 2},
		{Name: "created_at", Type: "timestamp with time zone", DefaultValue: strPtr("now()"), Comment: "creation time", Position: 3},
	}, got.Columns)
	assert.Equal(t, []schema.Index{
		{Name: "accounts_pkey", Columns: []string{"id"}, Unique: true, Primary: true, Type: "BTREE"},
		{Name: "idx_accounts_tags", Columns: []string{"tags", "created_at"}, Type: "GIN"},
	}, got.Indexes)
	assert.Equal(t, []schema.ForeignKey{
		{Name: "fk_owner", Column: "id", ReferencedTable: "owners", ReferencedColumn: "id", OnUpdate: "NO ACTION", OnDelete: "CASCADE"},
	}, got.ForeignKeys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSchemaDefault(t *testing.T) {
	assert.Equal(t, "public", NewPostgres(Config{}).schema)
	assert.Equal(t, "billing", NewPostgres(Config{Schema: "billing"}).schema)
}

func TestSQLServerGetTableSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INFORMATION_SCHEMA\.COLUMNS`).
		WithArgs("dbo", "Customers").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "CHARACTER_MAXIMUM_LENGTH", "NUMERIC_PRECISION", "NUMERIC_SCALE", "IS_NULLABLE", "COLUMN_DEFAULT", "IsIdentity", "ORDINAL_POSITION"}).
			AddRow("Id", "int", nil, 10, 0, "NO", nil, 1, 1).
			AddRow("Name", "nvarchar", 100, nil, nil, "NO", nil, 0, 2).
			AddRow("Notes", "nvarchar", -1, nil, nil, "YES", nil, 0, 3).
			AddRow("Balance", "decimal", nil, 12, 2, "YES", "((0))", 0, 4))
	mock.ExpectQuery(`sys\.indexes`).
		WithArgs("dbo.Customers").
		WillReturnRows(sqlmock.NewRows([]string{"name", "column", "is_unique", "is_primary_key", "type_desc"}).
			AddRow("PK_Customers", "Id", true, true, "CLUSTERED").
			AddRow("IX_Customers_Name", "Name", false, false, "NONCLUSTERED"))
	mock.ExpectQuery(`sys\.foreign_keys`).
		WithArgs("dbo.Customers").
		WillReturnRows(sqlmock.NewRows([]string{"name", "column", "ref_table", "ref_column", "delete", "update"}).
			AddRow("FK_Customers_Region", "Name", "Regions", "Name", "SET_NULL", "NO_ACTION"))

	s := NewSQLServer(Config{})
	s.db = db
	got, err := s.GetTableSchema(context.Background(), "Customers")
	require.NoError(t, err)

	assert.Equal(t, []schema.Column{
		{Name: "Id", Type: "int", AutoIncrement: true, PrimaryKey: true, Position: 1},
		{Name: "Name", Type: "nvarchar(100)", Position: 2},
		{Name: "Notes", Type: "nvarchar(max)", Nullable: true, Position: 3},
		{Name: "Balance", Type: "decimal(12,2)", Nullable: true, DefaultValue: strPtr("((0))"), Position: 4},
	}, got.Columns)
	require.Len(t, got.Indexes, 2)
	assert.True(t, got.Indexes[0].Primary)
	assert.Equal(t, []schema.ForeignKey{
		{Name: "FK_Customers_Region", Column: "Name", ReferencedTable: "Regions", ReferencedColumn: "Name", OnDelete: "SET NULL"},
	}, got.ForeignKeys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLServerDSN(t *testing.T) {
	s := NewSQLServer(Config{Host: "db", Port: "1433", Database: "crm", User: "sa", Password: "p@ss"})
	assert.Equal(t, "sqlserver://sa:p%40ss@db:1433?database=crm", s.dsn())

	s = NewSQLServer(Config{DSN: "sqlserver://x@y?database=z"})
	assert.Equal(t, "sqlserver://x@y?database=z", s.dsn())
}

type fakeDB struct {
	tables map[string]*schema.Table
	order  []string
}

func (f *fakeDB) Connect(context.Context) error { return nil }
func (f *fakeDB) Close() error                  { return nil }

func (f *fakeDB) GetAllTables(context.Context) ([]string, error) {
	return f.order, nil
}

func (f *fakeDB) GetTableSchema(_ context.Context, name string) (*schema.Table, error) {
	t, ok := f.tables[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func TestIntrospect(t *testing.T) {
	db := &fakeDB{
		tables: map[string]*schema.Table{"a": {Name: "a"}, "b": {Name: "b"}},
		order:  []string{"a", "b"},
	}

	all, err := Introspect(context.Background(), db, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)

	some, err := Introspect(context.Background(), db, []string{"b"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "b", some[0].Name)

	_, err = Introspect(context.Background(), db, []string{"missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.Contains(t, err.Error(), "failed to read table missing")
}

func TestNewDatabase(t *testing.T) {
	tests := []struct {
		dbType  string
		want    any
		dialect string
	}{
		{"mysql", &MySQL{}, "mysql"},
		{"MariaDB", &MySQL{}, "mysql"},
		{"postgres", &Postgres{}, "postgre"},
		{"PostgreSQL", &Postgres{}, "postgre"},
		{"sqlite3", &SQLite{}, "sqlite"},
		{"mssql", &SQLServer{}, "sqlserver"},
	}
	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			db, err := NewDatabase(Config{Type: tt.dbType})
			require.NoError(t, err)
			assert.IsType(t, tt.want, db)
			assert.Equal(t, tt.dialect, Config{Type: tt.dbType}.Dialect())
		})
	}

	_, err := NewDatabase(Config{Type: "oracle"})
	assert.EqualError(t, err, "unsupported database type: oracle")
}

func TestLoadConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    Config
		wantErr string
	}{
		{
			name:    "missing type",
			env:     map[string]string{},
			wantErr: "DB_TYPE environment variable is required",
		},
		{
			name:    "unsupported type",
			env:     map[string]string{"DB_TYPE": "oracle"},
			wantErr: "unsupported database type: oracle",
		},
		{
			name:    "missing name",
			env:     map[string]string{"DB_TYPE": "mysql"},
			wantErr: "DB_NAME or DB_DSN environment variable is required",
		},
		{
			name: "mysql defaults",
			env:  map[string]string{"DB_TYPE": "mysql", "DB_NAME": "shop", "DB_USER": "app"},
			want: Config{Type: "mysql", Host: "localhost", Port: "3306", Database: "shop", User: "app"},
		},
		{
			name: "sqlserver with dsn and schema",
			env:  map[string]string{"DB_TYPE": "sqlserver", "DB_DSN": "sqlserver://sa@db", "DB_SCHEMA": "sales"},
			want: Config{Type: "sqlserver", Host: "localhost", Port: "1433", DSN: "sqlserver://sa@db", Schema: "sales"},
		},
		{
			name: "explicit port",
			env:  map[string]string{"DB_TYPE": "postgres", "DB_NAME": "app", "DB_HOST": "pg", "DB_PORT": "6432"},
			want: Config{Type: "postgres", Host: "pg", Port: "6432", Database: "app"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"DB_TYPE", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_DSN", "DB_SCHEMA"} {
				t.Setenv(k, tt.env[k])
			}
			got, err := LoadConfigFromEnv()
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
