package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koba/ddl2ts/internal/schema"
)

// lowerMapper maps a type to its lower-cased raw text.
type lowerMapper struct{}

func (lowerMapper) Map(raw string, enum []string, overrides map[string]string) string {
	if len(enum) > 0 {
		return "'" + strings.Join(enum, "' | '") + "'"
	}
	if ts, ok := overrides[strings.ToLower(raw)]; ok {
		return ts
	}
	return strings.ToLower(raw)
}

func strPtr(s string) *string { return &s }

func usersTable() *schema.Table {
	return &schema.Table{
		Name: "app.user_accounts",
		Columns: []schema.Column{
			{Name: "id", Type: "NUMBER"},
			{Name: "name", Type: "STRING", Comment: "display name"},
			{Name: "bio", Type: "STRING", Nullable: true},
			{Name: "role", Type: "ENUM", EnumValues: []string{"admin", "user"}, DefaultValue: strPtr("user")},
		},
	}
}

func TestGenerate(t *testing.T) {
	g := NewTSGenerator(Style{}, lowerMapper{}, TSOptions{})
	want := `export interface AppUserAccounts {
  id: number;
  name: string; // display name
  bio?: string;
  role?: 'admin' | 'user';
}
`
	assert.Equal(t, want, g.Generate([]*schema.Table{usersTable()}))
}

func TestGenerateEmpty(t *testing.T) {
	g := NewTSGenerator(Style{}, lowerMapper{}, TSOptions{Namespace: "DB"})
	assert.Equal(t, "", g.Generate(nil))
}

func TestGenerateNamespace(t *testing.T) {
	g := NewTSGenerator(Style{}, lowerMapper{}, TSOptions{Namespace: "DB"})
	tables := []*schema.Table{
		{Name: "a", Columns: []schema.Column{{Name: "x", Type: "NUMBER"}}},
		{Name: "b", Columns: []schema.Column{{Name: "y", Type: "STRING", Nullable: true}}},
	}
	want := `declare namespace DB {
  interface A {
    x: number;
  }

  interface B {
    y?: string;
  }
}
`
	assert.Equal(t, want, g.Generate(tables))
}

func TestGenerateDocComments(t *testing.T) {
	g := NewTSGenerator(Style{Keyword: "declare interface", Comments: CommentDoc}, lowerMapper{}, TSOptions{})
	table := &schema.Table{
		Name:    "logs",
		Comment: "raw logs",
		Columns: []schema.Column{
			{Name: "msg", Type: "STRING", Comment: "the */ message"},
			{Name: "level", Type: "NUMBER"},
		},
	}
	want := `/**
 * raw logs
 */
declare interface Logs {
  /** the * / message */
  msg: string;
  level: number;
}
`
	assert.Equal(t, want, g.Generate([]*schema.Table{table}))
}

func TestGenerateHeaderAndDefaults(t *testing.T) {
	g := NewTSGenerator(Style{DefaultNote: true}, lowerMapper{}, TSOptions{})
	table := &schema.Table{
		Name:       "events",
		Engine:     "MergeTree",
		OrderBy:    "id, ts",
		PrimaryKey: "id",
		Settings:   "index_granularity = 8192",
		Columns: []schema.Column{
			{Name: "id", Type: "NUMBER"},
			{Name: "ts", Type: "STRING", DefaultValue: strPtr("now()"), Comment: "event time"},
			{Name: "n", Type: "NUMBER", DefaultValue: strPtr("0")},
		},
	}
	want := `/**
 * ENGINE = MergeTree
 * ORDER BY (id, ts)
 * PRIMARY KEY (id)
 * SETTINGS index_granularity = 8192
 */
export interface Events {
  id: number;
  ts?: string; // event time, default: now()
  n?: number; // default: 0
}
`
	assert.Equal(t, want, g.Generate([]*schema.Table{table}))
}

func TestGenerateIndexes(t *testing.T) {
	table := &schema.Table{
		Name:    "accounts",
		Columns: []schema.Column{{Name: "email", Type: "STRING"}},
		Indexes: []schema.Index{
			{Name: "idx_email", Columns: []string{"email"}},
			{Name: "idx-pair", Columns: []string{"id", "email"}, Unique: true},
		},
	}

	tests := []struct {
		name  string
		style IndexStyle
		opts  TSOptions
		want  string
	}{
		{
			name:  "doc",
			style: IndexDoc,
			want: `/**
 * Index: idx_email (email)
 * Index: idx-pair (id, email)
 */
export interface Accounts {
  email: string;
}
`,
		},
		{
			name:  "const",
			style: IndexConst,
			want: `export interface Accounts {
  email: string;
}

export const AccountsIndexes = {
  idx_email: ['email'],
  'idx-pair': ['id', 'email'],
};
`,
		},
		{
			name:  "const inside namespace falls back to doc",
			style: IndexConst,
			opts:  TSOptions{Namespace: "DB"},
			want: `declare namespace DB {
  /**
   * Index: idx_email (email)
   * Index: idx-pair (id, email)
   */
  interface Accounts {
    email: string;
  }
}
`,
		},
		{
			name:  "none",
			style: IndexNone,
			want: `export interface Accounts {
  email: string;
}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewTSGenerator(Style{Indexes: tt.style}, lowerMapper{}, tt.opts)
			assert.Equal(t, tt.want, g.Generate([]*schema.Table{table}))
		})
	}
}

func TestGenerateOptions(t *testing.T) {
	g := NewTSGenerator(Style{}, lowerMapper{}, TSOptions{
		Singular:  true,
		Overrides: map[string]string{"geometry": "GeoJSON"},
	})
	table := &schema.Table{
		Name: "places",
		Columns: []schema.Column{
			{Name: "shape", Type: "GEOMETRY"},
			{Name: "full name", Type: "STRING"},
		},
	}
	want := `export interface Place {
  shape: GeoJSON;
  'full name': string;
}
`
	assert.Equal(t, want, g.Generate([]*schema.Table{table}))
}

func TestGenerateIdempotent(t *testing.T) {
	g := NewTSGenerator(Style{Indexes: IndexConst}, lowerMapper{}, TSOptions{})
	tables := []*schema.Table{usersTable()}
	assert.Equal(t, g.Generate(tables), g.Generate(tables))
}
