package schema

import "strings"

// Kind tells what a Table was extracted from.
type Kind string

const (
	KindTable        Kind = "table"
	KindView         Kind = "view"
	KindNode         Kind = "node"
	KindRelationship Kind = "relationship"
)

// Column describes one column as written in the source DDL
type Column struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"` // raw native type token, never empty
	Nullable      bool     `json:"nullable"`
	DefaultValue  *string  `json:"default_value,omitempty"`
	Comment       string   `json:"comment,omitempty"`
	EnumValues    []string `json:"enum_values,omitempty"`
	PrimaryKey    bool     `json:"primary_key,omitempty"`
	Unique        bool     `json:"unique,omitempty"`
	AutoIncrement bool     `json:"auto_increment,omitempty"`
	Static        bool     `json:"static,omitempty"` // Cassandra static column
	Position      int      `json:"position"`
}

// Optional reports whether the column renders with the optional marker:
// it is nullable or it has a default value.
func (c *Column) Optional() bool {
	return c.Nullable || c.DefaultValue != nil
}

// Index represents a secondary index or the primary key
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
	Primary bool     `json:"primary,omitempty"`
	Type    string   `json:"type,omitempty"` // e.g., BTREE, HASH
}

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	Name             string `json:"name"`
	Column           string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
	OnDelete         string `json:"on_delete,omitempty"` // CASCADE, SET NULL, etc.
	OnUpdate         string `json:"on_update,omitempty"`
}

// Table is one extracted statement: a table, a view, or a graph entity.
// Comment, Engine, OrderBy, PrimaryKey and Settings are dialect extras and
// stay empty for dialects that do not have them.
type Table struct {
	Name        string       `json:"name"` // raw, possibly dotted
	Kind        Kind         `json:"kind"`
	Columns     []Column     `json:"columns"`
	Indexes     []Index      `json:"indexes,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`

	Comment    string `json:"comment,omitempty"`
	Engine     string `json:"engine,omitempty"`
	OrderBy    string `json:"order_by,omitempty"`
	PrimaryKey string `json:"primary_key,omitempty"`
	Settings   string `json:"settings,omitempty"`
}

// Column returns the column with the given name, compared case-insensitively.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// HasExtras reports whether the table carries any header metadata.
func (t *Table) HasExtras() bool {
	return t.Comment != "" || t.Engine != "" || t.OrderBy != "" || t.PrimaryKey != "" || t.Settings != ""
}

// ShortName returns the last dotted segment of the table name.
func (t *Table) ShortName() string {
	return t.Name[strings.LastIndexByte(t.Name, '.')+1:]
}
