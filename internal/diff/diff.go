// Package diff compares two sets of extracted tables and reports the
// changes as they would appear in the generated declarations.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/koba/ddl2ts/internal/schema"
)

// TypeFunc maps a column to the TypeScript type it is declared with.
type TypeFunc func(c *schema.Column) string

// TypeMapper is implemented by dialect.Dialect.
type TypeMapper interface {
	TypeOf(c *schema.Column, overrides map[string]string) string
}

// Types adapts a TypeMapper and a set of overrides to a TypeFunc.
func Types(m TypeMapper, overrides map[string]string) TypeFunc {
	return func(c *schema.Column) string {
		return m.TypeOf(c, overrides)
	}
}

// Result holds the complete comparison result, ordered as the tables
// appear in the new input followed by dropped tables.
type Result struct {
	Tables []*TableDiff
}

// Empty reports whether the inputs declare the same thing.
func (r *Result) Empty() bool {
	return len(r.Tables) == 0
}

// Compare compares two table lists and returns the differences
func Compare(old, new []*schema.Table, typeOf TypeFunc) *Result {
	result := &Result{}

	oldByName := make(map[string]*schema.Table, len(old))
	for _, t := range old {
		oldByName[t.Name] = t
	}
	newByName := make(map[string]*schema.Table, len(new))
	for _, t := range new {
		newByName[t.Name] = t
	}

	for _, t := range new {
		prev, ok := oldByName[t.Name]
		if !ok {
			// Table added in new
			result.Tables = append(result.Tables, &TableDiff{
				TableName: t.Name,
				Action:    ActionAdd,
				New:       t,
			})
			continue
		}
		if d := compareTables(prev, t, typeOf); d != nil {
			result.Tables = append(result.Tables, d)
		}
	}

	for _, t := range old {
		if _, ok := newByName[t.Name]; !ok {
			result.Tables = append(result.Tables, &TableDiff{
				TableName: t.Name,
				Action:    ActionDrop,
				Old:       t,
			})
		}
	}

	return result
}

// Display prints the diff result in a human-readable format
func Display(w io.Writer, result *Result) {
	if result.Empty() {
		fmt.Fprintln(w, "No differences found.")
		return
	}

	fmt.Fprintln(w, "=== Schema Differences ===")
	fmt.Fprintln(w)
	for _, d := range result.Tables {
		displayTableDiff(w, d)
	}
}

func displayTableDiff(w io.Writer, diff *TableDiff) {
	fmt.Fprintf(w, "Table: %s\n", diff.TableName)

	switch diff.Action {
	case ActionAdd:
		fmt.Fprintf(w, "  Action: ADD (new %s)\n", kindOf(diff.New))
		fmt.Fprintf(w, "  Columns: %d\n", len(diff.New.Columns))
	case ActionDrop:
		fmt.Fprintf(w, "  Action: DROP (removed %s)\n", kindOf(diff.Old))
	case ActionModify:
		fmt.Fprintf(w, "  Action: MODIFY\n")
		if len(diff.ColumnChanges) > 0 {
			fmt.Fprintf(w, "  Column changes:\n")
			for _, change := range diff.ColumnChanges {
				fmt.Fprintf(w, "    - %s: %s (%s)\n", change.ColumnName, change.Action, columnDetail(change))
			}
		}
		if len(diff.IndexChanges) > 0 {
			fmt.Fprintf(w, "  Index changes:\n")
			for _, change := range diff.IndexChanges {
				fmt.Fprintf(w, "    - %s: %s (%s)\n", change.IndexName, change.Action, indexDetail(change))
			}
		}
		if len(diff.ForeignKeyChanges) > 0 {
			fmt.Fprintf(w, "  Foreign key changes:\n")
			for _, change := range diff.ForeignKeyChanges {
				fmt.Fprintf(w, "    - %s: %s\n", change.FKName, change.Action)
			}
		}
	}
	fmt.Fprintln(w)
}

func kindOf(t *schema.Table) string {
	if t.Kind == "" {
		return string(schema.KindTable)
	}
	return string(t.Kind)
}

// columnDetail renders the declared type, with "?" marking optional
// properties, e.g. "number -> string?".
func columnDetail(c ColumnChange) string {
	switch c.Action {
	case ActionAdd:
		return signature(c.NewColumn, c.NewType)
	case ActionDrop:
		return signature(c.OldColumn, c.OldType)
	}
	return signature(c.OldColumn, c.OldType) + " -> " + signature(c.NewColumn, c.NewType)
}

func signature(c *schema.Column, ts string) string {
	if c.Optional() {
		return ts + "?"
	}
	return ts
}

func indexDetail(c IndexChange) string {
	switch c.Action {
	case ActionAdd:
		return indexColumns(c.NewIndex)
	case ActionDrop:
		return indexColumns(c.OldIndex)
	}
	return indexColumns(c.OldIndex) + " -> " + indexColumns(c.NewIndex)
}

func indexColumns(idx *schema.Index) string {
	s := strings.Join(idx.Columns, ", ")
	if idx.Unique {
		s = "unique " + s
	}
	return s
}
