package generator

import (
	"fmt"
	"strings"

	"github.com/koba/ddl2ts/internal/schema"
)

// DDLGenerator renders introspected tables back into CREATE statements
type DDLGenerator struct {
	dbType string
}

// NewDDLGenerator creates a new DDL generator
func NewDDLGenerator(dbType string) *DDLGenerator {
	return &DDLGenerator{dbType: dbType}
}

// Generate generates CREATE TABLE and CREATE INDEX statements for tables
func (g *DDLGenerator) Generate(tables []*schema.Table) string {
	var statements []string
	for _, t := range tables {
		statements = append(statements, g.generateCreateTable(t))
		for _, idx := range t.Indexes {
			if idx.Primary {
				continue
			}
			statements = append(statements, g.generateCreateIndex(t.Name, &idx))
		}
	}
	if len(statements) == 0 {
		return ""
	}
	return strings.Join(statements, "\n\n") + "\n"
}

func (g *DDLGenerator) generateCreateTable(t *schema.Table) string {
	type part struct{ def, comment string }
	var parts []part

	// Column definitions
	for _, col := range t.Columns {
		p := part{def: g.columnDefinition(&col)}
		if col.Comment != "" {
			if g.isMySQL() {
				p.def += " COMMENT " + quoteString(col.Comment)
			} else {
				p.comment = oneLine(col.Comment)
			}
		}
		parts = append(parts, p)
	}

	// Primary key
	for _, idx := range t.Indexes {
		if idx.Primary {
			pkCols := strings.Join(g.quoteIdentifiers(idx.Columns), ", ")
			parts = append(parts, part{def: fmt.Sprintf("PRIMARY KEY (%s)", pkCols)})
			break
		}
	}

	// Foreign keys
	for _, fk := range t.ForeignKeys {
		fkDef := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
			g.quoteIdentifier(fk.Name),
			g.quoteIdentifier(fk.Column),
			g.quoteIdentifier(fk.ReferencedTable),
			g.quoteIdentifier(fk.ReferencedColumn),
		)
		if fk.OnDelete != "" {
			fkDef += fmt.Sprintf(" ON DELETE %s", fk.OnDelete)
		}
		if fk.OnUpdate != "" {
			fkDef += fmt.Sprintf(" ON UPDATE %s", fk.OnUpdate)
		}
		parts = append(parts, part{def: fkDef})
	}

	// A trailing comment goes after the comma so it stays on its column.
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", g.quoteIdentifier(t.Name))
	for i, p := range parts {
		b.WriteString("  " + p.def)
		if i < len(parts)-1 {
			b.WriteString(",")
		}
		if p.comment != "" {
			b.WriteString(" -- " + p.comment)
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	if g.isMySQL() && t.Comment != "" {
		b.WriteString(" COMMENT=" + quoteString(t.Comment))
	}
	b.WriteString(";")
	return b.String()
}

func (g *DDLGenerator) generateCreateIndex(tableName string, idx *schema.Index) string {
	indexType := ""
	if idx.Unique {
		indexType = "UNIQUE "
	}

	columns := strings.Join(g.quoteIdentifiers(idx.Columns), ", ")
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);",
		indexType,
		g.quoteIdentifier(idx.Name),
		g.quoteIdentifier(tableName),
		columns,
	)
}

func (g *DDLGenerator) columnDefinition(col *schema.Column) string {
	def := g.quoteIdentifier(col.Name) + " " + col.Type

	if !col.Nullable {
		def += " NOT NULL"
	}

	if col.DefaultValue != nil {
		def += " DEFAULT " + g.defaultLiteral(*col.DefaultValue)
	}

	if col.AutoIncrement {
		switch g.dbType {
		case "mysql":
			def += " AUTO_INCREMENT"
		case "sqlserver":
			def += " IDENTITY(1,1)"
		case "postgres":
			def += " GENERATED BY DEFAULT AS IDENTITY"
		}
	}

	return def
}

// defaultLiteral keeps expressions and numbers as they are and quotes
// everything else.
func (g *DDLGenerator) defaultLiteral(v string) string {
	switch {
	case v == "":
		return "''"
	case strings.HasPrefix(v, "'"), strings.HasPrefix(v, "("), strings.HasSuffix(v, ")"):
		return v
	case strings.Trim(v, "0123456789.-") == "":
		return v
	case strings.EqualFold(v, "null"), strings.EqualFold(v, "true"), strings.EqualFold(v, "false"),
		strings.EqualFold(v, "current_timestamp"):
		return v
	}
	return quoteString(v)
}

func (g *DDLGenerator) quoteIdentifier(name string) string {
	switch g.dbType {
	case "postgres", "sqlite":
		return fmt.Sprintf("\"%s\"", strings.ReplaceAll(name, `"`, `""`))
	case "sqlserver":
		return fmt.Sprintf("[%s]", strings.ReplaceAll(name, "]", "]]"))
	}
	// MySQL
	return fmt.Sprintf("`%s`", strings.ReplaceAll(name, "`", "``"))
}

func (g *DDLGenerator) quoteIdentifiers(names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = g.quoteIdentifier(name)
	}
	return quoted
}

func (g *DDLGenerator) isMySQL() bool {
	return g.dbType == "mysql"
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
