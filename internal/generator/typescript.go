package generator

import (
	"regexp"
	"strings"

	"github.com/koba/ddl2ts/internal/naming"
	"github.com/koba/ddl2ts/internal/schema"
	"github.com/koba/ddl2ts/internal/typemap"
)

// CommentStyle selects where column comments go.
type CommentStyle int

const (
	// CommentInline appends " // comment" to the column line.
	CommentInline CommentStyle = iota
	// CommentDoc puts "/** comment */" on its own line above the column.
	CommentDoc
)

// IndexStyle selects how table indexes are rendered.
type IndexStyle int

const (
	IndexNone IndexStyle = iota
	// IndexDoc lists indexes in the JSDoc block above the interface.
	IndexDoc
	// IndexConst emits an export const map of index columns after the
	// interface.
	IndexConst
)

// Style is one dialect's declaration layout.
type Style struct {
	// Keyword opens a top-level declaration, "export interface" when empty.
	Keyword  string
	Comments CommentStyle
	Indexes  IndexStyle
	// DefaultNote adds "default: X" to the column comment.
	DefaultNote bool
}

// Mapper translates a raw column type.
type Mapper interface {
	Map(raw string, enum []string, overrides map[string]string) string
}

// TSOptions are the per-call settings of a TSGenerator.
type TSOptions struct {
	Namespace string
	Singular  bool
	Overrides map[string]string
}

// TSGenerator renders tables as TypeScript declarations
type TSGenerator struct {
	style  Style
	mapper Mapper
	opts   TSOptions
}

// NewTSGenerator creates a new TypeScript generator
func NewTSGenerator(style Style, mapper Mapper, opts TSOptions) *TSGenerator {
	if style.Keyword == "" {
		style.Keyword = "export interface"
	}
	return &TSGenerator{style: style, mapper: mapper, opts: opts}
}

// Generate renders every table, blank-line separated, and wraps them in a
// namespace block when one is set. The result ends with a newline, or is
// empty when there are no tables.
func (g *TSGenerator) Generate(tables []*schema.Table) string {
	if len(tables) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(tables))
	for _, t := range tables {
		blocks = append(blocks, strings.Join(g.table(t), "\n"))
	}
	body := strings.Join(blocks, "\n\n")

	if g.opts.Namespace == "" {
		return body + "\n"
	}
	return "declare namespace " + g.opts.Namespace + " {\n" + indent(body) + "\n}\n"
}

// InterfaceName returns the declaration name for a table.
func (g *TSGenerator) InterfaceName(t *schema.Table) string {
	if g.opts.Singular {
		return naming.Singular(t.Name)
	}
	return naming.Normalize(t.Name)
}

func (g *TSGenerator) table(t *schema.Table) []string {
	name := g.InterfaceName(t)
	// initializers are not allowed in an ambient namespace
	indexes := g.style.Indexes
	if indexes == IndexConst && g.opts.Namespace != "" {
		indexes = IndexDoc
	}

	var lines []string
	lines = append(lines, header(t, indexes == IndexDoc)...)

	keyword := g.style.Keyword
	if g.opts.Namespace != "" {
		keyword = "interface"
	}
	lines = append(lines, keyword+" "+name+" {")
	for i := range t.Columns {
		lines = append(lines, g.column(&t.Columns[i])...)
	}
	lines = append(lines, "}")

	if indexes == IndexConst && len(t.Indexes) > 0 {
		lines = append(lines, "", "export const "+name+"Indexes = {")
		for _, idx := range t.Indexes {
			cols := make([]string, len(idx.Columns))
			for i, c := range idx.Columns {
				cols[i] = typemap.Quote(c)
			}
			lines = append(lines, "  "+propertyName(idx.Name)+": ["+strings.Join(cols, ", ")+"],")
		}
		lines = append(lines, "};")
	}
	return lines
}

func header(t *schema.Table, withIndexes bool) []string {
	var doc []string
	if t.Comment != "" {
		doc = append(doc, " * "+t.Comment)
	}
	if t.Engine != "" {
		doc = append(doc, " * ENGINE = "+t.Engine)
	}
	if t.OrderBy != "" {
		doc = append(doc, " * ORDER BY ("+t.OrderBy+")")
	}
	if t.PrimaryKey != "" {
		doc = append(doc, " * PRIMARY KEY ("+t.PrimaryKey+")")
	}
	if t.Settings != "" {
		doc = append(doc, " * SETTINGS "+t.Settings)
	}
	if withIndexes {
		for _, idx := range t.Indexes {
			doc = append(doc, " * Index: "+idx.Name+" ("+strings.Join(idx.Columns, ", ")+")")
		}
	}
	if len(doc) == 0 {
		return nil
	}
	return append(append([]string{"/**"}, doc...), " */")
}

func (g *TSGenerator) column(c *schema.Column) []string {
	ts := g.mapper.Map(c.Type, c.EnumValues, g.opts.Overrides)
	decl := "  " + propertyName(c.Name)
	if c.Optional() {
		decl += "?"
	}
	decl += ": " + ts + ";"

	comment := c.Comment
	if g.style.DefaultNote && c.DefaultValue != nil {
		note := "default: " + *c.DefaultValue
		if comment != "" {
			comment += ", " + note
		} else {
			comment = note
		}
	}
	comment = strings.Join(strings.Fields(comment), " ")

	switch {
	case comment == "":
		return []string{decl}
	case g.style.Comments == CommentDoc:
		return []string{"  /** " + strings.ReplaceAll(comment, "*/", "* /") + " */", decl}
	default:
		return []string{decl + " // " + comment}
	}
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// propertyName quotes names that are not valid identifiers.
func propertyName(name string) string {
	if identifier.MatchString(name) {
		return name
	}
	return typemap.Quote(name)
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n")
}
