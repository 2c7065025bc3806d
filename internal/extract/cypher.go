package extract

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/koba/ddl2ts/internal/scan"
	"github.com/koba/ddl2ts/internal/schema"
)

// Names given to graph entities written without a label.
const (
	UnnamedNode         = "UnnamedNode"
	UnnamedRelationship = "UnnamedRelationship"
)

// Raw property types inferred from Cypher literals.
const (
	CypherString  = "STRING"
	CypherInteger = "INTEGER"
	CypherFloat   = "FLOAT"
	CypherBoolean = "BOOLEAN"
	CypherNull    = "NULL"
	CypherMap     = "MAP"
	CypherAny     = "ANY"
)

var (
	// (p:Person:Admin {  or  (:Person {  or  ({
	nodeRe = regexp.MustCompile(`\(\s*(?:\w+)?\s*((?::\s*` + "`?\\w+`?" + `\s*)*)\{`)
	// [r:KNOWS {  or  [:KNOWS {
	relRe = regexp.MustCompile(`\[\s*(?:\w+)?\s*(?::\s*` + "`?(\\w+)`?" + `)?\s*\{`)

	integerRe = regexp.MustCompile(`^-?\d+$`)
	floatRe   = regexp.MustCompile(`^-?(?:\d+\.\d*|\.\d+|\d+)(?:[eE][-+]?\d+)?$`)
	callRe    = regexp.MustCompile(`^(\w+)\s*\(`)
	labelRe   = regexp.MustCompile("`?(\\w+)`?")
)

var braces = scan.Pair{Open: '{', Close: '}'}

// entity accumulates every occurrence of one label.
type entity struct {
	table *schema.Table
	seen  int
	types map[string][]string
	count map[string]int
}

// Cypher extracts node and relationship property shapes from Cypher
// literals such as (:Person {name: 'Tom'}) and -[:KNOWS {since: 2020}]->.
// Occurrences of the same label merge into one table: a property missing
// from some occurrences, or ever set to null, becomes nullable, and
// conflicting literal types become a union. Nodes come first, then
// relationships, each in order of first appearance.
func Cypher(src string, log *slog.Logger) []*schema.Table {
	if log == nil {
		log = discard
	}
	src = blockComment.ReplaceAllString(src, "")
	src = lineComment.ReplaceAllString(src, "")
	masked := scan.Mask(src)

	var (
		nodes, rels []*entity
		byKey       = map[string]*entity{}
	)
	for pos := 0; pos < len(src); {
		kind, label, open := nextEntity(masked, pos)
		if open < 0 {
			break
		}
		end, ok := scan.Balanced(src, open, '{', '}')
		if !ok {
			log.Debug("skipping unbalanced property map", "label", label)
			pos = open + 1
			continue
		}
		if label == "" {
			label = UnnamedNode
			if kind == schema.KindRelationship {
				label = UnnamedRelationship
			}
		}
		key := string(kind) + ":" + label
		e, ok := byKey[key]
		if !ok {
			e = &entity{
				table: &schema.Table{Name: label, Kind: kind, Columns: []schema.Column{}},
				types: map[string][]string{},
				count: map[string]int{},
			}
			byKey[key] = e
			if kind == schema.KindNode {
				nodes = append(nodes, e)
			} else {
				rels = append(rels, e)
			}
		}
		e.add(src[open+1 : end])
		pos = end + 1
	}

	tables := make([]*schema.Table, 0, len(nodes)+len(rels))
	for _, e := range append(nodes, rels...) {
		tables = append(tables, e.finish())
	}
	return tables
}

// nextEntity finds the earliest node or relationship property map at or
// after pos and returns the index of its opening brace, or -1.
func nextEntity(masked string, pos int) (schema.Kind, string, int) {
	n := nodeRe.FindStringSubmatchIndex(masked[pos:])
	r := relRe.FindStringSubmatchIndex(masked[pos:])
	switch {
	case n == nil && r == nil:
		return "", "", -1
	case r == nil || (n != nil && n[0] <= r[0]):
		label := ""
		if m := labelRe.FindStringSubmatch(masked[pos+n[2] : pos+n[3]]); m != nil {
			label = m[1]
		}
		return schema.KindNode, label, pos + n[1] - 1
	default:
		label := ""
		if r[2] >= 0 {
			label = masked[pos+r[2] : pos+r[3]]
		}
		return schema.KindRelationship, label, pos + r[1] - 1
	}
}

func (e *entity) add(props string) {
	e.seen++
	for _, p := range scan.SplitList(props, scan.Parens, scan.Brackets, braces) {
		key, value, ok := strings.Cut(p, ":")
		if !ok {
			continue
		}
		key = Unquote(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		typ := inferType(strings.TrimSpace(value))
		col := e.column(key)
		e.count[key]++
		if typ == CypherNull {
			col.Nullable = true
			continue
		}
		if !slices.Contains(e.types[key], typ) {
			e.types[key] = append(e.types[key], typ)
		}
	}
}

// column returns the property named key, adding it on first sight.
// Property keys are case-sensitive.
func (e *entity) column(key string) *schema.Column {
	for i := range e.table.Columns {
		if e.table.Columns[i].Name == key {
			return &e.table.Columns[i]
		}
	}
	e.table.Columns = append(e.table.Columns, schema.Column{
		Name:     key,
		Position: len(e.table.Columns) + 1,
	})
	return &e.table.Columns[len(e.table.Columns)-1]
}

func (e *entity) finish() *schema.Table {
	for i := range e.table.Columns {
		c := &e.table.Columns[i]
		c.Type = unionOf(e.types[c.Name], CypherNull)
		if e.count[c.Name] < e.seen {
			c.Nullable = true
		}
	}
	return e.table
}

// inferType returns the raw type of a Cypher literal.
func inferType(v string) string {
	switch {
	case v == "":
		return CypherAny
	case v[0] == '\'' || v[0] == '"':
		return CypherString
	case integerRe.MatchString(v):
		return CypherInteger
	case floatRe.MatchString(v):
		return CypherFloat
	case strings.EqualFold(v, "true"), strings.EqualFold(v, "false"):
		return CypherBoolean
	case strings.EqualFold(v, "null"):
		return CypherNull
	case v[0] == '{':
		return CypherMap
	case v[0] == '[':
		inner := strings.TrimSuffix(v[1:], "]")
		var elems []string
		for _, el := range scan.SplitList(inner, scan.Parens, scan.Brackets, braces) {
			if t := inferType(el); !slices.Contains(elems, t) && t != CypherNull {
				elems = append(elems, t)
			}
		}
		return "LIST<" + unionOf(elems, CypherAny) + ">"
	}
	if m := callRe.FindStringSubmatch(v); m != nil {
		// temporal and spatial constructors: date('2020-01-01'), point({...})
		return strings.ToUpper(m[1])
	}
	return CypherAny
}

func unionOf(types []string, empty string) string {
	switch len(types) {
	case 0:
		return empty
	case 1:
		return types[0]
	}
	return "UNION(" + strings.Join(types, ", ") + ")"
}
