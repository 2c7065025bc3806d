// Package extract locates table definitions in free-form DDL text and turns
// their column lines into schema descriptors.
//
// Nothing here is a grammar. A statement that cannot be delimited, or a
// line that does not look like "name type ...", is skipped and logged at
// debug level; extraction itself never fails.
package extract

import (
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/koba/ddl2ts/internal/scan"
	"github.com/koba/ddl2ts/internal/schema"
)

// Strategy selects how a statement's column block is delimited.
type Strategy int

const (
	// Regex scans from the header to the matching parenthesis. A block
	// that runs into another CREATE is dropped and the search restarts
	// there.
	Regex Strategy = iota
	// Balanced scans the same way but skips an unclosed block whole.
	Balanced
)

func (s Strategy) String() string {
	if s == Balanced {
		return "balanced"
	}
	return "regex"
}

// Nullability is the policy for deriving Column.Nullable.
type Nullability int

const (
	// NotNull marks a column nullable unless it says NOT NULL or belongs to
	// the primary key.
	NotNull Nullability = iota
	// Never leaves every column non-nullable; the dialect spells nullability
	// in the type itself (Nullable(T)).
	Never
)

// Extras selects table-level metadata read from the text after the column
// block.
type Extras uint8

const (
	TableComment Extras = 1 << iota
	Engine
	OrderBy
	PrimaryKeyClause
	Settings
)

// Config describes one dialect's statement layout.
type Config struct {
	// Header finds statements, must define the group "name" and must end
	// at the opening parenthesis of the column block. Whatever follows the
	// block is table options. An optional "kind" group marks views.
	Header   *regexp.Regexp
	Strategy Strategy

	// Skip excludes dialect-specific non-column lines on top of the
	// common constraint and index keywords.
	Skip *regexp.Regexp
	// TypeTail absorbs multi-word type names (double precision,
	// with time zone). It must be anchored with ^.
	TypeTail *regexp.Regexp
	// Angles enables angle-bracket composites (array<int>).
	Angles bool

	Nullability Nullability
	// ShortNames drops schema/project qualifiers from table names.
	ShortNames bool
	Extras     Extras
	// InlineIndexes collects INDEX name (cols) lines from the body.
	InlineIndexes bool
	// CreateIndexes attaches CREATE INDEX statements to their tables.
	CreateIndexes bool
	// Static recognizes Cassandra STATIC columns.
	Static bool
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`(?m)^[ \t]*--.*$`)
)

// Extract returns the tables defined in src, in source order.
func Extract(src string, cfg *Config, log *slog.Logger) []*schema.Table {
	if log == nil {
		log = discard
	}
	src = blockComment.ReplaceAllString(src, "")
	src = lineComment.ReplaceAllString(src, "")

	var stmts []statement
	if cfg.Strategy == Balanced {
		stmts = balancedStatements(src, cfg, log)
	} else {
		stmts = regexStatements(src, cfg, log)
	}

	tables := make([]*schema.Table, 0, len(stmts))
	for _, st := range stmts {
		tables = append(tables, cfg.build(st, log))
	}
	if cfg.CreateIndexes {
		attachIndexes(src, tables)
	}
	return tables
}

// statement is one located CREATE statement before column parsing.
type statement struct {
	name   string
	kind   schema.Kind
	body   string
	suffix string
}

var nestedCreate = regexp.MustCompile(`(?i)\bcreate\s+`)

func regexStatements(src string, cfg *Config, log *slog.Logger) []statement {
	var (
		stmts   []statement
		nameIdx = cfg.Header.SubexpIndex("name")
		kindIdx = cfg.Header.SubexpIndex("kind")
	)
	for pos := 0; pos < len(src); {
		m := cfg.Header.FindStringSubmatchIndex(src[pos:])
		if m == nil {
			break
		}
		name := src[pos+m[2*nameIdx] : pos+m[2*nameIdx+1]]
		open := pos + m[1] - 1
		end, ok := scan.Balanced(src, open, '(', ')')
		stop := len(src)
		if ok {
			stop = end
		}

		// A block swallowing another CREATE means this statement never
		// closed; drop it and restart at the inner statement.
		if loc := nestedCreate.FindStringIndex(scan.Mask(src[open+1 : stop])); loc != nil {
			log.Debug("skipping unterminated statement", "table", name)
			pos = open + 1 + loc[0]
			continue
		}
		if !ok {
			log.Debug("skipping unbalanced statement", "table", name)
			pos += m[1]
			continue
		}

		st := statement{
			name: cfg.tableName(name),
			kind: kindOf(src, pos, m, kindIdx),
			body: src[open+1 : end],
		}
		if cfg.Extras != 0 {
			st.suffix = suffix(src, end+1, cfg.Header)
		}
		stmts = append(stmts, st)
		pos = end + 1
	}
	return stmts
}

func balancedStatements(src string, cfg *Config, log *slog.Logger) []statement {
	var (
		stmts   []statement
		nameIdx = cfg.Header.SubexpIndex("name")
		kindIdx = cfg.Header.SubexpIndex("kind")
	)
	for pos := 0; pos < len(src); {
		m := cfg.Header.FindStringSubmatchIndex(src[pos:])
		if m == nil {
			break
		}
		name := src[pos+m[2*nameIdx] : pos+m[2*nameIdx+1]]
		open := pos + m[1] - 1
		end, ok := scan.Balanced(src, open, '(', ')')
		if !ok {
			log.Debug("skipping unbalanced statement", "table", name)
			pos += m[1]
			continue
		}
		st := statement{
			name: cfg.tableName(name),
			kind: kindOf(src, pos, m, kindIdx),
			body: src[open+1 : end],
		}
		if cfg.Extras != 0 {
			st.suffix = suffix(src, end+1, cfg.Header)
		}
		stmts = append(stmts, st)
		pos = end + 1
	}
	return stmts
}

func kindOf(src string, pos int, m []int, kindIdx int) schema.Kind {
	if kindIdx > 0 && m[2*kindIdx] >= 0 &&
		strings.EqualFold(src[pos+m[2*kindIdx]:pos+m[2*kindIdx+1]], "view") {
		return schema.KindView
	}
	return schema.KindTable
}

// suffix returns the table options after a column block, up to the
// statement's semicolon or the next statement.
func suffix(src string, from int, header *regexp.Regexp) string {
	rest := src[from:]
	end := len(rest)
	if i := scan.Index(rest, ';'); i >= 0 {
		end = i
	}
	if loc := header.FindStringIndex(rest[:end]); loc != nil {
		end = loc[0]
	}
	return strings.TrimSpace(rest[:end])
}

var nameSegment = regexp.MustCompile("\"[^\"]+\"|`[^`]+`|\\[[^\\]]+\\]|[^.\\s]+")

// tableName unquotes every segment of a qualified name.
func (cfg *Config) tableName(raw string) string {
	segs := nameSegment.FindAllString(raw, -1)
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, Unquote(s))
	}
	name := strings.Join(parts, ".")
	if cfg.ShortNames {
		name = name[strings.LastIndexByte(name, '.')+1:]
	}
	return name
}

// Unquote strips one layer of identifier quoting: `x`, "x" or [x].
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		switch {
		case s[0] == '`' && s[len(s)-1] == '`',
			s[0] == '"' && s[len(s)-1] == '"',
			s[0] == '[' && s[len(s)-1] == ']':
			return s[1 : len(s)-1]
		}
	}
	return s
}

var (
	engineRe     = regexp.MustCompile(`(?i)\bengine\s*=\s*([^\s(;,]+)`)
	orderByRe    = regexp.MustCompile(`(?is)\border\s+by\s*(?:\(([^)]*)\)|([^\s;]+))`)
	primaryKeyRe = regexp.MustCompile(`(?is)\bprimary\s+key\s*(?:\(([^)]*)\)|([^\s;]+))`)
	settingsRe   = regexp.MustCompile(`(?i)\bsettings\s+([^\n;]+)`)
	tableCommRe  = regexp.MustCompile(`(?is)\b(?:comment|description)\s*=?\s*'((?:[^']|'')*)'`)
)

func (cfg *Config) applyExtras(t *schema.Table, suffix string) {
	if suffix == "" {
		return
	}
	if cfg.Extras&TableComment != 0 {
		if m := tableCommRe.FindStringSubmatch(suffix); m != nil {
			t.Comment = strings.TrimSpace(strings.ReplaceAll(m[1], "''", "'"))
		}
	}
	if cfg.Extras&Engine != 0 {
		if m := engineRe.FindStringSubmatch(suffix); m != nil {
			t.Engine = m[1]
		}
	}
	if cfg.Extras&OrderBy != 0 {
		t.OrderBy = firstGroup(orderByRe.FindStringSubmatch(suffix))
	}
	if cfg.Extras&PrimaryKeyClause != 0 {
		t.PrimaryKey = firstGroup(primaryKeyRe.FindStringSubmatch(suffix))
	}
	if cfg.Extras&Settings != 0 {
		if m := settingsRe.FindStringSubmatch(suffix); m != nil {
			t.Settings = strings.TrimSpace(m[1])
		}
	}
}

func firstGroup(m []string) string {
	for _, g := range m[min(1, len(m)):] {
		if g = strings.TrimSpace(g); g != "" {
			return g
		}
	}
	return ""
}

var createIndexRe = regexp.MustCompile("(?is)\\bcreate\\s+(unique\\s+)?(?:(?:non)?clustered\\s+)?index\\s+(?:concurrently\\s+)?(?:if\\s+not\\s+exists\\s+)?" +
	"(" + NamePattern + ")\\s+on\\s+(" + NamePattern + ")\\s*(?:using\\s+\\w+\\s*)?\\(")

// NamePattern matches a possibly quoted, possibly dotted identifier.
const NamePattern = "(?:\"[^\"]+\"|`[^`]+`|\\[[^\\]]+\\]|[\\w$-]+)(?:\\s*\\.\\s*(?:\"[^\"]+\"|`[^`]+`|\\[[^\\]]+\\]|[\\w$-]+))*"

// attachIndexes adds CREATE INDEX statements to the tables they name.
func attachIndexes(src string, tables []*schema.Table) {
	for _, m := range createIndexRe.FindAllStringSubmatchIndex(src, -1) {
		end, ok := scan.Balanced(src, m[1]-1, '(', ')')
		if !ok {
			continue
		}
		idx := schema.Index{
			Name:    lastSegment(src[m[4]:m[5]]),
			Columns: indexColumns(src[m[1]:end]),
			Unique:  m[2] >= 0,
		}
		target := plainName(src[m[6]:m[7]])
		for _, t := range tables {
			if sameTable(t.Name, target) {
				t.Indexes = append(t.Indexes, idx)
				break
			}
		}
	}
}

func plainName(raw string) string {
	segs := nameSegment.FindAllString(raw, -1)
	for i := range segs {
		segs[i] = Unquote(segs[i])
	}
	return strings.Join(segs, ".")
}

func lastSegment(raw string) string {
	name := plainName(raw)
	return name[strings.LastIndexByte(name, '.')+1:]
}

func sameTable(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	return strings.EqualFold(a[strings.LastIndexByte(a, '.')+1:], b[strings.LastIndexByte(b, '.')+1:])
}

var sortOrder = regexp.MustCompile(`(?i)\s+(?:asc|desc)(?:\s+nulls\s+(?:first|last))?$`)

// indexColumns splits an index column list, dropping sort directions and
// identifier quotes. Expressions are kept as written.
func indexColumns(list string) []string {
	var cols []string
	for _, c := range scan.Split(list, '(', ')') {
		c = sortOrder.ReplaceAllString(c, "")
		if c != "" {
			cols = append(cols, Unquote(c))
		}
	}
	return cols
}
