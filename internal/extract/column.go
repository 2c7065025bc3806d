package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/koba/ddl2ts/internal/scan"
	"github.com/koba/ddl2ts/internal/schema"
)

// commonSkip matches lines that define constraints or indexes rather than
// columns, in every dialect.
var commonSkip = regexp.MustCompile("(?is)^(?:" +
	`primary\s+key\b` +
	`|constraint\b` +
	`|foreign\s+key\b` +
	`|check\s*\(` +
	`|unique\s*\(` +
	`|unique\s+(?:key|index)\b` +
	"|(?:key|index)\\s+[\\w`\"$\\[\\]]+\\s*\\(\\s*[A-Za-z_`\"\\[]" +
	"|(?:key|index)\\s+[\\w`\"$\\[\\]]+\\s+(?:(?:non)?clustered|using)\\b" +
	`|(?:key|index)\s*\(` +
	`|fulltext\b|spatial\b` +
	")")

var (
	notNullRe   = regexp.MustCompile(`(?i)\bnot\s+null\b`)
	pkRe        = regexp.MustCompile(`(?i)\bprimary\s+key\b`)
	uniqueRe    = regexp.MustCompile(`(?i)\bunique\b`)
	staticRe    = regexp.MustCompile(`(?i)\bstatic\b`)
	autoIncRe   = regexp.MustCompile(`(?i)\b(?:auto_increment|autoincrement|identity|generated\s+(?:always|by\s+default)(?:\s+on\s+null)?\s+as\s+identity)\b`)
	serialRe    = regexp.MustCompile(`(?i)^(?:small|big)?serial\d*$`)
	defaultRe   = regexp.MustCompile(`(?i)\bdefault\b\s*`)
	commentRe   = regexp.MustCompile(`(?is)\bcomment\s*=?\s*(?:'((?:[^']|'')*)'|"([^"]*)")`)
	optionsRe   = regexp.MustCompile(`(?is)\boptions\s*\(.*?\b(?:description|comment)\s*=\s*(?:'((?:[^']|'')*)'|"([^"]*)")`)
	tablePKRe   = regexp.MustCompile(`(?is)^(?:constraint\s+\S+\s+)?primary\s+key\s*(?:(?:non)?clustered\s*)?\(`)
	inlineIdxRe = regexp.MustCompile("(?is)^(unique\\s+)?(?:key|index)\\s+([\\w`\"$\\[\\]]+)\\s*\\(")
	enumValueRe = regexp.MustCompile(`\s*=\s*-?\d+$`)
)

// build turns a located statement into a table.
func (cfg *Config) build(st statement, log *slog.Logger) *schema.Table {
	t := &schema.Table{Name: st.name, Kind: st.kind, Columns: []schema.Column{}}
	pairs := []scan.Pair{scan.Parens}
	if cfg.Angles {
		pairs = append(pairs, scan.Angles)
	}

	var keys []string
	for _, ln := range columnLines(st.body, pairs) {
		switch {
		case tablePKRe.MatchString(ln.code):
			keys = append(keys, keyColumns(ln.code)...)
			continue
		case cfg.InlineIndexes && inlineIdxRe.MatchString(ln.code):
			if idx, ok := inlineIndex(ln.code); ok {
				t.Indexes = append(t.Indexes, idx)
			}
			continue
		case commonSkip.MatchString(ln.code), cfg.Skip != nil && cfg.Skip.MatchString(ln.code):
			continue
		}
		col, ok := cfg.Column(ln.code)
		if !ok {
			log.Debug("skipping column line", "table", st.name, "line", ln.code)
			continue
		}
		if col.Comment == "" {
			col.Comment = ln.comment
		}
		col.Position = len(t.Columns) + 1
		t.Columns = append(t.Columns, *col)
	}

	for _, k := range keys {
		if c := t.Column(k); c != nil {
			c.PrimaryKey = true
			c.Nullable = false
		}
	}
	cfg.applyExtras(t, st.suffix)
	return t
}

// line is one comma separated entry of a column block.
type line struct {
	code    string
	comment string
}

// columnLines splits a column block and attaches trailing -- comments to
// the entry they follow. A comment after a comma sits on the line of the
// previous entry, so it belongs to that entry.
func columnLines(body string, pairs []scan.Pair) []line {
	parts := scan.SplitList(body, pairs...)
	lines := make([]line, 0, len(parts))
	for _, p := range parts {
		if strings.HasPrefix(p, "--") {
			lead, rest, _ := strings.Cut(p, "\n")
			if n := len(lines); n > 0 && lines[n-1].comment == "" {
				lines[n-1].comment = strings.TrimSpace(strings.TrimPrefix(lead, "--"))
			}
			p = strings.TrimSpace(rest)
		}
		code, comment := scan.CutComment(p)
		if code == "" {
			continue
		}
		lines = append(lines, line{code: code, comment: comment})
	}
	return lines
}

// Column parses one column definition line. It reports false when the
// line does not start with a name followed by a type.
func (cfg *Config) Column(def string) (*schema.Column, bool) {
	name, rest := readName(def)
	if name == "" || rest == "" || (rest[0] != ' ' && rest[0] != '\t' && rest[0] != '\n' && rest[0] != '\r') {
		return nil, false
	}
	typ, attrs := cfg.readType(rest)
	if typ == "" {
		return nil, false
	}

	masked := scan.Mask(attrs)
	col := &schema.Column{
		Name:          name,
		Type:          typ,
		PrimaryKey:    pkRe.MatchString(masked),
		Unique:        uniqueRe.MatchString(masked),
		AutoIncrement: autoIncRe.MatchString(masked) || serialRe.MatchString(typ),
		EnumValues:    enumValues(typ),
	}
	if cfg.Nullability == NotNull {
		col.Nullable = !notNullRe.MatchString(masked) && !col.PrimaryKey
	}
	if cfg.Static {
		col.Static = staticRe.MatchString(masked)
	}
	if loc := defaultRe.FindStringIndex(masked); loc != nil {
		if v, ok := readValue(attrs[loc[1]:]); ok {
			col.DefaultValue = &v
		}
	}
	col.Comment = columnComment(attrs)
	return col, true
}

func columnComment(attrs string) string {
	for _, re := range []*regexp.Regexp{commentRe, optionsRe} {
		if m := re.FindStringSubmatch(attrs); m != nil {
			c := m[1]
			if c == "" {
				c = m[2]
			}
			return strings.TrimSpace(strings.ReplaceAll(c, "''", "'"))
		}
	}
	return ""
}

// readName reads a quoted or bare identifier from the start of s.
func readName(s string) (string, string) {
	s = strings.TrimLeft(s, " \t\r\n")
	if s == "" {
		return "", ""
	}
	var closer byte
	switch s[0] {
	case '`':
		closer = '`'
	case '"':
		closer = '"'
	case '[':
		closer = ']'
	}
	if closer != 0 {
		end := strings.IndexByte(s[1:], closer)
		if end < 0 {
			return "", ""
		}
		return s[1 : end+1], s[end+2:]
	}
	i := 0
	for i < len(s) && scan.IsIdent(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// readType reads a type token: a name, an optional multi-word tail,
// balanced arguments, another tail and any [] suffixes.
func (cfg *Config) readType(s string) (string, string) {
	s = strings.TrimLeft(s, " \t\r\n")
	if s == "" {
		return "", ""
	}
	name, rest := readName(s)
	if name == "" || !isLetter(name[0]) {
		return "", ""
	}
	j := len(s) - len(rest)
	tok := name
	// qualified user-defined type: public.mood
	for strings.HasPrefix(rest, ".") {
		n, r := readName(rest[1:])
		if n == "" {
			break
		}
		tok += "." + n
		rest = r
		j = len(s) - len(rest)
	}

	tail := func() {
		if cfg.TypeTail == nil {
			return
		}
		if loc := cfg.TypeTail.FindStringIndex(s[j:]); loc != nil && loc[0] == 0 {
			tok += s[j : j+loc[1]]
			j += loc[1]
		}
	}
	tail()

	k := j
	for k < len(s) && s[k] == ' ' {
		k++
	}
	if k < len(s) && (s[k] == '(' || (cfg.Angles && s[k] == '<')) {
		closer := byte(')')
		if s[k] == '<' {
			closer = '>'
		}
		if end, ok := scan.Balanced(s, k, s[k], closer); ok {
			tok += s[k : end+1]
			j = end + 1
			tail()
		}
	}
	for j < len(s) && s[j] == '[' {
		end := strings.IndexByte(s[j:], ']')
		if end < 0 {
			break
		}
		tok += s[j : j+end+1]
		j += end + 1
	}
	return strings.Join(strings.Fields(tok), " "), s[j:]
}

func isLetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || b == '_' || b >= 0x80
}

// readValue reads a DEFAULT value: a quoted literal without its quotes, a
// parenthesized expression, or a bare token with optional call arguments.
func readValue(s string) (string, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	if s == "" {
		return "", false
	}
	switch s[0] {
	case '\'', '"':
		q := s[0]
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			if s[i] == q {
				if i+1 < len(s) && s[i+1] == q {
					b.WriteByte(q)
					i++
					continue
				}
				return b.String(), true
			}
			b.WriteByte(s[i])
		}
		return b.String(), true
	case '(':
		if end, ok := scan.Balanced(s, 0, '(', ')'); ok {
			return s[:end+1], true
		}
		return "", false
	}
	i := 0
	for i < len(s) && s[i] != ' ' && s[i] != '\t' && s[i] != '\n' && s[i] != ',' && s[i] != '(' {
		i++
	}
	if i < len(s) && s[i] == '(' {
		if end, ok := scan.Balanced(s, i, '(', ')'); ok {
			i = end + 1
		}
	}
	if i == 0 {
		return "", false
	}
	return s[:i], true
}

// enumValues returns the labels of enum('a','b') or Enum8('a' = 1), or nil
// for any other type.
func enumValues(typ string) []string {
	if !strings.HasPrefix(strings.ToLower(typ), "enum") {
		return nil
	}
	open := strings.IndexByte(typ, '(')
	if open < 0 {
		return nil
	}
	end, ok := scan.Balanced(typ, open, '(', ')')
	if !ok || end == open+1 {
		return nil
	}
	var values []string
	for _, v := range scan.Split(typ[open+1:end], '(', ')') {
		v = enumValueRe.ReplaceAllString(v, "")
		if v, ok := unquoteLiteral(v); ok {
			values = append(values, v)
		}
	}
	return values
}

func unquoteLiteral(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		q := string(s[0])
		return strings.ReplaceAll(s[1:len(s)-1], q+q, q), true
	}
	if s == "" {
		return "", false
	}
	return s, true
}

// keyColumns lists the columns of a table-level PRIMARY KEY (...) clause,
// flattening Cassandra partition key groups.
func keyColumns(def string) []string {
	open := strings.IndexByte(def, '(')
	end, ok := scan.Balanced(def, open, '(', ')')
	if !ok {
		return nil
	}
	inner := strings.NewReplacer("(", "", ")", "").Replace(def[open+1 : end])
	var cols []string
	for _, c := range strings.Split(inner, ",") {
		c = sortOrder.ReplaceAllString(strings.TrimSpace(c), "")
		if c != "" {
			cols = append(cols, Unquote(c))
		}
	}
	return cols
}

func inlineIndex(def string) (schema.Index, bool) {
	m := inlineIdxRe.FindStringSubmatchIndex(def)
	end, ok := scan.Balanced(def, m[1]-1, '(', ')')
	if !ok {
		return schema.Index{}, false
	}
	return schema.Index{
		Name:    Unquote(def[m[4]:m[5]]),
		Columns: indexColumns(def[m[1]:end]),
		Unique:  m[2] >= 0,
	}, true
}
