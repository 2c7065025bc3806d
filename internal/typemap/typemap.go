// Package typemap translates native column type tokens into TypeScript
// type expressions.
//
// A Mapper is a per-dialect table: cosmetic suffixes to strip, composite
// wrappers to recurse into, and an ordered list of scalar rules. Mapping is
// pure and total; tokens nothing recognizes become the fallback type.
package typemap

import (
	"regexp"
	"slices"
	"strings"

	"github.com/koba/ddl2ts/internal/scan"
)

// Any is the opaque fallback type.
const Any = "any"

// Kind is the shape a composite wrapper produces.
type Kind int

const (
	Array       Kind = iota // T[]
	Map                     // Record<K, V> or { [key: K]: V }
	Tuple                   // [A, B]
	Record                  // { a: A; b: B }
	Nullable                // T | null
	Transparent             // T
	OneOf                   // A | B
)

// MapStyle selects how key/value maps render.
type MapStyle int

const (
	MapRecord MapStyle = iota // Record<K, V>
	MapIndex                  // { [key: K]: V }
)

// Wrapper recognizes a composite written as name<args> or name(args).
type Wrapper struct {
	Name  string // lower-case keyword
	Open  byte
	Close byte
	Kind  Kind
	// FieldSep separates a record field name from its type: ':' for
	// struct<a:int>, ' ' for row(a int).
	FieldSep byte
}

// Rule maps base tokens matching Pattern to Type.
type Rule struct {
	Pattern *regexp.Regexp
	Type    string
}

// R builds a Rule from a pattern. It panics on a bad pattern, so rule
// tables fail at init rather than at mapping time.
func R(pattern, ts string) Rule {
	return Rule{Pattern: regexp.MustCompile(pattern), Type: ts}
}

// Mapper is one dialect's type table.
type Mapper struct {
	// Strip removes cosmetic qualifiers such as "for bit data".
	Strip []*regexp.Regexp
	// Wrappers are tried in order before the scalar rules.
	Wrappers []Wrapper
	// ArraySuffix enables int[] and int[3] array syntax.
	ArraySuffix bool
	MapStyle    MapStyle
	// Rules are matched against the lower-cased token with its
	// arguments removed; the first match wins.
	Rules    []Rule
	Fallback string
}

// Map returns the TypeScript type for a raw token. Non-empty enum values
// always win and render as a literal union. Overrides are keyed by the
// lower-cased token and apply at every nesting level.
func (m *Mapper) Map(raw string, enum []string, overrides map[string]string) string {
	if len(enum) > 0 {
		return Union(enum)
	}
	return m.mapType(raw, overrides)
}

func (m *Mapper) mapType(raw string, overrides map[string]string) string {
	tok := strings.TrimSpace(raw)
	for _, re := range m.Strip {
		tok = strings.TrimSpace(re.ReplaceAllString(tok, ""))
	}
	if tok == "" {
		return m.fallback()
	}
	low := strings.ToLower(tok)
	if ts, ok := overrides[low]; ok {
		return ts
	}

	if m.ArraySuffix {
		if elem, ok := cutArraySuffix(tok); ok {
			return ArrayOf(m.mapType(elem, overrides))
		}
	}
	for _, w := range m.Wrappers {
		if inner, ok := w.match(tok, low); ok {
			return m.wrap(w, inner, overrides)
		}
	}

	base := baseName(low)
	for _, r := range m.Rules {
		if r.Pattern.MatchString(base) {
			return r.Type
		}
	}
	return m.fallback()
}

func (m *Mapper) fallback() string {
	if m.Fallback != "" {
		return m.Fallback
	}
	return Any
}

func (m *Mapper) wrap(w Wrapper, inner string, overrides map[string]string) string {
	switch w.Kind {
	case Array:
		if strings.TrimSpace(inner) == "" {
			return ArrayOf(Any)
		}
		return ArrayOf(m.mapType(inner, overrides))
	case Map:
		args := scan.Split(inner, w.Open, w.Close)
		if len(args) < 2 {
			return m.mapOf("string", Any)
		}
		return m.mapOf(m.mapType(args[0], overrides), m.mapType(args[1], overrides))
	case Tuple:
		args := scan.Split(inner, w.Open, w.Close)
		elems := make([]string, 0, len(args))
		for _, a := range args {
			elems = append(elems, m.tupleElem(a, overrides))
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case Record:
		return m.record(w, inner, overrides)
	case Nullable:
		return m.mapType(inner, overrides) + " | null"
	case OneOf:
		return m.oneOf(scan.Split(inner, w.Open, w.Close), overrides)
	default:
		return m.mapType(inner, overrides)
	}
}

func (m *Mapper) mapOf(k, v string) string {
	if m.MapStyle == MapIndex {
		return "{ [key: " + k + "]: " + v + " }"
	}
	return "Record<" + k + ", " + v + ">"
}

// oneOf maps each alternative and joins the distinct results.
func (m *Mapper) oneOf(alts []string, overrides map[string]string) string {
	var seen []string
	for _, a := range alts {
		ts := m.mapType(a, overrides)
		if !slices.Contains(seen, ts) {
			seen = append(seen, ts)
		}
	}
	if len(seen) == 0 {
		return m.fallback()
	}
	return strings.Join(seen, " | ")
}

// tupleElem maps a tuple element, which may carry a name in front of its
// type (Tuple(id UInt64, name String)).
func (m *Mapper) tupleElem(elem string, overrides map[string]string) string {
	ts := m.mapType(elem, overrides)
	if ts != m.fallback() {
		return ts
	}
	if _, rest, ok := strings.Cut(strings.TrimSpace(elem), " "); ok {
		return m.mapType(rest, overrides)
	}
	return ts
}

var fieldAttrs = regexp.MustCompile(`(?is)\s+(?:not\s+null|null|comment\s+.*|options\s*\(.*)$`)

func (m *Mapper) record(w Wrapper, inner string, overrides map[string]string) string {
	var fields []string
	for _, f := range scan.Split(inner, w.Open, w.Close) {
		var name, typ string
		var ok bool
		if w.FieldSep == ':' {
			name, typ, ok = strings.Cut(f, ":")
		} else {
			name, typ, ok = strings.Cut(f, " ")
		}
		name = strings.Trim(strings.TrimSpace(name), "`\"")
		if !ok || name == "" {
			continue
		}
		typ = fieldAttrs.ReplaceAllString(strings.TrimSpace(typ), "")
		fields = append(fields, name+": "+m.mapType(typ, overrides))
	}
	if len(fields) == 0 {
		return "Record<string, any>"
	}
	return "{ " + strings.Join(fields, "; ") + " }"
}

// match reports whether tok is this wrapper applied to some argument text
// and returns that text.
func (w Wrapper) match(tok, low string) (string, bool) {
	if !strings.HasPrefix(low, w.Name) {
		return "", false
	}
	open := len(w.Name)
	for open < len(tok) && tok[open] == ' ' {
		open++
	}
	if open >= len(tok) || tok[open] != w.Open {
		return "", false
	}
	end, ok := scan.Balanced(tok, open, w.Open, w.Close)
	if !ok || end != len(tok)-1 {
		return "", false
	}
	return tok[open+1 : end], true
}

// cutArraySuffix strips one trailing [] or [n] from tok.
func cutArraySuffix(tok string) (string, bool) {
	if !strings.HasSuffix(tok, "]") {
		return "", false
	}
	i := strings.LastIndexByte(tok, '[')
	if i <= 0 {
		return "", false
	}
	for _, c := range tok[i+1 : len(tok)-1] {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return strings.TrimSpace(tok[:i]), true
}

// baseName drops argument lists: varchar(255) -> varchar.
func baseName(low string) string {
	if i := strings.IndexAny(low, "(<["); i >= 0 {
		low = low[:i]
	}
	return strings.TrimSpace(low)
}

// ArrayOf renders an array of t, parenthesizing top-level unions.
func ArrayOf(t string) string {
	if topLevelUnion(t) {
		return "(" + t + ")[]"
	}
	return t + "[]"
}

func topLevelUnion(t string) bool {
	depth := 0
	for i := 0; i < len(t); i++ {
		switch t[i] {
		case '{', '[', '(', '<':
			depth++
		case '}', ']', ')', '>':
			depth--
		case '|':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// Union renders values as a union of string literals.
func Union(values []string) string {
	lits := make([]string, len(values))
	for i, v := range values {
		lits[i] = Quote(v)
	}
	return strings.Join(lits, " | ")
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// Quote renders s as a single-quoted TypeScript string literal.
func Quote(s string) string {
	return "'" + quoteEscaper.Replace(s) + "'"
}
