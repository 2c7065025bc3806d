// Package naming converts qualified table names into TypeScript type names.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.Und)

// Normalize turns a dotted name into a single identifier. Each segment gets
// its first character upper-cased and every "_x" after it folded into "X";
// segments are joined without a separator.
//
//	schema.my_table_name -> SchemaMyTableName
//
// The result is not validated as a TypeScript identifier.
func Normalize(name string) string {
	segments := strings.Split(name, ".")
	var b strings.Builder
	b.Grow(len(name))
	for _, seg := range segments {
		b.WriteString(segment(seg))
	}
	return b.String()
}

// Singular normalizes name after singularizing its last segment:
// app.user_accounts -> AppUserAccount.
func Singular(name string) string {
	i := strings.LastIndexByte(name, '.')
	last := name[i+1:]
	if s := inflect.Singularize(last); s != "" {
		last = s
	}
	return Normalize(name[:i+1] + last)
}

func segment(s string) string {
	if s == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(s)
	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(upper.String(string(first)))

	rest := s[size:]
	for i := 0; i < len(rest); {
		r, n := utf8.DecodeRuneInString(rest[i:])
		if r == '_' && i+n < len(rest) {
			next, m := utf8.DecodeRuneInString(rest[i+n:])
			if unicode.IsLetter(next) {
				b.WriteString(upper.String(string(next)))
				i += n + m
				continue
			}
		}
		b.WriteRune(r)
		i += n
	}
	return b.String()
}
