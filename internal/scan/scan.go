// Package scan splits comma separated argument lists and finds balanced
// delimiter blocks in DDL text without a grammar.
//
// Every function here is a single forward pass with a handful of depth
// counters, so cost stays linear in the input length no matter how deeply
// composite types are nested.
package scan

import "strings"

// Pair is an opening/closing delimiter pair tracked while splitting.
type Pair struct {
	Open  byte
	Close byte
}

// Common delimiter pairs.
var (
	Parens   = Pair{Open: '(', Close: ')'}
	Angles   = Pair{Open: '<', Close: '>'}
	Brackets = Pair{Open: '[', Close: ']'}
)

// Split splits s on commas that are not nested inside open/close.
// Elements are trimmed and a non-empty remainder is appended last.
// Unbalanced input never fails: the depth counter may go negative or
// never return to zero, and the scan simply completes.
func Split(s string, open, close byte) []string {
	return SplitList(s, Pair{Open: open, Close: close})
}

// SplitList is Split over several delimiter pairs at once. A comma splits
// only when every pair is at depth zero. Commas inside quoted text or a
// trailing -- comment never split.
//
// An angle bracket only opens when it directly follows an identifier
// character (array<, map<) and only closes an open one, so comparison
// operators inside CHECK clauses do not disturb the depth.
func SplitList(s string, pairs ...Pair) []string {
	var (
		parts []string
		depth = make([]int, len(pairs))
		start int
	)
	for i := 0; i < len(s); i++ {
		if end, ok := skip(s, i); ok {
			i = end
			continue
		}
		c := s[i]
		if c == ',' {
			if atTop(depth) {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
			continue
		}
		for k, p := range pairs {
			switch c {
			case p.Open:
				if c == '<' && !afterIdent(s, i) {
					continue
				}
				depth[k]++
			case p.Close:
				if c == '>' && depth[k] <= 0 {
					continue
				}
				depth[k]--
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

// Balanced returns the index of the delimiter closing the one at s[start].
// It reports false when s[start] is not open or the block never closes.
func Balanced(s string, start int, open, close byte) (int, bool) {
	if start < 0 || start >= len(s) || s[start] != open {
		return -1, false
	}
	depth := 0
	for i := start; i < len(s); i++ {
		if end, ok := skip(s, i); ok {
			i = end
			continue
		}
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return -1, false
}

// Index returns the index of the first c in s that is outside quoted
// text and comments, or -1.
func Index(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if end, ok := skip(s, i); ok {
			i = end
			continue
		}
		if s[i] == c {
			return i
		}
	}
	return -1
}

// Mask returns s with the contents of quoted strings and comments replaced
// by spaces. Offsets into the result are valid offsets into s.
func Mask(s string) string {
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		end, ok := skip(s, i)
		if !ok {
			continue
		}
		for j := i + 1; j < end; j++ {
			b[j] = ' '
		}
		if s[i] == '-' {
			b[i], b[i+1] = ' ', ' '
			if end < len(b) {
				b[end] = ' '
			}
		}
		i = end
	}
	return string(b)
}

// CutComment splits s at the first -- comment outside quoted text and
// returns the code before it and the trimmed comment text.
func CutComment(s string) (code, comment string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '-' && i+1 < len(s) && s[i+1] == '-' {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+2:])
		}
		if end, ok := skip(s, i); ok {
			i = end
		}
	}
	return strings.TrimSpace(s), ""
}

// skip reports whether s[i] starts a quoted string or a -- comment and
// returns the index of its last byte.
func skip(s string, i int) (int, bool) {
	switch c := s[i]; c {
	case '\'', '"', '`':
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case '\\':
				if c != '`' {
					j++
				}
			case c:
				// a doubled quote escapes itself: 'it''s'
				if j+1 < len(s) && s[j+1] == c {
					j++
					continue
				}
				return j, true
			}
		}
		return len(s) - 1, true
	case '-':
		if i+1 < len(s) && s[i+1] == '-' {
			if nl := strings.IndexByte(s[i:], '\n'); nl >= 0 {
				return i + nl - 1, true
			}
			return len(s) - 1, true
		}
	}
	return i, false
}

func atTop(depth []int) bool {
	for _, d := range depth {
		if d != 0 {
			return false
		}
	}
	return true
}

func afterIdent(s string, i int) bool {
	return i > 0 && IsIdent(s[i-1])
}

// IsIdent reports whether b can appear in an unquoted SQL identifier.
func IsIdent(b byte) bool {
	return b == '_' || b == '$' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9') ||
		b >= 0x80
}
