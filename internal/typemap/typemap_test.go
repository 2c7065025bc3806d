package typemap

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testMapper() *Mapper {
	return &Mapper{
		Strip: []*regexp.Regexp{regexp.MustCompile(`(?i)\s+for\s+bit\s+data$`)},
		Wrappers: []Wrapper{
			{Name: "nullable", Open: '(', Close: ')', Kind: Nullable},
			{Name: "lowcardinality", Open: '(', Close: ')', Kind: Transparent},
			{Name: "array", Open: '<', Close: '>', Kind: Array},
			{Name: "map", Open: '<', Close: '>', Kind: Map},
			{Name: "struct", Open: '<', Close: '>', Kind: Record, FieldSep: ':'},
			{Name: "row", Open: '(', Close: ')', Kind: Record, FieldSep: ' '},
			{Name: "tuple", Open: '(', Close: ')', Kind: Tuple},
		},
		ArraySuffix: true,
		Rules: []Rule{
			R(`^(tiny|small|big)?int(eger)?$`, "number"),
			R(`^(decimal|numeric|double)`, "number"),
			R(`^(var)?char|^string$|^text$`, "string"),
			R(`^bool`, "boolean"),
		},
	}
}

func TestMapScalars(t *testing.T) {
	m := testMapper()
	tests := []struct {
		raw  string
		want string
	}{
		{"INT", "number"},
		{"integer", "number"},
		{"DECIMAL(10, 2)", "number"},
		{"VARCHAR(255)", "string"},
		{"varchar(20) FOR BIT DATA", "string"},
		{"BOOLEAN", "boolean"},
		{"geometry", "any"},
		{"", "any"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.raw, nil, nil))
		})
	}
}

func TestMapComposites(t *testing.T) {
	m := testMapper()
	tests := []struct {
		raw  string
		want string
	}{
		{"array<array<int>>", "number[][]"},
		{"ARRAY<STRING>", "string[]"},
		{"map<string, array<int>>", "Record<string, number[]>"},
		{"map<string>", "Record<string, any>"},
		{"struct<Name:string, tags:array<string>>", "{ Name: string; tags: string[] }"},
		{"row(id bigint, label varchar NOT NULL)", "{ id: number; label: string }"},
		{"tuple(int, string)", "[number, string]"},
		{"tuple(id int, name string)", "[number, string]"},
		{"Nullable(String)", "string | null"},
		{"array<nullable(int)>", "(number | null)[]"},
		{"LowCardinality(Nullable(String))", "string | null"},
		{"int[]", "number[]"},
		{"text[][]", "string[][]"},
		{"int[3]", "number[]"},
		{"array<int", "any"},
		{"struct<>", "Record<string, any>"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.raw, nil, nil))
		})
	}
}

func TestMapEnumPrecedence(t *testing.T) {
	m := testMapper()
	assert.Equal(t, "'a' | 'b'", m.Map("varchar(10)", []string{"a", "b"}, nil))
	assert.Equal(t, `'it\'s'`, m.Map("int", []string{"it's"}, nil))
	assert.Equal(t, "number", m.Map("int", []string{}, nil))
}

func TestMapOverrides(t *testing.T) {
	m := testMapper()
	overrides := map[string]string{"geometry": "GeoJSON", "money": "string"}
	assert.Equal(t, "GeoJSON", m.Map("GEOMETRY", nil, overrides))
	assert.Equal(t, "string[]", m.Map("array<money>", nil, overrides))
}

func TestMapIndexStyle(t *testing.T) {
	m := testMapper()
	m.MapStyle = MapIndex
	assert.Equal(t, "{ [key: string]: number }", m.Map("map<text, int>", nil, nil))
}

func TestMapPure(t *testing.T) {
	m := testMapper()
	raw := "map<string, struct<a:array<int>, b:tuple(int, string)>>"
	assert.Equal(t, m.Map(raw, nil, nil), m.Map(raw, nil, nil))
}

func TestFallback(t *testing.T) {
	m := &Mapper{Fallback: "unknown"}
	assert.Equal(t, "unknown", m.Map("whatever", nil, nil))
}

func TestArrayOf(t *testing.T) {
	assert.Equal(t, "string[]", ArrayOf("string"))
	assert.Equal(t, "('a' | 'b')[]", ArrayOf("'a' | 'b'"))
	assert.Equal(t, "{ a: string | null }[]", ArrayOf("{ a: string | null }"))
}

func TestMapOneOf(t *testing.T) {
	m := &Mapper{
		Wrappers: []Wrapper{
			{Name: "list", Open: '<', Close: '>', Kind: Array},
			{Name: "union", Open: '(', Close: ')', Kind: OneOf},
		},
		Rules: []Rule{
			R(`^(integer|float)$`, "number"),
			R(`^string$`, "string"),
		},
	}
	assert.Equal(t, "string | number", m.Map("UNION(STRING, INTEGER)", nil, nil))
	assert.Equal(t, "number", m.Map("UNION(INTEGER, FLOAT)", nil, nil))
	assert.Equal(t, "(string | number)[]", m.Map("LIST<UNION(STRING, INTEGER)>", nil, nil))
}
