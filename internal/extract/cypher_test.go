package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/ddl2ts/internal/schema"
)

func TestCypher(t *testing.T) {
	src := `
CREATE (:Person {name: 'Tom', age: 30, score: 9.5, active: true});
CREATE (p:Person {name: "Ann", nickname: 'annie', age: '31'});
CREATE (a)-[:FRIENDS_WITH {since: 2020, tags: ['school', 'work']}]->(b);
CREATE ({x: null});
MATCH (a)-[{weight: 1.5}]->(b) RETURN a;
`
	tables := Cypher(src, nil)
	require.Len(t, tables, 4)

	person := tables[0]
	assert.Equal(t, "Person", person.Name)
	assert.Equal(t, schema.KindNode, person.Kind)
	require.Len(t, person.Columns, 5)

	name := person.Column("name")
	assert.Equal(t, CypherString, name.Type)
	assert.False(t, name.Nullable)

	age := person.Column("age")
	assert.Equal(t, "UNION(INTEGER, STRING)", age.Type)
	assert.False(t, age.Nullable)

	assert.True(t, person.Column("score").Nullable)
	assert.Equal(t, CypherFloat, person.Column("score").Type)
	assert.True(t, person.Column("nickname").Nullable)
	assert.Equal(t, 5, person.Column("nickname").Position)

	unnamed := tables[1]
	assert.Equal(t, UnnamedNode, unnamed.Name)
	assert.Equal(t, CypherNull, unnamed.Column("x").Type)
	assert.True(t, unnamed.Column("x").Nullable)

	friends := tables[2]
	assert.Equal(t, "FRIENDS_WITH", friends.Name)
	assert.Equal(t, schema.KindRelationship, friends.Kind)
	assert.Equal(t, CypherInteger, friends.Column("since").Type)
	assert.Equal(t, "LIST<STRING>", friends.Column("tags").Type)

	assert.Equal(t, UnnamedRelationship, tables[3].Name)
	assert.Equal(t, CypherFloat, tables[3].Column("weight").Type)
}

func TestCypherQuotedBraces(t *testing.T) {
	tables := Cypher(`CREATE (:Note {text: 'a } b', n: 1})`, nil)
	require.Len(t, tables, 1)
	require.Len(t, tables[0].Columns, 2)
	assert.Equal(t, CypherString, tables[0].Columns[0].Type)
	assert.Equal(t, CypherInteger, tables[0].Columns[1].Type)
}

func TestCypherUnbalanced(t *testing.T) {
	tables := Cypher(`CREATE (:Broken {a: 1`, nil)
	assert.Empty(t, tables)
}

func TestInferType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"'x'", CypherString},
		{`"x"`, CypherString},
		{"-42", CypherInteger},
		{"3.14", CypherFloat},
		{"1e3", CypherFloat},
		{"TRUE", CypherBoolean},
		{"null", CypherNull},
		{"{a: 1}", CypherMap},
		{"[]", "LIST<ANY>"},
		{"[1, 'a', null]", "LIST<UNION(INTEGER, STRING)>"},
		{"[[1], [2]]", "LIST<LIST<INTEGER>>"},
		{"date('2020-01-01')", "DATE"},
		{"$param", CypherAny},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, inferType(tt.in))
		})
	}
}

func TestCypherKeysAreCaseSensitive(t *testing.T) {
	tables := Cypher(`CREATE (:P {name: 'x', Name: 1})`, nil)
	require.Len(t, tables, 1)
	cols := tables[0].Columns
	require.Len(t, cols, 2)
	assert.Equal(t, "name", cols[0].Name)
	assert.Equal(t, CypherString, cols[0].Type)
	assert.Equal(t, "Name", cols[1].Name)
	assert.Equal(t, CypherInteger, cols[1].Type)
	assert.False(t, cols[1].Nullable)
}
