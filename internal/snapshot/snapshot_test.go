package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/ddl2ts/internal/schema"
)

func sampleTables() []*schema.Table {
	def := "now()"
	return []*schema.Table{
		{
			Name:    "users",
			Kind:    schema.KindTable,
			Comment: "app users",
			Columns: []schema.Column{
				{Name: "id", Type: "INT", PrimaryKey: true, Position: 1},
				{Name: "created_at", Type: "DATETIME", DefaultValue: &def, Position: 2},
				{Name: "role", Type: "ENUM('a','b')", EnumValues: []string{"a", "b"}, Nullable: true, Position: 3},
			},
			Indexes: []schema.Index{{Name: "idx_role", Columns: []string{"role"}}},
		},
		{
			Name:    "Person",
			Kind:    schema.KindNode,
			Columns: []schema.Column{{Name: "name", Type: "STRING", Position: 1}},
		},
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "schema.db")
	text := "CREATE TABLE users (id INT PRIMARY KEY);"

	s := New("mysql", "schema.sql", text, sampleTables())
	require.NoError(t, Save(ctx, s, path))

	got, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, s.Metadata.ID, got.Metadata.ID)
	assert.Equal(t, "mysql", got.Metadata.Dialect)
	assert.Equal(t, "schema.sql", got.Metadata.Source)
	assert.Equal(t, Checksum(text), got.Metadata.Checksum)
	assert.True(t, s.Metadata.CreatedAt.Equal(got.Metadata.CreatedAt))
	assert.Equal(t, sampleTables(), got.Tables)

	require.NotNil(t, got.Table("Person"))
	assert.Equal(t, schema.KindNode, got.Table("Person").Kind)
	assert.Nil(t, got.Table("missing"))
}

func TestSaveReplaces(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "schema.db")

	require.NoError(t, Save(ctx, New("mysql", "a.sql", "a", sampleTables()), path))
	require.NoError(t, Save(ctx, New("sqlite", "b.sql", "b", sampleTables()[:1]), path))

	got, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", got.Metadata.Dialect)
	assert.Len(t, got.Tables, 1)
}

func TestSaveEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "empty.db")

	require.NoError(t, Save(ctx, New("hive", "-", "", nil), path))
	got, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, got.Tables)
	assert.Equal(t, "-", got.Metadata.Source)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
	assert.ErrorContains(t, err, "snapshot file does not exist")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	ddl := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(ddl, []byte("CREATE TABLE t (a INT);"), 0644))
	assert.False(t, IsSnapshot(ddl))
	_, err := Open(ctx, ddl)
	assert.True(t, errors.Is(err, ErrNotSnapshot))

	db := filepath.Join(dir, "schema.db")
	require.NoError(t, Save(ctx, New("mysql", ddl, "x", sampleTables()), db))
	assert.True(t, IsSnapshot(db))
	s, err := Open(ctx, db)
	require.NoError(t, err)
	assert.Len(t, s.Tables, 2)

	assert.False(t, IsSnapshot(filepath.Join(dir, "missing")))
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, Checksum("abc"), Checksum("abc"))
	assert.NotEqual(t, Checksum("abc"), Checksum("abd"))
	assert.Len(t, Checksum(""), 16)
}

func TestNewAssignsUniqueIDs(t *testing.T) {
	a := New("mysql", "-", "", nil)
	b := New("mysql", "-", "", nil)
	assert.NotEqual(t, a.Metadata.ID, b.Metadata.ID)
	assert.Len(t, a.Metadata.ID, 36)
}
