package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/ddl2ts/internal/dialect"
)

// resetFlags puts every flag of the tree back to its default so commands
// can be executed repeatedly in one process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "stringArray", "stringSlice":
		default:
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	typeMap, tables = nil, nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

const usersDDL = "CREATE TABLE users (id INT NOT NULL PRIMARY KEY, email VARCHAR(255));"

func TestGenerateToFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "schema.sql")
	outPath := filepath.Join(dir, "types", "db.d.ts")
	writeFile(t, input, usersDDL)

	out, err := execute(t, "", input, "-d", "mysql", "-o", outPath, "--singular")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+outPath)

	want, err := dialect.Generate("mysql", usersDDL, dialect.WithSingular(true))
	require.NoError(t, err)
	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
	assert.Contains(t, want, "interface User ")
}

func TestGenerateStdout(t *testing.T) {
	out, err := execute(t, usersDDL, "generate", "-", "-o", "-", "--namespace", "DB", "--type-map", "VARCHAR(255)=Email")
	require.NoError(t, err)

	want, err := dialect.Generate("mysql", usersDDL,
		dialect.WithNamespace("DB"),
		dialect.WithTypeOverrides(map[string]string{"varchar(255)": "Email"}))
	require.NoError(t, err)
	assert.Equal(t, want, out)
	assert.Contains(t, out, "Email")
}

func TestGenerateNoTables(t *testing.T) {
	out, err := execute(t, "SELECT 1;", "-", "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, "No table found in SQL input.\n", out)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unsupported dialect", args: []string{"-", "-d", "oracle"}, want: `unsupported dialect "oracle"`},
		{name: "bad type map", args: []string{"-", "--type-map", "int"}, want: `invalid --type-map "int"`},
		{name: "bad namespace", args: []string{"-", "--namespace", "a-b"}, want: `config error for "Namespace"`},
		{name: "missing file", args: []string{"/nonexistent/schema.sql"}, want: "failed to read input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, usersDDL, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestOutputPath(t *testing.T) {
	output = ""
	assert.Equal(t, "postgre.d.ts", outputPath("Postgre"))
	output = "x.d.ts"
	defer func() { output = "" }()
	assert.Equal(t, "x.d.ts", outputPath("mysql"))
}

func TestParseTypeMap(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{name: "none", pairs: nil, want: nil},
		{name: "lower-cases keys", pairs: []string{"UUID=string", " jsonb = Record<string, unknown> "}, want: map[string]string{"uuid": "string", "jsonb": "Record<string, unknown>"}},
		{name: "value with equals", pairs: []string{"t=a=b"}, want: map[string]string{"t": "a=b"}},
		{name: "missing value", pairs: []string{"int="}, wantErr: true},
		{name: "missing key", pairs: []string{"=number"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTypeMap(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshotAndDiff(t *testing.T) {
	dir := t.TempDir()
	oldSQL := filepath.Join(dir, "old.sql")
	newSQL := filepath.Join(dir, "new.sql")
	writeFile(t, oldSQL, "CREATE TABLE users (id serial PRIMARY KEY, name text);")
	writeFile(t, newSQL, "CREATE TABLE users (id serial PRIMARY KEY, name text NOT NULL, age integer);")

	out, err := execute(t, "", "snapshot", oldSQL, "-d", "postgres")
	require.NoError(t, err)
	snap := filepath.Join(dir, "old.db")
	assert.Contains(t, out, "Snapshot created successfully: "+snap+" (1 tables)")

	// The dialect comes from the snapshot.
	out, err = execute(t, "", "diff", snap, newSQL)
	require.NoError(t, err)
	assert.Contains(t, out, "=== Comparing postgre declarations ===")
	assert.Contains(t, out, "Table: users\n  Action: MODIFY\n")
	assert.Contains(t, out, "    - name: MODIFY (string? -> string)\n")
	assert.Contains(t, out, "    - age: ADD (number?)\n")

	out, err = execute(t, "", "diff", oldSQL, oldSQL, "-d", "postgres")
	require.NoError(t, err)
	assert.Contains(t, out, "No differences found.")
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.sql"), usersDDL)
	cfgPath := filepath.Join(dir, "ddl2ts.yaml")
	writeFile(t, cfgPath, "defaults:\n  outDir: types\njobs:\n  - input: app.sql\n")

	out, err := execute(t, "", "build", "-c", cfgPath, "--workers", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "written")
	assert.Contains(t, out, "Built 1 jobs: 1 written, 0 unchanged, 0 empty, 0 failed")
	assert.FileExists(t, filepath.Join(dir, "types", "app.d.ts"))

	out, err = execute(t, "", "build", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 unchanged")
}

func TestBuildMissingConfig(t *testing.T) {
	_, err := execute(t, "", "build", "-c", filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestIntrospectSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")
	writeFile(t, filepath.Join(dir, "schema.sql"), "CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);")
	_, err := execute(t, "", "snapshot", filepath.Join(dir, "schema.sql"), "-o", dbPath)
	require.NoError(t, err)

	// A snapshot is itself a SQLite file with metadata and table_schemas.
	out, err := execute(t, "", "introspect", "--type", "sqlite", "--dsn", dbPath, "--tables", "metadata", "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "interface Metadata")
	assert.Contains(t, out, "key: string")

	out, err = execute(t, "", "introspect", "--type", "sqlite", "--dsn", dbPath, "--tables", "metadata", "--ddl")
	require.NoError(t, err)
	assert.Contains(t, out, `CREATE TABLE "metadata"`)
}

func TestIntrospectRequiresType(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	_, err := execute(t, "", "introspect", "--dsn", "x.db")
	assert.ErrorContains(t, err, "database type is required")
}

func TestDialects(t *testing.T) {
	out, err := execute(t, "", "dialects")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(dialect.Names()))
	assert.Contains(t, lines, "mysql (aliases: mariadb)")
}
