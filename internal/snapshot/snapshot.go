// Package snapshot stores extracted table descriptors in a SQLite file so a
// later run can diff declarations against them.
package snapshot

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	_ "modernc.org/sqlite"

	"github.com/koba/ddl2ts/internal/schema"
)

// Metadata describes where a snapshot came from.
type Metadata struct {
	ID        string
	Dialect   string
	Source    string // input path, or "-" for stdin
	Checksum  string // xxh3 of the source text
	CreatedAt time.Time
}

// Snapshot represents a stored schema
type Snapshot struct {
	Metadata Metadata
	Tables   []*schema.Table
}

// New builds a snapshot of tables extracted from text.
func New(dialect, source, text string, tables []*schema.Table) *Snapshot {
	return &Snapshot{
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Dialect:   dialect,
			Source:    source,
			Checksum:  Checksum(text),
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		},
		Tables: tables,
	}
}

// Checksum returns the hex xxh3 hash of text.
func Checksum(text string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(text))
}

// Table returns the stored table with the given name, or nil.
func (s *Snapshot) Table(name string) *schema.Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Save writes the snapshot to a new SQLite file, replacing any existing one
func Save(ctx context.Context, s *Snapshot, outputPath string) error {
	// Ensure output directory exists
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Remove existing snapshot file if it exists
	if _, err := os.Stat(outputPath); err == nil {
		if err := os.Remove(outputPath); err != nil {
			return fmt.Errorf("failed to remove existing snapshot: %w", err)
		}
	}

	db, err := sql.Open("sqlite", outputPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot database: %w", err)
	}
	defer db.Close()

	if err := initializeSchema(ctx, db); err != nil {
		return fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	metadata := map[string]string{
		"id":         s.Metadata.ID,
		"dialect":    s.Metadata.Dialect,
		"source":     s.Metadata.Source,
		"checksum":   s.Metadata.Checksum,
		"created_at": s.Metadata.CreatedAt.Format(time.RFC3339),
		"tables":     strconv.Itoa(len(s.Tables)),
	}
	for key, value := range metadata {
		if _, err := tx.ExecContext(ctx, "INSERT INTO metadata (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("failed to insert metadata: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO table_schemas (position, table_name, kind, schema_json) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, t := range s.Tables {
		schemaJSON, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, i, t.Name, string(t.Kind), string(schemaJSON)); err != nil {
			return fmt.Errorf("failed to insert schema for %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load loads a snapshot from a SQLite file
func Load(ctx context.Context, snapshotPath string) (*Snapshot, error) {
	if _, err := os.Stat(snapshotPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("snapshot file does not exist: %s", snapshotPath)
	}

	db, err := sql.Open("sqlite", snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	defer db.Close()

	meta, err := loadMetadata(ctx, db)
	if err != nil {
		return nil, err
	}
	s := &Snapshot{Tables: []*schema.Table{}}
	s.Metadata = Metadata{
		ID:       meta["id"],
		Dialect:  meta["dialect"],
		Source:   meta["source"],
		Checksum: meta["checksum"],
	}
	if v := meta["created_at"]; v != "" {
		created, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		s.Metadata.CreatedAt = created
	}

	rows, err := db.QueryContext(ctx, "SELECT schema_json FROM table_schemas ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query table schemas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schemaJSON string
		if err := rows.Scan(&schemaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan table schema: %w", err)
		}

		var t schema.Table
		if err := json.Unmarshal([]byte(schemaJSON), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
		}
		s.Tables = append(s.Tables, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table schemas: %w", err)
	}

	if n, err := strconv.Atoi(meta["tables"]); err == nil && n != len(s.Tables) {
		return nil, fmt.Errorf("snapshot is incomplete: expected %d tables, found %d", n, len(s.Tables))
	}
	return s, nil
}

func loadMetadata(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

var sqliteMagic = []byte("SQLite format 3\x00")

// IsSnapshot reports whether path is a SQLite file, judged by its header.
func IsSnapshot(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	return bytes.Equal(header, sqliteMagic)
}

// ErrNotSnapshot is returned by Open for files that are not snapshots.
var ErrNotSnapshot = errors.New("not a snapshot file")

// Open loads path when it is a snapshot and returns ErrNotSnapshot
// otherwise.
func Open(ctx context.Context, path string) (*Snapshot, error) {
	if !IsSnapshot(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotSnapshot)
	}
	return Load(ctx, path)
}
