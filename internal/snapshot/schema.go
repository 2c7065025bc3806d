package snapshot

import (
	"context"
	"database/sql"
)

const (
	// SQLite schema for storing snapshots
	createMetadataTable = `
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	createTableSchemasTable = `
		CREATE TABLE IF NOT EXISTS table_schemas (
			position INTEGER PRIMARY KEY,
			table_name TEXT NOT NULL,
			kind TEXT NOT NULL,
			schema_json TEXT NOT NULL
		);
	`

	createTableSchemasIndex = `
		CREATE INDEX IF NOT EXISTS idx_table_schemas_table_name
		ON table_schemas(table_name);
	`
)

// initializeSchema creates the necessary tables in the SQLite snapshot database
func initializeSchema(ctx context.Context, db *sql.DB) error {
	schemas := []string{
		createMetadataTable,
		createTableSchemasTable,
		createTableSchemasIndex,
	}

	for _, schema := range schemas {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return err
		}
	}

	return nil
}
