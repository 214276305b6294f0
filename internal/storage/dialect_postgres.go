package storage

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL.
type PostgresDialect struct{}

func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(config DialectConfig) string {
	return config.URL
}

// RewriteQuery converts ? placeholders to $1, $2, etc.
func (d *PostgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)
	return nil
}

func (d *PostgresDialect) CreateTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS ` + snapshotTable + ` (
			snapshot_key TEXT PRIMARY KEY,
			snapshot_value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`
}

func (d *PostgresDialect) UpsertQuery() string {
	return "INSERT INTO " + snapshotTable + " (snapshot_key, snapshot_value, updated_at) VALUES (?, ?, ?) " +
		"ON CONFLICT (snapshot_key) DO UPDATE SET snapshot_value = EXCLUDED.snapshot_value, updated_at = EXCLUDED.updated_at"
}
