package storage

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite.
type SQLiteDialect struct{}

func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

func (d *SQLiteDialect) DSN(config DialectConfig) string {
	return config.Path
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	return query
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)

	// WAL lets the CLI read while the MCP server writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		return err
	}
	return nil
}

func (d *SQLiteDialect) CreateTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS ` + snapshotTable + ` (
			snapshot_key TEXT PRIMARY KEY,
			snapshot_value BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
}

func (d *SQLiteDialect) UpsertQuery() string {
	return "INSERT INTO " + snapshotTable + " (snapshot_key, snapshot_value, updated_at) VALUES (?, ?, ?) " +
		"ON CONFLICT(snapshot_key) DO UPDATE SET snapshot_value = excluded.snapshot_value, updated_at = excluded.updated_at"
}
