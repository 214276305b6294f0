package storage

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL.
type MySQLDialect struct{}

func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

func (d *MySQLDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)
	return nil
}

func (d *MySQLDialect) CreateTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS ` + snapshotTable + ` (
			snapshot_key VARCHAR(128) PRIMARY KEY,
			snapshot_value LONGBLOB NOT NULL,
			updated_at DATETIME(6) NOT NULL
		);
	`
}

func (d *MySQLDialect) UpsertQuery() string {
	return "INSERT INTO " + snapshotTable + " (snapshot_key, snapshot_value, updated_at) VALUES (?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE snapshot_value = VALUES(snapshot_value), updated_at = VALUES(updated_at)"
}
