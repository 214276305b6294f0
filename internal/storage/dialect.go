package storage

import (
	"database/sql"
	"regexp"
	"strconv"
	"time"
)

// Dialect captures what differs between the SQL backends.
type Dialect interface {
	// DriverName returns the driver name for sql.Open.
	DriverName() string

	// DSN returns the data source name for the connection.
	DSN(config DialectConfig) string

	// RewriteQuery converts ? placeholders where the driver needs another syntax.
	RewriteQuery(query string) string

	// ConfigureConnection applies pool settings and per-connection pragmas.
	ConfigureConnection(db *sql.DB) error

	// CreateTableQuery returns the DDL for the snapshot table.
	CreateTableQuery() string

	// UpsertQuery returns an insert-or-replace for (key, value, updated_at).
	UpsertQuery() string
}

// DialectConfig holds connection settings. Path is used by SQLite, URL by
// PostgreSQL and MySQL.
type DialectConfig struct {
	Path string
	URL  string
}

const snapshotTable = "kv_snapshots"

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
}
