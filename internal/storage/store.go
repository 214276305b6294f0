// Package storage provides the durable key-value backends the interview
// session is persisted to: YAML files on disk, SQL databases (SQLite,
// PostgreSQL, MySQL) and an in-memory store for tests and ephemeral runs.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yishu-dev/yishu/pkg/models"
)

// KVStore is a durable key-value store of opaque blobs. Get reports
// found=false for a missing key rather than an error.
type KVStore interface {
	Put(key string, value []byte) error
	Get(key string) (value []byte, found bool, err error)
	Remove(key string) error
	Keys() ([]string, error)
	Close() error
}

// validKey restricts keys to names that are safe as file names and column
// values on every backend.
var validKey = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]{0,127}$`)

func checkKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid key %q: must match %s", key, validKey.String())
	}
	return nil
}

// Open creates the backend selected by cfg. Relative paths are resolved
// against basePath.
func Open(cfg models.StorageConfig, basePath string) (KVStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "file", "":
		return NewFileStore(resolve(basePath, cfg.Path, "state"))
	case "memory":
		return NewMemStore(), nil
	case "sqlite", "sqlite3":
		path := resolve(basePath, cfg.Path, "yishu.db")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		return OpenSQLStore(NewSQLiteDialect(), DialectConfig{Path: path})
	case "postgres", "postgresql":
		return OpenSQLStore(NewPostgresDialect(), DialectConfig{URL: cfg.DSN})
	case "mysql":
		return OpenSQLStore(NewMySQLDialect(), DialectConfig{URL: cfg.DSN})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

func resolve(basePath, path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) || basePath == "" {
		return path
	}
	return filepath.Join(basePath, path)
}
