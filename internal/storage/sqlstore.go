package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// sqlStore keeps snapshots in a single table, one row per key.
type sqlStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// OpenSQLStore connects with dialect, applies its connection settings and
// creates the snapshot table if it does not exist.
func OpenSQLStore(dialect Dialect, config DialectConfig) (KVStore, error) {
	db, err := sql.Open(dialect.DriverName(), dialect.DSN(config))
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", dialect.DriverName(), err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", dialect.DriverName(), err)
	}
	s, err := newSQLStore(db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newSQLStore(db *sql.DB, dialect Dialect) (*sqlStore, error) {
	if err := dialect.ConfigureConnection(db); err != nil {
		return nil, fmt.Errorf("configuring %s connection: %w", dialect.DriverName(), err)
	}
	if _, err := db.Exec(dialect.CreateTableQuery()); err != nil {
		return nil, fmt.Errorf("creating %s table: %w", snapshotTable, err)
	}
	return &sqlStore{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *sqlStore) Put(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	q := s.dialect.RewriteQuery(s.dialect.UpsertQuery())
	if _, err := s.db.Exec(q, key, value, s.now()); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

func (s *sqlStore) Get(key string) ([]byte, bool, error) {
	q := s.dialect.RewriteQuery("SELECT snapshot_value FROM " + snapshotTable + " WHERE snapshot_key = ?")
	var value []byte
	err := s.db.QueryRow(q, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

func (s *sqlStore) Remove(key string) error {
	q := s.dialect.RewriteQuery("DELETE FROM " + snapshotTable + " WHERE snapshot_key = ?")
	if _, err := s.db.Exec(q, key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

func (s *sqlStore) Keys() ([]string, error) {
	rows, err := s.db.Query("SELECT snapshot_key FROM " + snapshotTable + " ORDER BY snapshot_key")
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
