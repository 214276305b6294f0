package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
)

const fileSuffix = ".yaml"

// fileStore keeps one file per key under dir. Writes go to a temp file that
// is renamed into place, under an exclusive flock shared with every other
// process using the same directory.
type fileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a KVStore backed by files under dir, creating the
// directory if needed.
func NewFileStore(dir string) (KVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
	}
	return &fileStore{dir: dir}, nil
}

func (s *fileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileSuffix)
}

func (s *fileStore) Put(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock()
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	defer unlock()

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("storing %s: creating temp file: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storing %s: writing: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storing %s: closing: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storing %s: renaming: %w", key, err)
	}
	return nil
}

func (s *fileStore) Get(key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, true, nil
}

func (s *fileStore) Remove(key string) error {
	if err := checkKey(key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock()
	if err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	defer unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in sorted order.
func (s *fileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing store: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileSuffix))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *fileStore) Close() error { return nil }

// lock acquires an exclusive lock on the store's lock file.
func (s *fileStore) lock() (unlock func() error, err error) {
	f, err := os.OpenFile(filepath.Join(s.dir, ".lock"), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	// syscall.Flock is Unix-specific.
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
