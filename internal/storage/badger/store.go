// Package badger is an embedded LSM key-value backend for installs that
// would rather not carry a SQL engine.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"

	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/storage"
)

var _ storage.Provider = (*Store)(nil)

type Store struct {
	dir string
	db  *badger.DB
}

// NewStore returns a store rooted at dir. Nothing is opened until Init or Load.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) open() error {
	opts := badger.DefaultOptions(s.dir)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open badger db: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return s.open()
}

func (s *Store) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if _, err := os.Stat(filepath.Join(s.dir, badger.ManifestFilename)); os.IsNotExist(err) {
		return apperrors.ErrNotInitialized
	}
	return s.open()
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if s.db == nil {
		return "", false, apperrors.ErrNotInitialized
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(value), true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if s.db == nil {
		return apperrors.ErrNotInitialized
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if s.db == nil {
		return apperrors.ErrNotInitialized
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// maxConflictRetries bounds how often Update replays fn after another
// transaction committed the same key first.
const maxConflictRetries = 10

// Update runs fn in a read-write transaction. Badger detects a concurrent
// commit to the key and fails with ErrConflict, in which case fn is replayed
// against the fresh value.
func (s *Store) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	if s.db == nil {
		return apperrors.ErrNotInitialized
	}
	for range maxConflictRetries {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			var old string
			ok := true
			item, err := txn.Get([]byte(key))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				ok = false
			case err != nil:
				return err
			default:
				v, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				old = string(v)
			}

			next, err := fn(old, ok)
			if err != nil {
				return err
			}
			if ok && next == old {
				return nil
			}
			return txn.Set([]byte(key), []byte(next))
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("update %s: %w", key, badger.ErrConflict)
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, apperrors.ErrNotInitialized
	}
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

func (s *Store) GetConfigPath() string {
	return s.dir
}
