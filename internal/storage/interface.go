package storage

import "context"

// UpdateFunc receives the current value of a key and returns its
// replacement. Returning the old value unchanged skips the write.
type UpdateFunc func(old string, ok bool) (string, error)

// Provider is a durable string key-value store. Writes are atomic per key;
// there are no cross-key transactions.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	// Update runs fn and writes its result in one transaction, so no other
	// writer (in this process or another) can interleave between the read
	// and the write. fn may be called more than once and must not touch the
	// store itself. An error from fn aborts the update and is returned as is.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Utils
	GetConfigPath() string
}

// Migrator is implemented by SQL-backed providers that track a schema
// version.
type Migrator interface {
	SchemaStatus(ctx context.Context) (current, latest int, err error)
}
