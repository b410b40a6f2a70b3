package storage

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/julianstephens/plantmanager/internal/errors"
)

// MemoryStore keeps everything in a map. It backs tests and dry runs.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	loaded bool

	// FailWrites, when set, is returned by Set and Remove without touching data.
	FailWrites error
	// FailReads, when set, is returned by Get and Keys.
	FailReads error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = true
	return nil
}

func (m *MemoryStore) Load(ctx context.Context) error {
	return m.Init(ctx)
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.loaded {
		return "", false, apperrors.ErrNotInitialized
	}
	if m.FailReads != nil {
		return "", false, m.FailReads
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return apperrors.ErrNotInitialized
	}
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return apperrors.ErrNotInitialized
	}
	if m.FailWrites != nil {
		return m.FailWrites
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.loaded {
		return nil, apperrors.ErrNotInitialized
	}
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return apperrors.ErrNotInitialized
	}
	if m.FailReads != nil {
		return m.FailReads
	}
	old, ok := m.data[key]
	next, err := fn(old, ok)
	if err != nil {
		return err
	}
	if ok && next == old {
		return nil
	}
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data[key] = next
	return nil
}

func (m *MemoryStore) GetConfigPath() string { return "memory" }
