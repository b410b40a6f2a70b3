package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/storage/storagetest"
)

func setupTestBadgerStore(t *testing.T) (*Store, func()) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "kv"))
	require.NoError(t, store.Init(context.Background()))
	return store, func() { store.Close() }
}

func TestBadgerConformance(t *testing.T) {
	store, cleanup := setupTestBadgerStore(t)
	defer cleanup()
	storagetest.Run(t, store)
}

func TestLoadBeforeInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, store.Load(context.Background()), apperrors.ErrNotInitialized)
}

func TestValuesSurviveReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "kv")

	store := NewStore(dir)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Set(ctx, "@plantmanager:plants", `[{"id":"1"}]`))
	require.NoError(t, store.Close())

	reopened := NewStore(dir)
	require.NoError(t, reopened.Load(ctx))
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "@plantmanager:plants")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, v)
}
