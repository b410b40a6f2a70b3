// Package storagetest holds the behaviour every storage.Provider must share.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/plantmanager/internal/storage"
)

// Run exercises p, which must already be initialized and empty.
func Run(t *testing.T, p storage.Provider) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := p.Get(ctx, "@test:missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, p.Set(ctx, "@test:a", "1"))
		v, ok, err := p.Get(ctx, "@test:a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "1", v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, p.Set(ctx, "@test:a", "2"))
		v, _, err := p.Get(ctx, "@test:a")
		require.NoError(t, err)
		assert.Equal(t, "2", v)
	})

	t.Run("empty value is present", func(t *testing.T) {
		require.NoError(t, p.Set(ctx, "@test:empty", ""))
		v, ok, err := p.Get(ctx, "@test:empty")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "", v)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		require.NoError(t, p.Remove(ctx, "@test:a"))
		require.NoError(t, p.Remove(ctx, "@test:a"))
		_, ok, err := p.Get(ctx, "@test:a")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("keys", func(t *testing.T) {
		require.NoError(t, p.Set(ctx, "@test:k1", "x"))
		require.NoError(t, p.Set(ctx, "@test:k2", "y"))
		keys, err := p.Keys(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, "@test:k1")
		assert.Contains(t, keys, "@test:k2")
		assert.NotContains(t, keys, "@test:a")
	})

	t.Run("concurrent writers to distinct keys", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := range 10 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- p.Set(ctx, fmt.Sprintf("@test:c%d", i), fmt.Sprint(i))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		for i := range 10 {
			v, ok, err := p.Get(ctx, fmt.Sprintf("@test:c%d", i))
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, fmt.Sprint(i), v)
		}
	})

	t.Run("update creates missing key", func(t *testing.T) {
		err := p.Update(ctx, "@test:u", func(old string, ok bool) (string, error) {
			assert.False(t, ok)
			assert.Empty(t, old)
			return "first", nil
		})
		require.NoError(t, err)
		v, ok, err := p.Get(ctx, "@test:u")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "first", v)
	})

	t.Run("update error leaves value alone", func(t *testing.T) {
		boom := errors.New("boom")
		err := p.Update(ctx, "@test:u", func(old string, ok bool) (string, error) {
			return "second", boom
		})
		assert.ErrorIs(t, err, boom)
		v, _, err := p.Get(ctx, "@test:u")
		require.NoError(t, err)
		assert.Equal(t, "first", v)
	})

	t.Run("concurrent updates do not lose writes", func(t *testing.T) {
		const workers = 8
		require.NoError(t, p.Set(ctx, "@test:counter", "0"))

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- p.Update(ctx, "@test:counter", func(old string, ok bool) (string, error) {
					n, err := strconv.Atoi(old)
					if err != nil {
						return "", err
					}
					return strconv.Itoa(n + 1), nil
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		v, _, err := p.Get(ctx, "@test:counter")
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(workers), v)
	})
}
