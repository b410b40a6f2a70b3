package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/models"
)

type fakeFetcher struct {
	mu      sync.Mutex
	species []models.PlantSpecies
	envs    []models.Environment
	calls   []int
	fail    error
	block   chan struct{}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, page, size int) ([]models.PlantSpecies, error) {
	f.mu.Lock()
	f.calls = append(f.calls, page)
	block, fail := f.block, f.fail
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if fail != nil {
		return nil, fail
	}
	start := (page - 1) * size
	if start >= len(f.species) {
		return nil, nil
	}
	end := start + size
	if end > len(f.species) {
		end = len(f.species)
	}
	return f.species[start:end], nil
}

func (f *fakeFetcher) FetchEnvironments(context.Context) ([]models.Environment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return append([]models.Environment{{Key: "all", Title: "All"}}, f.envs...), nil
}

func speciesList(n int) []models.PlantSpecies {
	out := make([]models.PlantSpecies, n)
	for i := range out {
		env := "bedroom"
		if i%2 == 0 {
			env = "kitchen"
		}
		out[i] = models.PlantSpecies{
			ID:           models.ID(string(rune('a' + i))),
			Name:         string(rune('A' + i)),
			Environments: []string{env},
			Frequency:    models.Frequency{Times: 1, RepeatEvery: models.RepeatDay},
		}
	}
	return out
}

func TestBrowser_RefreshAndLoadMore(t *testing.T) {
	f := &fakeFetcher{species: speciesList(10), envs: []models.Environment{{Key: "kitchen", Title: "Kitchen"}}}
	b := NewBrowser(f, 4)
	ctx := context.Background()

	require.NoError(t, b.Refresh(ctx))
	assert.Len(t, b.Species(), 4)
	assert.Len(t, b.Environments(), 2)
	assert.True(t, b.HasMore())
	assert.Equal(t, 1, b.Page())

	loaded, err := b.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Len(t, b.Species(), 8)

	loaded, err = b.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Len(t, b.Species(), 10)
	assert.False(t, b.HasMore())

	loaded, err = b.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, []int{1, 2, 3}, f.calls)
}

func TestBrowser_Filter(t *testing.T) {
	f := &fakeFetcher{species: speciesList(6)}
	b := NewBrowser(f, 10)
	require.NoError(t, b.Refresh(context.Background()))

	b.Filter("kitchen")
	assert.Equal(t, "kitchen", b.ActiveFilter())
	for _, s := range b.Species() {
		assert.True(t, s.HasEnvironment("kitchen"))
	}
	assert.Len(t, b.Species(), 3)

	b.Filter("")
	assert.Len(t, b.Species(), 6)
}

func TestBrowser_DedupesOverlappingPages(t *testing.T) {
	f := &fakeFetcher{species: speciesList(4)}
	b := NewBrowser(f, 2)
	require.NoError(t, b.Refresh(context.Background()))

	// Catalog shifted between fetches: page 2 now repeats an entry.
	f.mu.Lock()
	f.species = append([]models.PlantSpecies{f.species[0]}, f.species...)
	f.mu.Unlock()

	_, err := b.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Len(t, b.Species(), 3)
}

func TestBrowser_FailureKeepsState(t *testing.T) {
	f := &fakeFetcher{species: speciesList(8)}
	b := NewBrowser(f, 4)
	require.NoError(t, b.Refresh(context.Background()))

	f.mu.Lock()
	f.fail = apperrors.CatalogUnavailable("fetch_page", errors.New("boom"))
	f.mu.Unlock()

	_, err := b.LoadMore(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrCatalogUnavailable)
	assert.Len(t, b.Species(), 4)
	assert.Equal(t, 1, b.Page())

	f.mu.Lock()
	f.fail = nil
	f.mu.Unlock()

	loaded, err := b.LoadMore(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Len(t, b.Species(), 8)
}

func TestBrowser_LoadMoreWhileLoadingIsNoop(t *testing.T) {
	f := &fakeFetcher{species: speciesList(8)}
	b := NewBrowser(f, 4)
	require.NoError(t, b.Refresh(context.Background()))

	f.mu.Lock()
	f.block = make(chan struct{})
	block := f.block
	f.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = b.LoadMore(context.Background())
	}()

	assert.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.calls) == 2
	}, time.Second, 5*time.Millisecond)

	loaded, err := b.LoadMore(context.Background())
	require.NoError(t, err)
	assert.False(t, loaded)

	close(block)
	<-done
	assert.Len(t, b.Species(), 8)
}

func TestBrowser_RefreshSupersedesPendingLoadMore(t *testing.T) {
	f := &fakeFetcher{species: speciesList(8)}
	b := NewBrowser(f, 4)
	require.NoError(t, b.Refresh(context.Background()))

	f.mu.Lock()
	f.block = make(chan struct{})
	block := f.block
	f.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		loaded, err := b.LoadMore(context.Background())
		assert.NoError(t, err)
		assert.True(t, loaded)
	}()

	assert.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.calls) == 2
	}, time.Second, 5*time.Millisecond)

	// The catalog changes and the user refreshes while page 2 is in flight.
	fresh := speciesList(6)
	for i := range fresh {
		fresh[i].Name = "New " + fresh[i].Name
	}
	f.mu.Lock()
	f.block = nil
	f.species = fresh
	f.mu.Unlock()

	require.NoError(t, b.Refresh(context.Background()))

	close(block)
	<-done

	got := b.Species()
	require.Len(t, got, 4)
	for _, s := range got {
		assert.Contains(t, s.Name, "New ")
	}
	assert.Equal(t, 1, b.Page())
	assert.True(t, b.HasMore())

	loaded, err := b.LoadMore(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Len(t, b.Species(), 6)
	assert.Equal(t, 2, b.Page())
}

func TestNewBrowser_DefaultPageSize(t *testing.T) {
	b := NewBrowser(&fakeFetcher{}, 0)
	assert.Equal(t, 8, b.pageSize)
}

func TestFind(t *testing.T) {
	f := &fakeFetcher{species: speciesList(10)}

	s, ok, err := Find(context.Background(), f, "i", 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "I", s.Name)
	assert.Equal(t, []int{1, 2, 3}, f.calls)

	_, ok, err = Find(context.Background(), f, "zz", 4)
	require.NoError(t, err)
	assert.False(t, ok)
}
