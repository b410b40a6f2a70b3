package catalog

import (
	"context"
	"sync"

	"github.com/julianstephens/plantmanager/internal/constants"
	"github.com/julianstephens/plantmanager/internal/logger"
	"github.com/julianstephens/plantmanager/internal/models"
)

// Browser pages through the catalog the way the adoption screen does:
// one page at a time, accumulating species, with an environment filter
// applied on the loaded set.
type Browser struct {
	fetcher  Fetcher
	pageSize int

	mu           sync.Mutex
	generation   uint64
	page         int
	loading      bool
	hasMore      bool
	species      []models.PlantSpecies
	seen         map[models.ID]struct{}
	environments []models.Environment
	filter       string
}

func NewBrowser(fetcher Fetcher, pageSize int) *Browser {
	if pageSize < 1 {
		pageSize = constants.DefaultCatalogLimit
	}
	return &Browser{
		fetcher:  fetcher,
		pageSize: pageSize,
		hasMore:  true,
		seen:     make(map[models.ID]struct{}),
		filter:   constants.EnvironmentAllKey,
	}
}

// Refresh discards loaded state and fetches environments plus the first
// page. Results of a LoadMore started before the refresh are dropped.
func (b *Browser) Refresh(ctx context.Context) error {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	b.page = 0
	b.hasMore = true
	b.loading = true
	b.species = nil
	b.seen = make(map[models.ID]struct{})
	b.mu.Unlock()

	envs, err := b.fetcher.FetchEnvironments(ctx)
	if err != nil {
		b.finish(gen)
		return err
	}

	b.mu.Lock()
	if gen == b.generation {
		b.environments = envs
	}
	b.mu.Unlock()

	return b.load(ctx, gen, 1)
}

// LoadMore fetches the next page. It returns false without fetching when a
// load is already running or the last page came back short.
func (b *Browser) LoadMore(ctx context.Context) (bool, error) {
	b.mu.Lock()
	if b.loading || !b.hasMore {
		b.mu.Unlock()
		return false, nil
	}
	b.loading = true
	gen := b.generation
	next := b.page + 1
	b.mu.Unlock()

	if err := b.load(ctx, gen, next); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Browser) load(ctx context.Context, gen uint64, page int) error {
	batch, err := b.fetcher.FetchPage(ctx, page, b.pageSize)
	if err != nil {
		b.finish(gen)
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.generation {
		logger.Debug("Dropping stale catalog page", "page", page)
		return nil
	}
	b.loading = false
	b.page = page
	b.hasMore = len(batch) == b.pageSize
	for _, s := range batch {
		if _, dup := b.seen[s.ID]; dup {
			continue
		}
		b.seen[s.ID] = struct{}{}
		b.species = append(b.species, s)
	}
	return nil
}

func (b *Browser) finish(gen uint64) {
	b.mu.Lock()
	if gen == b.generation {
		b.loading = false
	}
	b.mu.Unlock()
}

// Filter selects the environment key used by Species. Empty means all.
func (b *Browser) Filter(key string) {
	if key == "" {
		key = constants.EnvironmentAllKey
	}
	b.mu.Lock()
	b.filter = key
	b.mu.Unlock()
}

func (b *Browser) ActiveFilter() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter
}

// Species returns the loaded species matching the active filter.
func (b *Browser) Species() []models.PlantSpecies {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.PlantSpecies, 0, len(b.species))
	for _, s := range b.species {
		if b.filter == constants.EnvironmentAllKey || s.HasEnvironment(b.filter) {
			out = append(out, s)
		}
	}
	return out
}

func (b *Browser) Environments() []models.Environment {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Environment, len(b.environments))
	copy(out, b.environments)
	return out
}

func (b *Browser) HasMore() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hasMore
}

// Page is the last page number loaded, 0 before the first fetch.
func (b *Browser) Page() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page
}

// Find pages through the catalog until it sees species id. It stops at the
// first short page.
func Find(ctx context.Context, f Fetcher, id models.ID, pageSize int) (models.PlantSpecies, bool, error) {
	if pageSize < 1 {
		pageSize = constants.DefaultCatalogLimit
	}
	for page := 1; ; page++ {
		batch, err := f.FetchPage(ctx, page, pageSize)
		if err != nil {
			return models.PlantSpecies{}, false, err
		}
		for _, s := range batch {
			if s.ID == id {
				return s, true, nil
			}
		}
		if len(batch) < pageSize {
			return models.PlantSpecies{}, false, nil
		}
	}
}
