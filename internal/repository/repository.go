// Package repository owns the saved-plant collection: uniqueness by id,
// insertion order on disk and next-trigger order on read.
package repository

import (
	"context"
	"sort"
	"time"

	"github.com/julianstephens/plantmanager/internal/constants"
	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/logger"
	"github.com/julianstephens/plantmanager/internal/models"
	"github.com/julianstephens/plantmanager/internal/storage"
	"github.com/julianstephens/plantmanager/internal/utils"
)

type Repository struct {
	store *storage.Local
}

func New(store *storage.Local) *Repository {
	return &Repository{store: store}
}

// Entry is a saved plant paired with its computed next reminder.
type Entry struct {
	Plant       models.SavedPlant
	NextTrigger time.Time
}

// mutate rewrites the collection with fn inside one store transaction.
func (r *Repository) mutate(ctx context.Context, fn func([]models.SavedPlant) ([]models.SavedPlant, error)) error {
	return storage.UpdateJSON(ctx, r.store, constants.PlantsKey, func(plants []models.SavedPlant) ([]models.SavedPlant, error) {
		next, err := fn(plants)
		if next == nil {
			next = []models.SavedPlant{}
		}
		return next, err
	})
}

// Save appends plant to the collection. It fails with ErrDuplicateID when
// a plant with the same id exists and ErrInvalidInput when the record is
// malformed.
func (r *Repository) Save(ctx context.Context, plant models.SavedPlant) (models.SavedPlant, error) {
	if err := plant.Validate(); err != nil {
		return models.SavedPlant{}, apperrors.InvalidInput("%v", err)
	}

	err := r.mutate(ctx, func(plants []models.SavedPlant) ([]models.SavedPlant, error) {
		if indexOf(plants, plant.ID) >= 0 {
			return nil, apperrors.DuplicateID(plant.ID)
		}
		return append(plants, plant), nil
	})
	if err != nil {
		return models.SavedPlant{}, err
	}

	logger.Debug("Saved plant", "id", plant.ID, "name", plant.Name)
	return plant, nil
}

// Get returns the plant with id or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (models.SavedPlant, error) {
	plants, err := r.store.GetAll(ctx)
	if err != nil {
		return models.SavedPlant{}, err
	}
	i := indexOf(plants, id)
	if i < 0 {
		return models.SavedPlant{}, apperrors.NotFound(id)
	}
	return plants[i], nil
}

// Exists reports whether a plant with id is saved.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	plants, err := r.store.GetAll(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(plants, id) >= 0, nil
}

// Update replaces the stored record with the same id, keeping its
// insertion position.
func (r *Repository) Update(ctx context.Context, plant models.SavedPlant) error {
	if err := plant.Validate(); err != nil {
		return apperrors.InvalidInput("%v", err)
	}

	return r.mutate(ctx, func(plants []models.SavedPlant) ([]models.SavedPlant, error) {
		i := indexOf(plants, plant.ID)
		if i < 0 {
			return nil, apperrors.NotFound(plant.ID)
		}
		plants[i] = plant
		return plants, nil
	})
}

// Remove deletes the plant with id or returns ErrNotFound.
func (r *Repository) Remove(ctx context.Context, id string) error {
	err := r.mutate(ctx, func(plants []models.SavedPlant) ([]models.SavedPlant, error) {
		i := indexOf(plants, id)
		if i < 0 {
			return nil, apperrors.NotFound(id)
		}
		return append(plants[:i], plants[i+1:]...), nil
	})
	if err != nil {
		return err
	}

	logger.Debug("Removed plant", "id", id)
	return nil
}

// LoadAll returns the saved plants ordered by next trigger relative to now,
// ties broken by insertion order. Stored data is never modified.
func (r *Repository) LoadAll(ctx context.Context, now time.Time) ([]models.SavedPlant, error) {
	entries, err := r.LoadEntries(ctx, now)
	if err != nil {
		return nil, err
	}
	plants := make([]models.SavedPlant, len(entries))
	for i, e := range entries {
		plants[i] = e.Plant
	}
	return plants, nil
}

// LoadEntries is LoadAll with the computed trigger attached to each plant.
// A record whose time of day cannot be parsed sorts last.
func (r *Repository) LoadEntries(ctx context.Context, now time.Time) ([]Entry, error) {
	plants, err := r.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(plants))
	for i, p := range plants {
		next, err := NextTrigger(p, now)
		if err != nil {
			logger.Warn("Saved plant has an unreadable notification time", "id", p.ID, "time", p.DateTimeNotification, "error", err)
		}
		entries[i] = Entry{Plant: p, NextTrigger: next}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].NextTrigger, entries[j].NextTrigger
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.Before(b)
	})
	return entries, nil
}

// NextTrigger is the next reminder instant for p at or after now.
func NextTrigger(p models.SavedPlant, now time.Time) (time.Time, error) {
	return utils.NextTrigger(p.DateTimeNotification, p.Frequency, now)
}

func indexOf(plants []models.SavedPlant, id string) int {
	for i := range plants {
		if plants[i].ID == id {
			return i
		}
	}
	return -1
}
