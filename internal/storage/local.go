package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/plantmanager/internal/constants"
	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/models"
)

// Local is the application's view of a Provider. Every failure it returns
// matches errors.Is(err, ErrStorageFailure) or ErrNotInitialized.
type Local struct {
	p Provider
}

func NewLocal(p Provider) *Local {
	return &Local{p: p}
}

// Get returns the raw value under key and whether it exists.
func (l *Local) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := l.p.Get(ctx, key)
	if err != nil {
		return "", false, apperrors.StorageFailure("get "+key, err)
	}
	return v, ok, nil
}

func (l *Local) Set(ctx context.Context, key, value string) error {
	return apperrors.StorageFailure("set "+key, l.p.Set(ctx, key, value))
}

func (l *Local) Remove(ctx context.Context, key string) error {
	return apperrors.StorageFailure("remove "+key, l.p.Remove(ctx, key))
}

// Update applies fn to key atomically. Errors returned by fn come back
// untouched; backend failures are wrapped as ErrStorageFailure.
func (l *Local) Update(ctx context.Context, key string, fn UpdateFunc) error {
	var fnErr error
	err := l.p.Update(ctx, key, func(old string, ok bool) (string, error) {
		next, err := fn(old, ok)
		fnErr = err
		return next, err
	})
	if fnErr != nil {
		return fnErr
	}
	return apperrors.StorageFailure("update "+key, err)
}

// UpdateJSON decodes the value under key into a T, lets fn modify it and
// writes it back, all inside one Update. An absent key yields the zero T.
func UpdateJSON[T any](ctx context.Context, l *Local, key string, fn func(v T) (T, error)) error {
	return l.Update(ctx, key, func(old string, ok bool) (string, error) {
		var v T
		if ok && old != "" {
			if err := json.Unmarshal([]byte(old), &v); err != nil {
				return "", apperrors.StorageFailure("decode "+key, err)
			}
		}
		next, err := fn(v)
		if err != nil {
			return "", err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return "", apperrors.StorageFailure("encode "+key, err)
		}
		return string(data), nil
	})
}

// GetJSON decodes the value under key into dst. It reports false when the
// key is absent and leaves dst untouched.
func (l *Local) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := l.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, apperrors.StorageFailure("decode "+key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key in a single write.
func (l *Local) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.StorageFailure("encode "+key, err)
	}
	return l.Set(ctx, key, string(data))
}

// GetAll returns the saved plants in insertion order.
func (l *Local) GetAll(ctx context.Context) ([]models.SavedPlant, error) {
	var plants []models.SavedPlant
	if _, err := l.GetJSON(ctx, constants.PlantsKey, &plants); err != nil {
		return nil, err
	}
	if plants == nil {
		plants = []models.SavedPlant{}
	}
	return plants, nil
}

// SetAll replaces the whole plant collection.
func (l *Local) SetAll(ctx context.Context, plants []models.SavedPlant) error {
	if plants == nil {
		plants = []models.SavedPlant{}
	}
	return l.SetJSON(ctx, constants.PlantsKey, plants)
}

// Describe returns a short human readable summary used by doctor.
func (l *Local) Describe(ctx context.Context) (string, error) {
	keys, err := l.p.Keys(ctx)
	if err != nil {
		return "", apperrors.StorageFailure("keys", err)
	}
	return fmt.Sprintf("%s (%d keys)", l.p.GetConfigPath(), len(keys)), nil
}
