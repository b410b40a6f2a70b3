package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/plantmanager/internal/constants"
	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/models"
)

func setupTestLocal(t *testing.T) (*Local, *MemoryStore) {
	t.Helper()
	mem := NewMemoryStore()
	require.NoError(t, mem.Init(context.Background()))
	return NewLocal(mem), mem
}

func samplePlant(id, name string) models.SavedPlant {
	return models.SavedPlant{
		ID:                   id,
		Name:                 name,
		About:                "about " + name,
		WaterTips:            "tips",
		Photo:                "https://example.com/" + id + ".svg",
		Environments:         []string{"living_room"},
		Frequency:            models.Frequency{Times: 2, RepeatEvery: models.RepeatWeek},
		DateTimeNotification: "08:00",
		NotificationHandle:   "rem-abc",
		AdoptedAt:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestLocal_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	local, _ := setupTestLocal(t)

	_, ok, err := local.Get(ctx, constants.UserKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, local.Set(ctx, constants.UserKey, "Ana"))
	v, ok, err := local.Get(ctx, constants.UserKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Ana", v)

	require.NoError(t, local.Remove(ctx, constants.UserKey))
	require.NoError(t, local.Remove(ctx, constants.UserKey))
	_, ok, err = local.Get(ctx, constants.UserKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocal_GetAllEmpty(t *testing.T) {
	local, _ := setupTestLocal(t)
	plants, err := local.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, plants)
	assert.Empty(t, plants)
}

func TestLocal_SetAllPreservesOrderAndFields(t *testing.T) {
	ctx := context.Background()
	local, _ := setupTestLocal(t)

	in := []models.SavedPlant{samplePlant("3", "Zamioculca"), samplePlant("1", "Aningapara")}
	require.NoError(t, local.SetAll(ctx, in))

	out, err := local.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLocal_WriteFailureKeepsLastValue(t *testing.T) {
	ctx := context.Background()
	local, mem := setupTestLocal(t)

	first := []models.SavedPlant{samplePlant("1", "Aningapara")}
	require.NoError(t, local.SetAll(ctx, first))

	mem.FailWrites = errors.New("disk full")
	err := local.SetAll(ctx, append(first, samplePlant("2", "Peperomia")))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorageFailure)

	mem.FailWrites = nil
	out, err := local.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, out)
}

func TestLocal_ReadFailure(t *testing.T) {
	local, mem := setupTestLocal(t)
	mem.FailReads = errors.New("io error")

	_, err := local.GetAll(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrStorageFailure)
}

func TestLocal_CorruptValue(t *testing.T) {
	ctx := context.Background()
	local, _ := setupTestLocal(t)
	require.NoError(t, local.Set(ctx, constants.PlantsKey, "{not json"))

	_, err := local.GetAll(ctx)
	assert.ErrorIs(t, err, apperrors.ErrStorageFailure)
}

func TestLocal_NotInitialized(t *testing.T) {
	local := NewLocal(NewMemoryStore())
	_, _, err := local.Get(context.Background(), constants.UserKey)
	assert.ErrorIs(t, err, apperrors.ErrNotInitialized)
}

func TestLocal_UpdateErrors(t *testing.T) {
	ctx := context.Background()
	local, mem := setupTestLocal(t)

	err := local.Update(ctx, constants.UserKey, func(string, bool) (string, error) {
		return "", apperrors.ErrInvalidHandle
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidHandle)
	assert.NotErrorIs(t, err, apperrors.ErrStorageFailure)

	mem.FailWrites = errors.New("disk full")
	err = local.Update(ctx, constants.UserKey, func(string, bool) (string, error) {
		return "Ana", nil
	})
	assert.ErrorIs(t, err, apperrors.ErrStorageFailure)
}

func TestUpdateJSON(t *testing.T) {
	ctx := context.Background()
	local, _ := setupTestLocal(t)

	add := func(p models.SavedPlant) func([]models.SavedPlant) ([]models.SavedPlant, error) {
		return func(plants []models.SavedPlant) ([]models.SavedPlant, error) {
			return append(plants, p), nil
		}
	}
	require.NoError(t, UpdateJSON(ctx, local, constants.PlantsKey, add(samplePlant("1", "Fern"))))
	require.NoError(t, UpdateJSON(ctx, local, constants.PlantsKey, add(samplePlant("2", "Basil"))))

	plants, err := local.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, "Fern", plants[0].Name)
	assert.Equal(t, "Basil", plants[1].Name)
}
