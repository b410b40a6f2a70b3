package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/models"
	"github.com/julianstephens/plantmanager/internal/notifier"
	"github.com/julianstephens/plantmanager/internal/repository"
	"github.com/julianstephens/plantmanager/internal/scheduler"
	"github.com/julianstephens/plantmanager/internal/session"
	"github.com/julianstephens/plantmanager/internal/storage"
)

type captureSender struct{ msgs []notifier.Message }

func (s *captureSender) Send(_ context.Context, msg notifier.Message) error {
	s.msgs = append(s.msgs, msg)
	return nil
}

type testEnv struct {
	plants *PlantService
	users  *UserService
	device *notifier.Device
	mem    *storage.MemoryStore
	clock  *session.FakeClock
	sess   *session.Session
}

func setupTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Init(context.Background()))
	local := storage.NewLocal(mem)

	clock := session.NewFakeClock(now)
	sess := session.New("", time.UTC, clock)
	dev := notifier.NewDevice(local, &captureSender{})

	return &testEnv{
		plants: NewPlantService(repository.New(local), scheduler.New(dev, sess), sess),
		users:  NewUserService(local, sess),
		device: dev,
		mem:    mem,
		clock:  clock,
		sess:   sess,
	}
}

func species(id, name string, freq models.Frequency) models.PlantSpecies {
	return models.PlantSpecies{
		ID:           models.ID(id),
		Name:         name,
		About:        "Grows well in shade.",
		WaterTips:    "Keep the soil moist.",
		Photo:        "https://example.com/" + id + ".svg",
		Environments: []string{"living_room"},
		Frequency:    freq,
	}
}

var (
	daily  = models.Frequency{Times: 1, RepeatEvery: models.RepeatDay}
	weekly = models.Frequency{Times: 2, RepeatEvery: models.RepeatWeek}
)

func TestAdoptSchedulesAndSaves(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC))

	sp := species("1", "Aningapara", weekly)
	saved, err := env.plants.Adopt(ctx, sp, "08:00")
	require.NoError(t, err)

	assert.Equal(t, "1", saved.ID)
	assert.Equal(t, sp.Name, saved.Name)
	assert.Equal(t, sp.WaterTips, saved.WaterTips)
	assert.Equal(t, sp.Frequency, saved.Frequency)
	assert.Equal(t, "08:00", saved.DateTimeNotification)
	require.NotEmpty(t, saved.NotificationHandle)

	n, ok, err := env.device.Lookup(ctx, saved.NotificationHandle)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", n.Request.Payload.PlantID)
	assert.Equal(t, "Aningapara", n.Request.Payload.PlantName)
}

func TestAdoptCopiesSpecies(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC))

	sp := species("1", "Aningapara", daily)
	_, err := env.plants.Adopt(ctx, sp, "08:00")
	require.NoError(t, err)

	sp.Environments[0] = "mutated"
	got, err := env.plants.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"living_room"}, got.Environments)
}

func TestAdoptDuplicateLeavesNoExtraReminder(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC))

	_, err := env.plants.Adopt(ctx, species("1", "Aningapara", daily), "08:00")
	require.NoError(t, err)

	_, err = env.plants.Adopt(ctx, species("1", "Aningapara", daily), "09:00")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateID)

	pending, err := env.device.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestAdoptValidation(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, time.Now())

	_, err := env.plants.Adopt(ctx, species("1", "Aningapara", daily), "8am")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = env.plants.Adopt(ctx, species("", "Nameless", daily), "08:00")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRemoveCancelsReminder(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)
	env := setupTestEnv(t, now)

	saved, err := env.plants.Adopt(ctx, species("1", "Aningapara", daily), "08:00")
	require.NoError(t, err)
	_, err = env.plants.Adopt(ctx, species("2", "Peperomia", daily), "08:00")
	require.NoError(t, err)

	events, unsubscribe := env.device.Subscribe()
	defer unsubscribe()

	require.NoError(t, env.plants.Remove(ctx, "1"))

	entries, err := env.plants.MyPlants(ctx)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "1", e.Plant.ID)
	}

	_, ok, err := env.device.Lookup(ctx, saved.NotificationHandle)
	require.NoError(t, err)
	assert.False(t, ok)

	for day := 0; day < 3; day++ {
		_, err := env.device.Dispatch(ctx, now.Add(time.Hour).AddDate(0, 0, day))
		require.NoError(t, err)
	}
	unsubscribe()
	for ev := range events {
		assert.NotEqual(t, "1", ev.Payload.PlantID)
	}
}

func TestRemoveMissing(t *testing.T) {
	env := setupTestEnv(t, time.Now())
	assert.ErrorIs(t, env.plants.Remove(context.Background(), "404"), apperrors.ErrNotFound)
}

func TestRemoveFailsWhenCancelFails(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC))

	_, err := env.plants.Adopt(ctx, species("1", "Aningapara", daily), "08:00")
	require.NoError(t, err)

	env.mem.FailWrites = errors.New("disk full")
	err = env.plants.Remove(ctx, "1")
	assert.ErrorIs(t, err, apperrors.ErrStorageFailure)

	env.mem.FailWrites = nil
	_, err = env.plants.Get(ctx, "1")
	assert.NoError(t, err)
}

func TestRemoveToleratesMalformedHandle(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC))
	local := storage.NewLocal(env.mem)

	p := models.NewSavedPlant(species("1", "Aningapara", daily), "08:00", time.Now())
	p.NotificationHandle = "from-another-device"
	require.NoError(t, local.SetAll(ctx, []models.SavedPlant{p}))

	require.NoError(t, env.plants.Remove(ctx, "1"))
	all, err := local.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRescheduleUpdatesRecordAndReminder(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC))

	first, err := env.plants.Adopt(ctx, species("1", "Aningapara", daily), "08:00")
	require.NoError(t, err)

	_, err = env.plants.Reschedule(ctx, "1", "12:00")
	require.NoError(t, err)
	updated, err := env.plants.Reschedule(ctx, "1", "19:45")
	require.NoError(t, err)

	assert.Equal(t, "19:45", updated.DateTimeNotification)
	assert.NotEqual(t, first.NotificationHandle, updated.NotificationHandle)

	stored, err := env.plants.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, updated, stored)

	pending, err := env.device.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, updated.NotificationHandle, pending[0].Handle)
	assert.Equal(t, "19:45", pending[0].Request.Trigger.TimeOfDay)
}

// flakyDevice fails the next failures calls to Schedule.
type flakyDevice struct {
	*notifier.Device
	failures int
}

func (d *flakyDevice) Schedule(ctx context.Context, req models.NotificationRequest) (string, error) {
	if d.failures > 0 {
		d.failures--
		return "", errors.New("tray offline")
	}
	return d.Device.Schedule(ctx, req)
}

// failSchedules rebuilds env.plants on a device whose next n schedules fail.
func (env *testEnv) failSchedules(n int) {
	flaky := &flakyDevice{Device: env.device, failures: n}
	local := storage.NewLocal(env.mem)
	env.plants = NewPlantService(repository.New(local), scheduler.New(flaky, env.sess), env.sess)
}

func TestRescheduleFailureKeepsPreviousReminder(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC))

	first, err := env.plants.Adopt(ctx, species("1", "Aningapara", daily), "08:00")
	require.NoError(t, err)

	env.failSchedules(1)
	_, err = env.plants.Reschedule(ctx, "1", "12:00")
	require.Error(t, err)

	stored, err := env.plants.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "08:00", stored.DateTimeNotification)
	assert.NotEqual(t, first.NotificationHandle, stored.NotificationHandle)

	n, ok, err := env.device.Lookup(ctx, stored.NotificationHandle)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "08:00", n.Request.Trigger.TimeOfDay)

	_, ok, err = env.device.Lookup(ctx, first.NotificationHandle)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRescheduleFailureClearsDeadHandle(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC))

	_, err := env.plants.Adopt(ctx, species("1", "Aningapara", daily), "08:00")
	require.NoError(t, err)

	env.failSchedules(2)
	_, err = env.plants.Reschedule(ctx, "1", "12:00")
	require.Error(t, err)

	stored, err := env.plants.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, stored.HasReminder())
	assert.Equal(t, "08:00", stored.DateTimeNotification)

	pending, err := env.device.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMyPlantsOrder(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC))

	_, err := env.plants.Adopt(ctx, species("1", "Aningapara", daily), "08:00")
	require.NoError(t, err)
	_, err = env.plants.Adopt(ctx, species("2", "Peperomia", daily), "11:00")
	require.NoError(t, err)

	entries, err := env.plants.MyPlants(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2", entries[0].Plant.ID)
	assert.Equal(t, time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC), entries[0].NextTrigger)
	assert.Equal(t, time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC), entries[1].NextTrigger)
}

func TestSpotlight(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC))

	text, err := env.plants.Spotlight(ctx)
	require.NoError(t, err)
	assert.Equal(t, "You have no plants to water yet", text)

	_, err = env.plants.Adopt(ctx, species("1", "Peperomia", daily), "13:00")
	require.NoError(t, err)

	text, err = env.plants.Spotlight(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Water your Peperomia in 3 hours", text)

	env.clock.Set(time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC))
	text, err = env.plants.Spotlight(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Water your Peperomia now", text)
}

func TestUserIdentify(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, time.Now())

	name, err := env.users.Greeting(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", name)

	assert.ErrorIs(t, env.users.Identify(ctx, "   "), apperrors.ErrInvalidInput)

	require.NoError(t, env.users.Identify(ctx, "  Ana  "))
	name, ok, err := env.users.Name(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Ana", name)
	assert.Equal(t, "Ana", env.sess.UserName)

	require.NoError(t, env.users.Identify(ctx, "Bia"))
	name, err = env.users.Greeting(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bia", name)
}
