package plants

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/plantmanager/internal/backup"
	"github.com/julianstephens/plantmanager/internal/cli/clitest"
	apperrors "github.com/julianstephens/plantmanager/internal/errors"
)

func TestAdoptCmd(t *testing.T) {
	env := clitest.Setup(t).Init(t)

	require.NoError(t, (&AdoptCmd{SpeciesID: "9", At: "08:00"}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "Adopted Basil")

	p, err := env.Ctx.Plants.Get(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, "08:00", p.DateTimeNotification)
	assert.NotEmpty(t, p.NotificationHandle)
	assert.Equal(t, []string{"kitchen"}, p.Environments)
}

func TestAdoptCmd_Errors(t *testing.T) {
	env := clitest.Setup(t).Init(t)

	err := (&AdoptCmd{SpeciesID: "404", At: "08:00"}).Run(env.Ctx)
	assert.ErrorContains(t, err, "not in the catalog")

	err = (&AdoptCmd{SpeciesID: "9", At: "25:00"}).Run(env.Ctx)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	require.NoError(t, (&AdoptCmd{SpeciesID: "9", At: "08:00"}).Run(env.Ctx))
	err = (&AdoptCmd{SpeciesID: "9", At: "09:00"}).Run(env.Ctx)
	assert.ErrorContains(t, err, "already have a Basil")
}

func TestAdoptCmd_Uninitialized(t *testing.T) {
	env := clitest.Setup(t)
	err := (&AdoptCmd{SpeciesID: "9", At: "08:00"}).Run(env.Ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotInitialized)
}

func TestListCmd(t *testing.T) {
	env := clitest.Setup(t).Init(t)

	require.NoError(t, (&ListCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "You have no plants to water yet")

	require.NoError(t, env.Ctx.Users.Identify(context.Background(), "Ana"))
	require.NoError(t, (&AdoptCmd{SpeciesID: "9", At: "08:00"}).Run(env.Ctx))
	require.NoError(t, (&AdoptCmd{SpeciesID: "3", At: "13:00"}).Run(env.Ctx))
	env.Output()

	require.NoError(t, (&ListCmd{}).Run(env.Ctx))
	out := env.Output()
	assert.Contains(t, out, "Hello, Ana")
	// 13:00 today comes before 08:00 tomorrow.
	assert.Contains(t, out, "Water your Zamioculca in 3 hours")
	assert.Less(t, strings.Index(out, "Zamioculca"), strings.Index(out, "Basil"))
}

func TestShowCmd(t *testing.T) {
	env := clitest.Setup(t).Init(t)
	require.NoError(t, (&AdoptCmd{SpeciesID: "3", At: "13:00"}).Run(env.Ctx))
	env.Output()

	require.NoError(t, (&ShowCmd{ID: "3"}).Run(env.Ctx))
	out := env.Output()
	assert.Contains(t, out, "Zamioculca (3)")
	assert.Contains(t, out, "Tip: Let the soil dry out")
	assert.Contains(t, out, "Next reminder: Mon Mar 2 13:00")

	assert.ErrorIs(t, (&ShowCmd{ID: "77"}).Run(env.Ctx), apperrors.ErrNotFound)
}

func TestRemoveCmd(t *testing.T) {
	env := clitest.Setup(t).Init(t)
	require.NoError(t, (&AdoptCmd{SpeciesID: "9", At: "08:00"}).Run(env.Ctx))
	p, err := env.Ctx.Plants.Get(context.Background(), "9")
	require.NoError(t, err)

	require.NoError(t, (&RemoveCmd{ID: "9"}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "Removed Basil")

	_, ok, err := env.Ctx.Device.Lookup(context.Background(), p.NotificationHandle)
	require.NoError(t, err)
	assert.False(t, ok, "reminder should be cancelled")

	backups, err := backup.NewManager(env.DBPath).ListBackups()
	require.NoError(t, err)
	assert.Len(t, backups, 1, "remove takes an automatic backup")

	assert.ErrorIs(t, (&RemoveCmd{ID: "9"}).Run(env.Ctx), apperrors.ErrNotFound)
}

func TestRescheduleCmd(t *testing.T) {
	env := clitest.Setup(t).Init(t)
	require.NoError(t, (&AdoptCmd{SpeciesID: "9", At: "08:00"}).Run(env.Ctx))
	before, err := env.Ctx.Plants.Get(context.Background(), "9")
	require.NoError(t, err)

	require.NoError(t, (&RescheduleCmd{ID: "9", At: "18:30"}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "watered at 18:30")

	after, err := env.Ctx.Plants.Get(context.Background(), "9")
	require.NoError(t, err)
	assert.NotEqual(t, before.NotificationHandle, after.NotificationHandle)

	n, ok, err := env.Ctx.Device.Lookup(context.Background(), after.NotificationHandle)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC), n.NextFire().UTC())

	assert.ErrorIs(t, (&RescheduleCmd{ID: "9", At: "noon"}).Run(env.Ctx), apperrors.ErrInvalidInput)
}
