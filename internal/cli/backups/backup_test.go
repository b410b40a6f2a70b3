package backups

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/plantmanager/internal/cli/clitest"
	"github.com/julianstephens/plantmanager/internal/constants"
	"github.com/julianstephens/plantmanager/internal/models"
)

func TestBackupCreateAndList(t *testing.T) {
	env := clitest.Setup(t).Init(t)

	require.NoError(t, (&ListCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "No backups found.")

	require.NoError(t, (&CreateCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "✓ Backup created:")

	require.NoError(t, (&ListCmd{}).Run(env.Ctx))
	out := env.Output()
	assert.Contains(t, out, "Available backups (1 total, keeping most recent 14)")
	assert.Contains(t, out, "plantmanager-")
}

func TestBackupRestore(t *testing.T) {
	env := clitest.Setup(t).Init(t)
	ctx := context.Background()

	species := models.PlantSpecies{ID: "1", Name: "Mint", Frequency: models.Frequency{Times: 1, RepeatEvery: models.RepeatDay}}
	_, err := env.Ctx.Plants.Adopt(ctx, species, "08:00")
	require.NoError(t, err)

	require.NoError(t, (&CreateCmd{}).Run(env.Ctx))
	created := strings.TrimSpace(strings.TrimPrefix(env.Output(), "✓ Backup created:"))

	require.NoError(t, env.Ctx.Plants.Remove(ctx, "1"))

	// Declining leaves the data alone.
	cmd := &RestoreCmd{BackupFile: filepath.Base(created), in: strings.NewReader("n\n")}
	require.NoError(t, cmd.Run(env.Ctx))
	assert.Contains(t, env.Output(), "Restore cancelled.")
	plants, err := env.Ctx.Local.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, plants)

	cmd = &RestoreCmd{BackupFile: filepath.Base(created), in: strings.NewReader("yes\n")}
	require.NoError(t, cmd.Run(env.Ctx))
	assert.Contains(t, env.Output(), "Database restored successfully")

	plants, err = env.Ctx.Local.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, plants, 1)
	assert.Equal(t, "Mint", plants[0].Name)
}

func TestBackup_OtherBackends(t *testing.T) {
	env := clitest.Setup(t)
	env.Config.Store.Backend = constants.BackendBadger
	assert.ErrorContains(t, (&CreateCmd{}).Run(env.Ctx), "only supported for the sqlite backend")
}
