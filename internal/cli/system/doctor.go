package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/plantmanager/internal/backup"
	"github.com/julianstephens/plantmanager/internal/cli"
	"github.com/julianstephens/plantmanager/internal/constants"
	"github.com/julianstephens/plantmanager/internal/logger"
	"github.com/julianstephens/plantmanager/internal/storage"
	"github.com/julianstephens/plantmanager/internal/utils"
)

type DoctorCmd struct {
	SkipCatalog bool `help:"Skip the catalog reachability check."`
}

type check struct {
	name string
	// needsStore checks are skipped when the store cannot be opened.
	needsStore bool
	warnOnly   bool
	run        func(context.Context, *cli.Context) error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	ctx.Println("Running diagnostics...")
	if p := logger.Path(); p != "" {
		ctx.Printf("Log file: %s\n", p)
	}
	ctx.Println()

	checks := []check{
		{name: "Store reachable", run: checkStoreReachable},
		{name: "Schema version", needsStore: true, run: checkSchemaVersion},
		{name: "Plant records", needsStore: true, run: checkPlantRecords},
		{name: "Reminders", needsStore: true, run: checkReminders},
		{name: "Backups present", needsStore: true, warnOnly: true, run: checkBackupsPresent},
		{name: "Clock/timezone", run: checkClockTimezone},
	}
	if !cmd.SkipCatalog {
		checks = append(checks, check{name: "Catalog reachable", warnOnly: true, run: checkCatalog})
	}

	hasError := false
	storeOK := true
	for _, c := range checks {
		if c.needsStore && !storeOK {
			ctx.Printf("⊘ %s: SKIPPED (store not reachable)\n", c.name)
			continue
		}
		err := c.run(bg, ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			if c.name == "Store reachable" {
				storeOK = false
			}
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Some checks failed. Please review the errors above.")
		return fmt.Errorf("diagnostics failed")
	}
	ctx.Println("All checks passed!")
	return nil
}

func checkStoreReachable(bg context.Context, ctx *cli.Context) error {
	if err := ctx.Store.Load(bg); err != nil {
		return err
	}
	_, err := ctx.Local.Describe(bg)
	return err
}

func checkSchemaVersion(bg context.Context, ctx *cli.Context) error {
	m, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return nil
	}
	current, latest, err := m.SchemaStatus(bg)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported (%d); upgrade %s", current, latest, constants.AppName)
	}
	if current < latest {
		return fmt.Errorf("%d pending migration(s); run `%s init`", latest-current, constants.AppName)
	}
	return nil
}

func checkPlantRecords(bg context.Context, ctx *cli.Context) error {
	plants, err := ctx.Local.GetAll(bg)
	if err != nil {
		return err
	}
	var errs []error
	seen := make(map[string]bool, len(plants))
	for _, p := range plants {
		if seen[p.ID] {
			errs = append(errs, fmt.Errorf("duplicate plant id %s", p.ID))
		}
		seen[p.ID] = true
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("plant %s: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

// checkReminders flags plants whose reminder is no longer pending on the
// device.
func checkReminders(bg context.Context, ctx *cli.Context) error {
	plants, err := ctx.Local.GetAll(bg)
	if err != nil {
		return err
	}
	var errs []error
	for _, p := range plants {
		if !p.HasReminder() {
			continue
		}
		_, ok, err := ctx.Device.Lookup(bg, p.NotificationHandle)
		if err != nil {
			return err
		}
		if !ok {
			errs = append(errs, fmt.Errorf("plant %s has no pending reminder; run `%s plant reschedule %s %s`",
				p.ID, constants.AppName, p.ID, p.DateTimeNotification))
		}
	}
	return errors.Join(errs...)
}

func checkBackupsPresent(_ context.Context, ctx *cli.Context) error {
	if ctx.Config.Store.Backend != constants.BackendSQLite {
		return nil
	}
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s", mgr.BackupDir())
	}
	return nil
}

func checkClockTimezone(_ context.Context, ctx *cli.Context) error {
	if !utils.ValidateTimezone(ctx.Config.Timezone) {
		return fmt.Errorf("invalid timezone %q", ctx.Config.Timezone)
	}
	now := ctx.Session.Now()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkCatalog(bg context.Context, ctx *cli.Context) error {
	reqCtx, cancel := context.WithTimeout(bg, ctx.Config.Catalog.Timeout)
	defer cancel()
	_, err := ctx.Catalog.FetchEnvironments(reqCtx)
	return err
}
