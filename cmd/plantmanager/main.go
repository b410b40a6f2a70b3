package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/plantmanager/internal/cli"
	"github.com/julianstephens/plantmanager/internal/cli/backups"
	"github.com/julianstephens/plantmanager/internal/cli/catalogs"
	"github.com/julianstephens/plantmanager/internal/cli/plants"
	"github.com/julianstephens/plantmanager/internal/cli/system"
	"github.com/julianstephens/plantmanager/internal/cli/users"
	"github.com/julianstephens/plantmanager/internal/config"
	"github.com/julianstephens/plantmanager/internal/constants"
	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path. Settings can also be overridden with PLANTMANAGER_* environment variables." type:"path" default:"${config_path}"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init    system.InitCmd      `cmd:"" help:"Initialize plantmanager storage."`
	Doctor  system.DoctorCmd    `cmd:"" help:"Run health checks and diagnostics."`
	Tui     system.TuiCmd       `cmd:"" help:"Launch the interactive TUI." default:"1"`
	User    users.UserCmd       `cmd:"" help:"Manage your display name."`
	Plant   plants.PlantCmd     `cmd:"" help:"Adopt and manage your plants."`
	Catalog catalogs.CatalogCmd `cmd:"" help:"Browse or serve the plant catalog."`
	Backup  backups.BackupCmd   `cmd:"" help:"Manage database backups."`
	Keyring system.KeyringCmd   `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Notify  system.NotifyCmd    `cmd:"" hidden:"" help:"Fire due reminders (used by cron)."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Plant watering reminders"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": config.DefaultPath(),
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		os.Exit(1)
	}
	if CLI.Debug {
		cfg.Debug = true
	}

	logCfg := logger.Config{
		Debug:     cfg.Debug,
		File:      cfg.LogPath(),
		Level:     cfg.Log.Level,
		JSON:      cfg.Log.Format == "json",
		MaxSizeMB: cfg.Log.MaxSizeMB,
	}
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	}

	store, err := cli.OpenStore(cfg)
	if err != nil {
		apperrors.Fatal(err)
	}

	appCtx, err := cli.NewContext(cfg, store, nil, nil)
	if err != nil {
		apperrors.Fatal(err)
	}

	err = ctx.Run(appCtx)
	if cerr := store.Close(); cerr != nil {
		logger.Warn("Failed to close store", "error", cerr)
	}
	apperrors.Fatal(err)
}
