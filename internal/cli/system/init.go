package system

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/plantmanager/internal/cli"
	"github.com/julianstephens/plantmanager/internal/constants"
)

type InitCmd struct {
	Force bool   `help:"Delete the existing SQLite database before initializing."`
	Name  string `help:"Your name, used to greet you."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	if c.Force {
		if ctx.Config.Store.Backend != constants.BackendSQLite {
			return fmt.Errorf("--force is only supported for the sqlite backend")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			for _, suffix := range []string{"-wal", "-shm"} {
				if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to delete %s: %w", dbPath+suffix, err)
				}
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(bg); err != nil {
		return err
	}
	ctx.Printf("Initialized %s storage at: %s\n", constants.AppName, ctx.Store.GetConfigPath())

	if c.Name != "" {
		if err := ctx.Users.Identify(bg, c.Name); err != nil {
			return err
		}
		ctx.Printf("Welcome, %s!\n", ctx.Session.UserName)
	}

	if _, err := os.Stat(ctx.Config.Path()); os.IsNotExist(err) {
		if err := ctx.Config.Save(); err != nil {
			return err
		}
		ctx.Printf("Wrote default config to: %s\n", ctx.Config.Path())
	}
	return nil
}
