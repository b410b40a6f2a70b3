package catalogs

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/julianstephens/plantmanager/internal/catalog/server"
	"github.com/julianstephens/plantmanager/internal/cli"
	"github.com/julianstephens/plantmanager/internal/logger"
	"github.com/julianstephens/plantmanager/internal/models"
)

type CatalogCmd struct {
	Plants       PlantsCmd       `cmd:"" help:"Browse catalog species."`
	Environments EnvironmentsCmd `cmd:"" help:"List environment tags."`
	Serve        ServeCmd        `cmd:"" help:"Serve a local development catalog."`
}

type PlantsCmd struct {
	Page        int    `help:"First page to show." default:"1"`
	Pages       int    `help:"Number of pages to load." default:"1"`
	Environment string `short:"e" help:"Only show species for this environment key." default:"all"`
}

func (c *PlantsCmd) Run(ctx *cli.Context) error {
	if c.Page < 1 || c.Pages < 1 {
		return fmt.Errorf("--page and --pages must be at least 1")
	}
	bg := context.Background()
	size := ctx.Config.Catalog.PageSize

	var species []models.PlantSpecies
	more := false
	for page := c.Page; page < c.Page+c.Pages; page++ {
		var batch []models.PlantSpecies
		err := cli.RetryCatalog(bg, func(rctx context.Context) error {
			var err error
			batch, err = ctx.Catalog.FetchPage(rctx, page, size)
			return err
		})
		if err != nil {
			return err
		}
		species = append(species, batch...)
		more = len(batch) == size
		if !more {
			break
		}
	}

	shown := 0
	for _, s := range species {
		if c.Environment != "all" && !s.HasEnvironment(c.Environment) {
			continue
		}
		shown++
		ctx.Printf("  %-4s %-24s %-22s %s\n", s.ID, s.Name, s.Frequency, strings.Join(s.Environments, ","))
	}
	if shown == 0 {
		ctx.Println("No species found.")
	}
	if more {
		ctx.Printf("\nMore species available: --page %d\n", c.Page+c.Pages)
	}
	return nil
}

type EnvironmentsCmd struct{}

func (c *EnvironmentsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	var envs []models.Environment
	err := cli.RetryCatalog(bg, func(rctx context.Context) error {
		var err error
		envs, err = ctx.Catalog.FetchEnvironments(rctx)
		return err
	})
	if err != nil {
		return err
	}
	for _, env := range envs {
		ctx.Printf("  %-14s %s\n", env.Key, env.Title)
	}
	return nil
}

type ServeCmd struct {
	Addr  string `help:"Listen address." default:"localhost:3333"`
	File  string `help:"Catalog JSON/JSONC file; the built-in data set is used when empty." type:"path"`
	Watch bool   `help:"Reload --file when it changes." default:"true" negatable:""`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *server.Server
	if c.File == "" {
		srv = server.New(server.SeedDataset())
	} else {
		var err error
		if srv, err = server.NewFromFile(c.File); err != nil {
			return err
		}
		if c.Watch {
			go func() {
				if err := srv.Watch(runCtx); err != nil {
					logger.Error("Catalog file watcher stopped", "error", err)
				}
			}()
		}
	}

	ds := srv.Dataset()
	ctx.Printf("Serving %d species and %d environments on http://%s\n", len(ds.Plants), len(ds.Environments), c.Addr)
	return srv.ListenAndServe(runCtx, c.Addr)
}

