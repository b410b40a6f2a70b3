package plants

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/plantmanager/internal/catalog"
	"github.com/julianstephens/plantmanager/internal/cli"
	"github.com/julianstephens/plantmanager/internal/constants"
	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/models"
)

type PlantCmd struct {
	Adopt      AdoptCmd      `cmd:"" help:"Adopt a plant from the catalog."`
	List       ListCmd       `cmd:"" help:"List your plants, next watering first."`
	Show       ShowCmd       `cmd:"" help:"Show one plant."`
	Remove     RemoveCmd     `cmd:"" help:"Remove a plant and its reminder."`
	Reschedule RescheduleCmd `cmd:"" help:"Change a plant's watering time."`
}

type AdoptCmd struct {
	SpeciesID string `arg:"" help:"Catalog species id."`
	At        string `help:"Daily watering time (HH:MM)." default:"09:00"`
}

func (c *AdoptCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if err := ctx.Load(bg); err != nil {
		return err
	}

	var (
		species models.PlantSpecies
		found   bool
	)
	err := cli.RetryCatalog(bg, func(rctx context.Context) error {
		var err error
		species, found, err = catalog.Find(rctx, ctx.Catalog, models.ID(c.SpeciesID), ctx.Config.Catalog.PageSize)
		return err
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("species %q is not in the catalog", c.SpeciesID)
	}

	plant, err := ctx.Plants.Adopt(bg, species, c.At)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrDuplicateID) {
			return fmt.Errorf("you already have a %s; use `%s plant reschedule %s` to change its time", species.Name, constants.AppName, species.ID)
		}
		return err
	}

	ctx.Printf("🌱 Adopted %s. You'll be reminded to water it at %s (%s).\n",
		plant.Name, plant.DateTimeNotification, plant.Frequency)
	return nil
}

type ListCmd struct{}

func (c *ListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if err := ctx.Load(bg); err != nil {
		return err
	}

	greeting, err := ctx.Users.Greeting(bg)
	if err != nil {
		return err
	}
	if greeting != "" {
		ctx.Printf("Hello, %s\n", greeting)
	}

	spotlight, err := ctx.Plants.Spotlight(bg)
	if err != nil {
		return err
	}
	ctx.Println(spotlight)

	entries, err := ctx.Plants.MyPlants(bg)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	now := ctx.Session.Now()
	ctx.Println()
	for _, e := range entries {
		next := "unscheduled"
		if !e.NextTrigger.IsZero() {
			next = strings.TrimSpace(humanize.RelTime(e.NextTrigger, now, "ago", "from now"))
		}
		ctx.Printf("  %-6s %-24s %s  %s\n", e.Plant.ID, e.Plant.Name, e.Plant.DateTimeNotification, next)
	}
	return nil
}

type ShowCmd struct {
	ID string `arg:"" help:"Plant id."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if err := ctx.Load(bg); err != nil {
		return err
	}

	p, err := ctx.Plants.Get(bg, c.ID)
	if err != nil {
		return err
	}

	ctx.Printf("%s (%s)\n", p.Name, p.ID)
	if p.About != "" {
		ctx.Printf("  %s\n", p.About)
	}
	if p.WaterTips != "" {
		ctx.Printf("  Tip: %s\n", p.WaterTips)
	}
	ctx.Printf("  Water %s at %s\n", p.Frequency, p.DateTimeNotification)
	if len(p.Environments) > 0 {
		ctx.Printf("  Environments: %s\n", strings.Join(p.Environments, ", "))
	}
	if !p.AdoptedAt.IsZero() {
		ctx.Printf("  Adopted %s\n", humanize.RelTime(p.AdoptedAt, ctx.Session.Now(), "ago", "from now"))
	}
	if p.HasReminder() {
		n, ok, err := ctx.Device.Lookup(bg, p.NotificationHandle)
		if err != nil {
			return err
		}
		if ok {
			ctx.Printf("  Next reminder: %s\n", n.NextFire().In(ctx.Session.Location).Format("Mon Jan 2 15:04"))
		}
	}
	return nil
}

type RemoveCmd struct {
	ID string `arg:"" help:"Plant id."`
}

func (c *RemoveCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if err := ctx.Load(bg); err != nil {
		return err
	}

	p, err := ctx.Plants.Get(bg, c.ID)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	if err := ctx.Plants.Remove(bg, c.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Removed %s\n", p.Name)
	return nil
}

type RescheduleCmd struct {
	ID string `arg:"" help:"Plant id."`
	At string `arg:"" help:"New daily watering time (HH:MM)."`
}

func (c *RescheduleCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if err := ctx.Load(bg); err != nil {
		return err
	}

	p, err := ctx.Plants.Reschedule(bg, c.ID, c.At)
	if err != nil {
		return err
	}
	ctx.Printf("✓ %s will now be watered at %s\n", p.Name, p.DateTimeNotification)
	return nil
}
