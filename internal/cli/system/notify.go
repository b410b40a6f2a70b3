package system

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/julianstephens/plantmanager/internal/cli"
)

// NotifyCmd fires due reminders. It is meant to run from cron every minute,
// or as a long-lived process with --watch.
type NotifyCmd struct {
	DryRun bool `help:"List due reminders without sending them."`
	Watch  bool `help:"Keep running and dispatch on every interval."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if err := ctx.Load(bg); err != nil {
		return err
	}

	if !ctx.Config.Notifications.Enabled {
		if c.DryRun {
			ctx.Println("Notifications are disabled in config.")
		}
		return nil
	}

	now := ctx.Session.Now()

	if c.DryRun {
		pending, err := ctx.Device.Pending(bg)
		if err != nil {
			return err
		}
		due := 0
		for _, n := range pending {
			if n.NextFire().After(now) {
				continue
			}
			due++
			ctx.Printf("[DryRun] %s: water your %s (due %s)\n", n.Handle, n.Request.Payload.PlantName, n.NextFire().Format("2006-01-02 15:04"))
		}
		if due == 0 {
			ctx.Println("No reminders due.")
		}
		return nil
	}

	if c.Watch {
		runCtx, stop := signal.NotifyContext(bg, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx.Device.Run(runCtx, ctx.Config.Notifications.DispatchInterval)
		return nil
	}

	_, err := ctx.Device.Dispatch(bg, now)
	return err
}
