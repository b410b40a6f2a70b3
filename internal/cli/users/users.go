package users

import (
	"context"

	"github.com/julianstephens/plantmanager/internal/cli"
	"github.com/julianstephens/plantmanager/internal/constants"
)

type UserCmd struct {
	Set  SetCmd  `cmd:"" help:"Set your name."`
	Show ShowCmd `cmd:"" help:"Show your name."`
}

type SetCmd struct {
	Name string `arg:"" help:"How plantmanager should call you."`
}

func (c *SetCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if err := ctx.Load(bg); err != nil {
		return err
	}
	if err := ctx.Users.Identify(bg, c.Name); err != nil {
		return err
	}
	ctx.Printf("✓ Nice to meet you, %s\n", ctx.Session.UserName)
	return nil
}

type ShowCmd struct{}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if err := ctx.Load(bg); err != nil {
		return err
	}
	name, ok, err := ctx.Users.Name(bg)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Printf("No name set yet. Run `%s user set <name>`.\n", constants.AppName)
		return nil
	}
	ctx.Println(name)
	return nil
}
