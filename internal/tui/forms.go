package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/plantmanager/internal/utils"
)

type NameFormModel struct {
	Name string
}

type TimeFormModel struct {
	Time string
}

func newNameForm(fm *NameFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to plantmanager").
				Description("We'll remind you to water your plants."),
			huh.NewInput().
				Title("What should we call you?").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be blank")
					}
					return nil
				}),
		),
	)
}

func newTimeForm(title, description string, fm *TimeFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description(description).
				Placeholder("HH:MM").
				Value(&fm.Time).
				Validate(func(s string) error {
					if !utils.ValidateTimeFormat(strings.TrimSpace(s)) {
						return fmt.Errorf("use 24-hour HH:MM, e.g. 08:30")
					}
					return nil
				}),
		),
	)
}
