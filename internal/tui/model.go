// Package tui is the interactive plant list and catalog browser.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/plantmanager/internal/catalog"
	"github.com/julianstephens/plantmanager/internal/cli"
	"github.com/julianstephens/plantmanager/internal/logger"
	"github.com/julianstephens/plantmanager/internal/models"
	"github.com/julianstephens/plantmanager/internal/tui/components/plants"
	"github.com/julianstephens/plantmanager/internal/tui/components/species"
)

type SessionState int

const (
	StatePlants SessionState = iota
	StateCatalog
	StateOnboarding
	StateAdopt
	StateReschedule
	StateConfirmRemove
)

// tabCount is the number of states reachable with tab.
const tabCount = 2

const maxRecentReminders = 3

// target is the saved plant a form or confirmation acts on.
type target struct {
	ID   string
	Name string
}

type Model struct {
	bg  context.Context
	app *cli.Context

	state         SessionState
	previousState SessionState
	keys          KeyMap
	help          help.Model

	plantsModel  plants.Model
	speciesModel species.Model
	browser      *catalog.Browser

	form      *huh.Form
	nameForm  *NameFormModel
	timeForm  *TimeFormModel
	adopting  models.PlantSpecies
	target    target
	greeting  string
	spotlight string

	status    string
	statusErr bool
	recent    []models.Received

	events      <-chan models.Received
	unsubscribe func()

	quitting bool
	width    int
	height   int
}

// NewModel builds the TUI over an already loaded context. Close must be
// called once the program exits.
func NewModel(bg context.Context, app *cli.Context) Model {
	events, unsubscribe := app.Device.Subscribe()

	m := Model{
		bg:           bg,
		app:          app,
		state:        StatePlants,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		plantsModel:  plants.New(0, 0),
		speciesModel: species.New(0, 0),
		browser:      catalog.NewBrowser(app.Catalog, app.Config.Catalog.PageSize),
		nameForm:     &NameFormModel{},
		timeForm:     &TimeFormModel{},
		events:       events,
		unsubscribe:  unsubscribe,
	}

	greeting, err := app.Users.Greeting(bg)
	if err != nil {
		logger.Error("Failed to load user name", "error", err)
	}
	m.greeting = greeting
	if greeting == "" {
		m.state = StateOnboarding
		m.form = newNameForm(m.nameForm)
	}

	m.speciesModel.SetLoading(true)
	m.reloadPlants()
	return m
}

func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) ShortHelp() []key.Binding {
	switch m.state {
	case StateConfirmRemove:
		return []key.Binding{m.keys.Confirm, m.keys.Cancel}
	case StateOnboarding, StateAdopt, StateReschedule:
		return nil
	}
	return []key.Binding{m.keys.Tab, m.keys.Refresh, m.keys.Quit, m.keys.Help}
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Refresh}

	var actions []key.Binding
	switch m.state {
	case StatePlants:
		pk := plants.DefaultKeyMap()
		actions = []key.Binding{pk.Remove, pk.Reschedule}
	case StateCatalog:
		sk := species.DefaultKeyMap()
		actions = []key.Binding{sk.Adopt, sk.PrevEnv, sk.NextEnv, sk.LoadMore}
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refreshCatalog(), waitForReminder(m.events)}
	if m.app.Config.Notifications.Enabled {
		cmds = append(cmds, tick(m.app.Config.Notifications.DispatchInterval))
	}
	if m.form != nil {
		cmds = append(cmds, m.form.Init())
	}
	return tea.Batch(cmds...)
}

// reloadPlants refreshes the list, spotlight and greeting from the store.
func (m *Model) reloadPlants() {
	entries, err := m.app.Plants.MyPlants(m.bg)
	if err != nil {
		m.setError(err)
		return
	}
	m.plantsModel.SetEntries(entries, m.app.Session.Now())

	spotlight, err := m.app.Plants.Spotlight(m.bg)
	if err != nil {
		m.setError(err)
		return
	}
	m.spotlight = spotlight
}

// syncCatalog copies the browser state into the catalog view.
func (m *Model) syncCatalog() {
	m.speciesModel.SetCatalog(
		m.browser.Species(),
		m.browser.Environments(),
		m.browser.ActiveFilter(),
		m.browser.HasMore(),
	)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	logger.Error("TUI action failed", "error", err)
	m.status = err.Error()
	m.statusErr = true
}

func (m *Model) resize() {
	// Header, tabs, status and help take roughly eight rows.
	h := m.height - 8
	if h < 4 {
		h = 4
	}
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.plantsModel.SetSize(w, h-2)
	m.speciesModel.SetSize(w, h)
	m.help.Width = m.width
}

// now reads the session clock.
func (m Model) now() time.Time {
	return m.app.Session.Now()
}
