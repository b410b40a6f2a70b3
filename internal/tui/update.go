package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/models"
	"github.com/julianstephens/plantmanager/internal/tui/components/plants"
	"github.com/julianstephens/plantmanager/internal/tui/components/species"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case catalogMsg:
		m.speciesModel.SetLoading(false)
		if msg.err != nil {
			m.setError(msg.err)
		}
		m.syncCatalog()
		return m, nil

	case reminderMsg:
		if !msg.ok {
			return m, nil
		}
		m.remember(msg.event)
		m.reloadPlants()
		return m, waitForReminder(m.events)

	case tickMsg:
		return m, tea.Batch(m.dispatch(), tick(m.app.Config.Notifications.DispatchInterval))

	case dispatchedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		if len(msg.fired) > 0 {
			m.reloadPlants()
		}
		return m, nil

	case plants.RemovePlantMsg:
		m.target = target{ID: msg.ID, Name: msg.Name}
		m.previousState = m.state
		m.state = StateConfirmRemove
		return m, nil

	case plants.ReschedulePlantMsg:
		m.target = target{ID: msg.ID, Name: msg.Name}
		m.timeForm.Time = msg.Time
		m.form = newTimeForm(
			fmt.Sprintf("When should we remind you about your %s?", msg.Name),
			"Daily reminder time, 24-hour clock.",
			m.timeForm,
		)
		m.previousState = m.state
		m.state = StateReschedule
		return m, m.form.Init()

	case species.AdoptSpeciesMsg:
		m.adopting = msg.Species
		m.timeForm.Time = ""
		m.form = newTimeForm(
			fmt.Sprintf("Adopt %s", msg.Species.Name),
			fmt.Sprintf("Water %s. What time should we remind you?", msg.Species.Frequency),
			m.timeForm,
		)
		m.previousState = m.state
		m.state = StateAdopt
		return m, m.form.Init()

	case species.FilterMsg:
		m.browser.Filter(msg.Key)
		m.syncCatalog()
		return m, nil

	case species.LoadMoreMsg:
		m.speciesModel.SetLoading(true)
		return m, m.loadMore()
	}

	switch m.state {
	case StateOnboarding, StateAdopt, StateReschedule:
		return m.updateForm(msg)
	case StateConfirmRemove:
		return m.updateConfirmRemove(msg)
	}

	var cmd tea.Cmd
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.reloadPlants()
			m.speciesModel.SetLoading(true)
			return m, m.refreshCatalog()
		}
	}

	switch m.state {
	case StatePlants:
		m.plantsModel, cmd = m.plantsModel.Update(msg)
	case StateCatalog:
		m.speciesModel, cmd = m.speciesModel.Update(msg)
	}
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc && m.state != StateOnboarding {
		m.state = m.previousState
		m.form = nil
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		switch m.state {
		case StateOnboarding:
			m = m.completeOnboarding()
		case StateAdopt:
			m = m.completeAdopt()
		case StateReschedule:
			m = m.completeReschedule()
		}
	case huh.StateAborted:
		if m.state == StateOnboarding {
			m.quitting = true
			return m, tea.Quit
		}
		m.state = m.previousState
		m.form = nil
	}
	return m, tea.Batch(cmds...)
}

func (m Model) completeOnboarding() Model {
	name := strings.TrimSpace(m.nameForm.Name)
	if err := m.app.Users.Identify(m.bg, name); err != nil {
		// Stay in the form so the user can try again.
		m.setError(err)
		m.form.State = huh.StateNormal
		return m
	}
	m.greeting = name
	m.state = StatePlants
	m.form = nil
	m.setStatus(fmt.Sprintf("Welcome, %s!", name))
	return m
}

func (m Model) completeAdopt() Model {
	sp := m.adopting
	saved, err := m.app.Plants.Adopt(m.bg, sp, strings.TrimSpace(m.timeForm.Time))
	m.form = nil
	switch {
	case errors.Is(err, apperrors.ErrDuplicateID):
		m.state = StateCatalog
		m.setError(fmt.Errorf("you already have a %s", sp.Name))
		return m
	case err != nil:
		m.state = StateCatalog
		m.setError(err)
		return m
	}

	m.reloadPlants()
	m.state = StatePlants
	m.setStatus(fmt.Sprintf("🌱 Adopted %s, reminders at %s", saved.Name, saved.DateTimeNotification))
	return m
}

func (m Model) completeReschedule() Model {
	updated, err := m.app.Plants.Reschedule(m.bg, m.target.ID, strings.TrimSpace(m.timeForm.Time))
	m.form = nil
	m.state = StatePlants
	m.reloadPlants()
	if err != nil {
		m.setError(err)
		return m
	}
	m.setStatus(fmt.Sprintf("✓ %s will be watered at %s", updated.Name, updated.DateTimeNotification))
	return m
}

func (m Model) updateConfirmRemove(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, m.keys.Confirm):
		m.state = m.previousState
		if err := m.app.Plants.Remove(m.bg, m.target.ID); err != nil {
			m.setError(err)
			return m, nil
		}
		m.reloadPlants()
		m.setStatus(fmt.Sprintf("✓ Removed %s", m.target.Name))
	case key.Matches(k, m.keys.Cancel):
		m.state = m.previousState
	}
	return m, nil
}

// remember keeps the most recent reminders, newest first.
func (m *Model) remember(event models.Received) {
	recent := append([]models.Received{event}, m.recent...)
	if len(recent) > maxRecentReminders {
		recent = recent[:maxRecentReminders]
	}
	m.recent = recent
	m.setStatus(fmt.Sprintf("💧 Hey, time to water your %s", event.Payload.PlantName))
}
