// Package plants renders the user's saved plants, soonest reminder first.
package plants

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/julianstephens/plantmanager/internal/repository"
)

type Item struct {
	Entry repository.Entry
	now   time.Time
}

func (i Item) Title() string { return i.Entry.Plant.Name }

func (i Item) Description() string {
	p := i.Entry.Plant
	desc := fmt.Sprintf("%s at %s", p.Frequency, p.DateTimeNotification)
	switch {
	case !p.HasReminder() || i.Entry.NextTrigger.IsZero():
		desc += " · no reminder"
	case i.Entry.NextTrigger.Sub(i.now) < time.Minute:
		desc += " · water now"
	default:
		desc += " · next " + strings.TrimSpace(humanize.RelTime(i.Entry.NextTrigger, i.now, "ago", "from now"))
	}
	return desc
}

func (i Item) FilterValue() string { return i.Entry.Plant.Name }

type RemovePlantMsg struct {
	ID   string
	Name string
}

type ReschedulePlantMsg struct {
	ID   string
	Name string
	Time string
}

type KeyMap struct {
	Remove     key.Binding
	Reschedule key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Remove: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "remove"),
		),
		Reschedule: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reschedule"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "My plants"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.SetStatusBarItemName("plant", "plants")

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Remove, keys.Reschedule}
	}

	return Model{list: l, keys: keys}
}

// SetEntries replaces the list contents. now anchors the relative times.
func (m *Model) SetEntries(entries []repository.Entry, now time.Time) {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Entry: e, now: now}
	}
	m.list.SetItems(items)
}

func (m Model) Len() int { return len(m.list.Items()) }

// Selected returns the highlighted entry.
func (m Model) Selected() (repository.Entry, bool) {
	i, ok := m.list.SelectedItem().(Item)
	if !ok {
		return repository.Entry{}, false
	}
	return i.Entry, true
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Remove):
			if e, ok := m.Selected(); ok {
				return m, func() tea.Msg { return RemovePlantMsg{ID: e.Plant.ID, Name: e.Plant.Name} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Reschedule):
			if e, ok := m.Selected(); ok {
				p := e.Plant
				return m, func() tea.Msg {
					return ReschedulePlantMsg{ID: p.ID, Name: p.Name, Time: p.DateTimeNotification}
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.list.View()
}
