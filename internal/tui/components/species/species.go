// Package species renders a page-by-page view of the catalog with an
// environment filter row above the list.
package species

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/plantmanager/internal/models"
)

var (
	activeChipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("64")).
			Padding(0, 1)

	chipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

type Item struct {
	Species models.PlantSpecies
}

func (i Item) Title() string { return i.Species.Name }

func (i Item) Description() string {
	return fmt.Sprintf("%s · %s", i.Species.Frequency, strings.Join(i.Species.Environments, ", "))
}

func (i Item) FilterValue() string { return i.Species.Name }

type AdoptSpeciesMsg struct {
	Species models.PlantSpecies
}

// FilterMsg asks the owner to switch the browser to Key.
type FilterMsg struct {
	Key string
}

type LoadMoreMsg struct{}

type KeyMap struct {
	Adopt    key.Binding
	NextEnv  key.Binding
	PrevEnv  key.Binding
	LoadMore key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Adopt: key.NewBinding(
			key.WithKeys("enter", "a"),
			key.WithHelp("enter", "adopt"),
		),
		NextEnv: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next room"),
		),
		PrevEnv: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev room"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "load more"),
		),
	}
}

type Model struct {
	list         list.Model
	keys         KeyMap
	environments []models.Environment
	active       string
	hasMore      bool
	loading      bool
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Catalog"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.SetStatusBarItemName("species", "species")

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Adopt, keys.PrevEnv, keys.NextEnv, keys.LoadMore}
	}

	return Model{list: l, keys: keys}
}

// SetCatalog replaces the visible species and the filter row. The cursor
// stays where it was so appending a page does not jump back to the top.
func (m *Model) SetCatalog(species []models.PlantSpecies, envs []models.Environment, active string, hasMore bool) {
	idx := m.list.Index()
	items := make([]list.Item, len(species))
	for i, s := range species {
		items[i] = Item{Species: s}
	}
	m.list.SetItems(items)
	if idx < len(items) {
		m.list.Select(idx)
	}
	m.environments = envs
	m.active = active
	m.hasMore = hasMore
}

func (m *Model) SetLoading(loading bool) { m.loading = loading }

func (m Model) Len() int { return len(m.list.Items()) }

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height-2)
}

func (m Model) shiftFilter(delta int) string {
	if len(m.environments) == 0 {
		return m.active
	}
	cur := 0
	for i, env := range m.environments {
		if env.Key == m.active {
			cur = i
			break
		}
	}
	n := len(m.environments)
	return m.environments[((cur+delta)%n+n)%n].Key
}

func (m Model) atBottom() bool {
	return len(m.list.Items()) > 0 && m.list.Index() == len(m.list.Items())-1
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Adopt):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return AdoptSpeciesMsg{Species: i.Species} }
			}
			return m, nil
		case key.Matches(msg, m.keys.NextEnv):
			next := m.shiftFilter(1)
			return m, func() tea.Msg { return FilterMsg{Key: next} }
		case key.Matches(msg, m.keys.PrevEnv):
			prev := m.shiftFilter(-1)
			return m, func() tea.Msg { return FilterMsg{Key: prev} }
		case key.Matches(msg, m.keys.LoadMore):
			if m.hasMore && !m.loading {
				return m, func() tea.Msg { return LoadMoreMsg{} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	// Reaching the last row pulls the next page.
	if _, ok := msg.(tea.KeyMsg); ok && m.atBottom() && m.hasMore && !m.loading {
		return m, tea.Batch(cmd, func() tea.Msg { return LoadMoreMsg{} })
	}
	return m, cmd
}

func (m Model) viewFilters() string {
	chips := make([]string, 0, len(m.environments))
	for _, env := range m.environments {
		if env.Key == m.active {
			chips = append(chips, activeChipStyle.Render(env.Title))
		} else {
			chips = append(chips, chipStyle.Render(env.Title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func (m Model) View() string {
	footer := ""
	switch {
	case m.loading:
		footer = "Loading…"
	case m.hasMore:
		footer = "Press m for more species"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewFilters(),
		m.list.View(),
		footerStyle.Render(footer),
	)
}
