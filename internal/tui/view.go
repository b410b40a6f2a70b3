package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StatePlants:
		content = m.viewPlants()
	case StateCatalog:
		content = docStyle.Render(m.speciesModel.View())
	case StateOnboarding, StateAdopt, StateReschedule:
		content = docStyle.Render(m.form.View())
	case StateConfirmRemove:
		content = m.viewConfirmRemove()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"My plants", "Catalog"} {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewPlants() string {
	header := greetingStyle.Render(fmt.Sprintf("Hello, %s", m.greeting))
	spotlight := spotlightStyle.Render(m.spotlight)

	body := m.plantsModel.View()
	if m.plantsModel.Len() == 0 {
		body = warningStyle.Render("Press tab to find a plant in the catalog.")
	}
	rows := []string{header, spotlight}
	for _, r := range m.recent {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("💧 %s at %s", r.Payload.PlantName, r.FiredAt.Format("15:04"))))
	}
	rows = append(rows, "", body)
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) viewConfirmRemove() string {
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Remove your %s?", m.target.Name)),
			"Its reminder will be cancelled.",
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return dangerStyle.Render("✗ " + m.status)
	}
	return statusStyle.Render(m.status)
}
