package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/plantmanager/internal/cli"
	"github.com/julianstephens/plantmanager/internal/models"
)

type catalogMsg struct {
	err error
}

type reminderMsg struct {
	event models.Received
	ok    bool
}

type tickMsg time.Time

type dispatchedMsg struct {
	fired []models.Received
	err   error
}

func (m Model) refreshCatalog() tea.Cmd {
	b, bg := m.browser, m.bg
	return func() tea.Msg {
		return catalogMsg{err: cli.RetryCatalog(bg, b.Refresh)}
	}
}

func (m Model) loadMore() tea.Cmd {
	b, bg := m.browser, m.bg
	return func() tea.Msg {
		err := cli.RetryCatalog(bg, func(ctx context.Context) error {
			_, err := b.LoadMore(ctx)
			return err
		})
		return catalogMsg{err: err}
	}
}

// waitForReminder blocks until the device fires. The model re-issues it
// after every event so the subscription keeps draining.
func waitForReminder(events <-chan models.Received) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		return reminderMsg{event: event, ok: ok}
	}
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) dispatch() tea.Cmd {
	device, bg, now := m.app.Device, m.bg, m.now()
	return func() tea.Msg {
		fired, err := device.Dispatch(bg, now)
		return dispatchedMsg{fired: fired, err: err}
	}
}
