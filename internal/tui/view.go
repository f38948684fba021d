package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/charlesinwald/mani/internal/journal"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateDiary:
		content = docStyle.Render(m.diary.View())
	case StateMemoirs:
		content = docStyle.Render(m.memoirs.View())
	case StateGoals:
		content = docStyle.Render(m.goals.View())
	case StateEntryForm, StateGoalForm, StateLogForm:
		content = m.form.View()
		if m.formError != "" {
			content = lipgloss.JoinVertical(lipgloss.Left, dangerStyle.Render(m.formError), content)
		}
		content = docStyle.Render(content)
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
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
	for i, title := range tabTitles {
		if m.tab == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	var s string
	switch m.status.State {
	case journal.SyncOK:
		s = savedStyle.Render("● saved") + statusStyle.Render(" "+m.status.At.Format("15:04:05"))
	case journal.SyncPending:
		s = pendingStyle.Render("○ saving…")
	case journal.SyncFailed:
		s = dangerStyle.Render("✗ save failed")
		if m.status.Err != nil && m.lastErr == nil {
			s += statusStyle.Render(" " + m.status.Err.Error())
		}
	default:
		s = statusStyle.Render("○ " + m.status.State.String())
	}
	if m.lastErr != nil {
		s += "  " + dangerStyle.Render(m.lastErr.Error())
	}
	return s
}

func (m Model) viewConfirmDelete() string {
	what := map[SessionState]string{StateDiary: "diary entry", StateMemoirs: "memoir", StateGoals: "goal"}[m.deleting.tab]
	return lipgloss.Place(m.width, max(m.height-4, 5),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %s %q?", what, m.deleting.label)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
