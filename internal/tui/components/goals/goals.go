// Package goals renders checklist goals for one horizon at a time.
package goals

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charlesinwald/mani/internal/models"
)

type AddGoalMsg struct {
	Type models.GoalType
}

type ToggleMsg struct {
	ID   string
	Flag models.LogType
}

type CompleteMsg struct {
	ID string
	// Completed is the state the goal should move to.
	Completed bool
}

type LogMsg struct {
	ID string
}

type DeleteGoalMsg struct {
	ID string
}

type Item struct {
	Goal models.ChecklistEntry
}

func (i Item) Title() string {
	if i.Goal.Completed {
		return "✓ " + i.Goal.Description
	}
	return "○ " + i.Goal.Description
}

func (i Item) Description() string {
	desc := Flags(i.Goal)
	if n := len(i.Goal.Logs); n == 1 {
		desc += " · 1 log"
	} else if n > 1 {
		desc += fmt.Sprintf(" · %d logs", n)
	}
	return desc
}

func (i Item) FilterValue() string { return i.Goal.Description }

// Flags renders the think/talk/act flags as e.g. "think ✓  talk ·  act ✓".
func Flags(g models.ChecklistEntry) string {
	mark := func(on bool) string {
		if on {
			return "✓"
		}
		return "·"
	}
	return strings.Join([]string{
		"think " + mark(g.ThinkAboutIt),
		"talk " + mark(g.TalkAboutIt),
		"act " + mark(g.ActOnIt),
	}, "  ")
}

type KeyMap struct {
	Add       key.Binding
	Think     key.Binding
	Talk      key.Binding
	Act       key.Binding
	Complete  key.Binding
	Log       key.Binding
	Delete    key.Binding
	NextType  key.Binding
	PrevType  key.Binding
	Completed key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Think: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "think"),
		),
		Talk: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "talk"),
		),
		Act: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "act"),
		),
		Complete: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "complete"),
		),
		Log: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "log progress"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		NextType: key.NewBinding(
			key.WithKeys("]", "right"),
			key.WithHelp("]", "next horizon"),
		),
		PrevType: key.NewBinding(
			key.WithKeys("[", "left"),
			key.WithHelp("[", "prev horizon"),
		),
		Completed: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "show completed"),
		),
	}
}

type Model struct {
	list          list.Model
	keys          KeyMap
	all           []models.ChecklistEntry
	typeIdx       int
	showCompleted bool
}

func New(entries []models.ChecklistEntry, width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetStatusBarItemName("goal", "goals")
	l.KeyMap.Quit.SetEnabled(false)
	// the horizon switcher owns left/right
	l.KeyMap.NextPage.SetKeys("pgdown", "f")
	l.KeyMap.PrevPage.SetKeys("pgup", "b")

	keys := DefaultKeyMap()
	actions := func() []key.Binding {
		return []key.Binding{keys.Add, keys.Think, keys.Talk, keys.Act, keys.Complete, keys.Log, keys.Delete, keys.PrevType, keys.NextType, keys.Completed}
	}
	l.AdditionalShortHelpKeys = actions
	l.AdditionalFullHelpKeys = actions

	m := Model{list: l, keys: keys}
	m.SetGoals(entries)
	return m
}

// Type is the horizon currently shown.
func (m Model) Type() models.GoalType {
	return models.GoalTypes[m.typeIdx]
}

func (m Model) ShowingCompleted() bool { return m.showCompleted }

func (m *Model) SetGoals(entries []models.ChecklistEntry) {
	m.all = entries
	m.refilter()
}

func (m *Model) refilter() {
	var items []list.Item
	for _, g := range m.all {
		if g.GoalType == m.Type() && g.Completed == m.showCompleted {
			items = append(items, Item{Goal: g})
		}
	}
	m.list.SetItems(items)
	if idx := m.list.Index(); idx >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
}

func (m Model) Selected() (models.ChecklistEntry, bool) {
	if i, ok := m.list.SelectedItem().(Item); ok {
		return i.Goal, true
	}
	return models.ChecklistEntry{}, false
}

// Filtering reports whether keystrokes are going to the filter input.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Add):
			t := m.Type()
			return m, func() tea.Msg { return AddGoalMsg{Type: t} }
		case key.Matches(msg, m.keys.NextType):
			m.typeIdx = (m.typeIdx + 1) % len(models.GoalTypes)
			m.list.ResetSelected()
			m.refilter()
			return m, nil
		case key.Matches(msg, m.keys.PrevType):
			m.typeIdx = (m.typeIdx + len(models.GoalTypes) - 1) % len(models.GoalTypes)
			m.list.ResetSelected()
			m.refilter()
			return m, nil
		case key.Matches(msg, m.keys.Completed):
			m.showCompleted = !m.showCompleted
			m.list.ResetSelected()
			m.refilter()
			return m, nil
		}

		g, ok := m.Selected()
		if !ok {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Think):
			return m, toggle(g.ID, models.LogThink)
		case key.Matches(msg, m.keys.Talk):
			return m, toggle(g.ID, models.LogTalk)
		case key.Matches(msg, m.keys.Act):
			return m, toggle(g.ID, models.LogAct)
		case key.Matches(msg, m.keys.Complete):
			return m, func() tea.Msg { return CompleteMsg{ID: g.ID, Completed: !g.Completed} }
		case key.Matches(msg, m.keys.Log):
			return m, func() tea.Msg { return LogMsg{ID: g.ID} }
		case key.Matches(msg, m.keys.Delete):
			return m, func() tea.Msg { return DeleteGoalMsg{ID: g.ID} }
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func toggle(id string, flag models.LogType) tea.Cmd {
	return func() tea.Msg { return ToggleMsg{ID: id, Flag: flag} }
}

func (m Model) header() string {
	var tabs []string
	for i, t := range models.GoalTypes {
		if i == m.typeIdx {
			tabs = append(tabs, "["+t.Label()+"]")
		} else {
			tabs = append(tabs, " "+t.Label()+" ")
		}
	}
	h := strings.Join(tabs, " ")
	if m.showCompleted {
		h += "  (completed)"
	}
	return h
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		what := "open"
		if m.showCompleted {
			what = "completed"
		}
		return fmt.Sprintf("%s\n\n  No %s %s goals.\n  Press 'a' to add one.", m.header(), what, strings.ToLower(m.Type().Label()))
	}
	return m.header() + "\n\n" + m.list.View()
}

func (m *Model) SetSize(width, height int) {
	// two lines for the horizon header
	m.list.SetSize(width, max(height-2, 0))
}
