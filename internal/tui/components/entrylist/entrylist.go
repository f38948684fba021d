// Package entrylist renders dated journal entries (diary or memoirs) as a
// selectable list.
package entrylist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charlesinwald/mani/internal/models"
)

type AddEntryMsg struct{}

type EditEntryMsg struct {
	ID string
}

type DeleteEntryMsg struct {
	ID string
}

var moodFaces = map[int]string{1: "😞", 2: "🙁", 3: "😐", 4: "🙂", 5: "😄"}

type Item struct {
	Entry models.Entry
}

func (i Item) Title() string {
	face := moodFaces[i.Entry.Mood]
	if face == "" {
		face = "·"
	}
	return fmt.Sprintf("%s %s", face, i.Entry.Date)
}

func (i Item) Description() string {
	var parts []string
	if s := i.Entry.Summary(60); s != "" {
		parts = append(parts, s)
	} else {
		parts = append(parts, "(empty)")
	}
	if i.Entry.Weather != "" && i.Entry.Weather != models.UnknownWeather {
		parts = append(parts, i.Entry.Weather)
	}
	return strings.Join(parts, " · ")
}

func (i Item) FilterValue() string { return i.Entry.Date + " " + i.Entry.Description }

type KeyMap struct {
	Add    key.Binding
	Edit   key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
	noun string
}

// New builds a list titled by the plural noun, e.g. "diary entries".
func New(noun string, entries []models.Entry, width, height int) Model {
	l := list.New(items(entries), list.NewDefaultDelegate(), width, height)
	l.Title = noun
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetStatusBarItemName("entry", "entries")
	l.KeyMap.Quit.SetEnabled(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Edit, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Edit, keys.Delete}
	}

	return Model{list: l, keys: keys, noun: noun}
}

func items(entries []models.Entry) []list.Item {
	out := make([]list.Item, len(entries))
	for i, e := range entries {
		out[i] = Item{Entry: e}
	}
	return out
}

// SetEntries replaces the list contents, keeping the cursor where it was
// when possible.
func (m *Model) SetEntries(entries []models.Entry) {
	m.list.SetItems(items(entries))
	if idx := m.list.Index(); idx >= len(entries) && len(entries) > 0 {
		m.list.Select(len(entries) - 1)
	}
}

func (m Model) Selected() (models.Entry, bool) {
	if i, ok := m.list.SelectedItem().(Item); ok {
		return i.Entry, true
	}
	return models.Entry{}, false
}

func (m Model) Keys() KeyMap { return m.keys }

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
			return m, func() tea.Msg { return AddEntryMsg{} }
		case key.Matches(msg, m.keys.Edit):
			if e, ok := m.Selected(); ok {
				return m, func() tea.Msg { return EditEntryMsg{ID: e.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if e, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteEntryMsg{ID: e.ID} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return fmt.Sprintf("\n  No %s yet.\n  Press 'a' to add one.", m.noun)
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
