// Package tui is the interactive journal: Diary, Memoirs and Goals tabs
// over a journal.Store, redrawn whenever the store reports a change.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/charlesinwald/mani/internal/journal"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/tui/components/entrylist"
	"github.com/charlesinwald/mani/internal/tui/components/goals"
)

type SessionState int

// The first three states are the tabs, in display order.
const (
	StateDiary SessionState = iota
	StateMemoirs
	StateGoals
	StateEntryForm
	StateGoalForm
	StateLogForm
	StateConfirmDelete
)

var tabTitles = []string{"Diary", "Memoirs", "Goals"}

// changeMsg carries a journal notification into the update loop.
type changeMsg journal.Change

// pendingDelete is the record waiting on a y/n answer.
type pendingDelete struct {
	tab   SessionState
	id    string
	label string
}

type Model struct {
	store *journal.Store
	now   func() time.Time

	state SessionState
	// tab is the tab to return to after a form or confirmation.
	tab  SessionState
	keys KeyMap
	help help.Model

	diary   entrylist.Model
	memoirs entrylist.Model
	goals   goals.Model

	form      *huh.Form
	entryForm *EntryFormModel
	goalForm  *GoalFormModel
	logForm   *LogFormModel
	editingID string
	formError string
	deleting  *pendingDelete

	status   journal.SyncStatus
	lastErr  error
	quitting bool
	width    int
	height   int

	changes     chan journal.Change
	unsubscribe func()
}

type Option func(*Model)

func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New builds the model and subscribes it to store. Call Close once the
// program has exited.
func New(store *journal.Store, opts ...Option) Model {
	m := Model{
		store:   store,
		now:     time.Now,
		state:   StateDiary,
		tab:     StateDiary,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		diary:   entrylist.New("diary entries", nil, 0, 0),
		memoirs: entrylist.New("memoirs", nil, 0, 0),
		goals:   goals.New(nil, 0, 0),
		changes: make(chan journal.Change, 32),
	}
	for _, opt := range opts {
		opt(&m)
	}

	ch := m.changes
	m.unsubscribe = store.Subscribe(func(c journal.Change) {
		// a full buffer already holds a pending refresh
		select {
		case ch <- c:
		default:
		}
	})
	m.refresh()
	return m
}

// Close stops listening to the store.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func waitForChange(ch <-chan journal.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg(c)
	}
}

// refresh reloads every tab from the store.
func (m *Model) refresh() {
	diary := m.store.Entries()
	entries := make([]models.Entry, len(diary))
	for i, e := range diary {
		entries[i] = e.Entry
	}
	m.diary.SetEntries(entries)

	memoirs := m.store.Memoirs()
	entries = make([]models.Entry, len(memoirs))
	for i, e := range memoirs {
		entries[i] = e.Entry
	}
	m.memoirs.SetEntries(entries)

	m.goals.SetGoals(m.store.ChecklistEntries())
	m.status = m.store.Status()
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateDiary:
		k := m.diary.Keys()
		keys = append(keys, k.Add, k.Edit, k.Delete)
	case StateMemoirs:
		k := m.memoirs.Keys()
		keys = append(keys, k.Add, k.Edit, k.Delete)
	case StateGoals:
		k := goals.DefaultKeyMap()
		keys = append(keys, k.Add, k.Think, k.Talk, k.Act, k.Complete)
	case StateConfirmDelete:
		keys = []key.Binding{m.keys.Confirm, m.keys.Cancel}
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case StateDiary, StateMemoirs:
		k := m.diary.Keys()
		actions = []key.Binding{k.Add, k.Edit, k.Delete}
	case StateGoals:
		k := goals.DefaultKeyMap()
		actions = []key.Binding{k.Add, k.Think, k.Talk, k.Act, k.Complete, k.Log, k.Delete, k.PrevType, k.NextType, k.Completed}
	}
	return [][]key.Binding{global, navigation, actions}
}
