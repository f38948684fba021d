package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/tui/components/entrylist"
	"github.com/charlesinwald/mani/internal/tui/components/goals"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		// tabs, status line, help and padding
		w, h := msg.Width-4, msg.Height-7
		m.diary.SetSize(w, h)
		m.memoirs.SetSize(w, h)
		m.goals.SetSize(w, h)
		return m, nil
	case changeMsg:
		m.refresh()
		if msg.Err != nil {
			m.lastErr = msg.Err
		}
		return m, waitForChange(m.changes)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}

	switch m.state {
	case StateEntryForm, StateGoalForm, StateLogForm:
		return m.updateForm(msg)
	case StateConfirmDelete:
		return m.updateConfirm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && !m.filtering() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.switchTab((m.state + 1) % StateEntryForm)
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.switchTab((m.state + StateEntryForm - 1) % StateEntryForm)
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	switch msg := msg.(type) {
	case entrylist.AddEntryMsg:
		return m.openEntryForm("")
	case entrylist.EditEntryMsg:
		return m.openEntryForm(msg.ID)
	case entrylist.DeleteEntryMsg:
		if e, ok := m.findEntry(m.state, msg.ID); ok {
			m.confirmDelete(msg.ID, e.Date)
		}
		return m, nil
	case goals.AddGoalMsg:
		m.goalForm = &GoalFormModel{Type: msg.Type}
		m.form = NewGoalForm(m.goalForm)
		return m.openForm(StateGoalForm, "")
	case goals.ToggleMsg:
		m.report(m.store.Toggle(msg.ID, msg.Flag))
		return m, nil
	case goals.CompleteMsg:
		if msg.Completed {
			m.report(m.store.CompleteChecklistEntry(msg.ID))
		} else {
			m.report(m.store.UncompleteChecklistEntry(msg.ID))
		}
		return m, nil
	case goals.LogMsg:
		g, ok := m.store.FindChecklistEntryByID(msg.ID)
		if !ok {
			return m, nil
		}
		m.logForm = &LogFormModel{Type: models.LogThink}
		m.form = NewLogForm(g.Description, m.logForm)
		return m.openForm(StateLogForm, msg.ID)
	case goals.DeleteGoalMsg:
		if g, ok := m.store.FindChecklistEntryByID(msg.ID); ok {
			m.confirmDelete(msg.ID, g.Description)
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case StateDiary:
		m.diary, cmd = m.diary.Update(msg)
	case StateMemoirs:
		m.memoirs, cmd = m.memoirs.Update(msg)
	case StateGoals:
		m.goals, cmd = m.goals.Update(msg)
	}
	return m, cmd
}

func (m Model) filtering() bool {
	switch m.state {
	case StateDiary:
		return m.diary.Filtering()
	case StateMemoirs:
		return m.memoirs.Filtering()
	case StateGoals:
		return m.goals.Filtering()
	}
	return false
}

func (m *Model) switchTab(s SessionState) {
	m.state = s
	m.tab = s
}

// report records the outcome of a store action for the status line.
func (m *Model) report(err error) {
	m.lastErr = err
}

func (m Model) findEntry(tab SessionState, id string) (models.Entry, bool) {
	if tab == StateMemoirs {
		e, ok := m.store.FindMemoirByID(id)
		return e.Entry, ok
	}
	e, ok := m.store.FindEntryByID(id)
	return e.Entry, ok
}

func (m Model) openEntryForm(id string) (tea.Model, tea.Cmd) {
	noun := "diary entry"
	if m.state == StateMemoirs {
		noun = "memoir"
	}

	var e models.Entry
	title := "New " + noun
	if id != "" {
		var ok bool
		if e, ok = m.findEntry(m.state, id); !ok {
			return m, nil
		}
		title = "Edit " + noun
	} else {
		e.Date = m.now().Format(constants.DateFormat)
	}
	m.entryForm = entryFormFrom(e)
	m.form = NewEntryForm(title, m.entryForm)
	return m.openForm(StateEntryForm, id)
}

func (m Model) openForm(s SessionState, id string) (tea.Model, tea.Cmd) {
	m.tab = m.state
	m.state = s
	m.editingID = id
	m.formError = ""
	return m, m.form.Init()
}

func (m *Model) closeForm() {
	m.state = m.tab
	m.form = nil
	m.entryForm = nil
	m.goalForm = nil
	m.logForm = nil
	m.editingID = ""
	m.formError = ""
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.closeForm()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if err := m.saveForm(); err != nil {
			// stay in the form so the values can be fixed
			m.formError = err.Error()
			m.form.State = huh.StateNormal
			return m, cmd
		}
		m.closeForm()
	case huh.StateAborted:
		m.closeForm()
	}
	return m, cmd
}

// saveForm writes the completed form through the store.
func (m *Model) saveForm() error {
	switch m.state {
	case StateEntryForm:
		return m.saveEntry()
	case StateGoalForm:
		_, err := m.store.AddChecklistEntry(models.ChecklistEntry{
			Description: m.goalForm.Description,
			GoalType:    m.goalForm.Type,
		})
		return err
	case StateLogForm:
		_, err := m.store.AddChecklistLog(models.ProgressLog{
			ChecklistID: m.editingID,
			Type:        m.logForm.Type,
			Note:        m.logForm.Note,
		})
		return err
	}
	return nil
}

func (m *Model) saveEntry() error {
	var e models.Entry
	if m.editingID != "" {
		cur, ok := m.findEntry(m.tab, m.editingID)
		if !ok {
			return fmt.Errorf("entry %s no longer exists", m.editingID)
		}
		e = cur
	}
	if err := m.entryForm.apply(&e); err != nil {
		return err
	}

	var err error
	switch {
	case m.tab == StateMemoirs && m.editingID == "":
		_, err = m.store.AddMemoir(models.MemoirEntry{Entry: e})
	case m.tab == StateMemoirs:
		_, err = m.store.UpdateMemoir(models.MemoirEntry{Entry: e})
	case m.editingID == "":
		_, err = m.store.AddEntry(models.DiaryEntry{Entry: e})
	default:
		_, err = m.store.UpdateEntry(models.DiaryEntry{Entry: e})
	}
	return err
}

func (m *Model) confirmDelete(id, label string) {
	m.deleting = &pendingDelete{tab: m.state, id: id, label: label}
	m.tab = m.state
	m.state = StateConfirmDelete
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, m.keys.Confirm):
		d := m.deleting
		switch d.tab {
		case StateDiary:
			m.report(m.store.DeleteEntry(d.id))
		case StateMemoirs:
			m.report(m.store.DeleteMemoir(d.id))
		case StateGoals:
			m.report(m.store.DeleteChecklistEntry(d.id))
		}
	case key.Matches(k, m.keys.Cancel):
	default:
		return m, nil
	}
	m.deleting = nil
	m.state = m.tab
	return m, nil
}
