package journal

import (
	"fmt"

	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/logger"
	"github.com/charlesinwald/mani/internal/models"
)

func (s *Store) checklistIndex(id string) int {
	for i, c := range s.checklist {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// mutateChecklist applies fn to the goal with the given id, refreshes its
// modification time and writes it through. fn returns false to skip the
// write when nothing changed.
func (s *Store) mutateChecklist(op Op, id string, fn func(c *models.ChecklistEntry) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.checklistIndex(id)
	if i < 0 {
		return notFound(CollectionChecklist, op, id)
	}

	c := s.checklist[i].Clone()
	if !fn(&c) {
		return nil
	}
	c.ModifiedAt = s.nowMillis()
	s.checklist[i] = c

	return s.persist(CollectionChecklist, op, id, func() error {
		return s.backend.UpdateChecklistEntry(c)
	})
}

func (s *Store) mutateChecklistAndNotify(op Op, id string, fn func(c *models.ChecklistEntry) bool) error {
	err := s.mutateChecklist(op, id, fn)
	s.notify(Change{Collection: CollectionChecklist, Op: op, ID: id, Err: err})
	return err
}

// AddChecklistEntry appends a new goal. Progress flags and completion start
// false whatever the draft says.
func (s *Store) AddChecklistEntry(draft models.ChecklistEntry) (models.ChecklistEntry, error) {
	c, err := s.addChecklistEntry(draft)
	s.notify(Change{Collection: CollectionChecklist, Op: OpAdd, ID: c.ID, Err: err})
	return c, err
}

func (s *Store) addChecklistEntry(draft models.ChecklistEntry) (models.ChecklistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := draft.Clone()
	if err := models.ApplyDefaults(&c); err != nil {
		return models.ChecklistEntry{}, fmt.Errorf("apply defaults: %w", err)
	}
	if c.ID == "" {
		c.ID = s.newID()
	}
	if s.checklistIndex(c.ID) >= 0 {
		logger.Warn("goal id already in use", "id", c.ID)
		return models.ChecklistEntry{}, fmt.Errorf("%s %s: %w", CollectionChecklist, c.ID, ErrDuplicateID)
	}
	now := s.nowMillis()
	c.CreatedAt = now
	c.ModifiedAt = now
	c.ThinkAboutIt, c.TalkAboutIt, c.ActOnIt, c.Completed = false, false, false, false
	c.Logs = nil

	s.checklist = append(s.checklist, c)

	err := s.persist(CollectionChecklist, OpAdd, c.ID, func() error {
		return s.backend.CreateChecklistEntry(c)
	})
	return c.Clone(), err
}

// UpdateChecklistEntry replaces the goal with the same id, logs included.
func (s *Store) UpdateChecklistEntry(entry models.ChecklistEntry) error {
	next := entry.Clone()
	return s.mutateChecklistAndNotify(OpUpdate, entry.ID, func(c *models.ChecklistEntry) bool {
		createdAt := c.CreatedAt
		*c = next
		c.CreatedAt = createdAt
		return true
	})
}

// DeleteChecklistEntry hard deletes the goal and its logs on both layers.
func (s *Store) DeleteChecklistEntry(id string) error {
	err := s.deleteChecklistEntry(id)
	s.notify(Change{Collection: CollectionChecklist, Op: OpDelete, ID: id, Err: err})
	return err
}

func (s *Store) deleteChecklistEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.checklistIndex(id)
	if i < 0 {
		return notFound(CollectionChecklist, OpDelete, id)
	}
	s.checklist = append(s.checklist[:i], s.checklist[i+1:]...)

	return s.persist(CollectionChecklist, OpDelete, id, func() error {
		return s.backend.DeleteChecklistEntry(id)
	})
}

func (s *Store) ToggleThinkAboutIt(id string) error {
	return s.mutateChecklistAndNotify(OpToggle, id, func(c *models.ChecklistEntry) bool {
		c.ThinkAboutIt = !c.ThinkAboutIt
		return true
	})
}

func (s *Store) ToggleTalkAboutIt(id string) error {
	return s.mutateChecklistAndNotify(OpToggle, id, func(c *models.ChecklistEntry) bool {
		c.TalkAboutIt = !c.TalkAboutIt
		return true
	})
}

func (s *Store) ToggleActOnIt(id string) error {
	return s.mutateChecklistAndNotify(OpToggle, id, func(c *models.ChecklistEntry) bool {
		c.ActOnIt = !c.ActOnIt
		return true
	})
}

// Toggle flips the flag that matches t.
func (s *Store) Toggle(id string, t models.LogType) error {
	switch t {
	case models.LogThink:
		return s.ToggleThinkAboutIt(id)
	case models.LogTalk:
		return s.ToggleTalkAboutIt(id)
	case models.LogAct:
		return s.ToggleActOnIt(id)
	}
	return fmt.Errorf("unknown progress flag %q", t)
}

// CompleteChecklistEntry marks the goal completed. Completing a completed
// goal is a no-op. Progress flags are left alone.
func (s *Store) CompleteChecklistEntry(id string) error {
	return s.mutateChecklistAndNotify(OpComplete, id, func(c *models.ChecklistEntry) bool {
		if c.Completed {
			return false
		}
		c.Completed = true
		return true
	})
}

func (s *Store) UncompleteChecklistEntry(id string) error {
	return s.mutateChecklistAndNotify(OpComplete, id, func(c *models.ChecklistEntry) bool {
		if !c.Completed {
			return false
		}
		c.Completed = false
		return true
	})
}

// AddChecklistLog appends l to its goal's logs. A missing goal is logged and
// reported with ErrNotFound; nothing is written.
func (s *Store) AddChecklistLog(l models.ProgressLog) (models.ProgressLog, error) {
	if l.ID == "" {
		l.ID = s.newID()
	}
	if l.Timestamp == "" {
		l.Timestamp = s.now().UTC().Format(constants.LogTimestampFormat)
	}

	s.mu.RLock()
	missing := s.checklistIndex(l.ChecklistID) < 0
	s.mu.RUnlock()
	if missing {
		logger.Error("cannot add progress log to missing checklist entry", "checklist", l.ChecklistID, "log", l.ID)
	}

	err := s.mutateChecklistAndNotify(OpLog, l.ChecklistID, func(c *models.ChecklistEntry) bool {
		c.Logs = append(c.Logs, l)
		return true
	})
	return l, err
}

// DeleteChecklistLog removes one log from its goal.
func (s *Store) DeleteChecklistLog(checklistID, logID string) error {
	var found bool
	err := s.mutateChecklistAndNotify(OpLog, checklistID, func(c *models.ChecklistEntry) bool {
		for i, l := range c.Logs {
			if l.ID == logID {
				c.Logs = append(c.Logs[:i], c.Logs[i+1:]...)
				found = true
				return true
			}
		}
		return false
	})
	if err == nil && !found {
		return notFound(CollectionChecklist, OpLog, logID)
	}
	return err
}

// ChecklistEntries returns every goal in collection order.
func (s *Store) ChecklistEntries() []models.ChecklistEntry {
	return s.filterChecklist(func(models.ChecklistEntry) bool { return true })
}

// ChecklistEntriesByType returns the goals of one horizon.
func (s *Store) ChecklistEntriesByType(t models.GoalType) []models.ChecklistEntry {
	return s.filterChecklist(func(c models.ChecklistEntry) bool { return c.GoalType == t })
}

func (s *Store) IncompleteChecklistEntries(t models.GoalType) []models.ChecklistEntry {
	return s.filterChecklist(func(c models.ChecklistEntry) bool { return c.GoalType == t && !c.Completed })
}

func (s *Store) CompletedChecklistEntries(t models.GoalType) []models.ChecklistEntry {
	return s.filterChecklist(func(c models.ChecklistEntry) bool { return c.GoalType == t && c.Completed })
}

func (s *Store) FindChecklistEntryByID(id string) (models.ChecklistEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.checklistIndex(id); i >= 0 {
		return s.checklist[i].Clone(), true
	}
	return models.ChecklistEntry{}, false
}

func (s *Store) filterChecklist(keep func(models.ChecklistEntry) bool) []models.ChecklistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ChecklistEntry
	for _, c := range s.checklist {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}
