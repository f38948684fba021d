package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/charlesinwald/mani/internal/merge"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/storage"
)

const checklistColumns = `id, description, goal_type, think_about_it, talk_about_it, act_on_it,
	completed, created_at, modified_at`

func scanChecklist(row scanner) (models.ChecklistEntry, error) {
	var c models.ChecklistEntry
	var goalType string
	err := row.Scan(&c.ID, &c.Description, &goalType, &c.ThinkAboutIt, &c.TalkAboutIt, &c.ActOnIt,
		&c.Completed, &c.CreatedAt, &c.ModifiedAt)
	if err != nil {
		return models.ChecklistEntry{}, err
	}
	c.GoalType = models.GoalType(goalType)
	return c, nil
}

// loadLogs returns logs grouped by checklist id, in append order.
func (d *DB) loadLogs(q queryer, checklistID string) (map[string][]models.ProgressLog, error) {
	query := "SELECT id, checklist_id, timestamp, note, type FROM progress_logs"
	var args []any
	if checklistID != "" {
		query += " WHERE checklist_id = ?"
		args = append(args, checklistID)
	}
	query += " ORDER BY checklist_id, position"

	rows, err := q.Query(d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress logs: %w", err)
	}
	defer rows.Close()

	logs := make(map[string][]models.ProgressLog)
	for rows.Next() {
		var l models.ProgressLog
		var typ string
		if err := rows.Scan(&l.ID, &l.ChecklistID, &l.Timestamp, &l.Note, &typ); err != nil {
			return nil, err
		}
		l.Type = models.LogType(typ)
		logs[l.ChecklistID] = append(logs[l.ChecklistID], l)
	}
	return logs, rows.Err()
}

func (d *DB) listChecklist(q queryer) ([]models.ChecklistEntry, error) {
	rows, err := q.Query("SELECT " + checklistColumns + " FROM checklist_entries ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list checklist entries: %w", err)
	}
	var out []models.ChecklistEntry
	for rows.Next() {
		c, err := scanChecklist(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	logs, err := d.loadLogs(q, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Logs = logs[out[i].ID]
	}
	return out, nil
}

func (d *DB) ListChecklistEntries() ([]models.ChecklistEntry, error) {
	return d.listChecklist(d.db)
}

func (d *DB) FindChecklistEntryByID(id string) (models.ChecklistEntry, error) {
	c, err := scanChecklist(d.db.QueryRow(d.rebind("SELECT "+checklistColumns+" FROM checklist_entries WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChecklistEntry{}, fmt.Errorf("checklist entry %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.ChecklistEntry{}, err
	}
	logs, err := d.loadLogs(d.db, id)
	if err != nil {
		return models.ChecklistEntry{}, err
	}
	c.Logs = logs[id]
	return c, nil
}

func (d *DB) insertChecklist(q queryer, c models.ChecklistEntry) error {
	_, err := q.Exec(d.rebind("INSERT INTO checklist_entries ("+checklistColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		c.ID, c.Description, string(c.GoalType), c.ThinkAboutIt, c.TalkAboutIt, c.ActOnIt,
		c.Completed, c.CreatedAt, c.ModifiedAt)
	if err != nil {
		return fmt.Errorf("failed to insert checklist entry: %w", err)
	}
	return d.writeLogs(q, c)
}

// writeLogs replaces every log of c with c.Logs.
func (d *DB) writeLogs(q queryer, c models.ChecklistEntry) error {
	if _, err := q.Exec(d.rebind("DELETE FROM progress_logs WHERE checklist_id = ?"), c.ID); err != nil {
		return fmt.Errorf("failed to clear progress logs: %w", err)
	}
	for i, l := range c.Logs {
		_, err := q.Exec(d.rebind("INSERT INTO progress_logs (id, checklist_id, position, timestamp, note, type) VALUES (?, ?, ?, ?, ?, ?)"),
			l.ID, c.ID, i, l.Timestamp, l.Note, string(l.Type))
		if err != nil {
			return fmt.Errorf("failed to insert progress log %s: %w", l.ID, err)
		}
	}
	return nil
}

func (d *DB) updateChecklist(q queryer, c models.ChecklistEntry) error {
	res, err := q.Exec(d.rebind(`UPDATE checklist_entries SET description = ?, goal_type = ?, think_about_it = ?,
		talk_about_it = ?, act_on_it = ?, completed = ?, modified_at = ? WHERE id = ?`),
		c.Description, string(c.GoalType), c.ThinkAboutIt, c.TalkAboutIt, c.ActOnIt, c.Completed, c.ModifiedAt, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update checklist entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("checklist entry %s: %w", c.ID, storage.ErrNotFound)
	}
	return d.writeLogs(q, c)
}

func (d *DB) CreateChecklistEntry(c models.ChecklistEntry) error {
	if c.ID == "" {
		c.ID = d.newID()
	}
	return d.inTx(func(tx *sql.Tx) error { return d.insertChecklist(tx, c) })
}

func (d *DB) UpdateChecklistEntry(c models.ChecklistEntry) error {
	return d.inTx(func(tx *sql.Tx) error { return d.updateChecklist(tx, c) })
}

func (d *DB) DeleteChecklistEntry(id string) error {
	return d.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(d.rebind("DELETE FROM progress_logs WHERE checklist_id = ?"), id); err != nil {
			return fmt.Errorf("failed to delete progress logs: %w", err)
		}
		res, err := tx.Exec(d.rebind("DELETE FROM checklist_entries WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("failed to delete checklist entry: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("checklist entry %s: %w", id, storage.ErrNotFound)
		}
		return nil
	})
}

func (d *DB) WipeAllChecklistEntries() error {
	return d.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM progress_logs"); err != nil {
			return fmt.Errorf("failed to wipe progress logs: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM checklist_entries"); err != nil {
			return fmt.Errorf("failed to wipe checklist entries: %w", err)
		}
		return nil
	})
}

// BulkImportChecklistEntries merges goals by last-writer-wins. An updated
// goal takes the incoming log list wholesale.
func (d *DB) BulkImportChecklistEntries(entries []models.ChecklistEntry) (merge.Summary, error) {
	var summary merge.Summary
	err := d.inTx(func(tx *sql.Tx) error {
		current, err := d.listChecklist(tx)
		if err != nil {
			return err
		}
		plan := merge.Plan(current, entries, nil)
		for _, c := range plan.Creates {
			if err := d.insertChecklist(tx, c); err != nil {
				return err
			}
		}
		for _, u := range plan.Updates {
			if err := d.updateChecklist(tx, u.Next); err != nil {
				return err
			}
		}
		summary = plan.Summary()
		return nil
	})
	return summary, err
}
