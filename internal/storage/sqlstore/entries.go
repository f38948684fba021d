package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/charlesinwald/mani/internal/merge"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/storage"
)

// Diary and memoir rows share one layout; these helpers take the table name.

// onePerDate lists tables that hold at most one live row per date. Memoirs
// may share a date.
var onePerDate = map[string]bool{
	diaryTable: true,
}

const entryColumns = `id, date, description, created_at, modified_at, deleted, mood,
	latitude, longitude, weather, temperature, goal_type`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (models.Entry, error) {
	var e models.Entry
	var goalType string
	err := row.Scan(
		&e.ID, &e.Date, &e.Description, &e.CreatedAt, &e.ModifiedAt, &e.Deleted, &e.Mood,
		&e.Latitude, &e.Longitude, &e.Weather, &e.Temperature, &goalType,
	)
	if err != nil {
		return models.Entry{}, err
	}
	e.GoalType = models.GoalType(goalType)
	return e, nil
}

func (d *DB) listEntries(q queryer, table string, opts storage.ListOptions) ([]models.Entry, error) {
	query := "SELECT " + entryColumns + " FROM " + table
	if !opts.IncludeDeleted {
		query += " WHERE deleted = ?"
	}
	query += " ORDER BY date DESC, created_at DESC, id"

	var args []any
	if !opts.IncludeDeleted {
		args = append(args, false)
	}
	rows, err := q.Query(d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (d *DB) findEntry(q queryer, table, id string) (models.Entry, error) {
	row := q.QueryRow(d.rebind("SELECT "+entryColumns+" FROM "+table+" WHERE id = ?"), id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, fmt.Errorf("%s %s: %w", table, id, storage.ErrNotFound)
	}
	return e, err
}

func (d *DB) findLiveByDate(q queryer, table, date string) (models.Entry, bool, error) {
	row := q.QueryRow(d.rebind("SELECT "+entryColumns+" FROM "+table+
		" WHERE date = ? AND deleted = ? ORDER BY created_at DESC, id LIMIT 1"), date, false)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, false, nil
	}
	if err != nil {
		return models.Entry{}, false, err
	}
	return e, true, nil
}

func (d *DB) insertEntry(q queryer, table string, e models.Entry) error {
	_, err := q.Exec(d.rebind("INSERT INTO "+table+" ("+entryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		e.ID, e.Date, e.Description, e.CreatedAt, e.ModifiedAt, e.Deleted, e.Mood,
		e.Latitude, e.Longitude, e.Weather, e.Temperature, string(e.GoalType),
	)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// overwriteEntry writes every mutable field. Identity, date and creation
// time are kept.
func (d *DB) overwriteEntry(q queryer, table string, e models.Entry) error {
	_, err := q.Exec(d.rebind("UPDATE "+table+` SET description = ?, modified_at = ?, deleted = ?, mood = ?,
		latitude = ?, longitude = ?, weather = ?, temperature = ?, goal_type = ? WHERE id = ?`),
		e.Description, e.ModifiedAt, e.Deleted, e.Mood,
		e.Latitude, e.Longitude, e.Weather, e.Temperature, string(e.GoalType), e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return nil
}

func (d *DB) createEntry(table string, e models.Entry) (bool, error) {
	created := false
	err := d.inTx(func(tx *sql.Tx) error {
		if onePerDate[table] {
			if _, exists, err := d.findLiveByDate(tx, table, e.Date); err != nil {
				return err
			} else if exists {
				return nil
			}
		}
		if e.ID == "" {
			e.ID = d.newID()
		}
		if err := d.insertEntry(tx, table, e); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (d *DB) updateOrCreateEntry(table string, e models.Entry) (models.Entry, error) {
	var stored models.Entry
	err := d.inTx(func(tx *sql.Tx) error {
		existing, err := d.findEntry(tx, table, e.ID)
		found := err == nil
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if onePerDate[table] {
			byDate, ok, err := d.findLiveByDate(tx, table, e.Date)
			if err != nil {
				return err
			}
			switch {
			case !found:
				existing, found = byDate, ok
			case ok && byDate.ID != existing.ID:
				return fmt.Errorf("%s %s on %s: %w", table, e.ID, e.Date, storage.ErrDuplicateDate)
			}
		}

		if found {
			next := existing
			next.Date = e.Date
			next.Description = e.Description
			next.ModifiedAt = e.ModifiedAt
			next.Mood = e.Mood
			next.Latitude = e.Latitude
			next.Longitude = e.Longitude
			next.Weather = e.Weather
			next.Temperature = e.Temperature
			next.GoalType = e.GoalType
			next.Deleted = false
			if _, err := tx.Exec(d.rebind("UPDATE "+table+" SET date = ? WHERE id = ?"), next.Date, next.ID); err != nil {
				return fmt.Errorf("failed to update %s date: %w", table, err)
			}
			if err := d.overwriteEntry(tx, table, next); err != nil {
				return err
			}
			stored = next
			return nil
		}

		if e.ID == "" {
			e.ID = d.newID()
		}
		if e.CreatedAt == 0 {
			e.CreatedAt = e.ModifiedAt
		}
		e.Deleted = false
		if err := d.insertEntry(tx, table, e); err != nil {
			return err
		}
		stored = e
		return nil
	})
	return stored, err
}

func (d *DB) softDeleteEntry(table, id string) error {
	res, err := d.db.Exec(d.rebind("UPDATE "+table+" SET deleted = ?, modified_at = ? WHERE id = ? AND deleted = ?"),
		true, d.nowMillis(), id, false)
	if err != nil {
		return fmt.Errorf("failed to soft delete from %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := d.findEntry(d.db, table, id); err != nil {
		return err
	}
	return fmt.Errorf("%s %s: %w", table, id, storage.ErrAlreadyDeleted)
}

func (d *DB) hardDeleteEntry(table, id string) error {
	res, err := d.db.Exec(d.rebind("DELETE FROM "+table+" WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, storage.ErrNotFound)
	}
	return nil
}

func (d *DB) wipeEntries(table string) error {
	if _, err := d.db.Exec("DELETE FROM " + table); err != nil {
		return fmt.Errorf("failed to wipe %s: %w", table, err)
	}
	return nil
}

// importEntries runs the merge engine against table inside one transaction.
func (d *DB) importEntries(kind, table string, incoming []models.Entry) (merge.Summary, error) {
	var summary merge.Summary
	err := d.inTx(func(tx *sql.Tx) error {
		current, err := d.listEntries(tx, table, storage.ListOptions{IncludeDeleted: true})
		if err != nil {
			return err
		}
		ledger, err := d.purgeLedger(tx, kind)
		if err != nil {
			return err
		}

		plan := merge.Plan(current, incoming, ledger)

		for _, c := range plan.Creates {
			if err := d.insertEntry(tx, table, c); err != nil {
				return err
			}
		}
		for _, u := range plan.Updates {
			if err := d.overwriteEntry(tx, table, u.Next); err != nil {
				return err
			}
		}
		for _, p := range plan.Purges {
			if _, err := tx.Exec(d.rebind("DELETE FROM "+table+" WHERE id = ?"), p.ID); err != nil {
				return fmt.Errorf("failed to purge %s %s: %w", table, p.ID, err)
			}
			if err := d.recordPurge(tx, kind, p); err != nil {
				return err
			}
		}

		summary = plan.Summary()
		return nil
	})
	if err != nil {
		return merge.Summary{}, err
	}
	return summary, nil
}
