package sqlstore

import (
	"database/sql"
	"fmt"

	"github.com/charlesinwald/mani/internal/migration"
	"github.com/charlesinwald/mani/internal/models"
)

// MoodUpgrade returns the data step of the mood migration: every legacy
// label is mapped onto the 1-5 scale, then the label column is dropped.
func MoodUpgrade(dialect Dialect) migration.Hook {
	d := &DB{dialect: dialect}
	return func(tx *sql.Tx) error {
		rows, err := tx.Query("SELECT id, mood_label FROM diary_entries")
		if err != nil {
			return fmt.Errorf("failed to read legacy moods: %w", err)
		}
		labels := make(map[string]string)
		for rows.Next() {
			var id, label string
			if err := rows.Scan(&id, &label); err != nil {
				rows.Close()
				return err
			}
			labels[id] = label
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for id, label := range labels {
			if _, err := tx.Exec(d.rebind("UPDATE diary_entries SET mood = ? WHERE id = ?"), models.MoodFromLegacy(label), id); err != nil {
				return fmt.Errorf("failed to upgrade mood of %s: %w", id, err)
			}
		}

		if _, err := tx.Exec("ALTER TABLE diary_entries DROP COLUMN mood_label"); err != nil {
			return fmt.Errorf("failed to drop legacy mood column: %w", err)
		}
		return nil
	}
}
