package sqlstore

import (
	"fmt"

	"github.com/charlesinwald/mani/internal/merge"
)

func (d *DB) purgeLedger(q queryer, kind string) (map[string]int64, error) {
	rows, err := q.Query(d.rebind("SELECT id, modified_at FROM purged_records WHERE kind = ?"), kind)
	if err != nil {
		return nil, fmt.Errorf("failed to read purge ledger: %w", err)
	}
	defer rows.Close()

	ledger := make(map[string]int64)
	for rows.Next() {
		var id string
		var at int64
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		ledger[id] = at
	}
	return ledger, rows.Err()
}

func (d *DB) recordPurge(q queryer, kind string, p merge.Purge) error {
	_, err := q.Exec(d.rebind(`INSERT INTO purged_records (kind, id, modified_at) VALUES (?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET modified_at = excluded.modified_at
		WHERE excluded.modified_at > purged_records.modified_at`), kind, p.ID, p.ModifiedAt)
	if err != nil {
		return fmt.Errorf("failed to record purge of %s %s: %w", kind, p.ID, err)
	}
	return nil
}

func (d *DB) PurgeLedger(kind string) (map[string]int64, error) {
	return d.purgeLedger(d.db, kind)
}
