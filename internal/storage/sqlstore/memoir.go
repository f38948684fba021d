package sqlstore

import (
	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/merge"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/storage"
)

const memoirTable = "memoir_entries"

func (d *DB) ListMemoirEntries(opts storage.ListOptions) ([]models.MemoirEntry, error) {
	rows, err := d.listEntries(d.db, memoirTable, opts)
	if err != nil {
		return nil, err
	}
	out := make([]models.MemoirEntry, len(rows))
	for i, e := range rows {
		out[i] = models.MemoirEntry{Entry: e}
	}
	return out, nil
}

func (d *DB) FindMemoirEntryByID(id string) (models.MemoirEntry, error) {
	e, err := d.findEntry(d.db, memoirTable, id)
	return models.MemoirEntry{Entry: e}, err
}

func (d *DB) CreateMemoirEntry(e models.MemoirEntry) (bool, error) {
	return d.createEntry(memoirTable, e.Entry)
}

func (d *DB) UpdateOrCreateMemoirEntry(e models.MemoirEntry) (models.MemoirEntry, error) {
	stored, err := d.updateOrCreateEntry(memoirTable, e.Entry)
	return models.MemoirEntry{Entry: stored}, err
}

func (d *DB) SoftDeleteMemoirEntry(id string) error {
	return d.softDeleteEntry(memoirTable, id)
}

func (d *DB) HardDeleteMemoirEntry(id string) error {
	return d.hardDeleteEntry(memoirTable, id)
}

func (d *DB) WipeAllMemoirEntries() error {
	return d.wipeEntries(memoirTable)
}

func (d *DB) BulkImportMemoirEntries(entries []models.MemoirEntry) (merge.Summary, error) {
	in := make([]models.Entry, len(entries))
	for i, e := range entries {
		in[i] = e.Entry
	}
	return d.importEntries(constants.KindMemoir, memoirTable, in)
}
