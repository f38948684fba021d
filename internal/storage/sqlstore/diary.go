package sqlstore

import (
	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/merge"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/storage"
)

const diaryTable = "diary_entries"

func (d *DB) ListDiaryEntries(opts storage.ListOptions) ([]models.DiaryEntry, error) {
	rows, err := d.listEntries(d.db, diaryTable, opts)
	if err != nil {
		return nil, err
	}
	out := make([]models.DiaryEntry, len(rows))
	for i, e := range rows {
		out[i] = models.DiaryEntry{Entry: e}
	}
	return out, nil
}

func (d *DB) FindDiaryEntryByID(id string) (models.DiaryEntry, error) {
	e, err := d.findEntry(d.db, diaryTable, id)
	return models.DiaryEntry{Entry: e}, err
}

func (d *DB) CreateDiaryEntry(e models.DiaryEntry) (bool, error) {
	return d.createEntry(diaryTable, e.Entry)
}

func (d *DB) UpdateOrCreateDiaryEntry(e models.DiaryEntry) (models.DiaryEntry, error) {
	stored, err := d.updateOrCreateEntry(diaryTable, e.Entry)
	return models.DiaryEntry{Entry: stored}, err
}

func (d *DB) SoftDeleteDiaryEntry(id string) error {
	return d.softDeleteEntry(diaryTable, id)
}

func (d *DB) HardDeleteDiaryEntry(id string) error {
	return d.hardDeleteEntry(diaryTable, id)
}

func (d *DB) WipeAllDiaryEntries() error {
	return d.wipeEntries(diaryTable)
}

func (d *DB) BulkImportDiaryEntries(entries []models.DiaryEntry) (merge.Summary, error) {
	in := make([]models.Entry, len(entries))
	for i, e := range entries {
		in[i] = e.Entry
	}
	return d.importEntries(constants.KindDiary, diaryTable, in)
}
