package journal

import (
	"github.com/charlesinwald/mani/internal/merge"
	"github.com/charlesinwald/mani/internal/models"
)

// ImportSet is an externally supplied set of records to merge.
type ImportSet struct {
	Diary     []models.DiaryEntry
	Memoirs   []models.MemoirEntry
	Checklist []models.ChecklistEntry
}

type ImportResult struct {
	Diary     merge.Summary
	Memoirs   merge.Summary
	Checklist merge.Summary
}

func (r ImportResult) Total() merge.Summary {
	return r.Diary.Add(r.Memoirs).Add(r.Checklist)
}

// ImportDiary merges entries into the backend in one transaction and
// re-hydrates the store.
func (s *Store) ImportDiary(entries []models.DiaryEntry) (merge.Summary, error) {
	res, err := s.Import(ImportSet{Diary: entries})
	return res.Diary, err
}

func (s *Store) ImportMemoirs(entries []models.MemoirEntry) (merge.Summary, error) {
	res, err := s.Import(ImportSet{Memoirs: entries})
	return res.Memoirs, err
}

func (s *Store) ImportChecklist(entries []models.ChecklistEntry) (merge.Summary, error) {
	res, err := s.Import(ImportSet{Checklist: entries})
	return res.Checklist, err
}

// Import merges each non-nil collection of set, one backend transaction
// per collection, then re-hydrates. It stops at the first failing
// collection; collections merged before it stay merged.
func (s *Store) Import(set ImportSet) (ImportResult, error) {
	res, err := s.importSet(set)
	s.notify(Change{Collection: CollectionAll, Op: OpImport, Err: err})
	return res, err
}

func (s *Store) importSet(set ImportSet) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res ImportResult
	err := s.persist(CollectionAll, OpImport, "", func() error {
		var err error
		if set.Diary != nil {
			if res.Diary, err = s.backend.BulkImportDiaryEntries(set.Diary); err != nil {
				return err
			}
		}
		if set.Memoirs != nil {
			if res.Memoirs, err = s.backend.BulkImportMemoirEntries(set.Memoirs); err != nil {
				return err
			}
		}
		if set.Checklist != nil {
			if res.Checklist, err = s.backend.BulkImportChecklistEntries(set.Checklist); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	return res, s.hydrateLocked()
}
