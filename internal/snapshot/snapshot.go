// Package snapshot reads and writes the portable journal file used by
// export, import and sync.
package snapshot

import (
	"fmt"
	"sort"
	"time"

	"github.com/bytedance/sonic"

	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/journal"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/storage"
)

// Snapshot is the current file format. Soft deleted entries and the purge
// ledger are both included so a deletion reaches every copy that imports
// the file, even after the exporting copy has purged it.
type Snapshot struct {
	Version          int                     `json:"version"`
	ExportedAt       int64                   `json:"exportedAt"`
	DiaryEntries     []models.DiaryEntry     `json:"diaryEntries"`
	MemoirEntries    []models.MemoirEntry    `json:"memoirEntries"`
	ChecklistEntries []models.ChecklistEntry `json:"checklistEntries"`
	Purged           []Tombstone             `json:"purged"`
}

// Tombstone is a purge ledger row: an entry hard deleted by a merge.
type Tombstone struct {
	Kind       string `json:"kind" validate:"oneof=diary memoir"`
	ID         string `json:"id" validate:"required"`
	ModifiedAt int64  `json:"modifiedAt" validate:"gte=0"`
}

// Build reads every record from b, tombstones included.
func Build(b storage.Backend, now time.Time) (*Snapshot, error) {
	diary, err := b.ListDiaryEntries(storage.ListOptions{IncludeDeleted: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read diary entries: %w", err)
	}
	memoirs, err := b.ListMemoirEntries(storage.ListOptions{IncludeDeleted: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read memoir entries: %w", err)
	}
	checklist, err := b.ListChecklistEntries()
	if err != nil {
		return nil, fmt.Errorf("failed to read checklist entries: %w", err)
	}

	purged := []Tombstone{}
	for _, kind := range []string{constants.KindDiary, constants.KindMemoir} {
		ledger, err := b.PurgeLedger(kind)
		if err != nil {
			return nil, fmt.Errorf("failed to read purge ledger: %w", err)
		}
		for id, at := range ledger {
			purged = append(purged, Tombstone{Kind: kind, ID: id, ModifiedAt: at})
		}
	}
	sort.Slice(purged, func(i, j int) bool {
		if purged[i].Kind != purged[j].Kind {
			return purged[i].Kind < purged[j].Kind
		}
		return purged[i].ID < purged[j].ID
	})

	return &Snapshot{
		Version:          constants.SnapshotVersion,
		ExportedAt:       now.UnixMilli(),
		DiaryEntries:     nonNil(diary),
		MemoirEntries:    nonNil(memoirs),
		ChecklistEntries: nonNil(checklist),
		Purged:           purged,
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Encode writes s as indented JSON.
func Encode(s *Snapshot) ([]byte, error) {
	data, err := sonic.ConfigStd.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// wireFile accepts both file versions. Version 1 files have no version
// field and carry a flat entries array.
type wireFile struct {
	Snapshot
	Entries []legacyEntry `json:"entries"`
}

// Decode parses a snapshot file of any supported version, upgrades it and
// validates every record. Nothing is returned unless the whole file is
// valid.
func Decode(data []byte) (*Snapshot, error) {
	var w wireFile
	if err := sonic.ConfigStd.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	var s *Snapshot
	switch {
	case w.Version > constants.SnapshotVersion:
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d, please upgrade mani",
			w.Version, constants.SnapshotVersion)
	case w.Version <= 1:
		s = upgradeV1(w.Entries)
	default:
		s = &w.Snapshot
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks every record and reports the first invalid one.
func (s *Snapshot) Validate() error {
	for i, e := range s.DiaryEntries {
		if err := models.Validate(e); err != nil {
			return fmt.Errorf("diary entry %d (%s): %w", i, e.ID, err)
		}
	}
	for i, m := range s.MemoirEntries {
		if err := models.Validate(m); err != nil {
			return fmt.Errorf("memoir entry %d (%s): %w", i, m.ID, err)
		}
	}
	for i, c := range s.ChecklistEntries {
		if err := models.Validate(c); err != nil {
			return fmt.Errorf("checklist entry %d (%s): %w", i, c.ID, err)
		}
		for _, l := range c.Logs {
			if l.ChecklistID != "" && l.ChecklistID != c.ID {
				return fmt.Errorf("checklist entry %d (%s): log %s belongs to %s", i, c.ID, l.ID, l.ChecklistID)
			}
		}
	}
	for i, p := range s.Purged {
		if err := models.Validate(p); err != nil {
			return fmt.Errorf("purged record %d (%s): %w", i, p.ID, err)
		}
	}
	return nil
}

// ImportSet hands the snapshot's records to the journal store. Logs without
// a back-reference are attached to their parent. Each purged record becomes
// a deleted entry carrying only its id and modification time, which the
// merge uses to purge older local copies and never writes.
func (s *Snapshot) ImportSet() journal.ImportSet {
	diary := append([]models.DiaryEntry{}, s.DiaryEntries...)
	memoirs := append([]models.MemoirEntry{}, s.MemoirEntries...)
	for _, p := range s.Purged {
		e := models.Entry{ID: p.ID, ModifiedAt: p.ModifiedAt, Deleted: true}
		switch p.Kind {
		case constants.KindDiary:
			diary = append(diary, models.DiaryEntry{Entry: e})
		case constants.KindMemoir:
			memoirs = append(memoirs, models.MemoirEntry{Entry: e})
		}
	}

	checklist := make([]models.ChecklistEntry, len(s.ChecklistEntries))
	for i, c := range s.ChecklistEntries {
		c = c.Clone()
		for j := range c.Logs {
			c.Logs[j].ChecklistID = c.ID
		}
		checklist[i] = c
	}
	return journal.ImportSet{
		Diary:     diary,
		Memoirs:   memoirs,
		Checklist: checklist,
	}
}

// Counts returns live and deleted record counts per collection.
func (s *Snapshot) Counts() map[string][2]int {
	out := map[string][2]int{
		constants.KindDiary:     {},
		constants.KindMemoir:    {},
		constants.KindChecklist: {len(s.ChecklistEntries), 0},
	}
	for _, e := range s.DiaryEntries {
		c := out[constants.KindDiary]
		c[boolIndex(e.Deleted)]++
		out[constants.KindDiary] = c
	}
	for _, m := range s.MemoirEntries {
		c := out[constants.KindMemoir]
		c[boolIndex(m.Deleted)]++
		out[constants.KindMemoir] = c
	}
	return out
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}
