package snapshot

import (
	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/models"
)

// legacyEntry is a diary entry as written by version 1 backups.
type legacyEntry struct {
	ID          string   `json:"_id"`
	Date        string   `json:"date"`
	Desc        string   `json:"desc"`
	CreatedAt   int64    `json:"createdAt"`
	ModifiedAt  int64    `json:"modifiedAt"`
	Deleted     bool     `json:"deleted"`
	Mood        string   `json:"mood"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Weather     *string  `json:"weather"`
	Temperature *string  `json:"temperature"`
}

// upgradeV1 maps a version 1 entry list onto the current format. Version 1
// had neither memoirs nor goals.
func upgradeV1(entries []legacyEntry) *Snapshot {
	s := &Snapshot{
		Version:          constants.SnapshotVersion,
		DiaryEntries:     make([]models.DiaryEntry, 0, len(entries)),
		MemoirEntries:    []models.MemoirEntry{},
		ChecklistEntries: []models.ChecklistEntry{},
		Purged:           []Tombstone{},
	}
	for _, l := range entries {
		e := models.Entry{
			ID:          l.ID,
			Date:        l.Date,
			Description: l.Desc,
			CreatedAt:   l.CreatedAt,
			ModifiedAt:  l.ModifiedAt,
			Deleted:     l.Deleted,
			Mood:        models.MoodFromLegacy(l.Mood),
			Weather:     deref(l.Weather),
			Temperature: deref(l.Temperature),
		}
		if l.Latitude != nil {
			e.Latitude = *l.Latitude
		}
		if l.Longitude != nil {
			e.Longitude = *l.Longitude
		}
		if e.ModifiedAt > s.ExportedAt {
			s.ExportedAt = e.ModifiedAt
		}
		s.DiaryEntries = append(s.DiaryEntries, models.DiaryEntry{Entry: e})
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
