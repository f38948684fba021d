package storage

import (
	"errors"

	"github.com/charlesinwald/mani/internal/merge"
	"github.com/charlesinwald/mani/internal/models"
)

var (
	// ErrNotFound is returned when no row matches the requested identifier.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyDeleted is returned when soft deleting a tombstone.
	ErrAlreadyDeleted = errors.New("record already deleted")
	// ErrDuplicateDate is returned when a write would leave two live rows on
	// one date in a collection that allows only one.
	ErrDuplicateDate = errors.New("a live entry already exists for this date")
	// ErrNotInitialized is returned by Load when the database does not exist yet.
	ErrNotInitialized = errors.New("storage not initialized, run 'mani init' first")
)

// ListOptions controls row selection for dated entry listings.
type ListOptions struct {
	// IncludeDeleted returns tombstones as well as live rows.
	IncludeDeleted bool
}

// Provider is the lifecycle every backend shares.
type Provider interface {
	Init() error
	Load() error
	Close() error
	GetConfigPath() string
}

type DiaryStore interface {
	// ListDiaryEntries returns entries by date, newest first.
	ListDiaryEntries(opts ListOptions) ([]models.DiaryEntry, error)
	FindDiaryEntryByID(id string) (models.DiaryEntry, error)
	// CreateDiaryEntry reports false without writing when a live entry
	// already exists for the same date.
	CreateDiaryEntry(e models.DiaryEntry) (bool, error)
	// UpdateOrCreateDiaryEntry matches by id, then by live date, and
	// otherwise inserts. It returns the row as stored.
	UpdateOrCreateDiaryEntry(e models.DiaryEntry) (models.DiaryEntry, error)
	SoftDeleteDiaryEntry(id string) error
	HardDeleteDiaryEntry(id string) error
	WipeAllDiaryEntries() error
	// BulkImportDiaryEntries merges entries into the table in one transaction.
	BulkImportDiaryEntries(entries []models.DiaryEntry) (merge.Summary, error)
}

type MemoirStore interface {
	ListMemoirEntries(opts ListOptions) ([]models.MemoirEntry, error)
	FindMemoirEntryByID(id string) (models.MemoirEntry, error)
	CreateMemoirEntry(e models.MemoirEntry) (bool, error)
	UpdateOrCreateMemoirEntry(e models.MemoirEntry) (models.MemoirEntry, error)
	SoftDeleteMemoirEntry(id string) error
	HardDeleteMemoirEntry(id string) error
	WipeAllMemoirEntries() error
	BulkImportMemoirEntries(entries []models.MemoirEntry) (merge.Summary, error)
}

type ChecklistStore interface {
	// ListChecklistEntries returns goals with their logs in append order.
	ListChecklistEntries() ([]models.ChecklistEntry, error)
	FindChecklistEntryByID(id string) (models.ChecklistEntry, error)
	CreateChecklistEntry(c models.ChecklistEntry) error
	// UpdateChecklistEntry replaces the row and its logs.
	UpdateChecklistEntry(c models.ChecklistEntry) error
	// DeleteChecklistEntry hard deletes the goal and its logs.
	DeleteChecklistEntry(id string) error
	WipeAllChecklistEntries() error
	BulkImportChecklistEntries(entries []models.ChecklistEntry) (merge.Summary, error)
}

// Backend is the full persistence contract used by the journal store.
type Backend interface {
	Provider
	DiaryStore
	MemoirStore
	ChecklistStore

	// PurgeLedger returns ids hard deleted by earlier merges of the given
	// kind, mapped to the modification time recorded at purge.
	PurgeLedger(kind string) (map[string]int64, error)
}
