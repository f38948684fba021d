// Package journal holds the in-memory working copy of the journal and keeps
// it in step with a storage.Backend.
//
// Every mutation goes through a Store action. Actions update memory, write
// through to the backend while holding the store lock, record the outcome
// in Status, and then notify subscribers. A failed write is returned to the
// caller and memory is left as is until the next Hydrate.
package journal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charlesinwald/mani/internal/logger"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/storage"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateDate = errors.New("an entry already exists for this date")
	ErrDuplicateID   = errors.New("a record with this id already exists")
)

type Collection string

const (
	CollectionDiary     Collection = "diary"
	CollectionMemoir    Collection = "memoir"
	CollectionChecklist Collection = "checklist"
	CollectionAll       Collection = "all"
)

type Op string

const (
	OpHydrate  Op = "hydrate"
	OpAdd      Op = "add"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
	OpToggle   Op = "toggle"
	OpComplete Op = "complete"
	OpLog      Op = "log"
	OpImport   Op = "import"
	OpWipe     Op = "wipe"
)

// Change describes one store event. Err is set when the backend write failed.
type Change struct {
	Collection Collection
	Op         Op
	ID         string
	Err        error
}

type SyncState int

const (
	SyncIdle SyncState = iota
	SyncPending
	SyncFailed
	SyncOK
)

func (s SyncState) String() string {
	switch s {
	case SyncPending:
		return "pending"
	case SyncFailed:
		return "failed"
	case SyncOK:
		return "saved"
	default:
		return "idle"
	}
}

// SyncStatus is the outcome of the most recent backend write.
type SyncStatus struct {
	State SyncState
	Op    Op
	Err   error
	At    time.Time
}

type Store struct {
	backend storage.Backend
	now     func() time.Time
	newID   func() string

	mu        sync.RWMutex
	diary     *entryList
	memoirs   *entryList
	checklist []models.ChecklistEntry

	statusMu sync.RWMutex
	status   SyncStatus

	subsMu  sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New returns an empty store over backend. Call Hydrate to load data.
func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		newID:   uuid.NewString,
		subs:    make(map[int]func(Change)),
	}
	s.diary = &entryList{collection: CollectionDiary, oneLivePerDate: true, backend: diaryBackend{backend}}
	s.memoirs = &entryList{collection: CollectionMemoir, backend: memoirBackend{backend}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// Subscribe registers fn for every change. fn runs synchronously on the
// goroutine that made the change, after the store lock is released.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.subsMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

func (s *Store) Status() SyncStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *Store) setStatus(state SyncState, op Op, err error) {
	s.statusMu.Lock()
	s.status = SyncStatus{State: state, Op: op, Err: err, At: s.now()}
	s.statusMu.Unlock()
}

// persist runs one backend write and records its outcome.
func (s *Store) persist(c Collection, op Op, id string, write func() error) error {
	s.setStatus(SyncPending, op, nil)
	if err := write(); err != nil {
		err = fmt.Errorf("%s %s %s: %w", op, c, id, err)
		s.setStatus(SyncFailed, op, err)
		logger.Error("persistence write failed", "collection", c, "op", op, "id", id, "error", err)
		return err
	}
	s.setStatus(SyncOK, op, nil)
	return nil
}

func notFound(c Collection, op Op, id string) error {
	logger.Warn("no such record", "collection", c, "op", op, "id", id)
	return fmt.Errorf("%s %s: %w", c, id, ErrNotFound)
}

// Hydrate replaces every in-memory collection with the backend's live rows.
// On failure the previous collections are kept.
func (s *Store) Hydrate() error {
	err := s.hydrate()
	s.notify(Change{Collection: CollectionAll, Op: OpHydrate, Err: err})
	return err
}

func (s *Store) hydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrateLocked()
}

func (s *Store) hydrateLocked() error {
	var (
		entries   []models.DiaryEntry
		memoirs   []models.MemoirEntry
		checklist []models.ChecklistEntry
	)
	err := s.persist(CollectionAll, OpHydrate, "", func() error {
		var err error
		if entries, err = s.backend.ListDiaryEntries(storage.ListOptions{}); err != nil {
			return err
		}
		if memoirs, err = s.backend.ListMemoirEntries(storage.ListOptions{}); err != nil {
			return err
		}
		checklist, err = s.backend.ListChecklistEntries()
		return err
	})
	if err != nil {
		return err
	}

	s.diary.items = make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Deleted {
			s.diary.items = append(s.diary.items, e.Entry)
		}
	}
	s.memoirs.items = make([]models.Entry, 0, len(memoirs))
	for _, m := range memoirs {
		if !m.Deleted {
			s.memoirs.items = append(s.memoirs.items, m.Entry)
		}
	}
	s.checklist = checklist
	logger.Debug("hydrated", "diary", len(s.diary.items), "memoirs", len(s.memoirs.items), "checklist", len(s.checklist))
	return nil
}
