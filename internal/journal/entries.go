package journal

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charlesinwald/mani/internal/logger"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/storage"
)

// entryBackend adapts the diary or memoir half of a storage.Backend to the
// shared entry field set.
type entryBackend interface {
	create(e models.Entry) (bool, error)
	upsert(e models.Entry) (models.Entry, error)
	softDelete(id string) error
	wipe() error
}

type diaryBackend struct{ b storage.Backend }

func (d diaryBackend) create(e models.Entry) (bool, error) {
	return d.b.CreateDiaryEntry(models.DiaryEntry{Entry: e})
}

func (d diaryBackend) upsert(e models.Entry) (models.Entry, error) {
	stored, err := d.b.UpdateOrCreateDiaryEntry(models.DiaryEntry{Entry: e})
	return stored.Entry, err
}

func (d diaryBackend) softDelete(id string) error { return d.b.SoftDeleteDiaryEntry(id) }
func (d diaryBackend) wipe() error                { return d.b.WipeAllDiaryEntries() }

type memoirBackend struct{ b storage.Backend }

func (m memoirBackend) create(e models.Entry) (bool, error) {
	return m.b.CreateMemoirEntry(models.MemoirEntry{Entry: e})
}

func (m memoirBackend) upsert(e models.Entry) (models.Entry, error) {
	stored, err := m.b.UpdateOrCreateMemoirEntry(models.MemoirEntry{Entry: e})
	return stored.Entry, err
}

func (m memoirBackend) softDelete(id string) error { return m.b.SoftDeleteMemoirEntry(id) }
func (m memoirBackend) wipe() error                { return m.b.WipeAllMemoirEntries() }

// entryList is one dated collection. items holds live entries only; new
// entries go to the head.
type entryList struct {
	collection     Collection
	oneLivePerDate bool
	backend        entryBackend
	items          []models.Entry
}

func (l *entryList) indexOf(id string) int {
	for i, e := range l.items {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (l *entryList) removeAt(i int) {
	l.items = append(l.items[:i], l.items[i+1:]...)
}

// insertChronological places e before the first entry with an earlier date.
func (l *entryList) insertChronological(e models.Entry) {
	for i, x := range l.items {
		if x.Date < e.Date {
			l.items = append(l.items[:i], append([]models.Entry{e}, l.items[i:]...)...)
			return
		}
	}
	l.items = append(l.items, e)
}

// sorted returns a copy ordered by date, newest first. Entries sharing a
// date keep their collection order.
func (l *entryList) sorted() []models.Entry {
	out := make([]models.Entry, len(l.items))
	copy(out, l.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func (l *entryList) byDate(date string) []models.Entry {
	var out []models.Entry
	for _, e := range l.items {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}

// dateTakenByOther reports whether a live entry other than id holds date.
// Collections that allow shared dates always report false.
func (l *entryList) dateTakenByOther(date, id string) bool {
	if !l.oneLivePerDate {
		return false
	}
	for _, e := range l.items {
		if e.Date == date && e.ID != id {
			return true
		}
	}
	return false
}

func (l *entryList) byID(id string) (models.Entry, bool) {
	if i := l.indexOf(id); i >= 0 {
		return l.items[i], true
	}
	return models.Entry{}, false
}

func (s *Store) addEntry(l *entryList, draft models.Entry) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := draft
	if err := models.ApplyDefaults(&e); err != nil {
		return models.Entry{}, fmt.Errorf("apply defaults: %w", err)
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	now := s.nowMillis()
	if e.CreatedAt == 0 {
		e.CreatedAt = now
	}
	e.ModifiedAt = now
	e.Deleted = false

	if l.indexOf(e.ID) >= 0 {
		logger.Warn("entry id already in use", "collection", l.collection, "id", e.ID)
		return models.Entry{}, fmt.Errorf("%s %s: %w", l.collection, e.ID, ErrDuplicateID)
	}
	if l.oneLivePerDate && len(l.byDate(e.Date)) > 0 {
		logger.Warn("entry already exists for date", "collection", l.collection, "date", e.Date)
		return models.Entry{}, fmt.Errorf("%s: %w", e.Date, ErrDuplicateDate)
	}

	l.items = append([]models.Entry{e}, l.items...)

	var created bool
	err := s.persist(l.collection, OpAdd, e.ID, func() error {
		var err error
		created, err = l.backend.create(e)
		return err
	})
	if err != nil {
		return e, err
	}
	if !created {
		// the backend holds a live row for this date that memory did not
		if i := l.indexOf(e.ID); i >= 0 {
			l.removeAt(i)
		}
		logger.Warn("backend rejected duplicate date", "collection", l.collection, "date", e.Date)
		return models.Entry{}, fmt.Errorf("%s: %w", e.Date, ErrDuplicateDate)
	}
	return e, nil
}

func (s *Store) updateEntry(l *entryList, entry models.Entry) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry
	if err := models.ApplyDefaults(&e); err != nil {
		return models.Entry{}, fmt.Errorf("apply defaults: %w", err)
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	now := s.nowMillis()
	if e.CreatedAt == 0 {
		e.CreatedAt = now
	}
	e.ModifiedAt = now
	e.Deleted = false

	i := l.indexOf(e.ID)
	if i >= 0 && l.dateTakenByOther(e.Date, e.ID) {
		logger.Warn("entry already exists for date", "collection", l.collection, "date", e.Date)
		return models.Entry{}, fmt.Errorf("%s: %w", e.Date, ErrDuplicateDate)
	}
	var prev models.Entry
	if i >= 0 {
		prev = l.items[i]
		l.items[i] = e
	} else {
		l.insertChronological(e)
	}

	var stored models.Entry
	err := s.persist(l.collection, OpUpdate, e.ID, func() error {
		var err error
		stored, err = l.backend.upsert(e)
		return err
	})
	if errors.Is(err, storage.ErrDuplicateDate) {
		// the backend moved nothing, so neither does memory
		if j := l.indexOf(e.ID); j >= 0 {
			if i >= 0 {
				l.items[j] = prev
			} else {
				l.removeAt(j)
			}
		}
		return models.Entry{}, fmt.Errorf("%s: %w", e.Date, ErrDuplicateDate)
	}
	if err != nil {
		return e, err
	}

	l.adopt(e.ID, stored)
	return stored, nil
}

// adopt replaces the entry written under writtenID with the row the backend
// stored, which may carry a different id when the backend matched by date.
func (l *entryList) adopt(writtenID string, stored models.Entry) {
	i := l.indexOf(writtenID)
	if stored.ID == writtenID || i < 0 {
		if i >= 0 {
			l.items[i] = stored
		}
		return
	}
	if j := l.indexOf(stored.ID); j >= 0 {
		l.items[j] = stored
		l.removeAt(l.indexOf(writtenID))
		return
	}
	l.items[i] = stored
}

func (s *Store) deleteEntry(l *entryList, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return notFound(l.collection, OpDelete, id)
	}
	l.removeAt(i)

	return s.persist(l.collection, OpDelete, id, func() error {
		return l.backend.softDelete(id)
	})
}

func (s *Store) wipeEntries(l *entryList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.items = nil
	return s.persist(l.collection, OpWipe, "", l.backend.wipe)
}

// AddEntry stores a new diary entry at the head of the collection. Unset
// mood, weather and temperature take their defaults. A draft whose date
// already has a live entry is rejected with ErrDuplicateDate.
func (s *Store) AddEntry(draft models.DiaryEntry) (models.DiaryEntry, error) {
	e, err := s.addEntry(s.diary, draft.Entry)
	s.notify(Change{Collection: CollectionDiary, Op: OpAdd, ID: e.ID, Err: err})
	return models.DiaryEntry{Entry: e}, err
}

// UpdateEntry replaces the entry with the same id, or inserts it in date
// order when memory does not hold it. The modification time is always set
// to now. The returned entry is the row as stored.
func (s *Store) UpdateEntry(entry models.DiaryEntry) (models.DiaryEntry, error) {
	e, err := s.updateEntry(s.diary, entry.Entry)
	s.notify(Change{Collection: CollectionDiary, Op: OpUpdate, ID: e.ID, Err: err})
	return models.DiaryEntry{Entry: e}, err
}

// DeleteEntry removes the entry from memory and soft deletes it in the
// backend, where it stays as a tombstone until the next merge.
func (s *Store) DeleteEntry(id string) error {
	err := s.deleteEntry(s.diary, id)
	s.notify(Change{Collection: CollectionDiary, Op: OpDelete, ID: id, Err: err})
	return err
}

// WipeDiary hard deletes every diary entry, tombstones included.
func (s *Store) WipeDiary() error {
	err := s.wipeEntries(s.diary)
	s.notify(Change{Collection: CollectionDiary, Op: OpWipe, Err: err})
	return err
}

// Entries returns live diary entries, newest date first.
func (s *Store) Entries() []models.DiaryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return wrapDiary(s.diary.sorted())
}

func (s *Store) FindEntriesByDate(date string) []models.DiaryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return wrapDiary(s.diary.byDate(date))
}

func (s *Store) FindEntryByID(id string) (models.DiaryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.diary.byID(id)
	return models.DiaryEntry{Entry: e}, ok
}

func (s *Store) AddMemoir(draft models.MemoirEntry) (models.MemoirEntry, error) {
	e, err := s.addEntry(s.memoirs, draft.Entry)
	s.notify(Change{Collection: CollectionMemoir, Op: OpAdd, ID: e.ID, Err: err})
	return models.MemoirEntry{Entry: e}, err
}

func (s *Store) UpdateMemoir(m models.MemoirEntry) (models.MemoirEntry, error) {
	e, err := s.updateEntry(s.memoirs, m.Entry)
	s.notify(Change{Collection: CollectionMemoir, Op: OpUpdate, ID: e.ID, Err: err})
	return models.MemoirEntry{Entry: e}, err
}

func (s *Store) DeleteMemoir(id string) error {
	err := s.deleteEntry(s.memoirs, id)
	s.notify(Change{Collection: CollectionMemoir, Op: OpDelete, ID: id, Err: err})
	return err
}

func (s *Store) Memoirs() []models.MemoirEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return wrapMemoir(s.memoirs.sorted())
}

func (s *Store) FindMemoirsByDate(date string) []models.MemoirEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return wrapMemoir(s.memoirs.byDate(date))
}

func (s *Store) FindMemoirByID(id string) (models.MemoirEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.memoirs.byID(id)
	return models.MemoirEntry{Entry: e}, ok
}

func wrapDiary(in []models.Entry) []models.DiaryEntry {
	out := make([]models.DiaryEntry, len(in))
	for i, e := range in {
		out[i] = models.DiaryEntry{Entry: e}
	}
	return out
}

func wrapMemoir(in []models.Entry) []models.MemoirEntry {
	out := make([]models.MemoirEntry, len(in))
	for i, e := range in {
		out[i] = models.MemoirEntry{Entry: e}
	}
	return out
}
