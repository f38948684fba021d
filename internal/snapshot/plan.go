package snapshot

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/journal"
	"github.com/charlesinwald/mani/internal/merge"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/storage"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionPurge  Action = "purge"
)

// Change is one planned write, for display.
type Change struct {
	Kind   string
	Action Action
	ID     string
	Label  string
	// Diff marks description edits of an update as [-removed-]{+added+}.
	Diff string
}

// Preview is what importing a snapshot would do, computed without writing.
type Preview struct {
	Result  journal.ImportResult
	Changes []Change
}

// PlanImport runs the merge planner for every collection of s against the
// backend's current rows and purge ledger.
func PlanImport(b storage.Backend, s *Snapshot) (*Preview, error) {
	set := s.ImportSet()
	p := &Preview{}

	diary, err := b.ListDiaryEntries(storage.ListOptions{IncludeDeleted: true})
	if err != nil {
		return nil, err
	}
	ledger, err := b.PurgeLedger(constants.KindDiary)
	if err != nil {
		return nil, err
	}
	dr := merge.Plan(diary, set.Diary, ledger)
	p.Result.Diary = dr.Summary()
	p.Changes = append(p.Changes, entryChanges(constants.KindDiary, dr, func(e models.DiaryEntry) models.Entry { return e.Entry })...)

	memoirs, err := b.ListMemoirEntries(storage.ListOptions{IncludeDeleted: true})
	if err != nil {
		return nil, err
	}
	if ledger, err = b.PurgeLedger(constants.KindMemoir); err != nil {
		return nil, err
	}
	mr := merge.Plan(memoirs, set.Memoirs, ledger)
	p.Result.Memoirs = mr.Summary()
	p.Changes = append(p.Changes, entryChanges(constants.KindMemoir, mr, func(m models.MemoirEntry) models.Entry { return m.Entry })...)

	checklist, err := b.ListChecklistEntries()
	if err != nil {
		return nil, err
	}
	cr := merge.Plan(checklist, set.Checklist, nil)
	p.Result.Checklist = cr.Summary()
	for _, c := range cr.Creates {
		p.Changes = append(p.Changes, Change{Kind: constants.KindChecklist, Action: ActionCreate, ID: c.ID, Label: c.Description})
	}
	for _, u := range cr.Updates {
		p.Changes = append(p.Changes, Change{
			Kind:   constants.KindChecklist,
			Action: ActionUpdate,
			ID:     u.Next.ID,
			Label:  u.Next.Description,
			Diff:   describeEdit(u.Previous.Description, u.Next.Description),
		})
	}
	return p, nil
}

func entryChanges[T merge.Record](kind string, r merge.Result[T], entry func(T) models.Entry) []Change {
	var out []Change
	for _, c := range r.Creates {
		e := entry(c)
		out = append(out, Change{Kind: kind, Action: ActionCreate, ID: e.ID, Label: e.Date})
	}
	for _, u := range r.Updates {
		prev, next := entry(u.Previous), entry(u.Next)
		out = append(out, Change{
			Kind:   kind,
			Action: ActionUpdate,
			ID:     next.ID,
			Label:  next.Date,
			Diff:   describeEdit(prev.Description, next.Description),
		})
	}
	for _, pg := range r.Purges {
		out = append(out, Change{Kind: kind, Action: ActionPurge, ID: pg.ID})
	}
	return out
}

// describeEdit renders a word-level diff, or "" when the texts match.
func describeEdit(before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(&b, "[-%s-]", d.Text)
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(&b, "{+%s+}", d.Text)
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

func (c Change) String() string {
	line := fmt.Sprintf("%-7s %-9s %s", c.Action, c.Kind, c.ID)
	if c.Label != "" {
		line += "  " + c.Label
	}
	if c.Diff != "" {
		line += "\n        " + c.Diff
	}
	return line
}
