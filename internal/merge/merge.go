// Package merge reconciles an incoming snapshot of records against the
// current durable set using last-writer-wins on modification time.
//
// Planning is pure: Plan computes what should change and backends execute the
// result inside one transaction.
package merge

import "fmt"

// Record is anything the merge engine can reconcile.
type Record interface {
	GetID() string
	GetModifiedAt() int64
	IsDeleted() bool
}

// Update pairs the stored record with the incoming record replacing it.
type Update[T Record] struct {
	Previous T
	Next     T
}

// Purge is a record to hard delete. ModifiedAt is written to the purge
// ledger so older copies of the record are not re-created later.
type Purge struct {
	ID         string
	ModifiedAt int64
}

type Result[T Record] struct {
	Creates []T
	Updates []Update[T]
	Purges  []Purge
	Skipped int
}

// Summary counts the outcome of a merge.
type Summary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Purged  int `json:"purged"`
	Skipped int `json:"skipped"`
}

func (s Summary) Changed() bool {
	return s.Created+s.Updated+s.Purged > 0
}

func (s Summary) Add(o Summary) Summary {
	return Summary{
		Created: s.Created + o.Created,
		Updated: s.Updated + o.Updated,
		Purged:  s.Purged + o.Purged,
		Skipped: s.Skipped + o.Skipped,
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%d created, %d updated, %d purged, %d unchanged", s.Created, s.Updated, s.Purged, s.Skipped)
}

func (r Result[T]) Summary() Summary {
	return Summary{
		Created: len(r.Creates),
		Updated: len(r.Updates),
		Purged:  len(r.Purges),
		Skipped: r.Skipped,
	}
}

func (r Result[T]) Empty() bool {
	return !r.Summary().Changed()
}

// Plan reconciles incoming against current.
//
// current is the full durable set, tombstones included, with unique ids.
// purged maps ids already hard deleted by an earlier merge to the
// modification time recorded at purge; it may be nil.
//
// For each incoming record (the newest copy wins when an id repeats):
//   - unknown ids are created, unless the purge ledger holds a time at or
//     after the incoming one, or the incoming copy is itself deleted
//   - known ids are overwritten only when the incoming copy is strictly newer
//   - anything else is skipped
//
// Every tombstone is then purged, except tombstones an incoming live copy
// resurrected. Incoming deletions that win are purged in the same pass, so a
// second run with the same snapshot changes nothing.
func Plan[T Record](current, incoming []T, purged map[string]int64) Result[T] {
	var res Result[T]

	byID := make(map[string]T, len(current))
	for _, c := range current {
		byID[c.GetID()] = c
	}

	purgeAt := make(map[string]int64)
	var purgeOrder []string
	markPurge := func(id string, at int64) {
		if prev, ok := purgeAt[id]; ok {
			if at > prev {
				purgeAt[id] = at
			}
			return
		}
		purgeAt[id] = at
		purgeOrder = append(purgeOrder, id)
	}

	for _, c := range current {
		if c.IsDeleted() {
			markPurge(c.GetID(), c.GetModifiedAt())
		}
	}

	for _, in := range dedupe(incoming) {
		id := in.GetID()
		cur, exists := byID[id]

		if !exists {
			if at, ok := purged[id]; ok && at >= in.GetModifiedAt() {
				res.Skipped++
				continue
			}
			if in.IsDeleted() {
				res.Skipped++
				continue
			}
			res.Creates = append(res.Creates, in)
			continue
		}

		if in.GetModifiedAt() <= cur.GetModifiedAt() {
			res.Skipped++
			continue
		}

		if in.IsDeleted() {
			markPurge(id, in.GetModifiedAt())
			continue
		}

		if cur.IsDeleted() {
			delete(purgeAt, id)
		}
		res.Updates = append(res.Updates, Update[T]{Previous: cur, Next: in})
	}

	for _, id := range purgeOrder {
		if at, ok := purgeAt[id]; ok {
			res.Purges = append(res.Purges, Purge{ID: id, ModifiedAt: at})
		}
	}

	return res
}

// dedupe keeps one record per id, the newest by modification time with the
// later occurrence winning ties, in first-seen order.
func dedupe[T Record](in []T) []T {
	idx := make(map[string]int, len(in))
	out := make([]T, 0, len(in))
	for _, r := range in {
		i, seen := idx[r.GetID()]
		if !seen {
			idx[r.GetID()] = len(out)
			out = append(out, r)
			continue
		}
		if r.GetModifiedAt() >= out[i].GetModifiedAt() {
			out[i] = r
		}
	}
	return out
}

// Apply executes res against an in-memory copy of current and returns the
// resulting set. Backends do the same against their tables; Apply backs
// dry-run previews and tests.
func Apply[T Record](current []T, res Result[T]) []T {
	purge := make(map[string]bool, len(res.Purges))
	for _, p := range res.Purges {
		purge[p.ID] = true
	}
	next := make(map[string]T, len(res.Updates))
	for _, u := range res.Updates {
		next[u.Next.GetID()] = u.Next
	}

	out := make([]T, 0, len(current)+len(res.Creates))
	for _, c := range current {
		if purge[c.GetID()] {
			continue
		}
		if n, ok := next[c.GetID()]; ok {
			out = append(out, n)
			continue
		}
		out = append(out, c)
	}
	return append(out, res.Creates...)
}

// Ledger returns the purge ledger produced by res, merged over prior.
func Ledger[T Record](prior map[string]int64, res Result[T]) map[string]int64 {
	out := make(map[string]int64, len(prior)+len(res.Purges))
	for k, v := range prior {
		out[k] = v
	}
	for _, p := range res.Purges {
		if p.ModifiedAt >= out[p.ID] {
			out[p.ID] = p.ModifiedAt
		}
	}
	return out
}
