package remote

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/charlesinwald/mani/internal/journal"
	"github.com/charlesinwald/mani/internal/logger"
	"github.com/charlesinwald/mani/internal/snapshot"
	"github.com/charlesinwald/mani/internal/storage"
)

// SyncReport describes one Sync run.
type SyncReport struct {
	Pulled bool
	Merged journal.ImportResult
	Pushed int
}

// Sync pulls the remote snapshot, merges it into store, then pushes a fresh
// snapshot of the merged backend. A missing remote snapshot is not an
// error: the first sync only pushes.
func Sync(ctx context.Context, t Target, store *journal.Store, b storage.Backend, now time.Time) (SyncReport, error) {
	var report SyncReport

	data, err := t.Pull(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		logger.Info("remote has no snapshot yet", "target", t.String())
	case err != nil:
		return report, errors.Wrap(err, "pull")
	default:
		incoming, err := snapshot.Decode(data)
		if err != nil {
			return report, errors.Wrap(err, "remote snapshot")
		}
		report.Pulled = true
		if report.Merged, err = store.Import(incoming.ImportSet()); err != nil {
			return report, errors.Wrap(err, "merge")
		}
		logger.Info("merged remote snapshot", "target", t.String(), "changes", report.Merged.Total().String())
	}

	return report, push(ctx, t, b, now, &report)
}

// Push uploads a snapshot of b without pulling first.
func Push(ctx context.Context, t Target, b storage.Backend, now time.Time) (int, error) {
	var report SyncReport
	err := push(ctx, t, b, now, &report)
	return report.Pushed, err
}

func push(ctx context.Context, t Target, b storage.Backend, now time.Time, report *SyncReport) error {
	s, err := snapshot.Build(b, now)
	if err != nil {
		return err
	}
	out, err := snapshot.Encode(s)
	if err != nil {
		return err
	}
	if err := t.Push(ctx, out); err != nil {
		return errors.Wrap(err, "push")
	}
	report.Pushed = len(out)
	logger.Info("pushed snapshot", "target", t.String(), "bytes", len(out))
	return nil
}
