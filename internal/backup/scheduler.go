package backup

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/charlesinwald/mani/internal/logger"
)

// Job runs after each scheduled backup, for example to push a snapshot
// to the configured remote.
type Job func(ctx context.Context, created Info) error

// Scheduler creates backups on a cron schedule.
type Scheduler struct {
	manager *Manager
	spec    string
	after   []Job
	cron    *cron.Cron
}

// NewScheduler validates spec, which accepts standard five-field cron
// expressions and descriptors such as @daily or @every 6h.
func NewScheduler(m *Manager, spec string, after ...Job) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	return &Scheduler{
		manager: m,
		spec:    spec,
		after:   after,
		cron:    cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}, nil
}

// RunOnce performs one scheduled run: a backup followed by every job.
// Job failures are logged and do not stop later jobs.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	info, err := s.manager.Create()
	if err != nil {
		logger.Error("scheduled backup failed", "error", err)
		return err
	}
	for _, job := range s.after {
		if err := job(ctx, info); err != nil {
			logger.Error("post-backup job failed", "backup", info.Name(), "error", err)
		}
	}
	return nil
}

// Run blocks until ctx is cancelled, running RunOnce on the schedule.
// A run in progress is allowed to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { _ = s.RunOnce(ctx) }); err != nil {
		return err
	}
	logger.Info("backup scheduler started", "schedule", s.spec, "dir", s.manager.Dir())
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()
	logger.Info("backup scheduler stopped")
	return nil
}

func (s *Scheduler) Spec() string { return s.spec }
