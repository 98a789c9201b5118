package export

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	appLog "crmcal/internal/log"
)

// Source produces the records for one export run.
type Source func() []Record

// Scheduler writes periodic exports on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	dir  string
	name string
	src  Source
}

// NewScheduler validates spec (standard 5-field or descriptors like
// "@hourly") and prepares a scheduler. It does not start it.
func NewScheduler(spec, dir, name string, src Source) (*Scheduler, error) {
	if src == nil {
		return nil, fmt.Errorf("export: nil source")
	}
	s := &Scheduler{
		cron: cron.New(),
		dir:  dir,
		name: name,
		src:  src,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("export: invalid cron spec %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce performs a single export. Failures are logged, not returned,
// because it runs from the cron goroutine.
func (s *Scheduler) RunOnce() {
	records := s.src()
	if len(records) == 0 {
		appLog.Debug("scheduled export skipped; no records")
		return
	}
	if _, err := WriteFile(s.dir, s.name, records); err != nil {
		appLog.Error("scheduled export failed", err, "dir", s.dir)
	}
}

// Run starts the schedule and blocks until ctx is done, then waits for any
// running export to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	appLog.Info("export scheduler started", "dir", s.dir, "file", Filename(s.name))

	<-ctx.Done()

	<-s.cron.Stop().Done()
	appLog.Info("export scheduler stopped")
	return nil
}
