package watchlist

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler refreshes a watchlist periodically.
type Scheduler struct {
	Cron      *cron.Cron
	Watchlist *Watchlist
	Ctx       context.Context

	onRefresh func(Snapshot)
	logger    *zap.Logger
}

// NewScheduler creates a scheduler that refreshes w on the cron spec (with
// seconds) and passes every snapshot to onRefresh. Overlapping runs are skipped.
func NewScheduler(ctx context.Context, w *Watchlist, spec string, onRefresh func(Snapshot)) (*Scheduler, error) {
	s := &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		Watchlist: w,
		Ctx:       ctx,
		onRefresh: onRefresh,
		logger:    w.logger,
	}
	if s.onRefresh == nil {
		s.onRefresh = func(Snapshot) {}
	}
	if _, err := s.Cron.AddFunc(spec, s.refresh); err != nil {
		return nil, fmt.Errorf("register refresh task %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow refreshes immediately, e.g. for a manual pull-to-refresh.
func (s *Scheduler) RunNow() {
	s.refresh()
}

func (s *Scheduler) refresh() {
	if s.Ctx.Err() != nil {
		return
	}
	s.onRefresh(s.Watchlist.Refresh(s.Ctx))
}
