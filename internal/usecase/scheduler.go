package usecase

import (
	"context"
	"sync"
	"time"

	"RateWatch/internal/domain/models"
	applogger "RateWatch/pkg/logger"
)

// Scheduler gates ingestion to the business-hours window and optionally
// drives it from an in-process ticker. The window check and the window
// clock are injectable so the logic tests without wall-clock time.
type Scheduler struct {
	ing       *RateIngestor
	loc       *time.Location
	startHour int // inclusive
	endHour   int // exclusive
	tick      time.Duration
	now       func() time.Time
	l         *applogger.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	started bool
}

func NewScheduler(ing *RateIngestor, loc *time.Location, startHour, endHour int, tick time.Duration, l *applogger.Logger) *Scheduler {
	return &Scheduler{
		ing:       ing,
		loc:       loc,
		startHour: startHour,
		endHour:   endHour,
		tick:      tick,
		now:       time.Now,
		l:         l,
	}
}

// SetClock injects a clock for tests.
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

// ShouldRun reports whether t falls inside the weekday business-hours
// window in the business timezone.
func (s *Scheduler) ShouldRun(t time.Time) bool {
	local := t.In(s.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := local.Hour()
	return h >= s.startHour && h < s.endHour
}

// RunScheduled performs one gated cycle. Outside the window it reports
// a skip rather than an error; the external scheduler did nothing
// wrong, there is just nothing to do.
func (s *Scheduler) RunScheduled(ctx context.Context) (*models.RunSummary, error) {
	if now := s.now(); !s.ShouldRun(now) {
		s.l.Debug("outside business hours, skipping",
			applogger.String("local", now.In(s.loc).Format(time.RFC3339)),
		)
		return &models.RunSummary{SkipReason: "outside business hours"}, nil
	}
	return s.ing.RunOnce(ctx)
}

// Start launches the in-process ticker loop. Each tick is an
// independent invocation; overlap with an externally triggered run is
// safe through the store's idempotent upsert.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.RunScheduled(ctx); err != nil {
					s.l.Error("scheduled cycle failed", applogger.Error(err))
				}
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	s.l.Info("scheduler ticker started",
		applogger.Duration("interval_ms", s.tick),
		applogger.Int("start_hour", s.startHour),
		applogger.Int("end_hour", s.endHour),
	)
}

// Stop halts the ticker loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	close(s.stopCh)
	s.started = false
}
