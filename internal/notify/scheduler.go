package notify

import (
	"context"
	"time"

	"finanzas/internal/insights"
	"finanzas/internal/log"
)

// Source supplies the insights current at reminder time.
type Source interface {
	Insights(ctx context.Context) ([]insights.Insight, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]insights.Insight, error)

func (f SourceFunc) Insights(ctx context.Context) ([]insights.Insight, error) { return f(ctx) }

// Scheduler fires once a day at a fixed clock time.
type Scheduler struct {
	clock    Clock
	loc      *time.Location
	source   Source
	notifier Notifier
	logger   *log.Logger

	now      func() time.Time
	newTimer func(d time.Duration) (<-chan time.Time, func() bool)
}

func NewScheduler(clock Clock, loc *time.Location, source Source, notifier Notifier, logger *log.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Scheduler{
		clock:    clock,
		loc:      loc,
		source:   source,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentNotify),
		now:      time.Now,
		newTimer: func(d time.Duration) (<-chan time.Time, func() bool) {
			t := time.NewTimer(d)
			return t.C, t.Stop
		},
	}
}

// Run blocks until ctx is cancelled, delivering one notification per day.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.now().In(s.loc)
		next := s.clock.Next(now)
		s.logger.InfoContext(ctx, "Reminder scheduled", "at", next.Format(time.RFC3339))

		fire, stop := s.newTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			stop()
			return ctx.Err()
		case at := <-fire:
			s.Tick(ctx, at.In(s.loc))
		}
	}
}

// Tick builds and delivers one notification. Failures are logged; a
// missing insight source still sends the plain reminder.
func (s *Scheduler) Tick(ctx context.Context, at time.Time) {
	var found []insights.Insight
	if s.source != nil {
		var err error
		found, err = s.source.Insights(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "Could not compute insights for reminder", log.FieldError, err)
		}
	}
	if err := s.notifier.Notify(ctx, Build(at, found)); err != nil {
		s.logger.ErrorContext(ctx, "Notification delivery failed", log.FieldError, err)
	}
}
