package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"promoagent/internal/events"
)

const cleanupSpec = "0 0 * * * *" // hourly

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Scheduler struct {
	cron      *cron.Cron
	queue     EventPublisher
	retention time.Duration
	log       zerolog.Logger
}

func NewScheduler(queue EventPublisher, retention time.Duration, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:      c,
		queue:     queue,
		retention: retention,
		log:       log,
	}
}

// Start registers the retention sweep. Nothing is scheduled when there is
// no queue or no retention window.
func (s *Scheduler) Start() error {
	if s.queue == nil || s.retention <= 0 {
		s.log.Debug().Msg("scheduler idle, retention disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(cleanupSpec, s.enqueueCleanup); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Dur("retention", s.retention).Msg("retention sweep scheduled")
	return nil
}

// Stop halts the cron and waits for a running job, bounded by 5s.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) jobCount() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) enqueueCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.queue.Publish(ctx, events.Event{
		Type:   events.TypeCleanup,
		Status: events.StatusOK,
	}); err != nil {
		s.log.Error().Err(err).Msg("enqueue cleanup failed")
	}
}
