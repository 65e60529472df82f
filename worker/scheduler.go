package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/viafly/viafly/config"
	"github.com/viafly/viafly/pkg/logger"
	"github.com/viafly/viafly/queue"
)

// Scheduler enqueues the recurring collection sweep on a cron schedule.
type Scheduler struct {
	queue queue.Queue
	cfg   config.SweepConfig
	cron  *cron.Cron
	log   *logger.Logger
}

// NewScheduler creates a scheduler for the configured sweep.
func NewScheduler(q queue.Queue, cfg config.SweepConfig, log *logger.Logger) *Scheduler {
	return &Scheduler{
		queue: q,
		cfg:   cfg,
		cron:  cron.New(),
		log:   log,
	}
}

// Start registers the sweep entry and starts the cron loop.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.cfg.Cron, s.enqueueSweep); err != nil {
		s.log.Error(err, "schedule sweep", "cron", s.cfg.Cron)
		return
	}
	s.cron.Start()
	s.log.Info("scheduler started", "cron", s.cfg.Cron,
		"origin", s.cfg.Origin, "destination", s.cfg.Destination)
}

// Stop stops the cron loop and waits for a running entry to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) enqueueSweep() {
	payload := s.BuildPayload(time.Now().UTC())

	jobID, err := s.queue.Enqueue(context.Background(), JobTypeCollectSweep, payload)
	if err != nil {
		s.log.Error(err, "enqueue sweep")
		return
	}
	s.log.Info("enqueued sweep", "job_id", jobID,
		"leg1_from", payload.Leg1DateFrom, "leg2_to", payload.Leg2DateTo)
}

// BuildPayload materializes the configured day offsets into concrete dates
// relative to now.
func (s *Scheduler) BuildPayload(now time.Time) SweepPayload {
	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format("2006-01-02")
	}
	return SweepPayload{
		Origin:       s.cfg.Origin,
		Destination:  s.cfg.Destination,
		Leg1DateFrom: day(s.cfg.Leg1FromDays),
		Leg1DateTo:   day(s.cfg.Leg1ToDays),
		Leg2DateFrom: day(s.cfg.Leg2FromDays),
		Leg2DateTo:   day(s.cfg.Leg2ToDays),
	}
}
