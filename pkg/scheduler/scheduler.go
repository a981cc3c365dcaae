package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Task is a periodic job such as the reservation expiry sweep.
type Task interface {
	Name() string
	RunOnce(ctx context.Context)
}

type Scheduler struct {
	cron     gocron.Scheduler
	task     Task
	interval time.Duration
}

func NewScheduler(task Task, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		cron:     cron,
		task:     task,
		interval: interval,
	}, nil
}

// Start runs the task every interval until ctx is done. Overlapping runs are skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	job, err := s.cron.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.task.RunOnce, ctx),
		gocron.WithName(s.task.Name()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", s.task.Name(), err)
	}

	s.cron.Start()
	logrus.WithFields(logrus.Fields{
		"job":      s.task.Name(),
		"job_id":   job.ID().String(),
		"interval": s.interval,
	}).Info("Scheduler started")

	<-ctx.Done()

	if err := s.cron.Shutdown(); err != nil {
		logrus.WithError(err).Warn("Scheduler shutdown failed")
		return err
	}
	logrus.WithField("job", s.task.Name()).Info("Scheduler stopped")
	return nil
}
