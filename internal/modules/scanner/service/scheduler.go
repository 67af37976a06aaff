package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"signal_scanner/internal/models"
	"signal_scanner/pkg/logger"
)

// Job runs one profile every Every, or on Cron when set.
type Job struct {
	Profile models.Profile
	Every   time.Duration
	Cron    string
}

// Scheduler triggers scan passes. A job never overlaps itself; a tick that lands while the
// previous pass of the same job is still running is skipped.
type Scheduler struct {
	sched   *gocron.Scheduler
	scanner *Scanner
	jobs    []Job

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(scanner *Scanner, jobs []Job) (*Scheduler, error) {
	s := &Scheduler{
		sched:   gocron.NewScheduler(time.UTC),
		scanner: scanner,
		jobs:    jobs,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.sched.SingletonModeAll()

	for i, job := range jobs {
		var b *gocron.Scheduler
		if job.Cron != "" {
			b = s.sched.Cron(job.Cron)
		} else {
			b = s.sched.Every(job.Every)
		}
		if _, err := b.Tag(fmt.Sprintf("%s#%d", job.Profile.Name, i)).Do(s.run, job.Profile); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", job.Profile.Name, err)
		}
	}
	return s, nil
}

func (s *Scheduler) run(p models.Profile) {
	if _, err := s.scanner.Run(s.ctx, p); err != nil {
		logger.Error("[%s] scheduled pass: %v", p.Name, err)
	}
}

func (s *Scheduler) Start() {
	for _, j := range s.jobs {
		when := j.Cron
		if when == "" {
			when = "every " + j.Every.String()
		}
		logger.Info("scheduled %s: %s", j.Profile.Name, when)
	}
	s.sched.StartAsync()
	logger.Info("scheduler started with %d jobs", s.Len())
}

// Stop cancels running passes and waits for the scheduler to halt.
func (s *Scheduler) Stop() {
	s.cancel()
	s.sched.Stop()
}

func (s *Scheduler) Len() int { return len(s.sched.Jobs()) }
