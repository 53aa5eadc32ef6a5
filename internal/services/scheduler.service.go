package services

import (
	"context"
	"sync"
	"time"

	"washplan/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/go-co-op/gocron"
)

type Schedule int

const (
	Hourly Schedule = iota
	Daily           // 02:00 UTC every day
	Weekly          // Sunday 20:00 UTC
)

func (s Schedule) String() string {
	switch s {
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	}
	return "unknown"
}

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Execute(ctx context.Context) error
	Schedule() Schedule
}

type SchedulerService struct {
	scheduler *gocron.Scheduler
	jobs      []Job
	log       logger.Logger
	started   bool
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewSchedulerService() *SchedulerService {
	ctx, cancel := context.WithCancel(context.Background())

	return &SchedulerService{
		scheduler: gocron.NewScheduler(time.UTC),
		jobs:      make([]Job, 0),
		log:       logger.New("SchedulerService"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *SchedulerService) executeJob(ctx context.Context, job Job) error {
	log := s.log.Function("executeJob")

	start := time.Now()
	if err := job.Execute(ctx); err != nil {
		return log.Err("job failed", err, "job", job.Name(), "duration", time.Since(start))
	}
	log.Info("Job completed", "job", job.Name(), "duration", time.Since(start))
	return nil
}

// AddJob registers job on its schedule. Overlapping runs of the same job are skipped.
func (s *SchedulerService) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("AddJob")

	run := func() { _ = s.executeJob(s.ctx, job) }

	var err error
	switch job.Schedule() {
	case Hourly:
		_, err = s.scheduler.Every(1).Hour().SingletonMode().Do(run)
	case Daily:
		_, err = s.scheduler.Every(1).Day().At("02:00").SingletonMode().Do(run)
	case Weekly:
		_, err = s.scheduler.Every(1).Sunday().At("20:00").SingletonMode().Do(run)
	default:
		return log.Err("unknown schedule", types.Validation("job %s has schedule %d", job.Name(), job.Schedule()))
	}
	if err != nil {
		return log.Err("failed to register job", err, "job", job.Name())
	}

	s.jobs = append(s.jobs, job)
	log.Info("Job registered", "job", job.Name(), "schedule", job.Schedule().String())
	return nil
}

func (s *SchedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("Start")

	if s.started {
		return nil
	}
	if len(s.jobs) == 0 {
		log.Info("No jobs registered, scheduler not started")
		return nil
	}

	s.scheduler.StartAsync()
	s.started = true

	for _, job := range s.scheduler.Jobs() {
		log.Info("Job scheduled", "nextRun", job.NextRun())
	}
	return nil
}

// Stop cancels the context handed to running jobs and stops the scheduler.
func (s *SchedulerService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("Stop")

	if !s.started {
		return nil
	}

	s.cancel()
	s.scheduler.Stop()
	s.started = false

	log.Info("Scheduler stopped")
	return nil
}

func (s *SchedulerService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *SchedulerService) GetJobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// RunJob executes a registered job by name on the caller's goroutine.
func (s *SchedulerService) RunJob(ctx context.Context, name string) error {
	s.mu.Lock()
	var target Job
	for _, job := range s.jobs {
		if job.Name() == name {
			target = job
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return s.log.Function("RunJob").Err("job not found", types.NotFound("job %s", name))
	}
	return s.executeJob(ctx, target)
}
