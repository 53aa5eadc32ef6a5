package jobs

import (
	"time"

	"washplan/config"
	"washplan/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	service services.Service,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled, skipping job registration")
		return nil
	}

	regeneration := NewWeeklyRegenerationJob(service.Assigner, time.Now, services.Weekly)
	if err := schedulerService.AddJob(regeneration); err != nil {
		return log.Err("failed to register weekly regeneration job", err)
	}

	completion := NewVisitCompletionJob(service.History, time.Now, services.Daily)
	if err := schedulerService.AddJob(completion); err != nil {
		return log.Err("failed to register visit completion job", err)
	}

	log.Info("Jobs registered", "count", schedulerService.GetJobCount())
	return nil
}
