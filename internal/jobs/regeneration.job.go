package jobs

import (
	"context"
	"time"

	"washplan/internal/services"
	"washplan/internal/types"

	txContext "washplan/internal/context"

	logger "github.com/Bparsons0904/goLogger"
)

const SchedulerActor = "scheduler"

type Regenerator interface {
	Regenerate(ctx context.Context, week types.WeekKey) (*types.RegenerationResult, error)
}

// WeeklyRegenerationJob builds the schedule of the week after the one it runs in.
type WeeklyRegenerationJob struct {
	assigner Regenerator
	now      func() time.Time
	log      logger.Logger
	schedule services.Schedule
}

func NewWeeklyRegenerationJob(
	assigner Regenerator,
	now func() time.Time,
	schedule services.Schedule,
) *WeeklyRegenerationJob {
	return &WeeklyRegenerationJob{
		assigner: assigner,
		now:      now,
		log:      logger.New("weeklyRegenerationJob"),
		schedule: schedule,
	}
}

func (j *WeeklyRegenerationJob) Name() string {
	return "WeeklyRegeneration"
}

func (j *WeeklyRegenerationJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	week := types.WeekOf(j.now().UTC()).Add(1)
	ctx = txContext.WithActor(ctx, SchedulerActor)

	result, err := j.assigner.Regenerate(ctx, week)
	if err != nil {
		return log.Err("regeneration failed", err, "week", week.String())
	}

	if len(result.Failures) > 0 {
		log.Warn("customers skipped during regeneration", "week", week.String(), "failures", len(result.Failures))
	}
	log.Info("Next week regenerated", "week", week.String(), "created", result.Created, "unassigned", result.Unassigned)
	return nil
}

func (j *WeeklyRegenerationJob) Schedule() services.Schedule {
	return j.schedule
}
