package jobs

import (
	"context"
	"time"

	"washplan/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type VisitCompleter interface {
	CompleteVisits(ctx context.Context, asOf time.Time) (int, error)
}

// VisitCompletionJob records finished visits into wash history.
type VisitCompletionJob struct {
	history  VisitCompleter
	now      func() time.Time
	log      logger.Logger
	schedule services.Schedule
}

func NewVisitCompletionJob(
	history VisitCompleter,
	now func() time.Time,
	schedule services.Schedule,
) *VisitCompletionJob {
	return &VisitCompletionJob{
		history:  history,
		now:      now,
		log:      logger.New("visitCompletionJob"),
		schedule: schedule,
	}
}

func (j *VisitCompletionJob) Name() string {
	return "VisitCompletion"
}

func (j *VisitCompletionJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	added, err := j.history.CompleteVisits(ctx, j.now().UTC())
	if err != nil {
		return log.Err("visit completion failed", err)
	}

	log.Info("Visit completion finished", "added", added)
	return nil
}

func (j *VisitCompletionJob) Schedule() services.Schedule {
	return j.schedule
}
