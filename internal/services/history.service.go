package services

import (
	"context"
	"time"

	"washplan/internal/metrics"
	"washplan/internal/models"
	"washplan/internal/repositories"
	"washplan/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

// DefaultCompletionLookback is how many weeks, counting the week of asOf, a completion
// pass scans for finished visits.
const DefaultCompletionLookback = 2

type HistoryService struct {
	store    repositories.ScheduleStore
	metrics  metrics.Sink
	lookback int
	log      logger.Logger
}

func NewHistoryService(store repositories.ScheduleStore, sink metrics.Sink) *HistoryService {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &HistoryService{
		store:    store,
		metrics:  sink,
		lookback: DefaultCompletionLookback,
		log:      logger.New("HistoryService"),
	}
}

func (s *HistoryService) GetHistory(
	ctx context.Context,
	customerID uuid.UUID,
) ([]*models.WashHistoryRecord, error) {
	return s.store.GetHistory(ctx, customerID)
}

// CompleteVisits turns every assigned task dated before asOf into a history record.
// Records that already exist are skipped, so repeated runs add nothing.
func (s *HistoryService) CompleteVisits(ctx context.Context, asOf time.Time) (int, error) {
	log := s.log.Function("CompleteVisits")

	if asOf.IsZero() {
		return 0, types.Validation("completion date is required")
	}
	asOf = asOf.UTC()
	cutoff := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	current := types.WeekOf(cutoff)

	var records []*models.WashHistoryRecord
	for offset := s.lookback - 1; offset >= 0; offset-- {
		week := current.Add(-offset)
		tasks, err := s.store.ReadTasks(ctx, week)
		if err != nil {
			return 0, log.Err("failed to read tasks", err, "week", week.String())
		}

		for _, task := range tasks {
			if !task.Assigned() || !task.ScheduleDate.Before(cutoff) {
				continue
			}
			workerID := *task.WorkerID
			records = append(records, &models.WashHistoryRecord{
				CustomerID: task.CustomerID,
				CarPlate:   task.CarPlate,
				WashDate:   task.ScheduleDate,
				WashType:   task.WashType,
				WorkerID:   &workerID,
			})
		}
	}

	if len(records) == 0 {
		return 0, nil
	}

	added, err := s.store.AppendHistory(ctx, records)
	if err != nil {
		return 0, log.Err("failed to append history", err, "candidates", len(records))
	}
	s.metrics.RecordCompletedVisits(added)

	log.Info("Visits completed", "asOf", cutoff.Format(time.DateOnly), "added", added, "candidates", len(records))
	return added, nil
}
