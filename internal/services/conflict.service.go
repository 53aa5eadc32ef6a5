package services

import (
	"context"
	"sort"

	"washplan/internal/metrics"
	"washplan/internal/models"
	"washplan/internal/repositories"
	"washplan/internal/types"
	"washplan/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

type ConflictService struct {
	store   repositories.ScheduleStore
	metrics metrics.Sink
	log     logger.Logger
}

func NewConflictService(store repositories.ScheduleStore, sink metrics.Sink) *ConflictService {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &ConflictService{
		store:   store,
		metrics: sink,
		log:     logger.New("ConflictService"),
	}
}

func (s *ConflictService) GetConflicts(
	ctx context.Context,
	week types.WeekKey,
) (*types.ConflictReport, error) {
	log := s.log.Function("GetConflicts")

	tasks, err := s.store.ReadTasks(ctx, week)
	if err != nil {
		return nil, err
	}

	report := DetectConflicts(week, tasks)
	s.metrics.RecordConflicts(
		week.String(),
		len(report.WorkerDoubleBookings),
		len(report.CustomerMultiWorker),
	)
	if !report.Empty() {
		log.Warn(
			"schedule conflicts found",
			"week", week.String(),
			"doubleBookings", len(report.WorkerDoubleBookings),
			"multiWorker", len(report.CustomerMultiWorker),
		)
	}
	return report, nil
}

// DetectConflicts flags, per (day, time), workers serving more than one customer and
// customers served by more than one worker. Unassigned tasks are ignored.
func DetectConflicts(week types.WeekKey, tasks []*models.ScheduledTask) *types.ConflictReport {
	workerCustomers := make(map[types.DayTime]map[uuid.UUID]map[uuid.UUID]bool)
	customerWorkers := make(map[types.DayTime]map[uuid.UUID]map[uuid.UUID]bool)

	for _, task := range tasks {
		if !task.Assigned() {
			continue
		}
		dayTime := task.Key().DayTime()
		addPair(workerCustomers, dayTime, *task.WorkerID, task.CustomerID)
		addPair(customerWorkers, dayTime, task.CustomerID, *task.WorkerID)
	}

	report := &types.ConflictReport{
		Week:                 week,
		WorkerDoubleBookings: []types.WorkerDoubleBooking{},
		CustomerMultiWorker:  []types.CustomerMultiWorker{},
	}
	for dayTime, workers := range workerCustomers {
		for workerID, customers := range workers {
			if len(customers) > 1 {
				report.WorkerDoubleBookings = append(report.WorkerDoubleBookings, types.WorkerDoubleBooking{
					Day:         dayTime.Day,
					Time:        dayTime.Time,
					WorkerID:    workerID,
					CustomerIDs: sortedIDs(customers),
				})
			}
		}
	}
	for dayTime, customers := range customerWorkers {
		for customerID, workers := range customers {
			if len(workers) > 1 {
				report.CustomerMultiWorker = append(report.CustomerMultiWorker, types.CustomerMultiWorker{
					Day:        dayTime.Day,
					Time:       dayTime.Time,
					CustomerID: customerID,
					WorkerIDs:  sortedIDs(workers),
				})
			}
		}
	}

	sort.Slice(report.WorkerDoubleBookings, func(i, j int) bool {
		a, b := report.WorkerDoubleBookings[i], report.WorkerDoubleBookings[j]
		if cmp := utils.CompareSlots(a.Day, a.Time, b.Day, b.Time); cmp != 0 {
			return cmp < 0
		}
		return a.WorkerID.String() < b.WorkerID.String()
	})
	sort.Slice(report.CustomerMultiWorker, func(i, j int) bool {
		a, b := report.CustomerMultiWorker[i], report.CustomerMultiWorker[j]
		if cmp := utils.CompareSlots(a.Day, a.Time, b.Day, b.Time); cmp != 0 {
			return cmp < 0
		}
		return a.CustomerID.String() < b.CustomerID.String()
	})

	return report
}

func addPair(index map[types.DayTime]map[uuid.UUID]map[uuid.UUID]bool, dayTime types.DayTime, outer, inner uuid.UUID) {
	if index[dayTime] == nil {
		index[dayTime] = make(map[uuid.UUID]map[uuid.UUID]bool)
	}
	if index[dayTime][outer] == nil {
		index[dayTime][outer] = make(map[uuid.UUID]bool)
	}
	index[dayTime][outer][inner] = true
}

func sortedIDs(set map[uuid.UUID]bool) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
