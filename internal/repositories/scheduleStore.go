package repositories

import (
	"context"
	"time"

	"washplan/internal/models"
	"washplan/internal/types"

	"github.com/google/uuid"
)

// TaskBatch is applied atomically by WriteTasks. Each task's Version is the version
// the caller read; zero means the row must not exist yet. On success the store bumps
// Version on the given pointers.
type TaskBatch struct {
	Upserts []*models.ScheduledTask
	Deletes []*models.ScheduledTask
	Audit   []models.AuditEntry
}

func (b TaskBatch) Empty() bool {
	return len(b.Upserts) == 0 && len(b.Deletes) == 0 && len(b.Audit) == 0
}

type AuditQuery struct {
	CustomerID uuid.UUID
	Week       *types.WeekKey
	Since      time.Time
	Until      time.Time
	Limit      int
}

func (q AuditQuery) Matches(entry *models.AuditEntry) bool {
	if q.CustomerID != uuid.Nil && entry.CustomerID != q.CustomerID {
		return false
	}
	if q.Week != nil && entry.Week != *q.Week {
		return false
	}
	if !q.Since.IsZero() && entry.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !entry.Timestamp.Before(q.Until) {
		return false
	}
	return true
}

type ScheduleStore interface {
	ListActiveCustomers(ctx context.Context) ([]*models.Customer, error)
	GetCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
	SaveCustomer(ctx context.Context, customer *models.Customer) error

	GetRule(ctx context.Context, ruleID uuid.UUID) (*models.WashRule, error)
	SaveRule(ctx context.Context, rule *models.WashRule) error

	// ListActiveWorkers returns the roster ordered by position, then name.
	ListActiveWorkers(ctx context.Context) ([]*models.Worker, error)
	GetWorker(ctx context.Context, workerID uuid.UUID) (*models.Worker, error)
	SaveWorker(ctx context.Context, worker *models.Worker) error

	// GetHistory returns the customer's washes, most recent first.
	GetHistory(ctx context.Context, customerID uuid.UUID) ([]*models.WashHistoryRecord, error)
	// AppendHistory skips records already present and returns how many were added.
	AppendHistory(ctx context.Context, records []*models.WashHistoryRecord) (int, error)

	ReadTasks(ctx context.Context, week types.WeekKey) ([]*models.ScheduledTask, error)
	WriteTasks(ctx context.Context, week types.WeekKey, batch TaskBatch) error

	QueryAudit(ctx context.Context, query AuditQuery) ([]models.AuditEntry, error)
}

// ValidateBatch rejects tasks outside week and unknown wash types.
func ValidateBatch(week types.WeekKey, batch TaskBatch) error {
	for _, task := range batch.Upserts {
		if task.Week != week {
			return types.Validation("task %s does not belong to week %s", task.Key(), week)
		}
		if !task.WashType.Valid() {
			return types.Validation("task %s has unknown wash type %q", task.Key(), task.WashType)
		}
	}
	for _, task := range batch.Deletes {
		if task.Week != week {
			return types.Validation("task %s does not belong to week %s", task.Key(), week)
		}
	}
	return nil
}

// CheckWorkerBookings fails when an assigned upsert gives its worker a day and time
// another customer already holds in week, the week as it stands with batch applied.
// Stores call it inside their write exclusion.
func CheckWorkerBookings(week []*models.ScheduledTask, upserts []*models.ScheduledTask) error {
	holders := make(map[types.DayTime]map[uuid.UUID]map[uuid.UUID]bool)
	for _, task := range week {
		if !task.Assigned() {
			continue
		}
		at := task.Key().DayTime()
		if holders[at] == nil {
			holders[at] = make(map[uuid.UUID]map[uuid.UUID]bool)
		}
		if holders[at][*task.WorkerID] == nil {
			holders[at][*task.WorkerID] = make(map[uuid.UUID]bool)
		}
		holders[at][*task.WorkerID][task.CustomerID] = true
	}

	for _, task := range upserts {
		if !task.Assigned() {
			continue
		}
		for customerID := range holders[task.Key().DayTime()][*task.WorkerID] {
			if customerID != task.CustomerID {
				return types.Conflict(
					"worker %s already serves customer %s at %s %s",
					*task.WorkerID, customerID, task.Day, task.Time,
				)
			}
		}
	}
	return nil
}
