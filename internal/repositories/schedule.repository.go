package repositories

import (
	"context"
	"errors"

	"washplan/internal/database"
	"washplan/internal/models"
	"washplan/internal/types"

	txContext "washplan/internal/context"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	taskKeyWhere = "week = ? AND customer_id = ? AND day = ? AND time = ? AND car_plate = ? AND version = ?"
	weekLockSQL  = "SELECT pg_try_advisory_xact_lock(hashtext(?))"
)

type scheduleRepository struct {
	db  database.DB
	log logger.Logger
}

var _ ScheduleStore = (*scheduleRepository)(nil)

func NewScheduleRepository(db database.DB) ScheduleStore {
	return &scheduleRepository{
		db:  db,
		log: logger.New("scheduleRepository"),
	}
}

// conn joins the caller's transaction when one is carried on the context.
func (r *scheduleRepository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := txContext.GetTransaction(ctx); ok {
		return tx.WithContext(ctx)
	}
	return r.db.SQLWithContext(ctx)
}

func (r *scheduleRepository) ListActiveCustomers(ctx context.Context) ([]*models.Customer, error) {
	log := r.log.Function("ListActiveCustomers")

	customers, err := gorm.G[*models.Customer](r.conn(ctx)).
		Preload("Rule", nil).
		Preload("Cars", nil).
		Preload("Slots", nil).
		Where("active = ?", true).
		Order("id").
		Find(ctx)
	if err != nil {
		return nil, types.Persistence(log.Err("failed to list customers", err), "list customers")
	}

	return customers, nil
}

func (r *scheduleRepository) GetCustomer(
	ctx context.Context,
	customerID uuid.UUID,
) (*models.Customer, error) {
	log := r.log.Function("GetCustomer")

	customer, err := gorm.G[*models.Customer](r.conn(ctx)).
		Preload("Rule", nil).
		Preload("Cars", nil).
		Preload("Slots", nil).
		Where("id = ?", customerID).
		First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFound("customer %s", customerID)
	}
	if err != nil {
		return nil, types.Persistence(
			log.Err("failed to get customer", err, "customerID", customerID),
			"get customer %s",
			customerID,
		)
	}

	return customer, nil
}

func (r *scheduleRepository) SaveCustomer(ctx context.Context, customer *models.Customer) error {
	log := r.log.Function("SaveCustomer")

	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(customer).Error; err != nil {
			return types.Persistence(
				log.Err("failed to save customer", err, "customerID", customer.ID),
				"save customer %s",
				customer.ID,
			)
		}

		if err := tx.Unscoped().Where("customer_id = ?", customer.ID).Delete(&models.Car{}).Error; err != nil {
			return types.Persistence(log.Err("failed to clear cars", err), "save customer cars")
		}
		if err := tx.Unscoped().Where("customer_id = ?", customer.ID).Delete(&models.VisitSlot{}).Error; err != nil {
			return types.Persistence(log.Err("failed to clear slots", err), "save customer slots")
		}

		for i := range customer.Cars {
			customer.Cars[i].ID = uuid.Nil
			customer.Cars[i].CustomerID = customer.ID
		}
		for i := range customer.Slots {
			customer.Slots[i].ID = uuid.Nil
			customer.Slots[i].CustomerID = customer.ID
		}

		if len(customer.Cars) > 0 {
			if err := tx.Create(&customer.Cars).Error; err != nil {
				return types.Persistence(log.Err("failed to create cars", err), "save customer cars")
			}
		}
		if len(customer.Slots) > 0 {
			if err := tx.Create(&customer.Slots).Error; err != nil {
				return types.Persistence(log.Err("failed to create slots", err), "save customer slots")
			}
		}

		return nil
	})
}

func (r *scheduleRepository) GetRule(ctx context.Context, ruleID uuid.UUID) (*models.WashRule, error) {
	log := r.log.Function("GetRule")

	rule, err := gorm.G[*models.WashRule](r.conn(ctx)).Where("id = ?", ruleID).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFound("wash rule %s", ruleID)
	}
	if err != nil {
		return nil, types.Persistence(
			log.Err("failed to get wash rule", err, "ruleID", ruleID),
			"get wash rule %s",
			ruleID,
		)
	}

	return rule, nil
}

func (r *scheduleRepository) SaveRule(ctx context.Context, rule *models.WashRule) error {
	log := r.log.Function("SaveRule")

	if err := rule.Validate(); err != nil {
		return err
	}
	if err := r.conn(ctx).Save(rule).Error; err != nil {
		return types.Persistence(
			log.Err("failed to save wash rule", err, "rule", rule.Name),
			"save wash rule %s",
			rule.Name,
		)
	}
	return nil
}

func (r *scheduleRepository) ListActiveWorkers(ctx context.Context) ([]*models.Worker, error) {
	log := r.log.Function("ListActiveWorkers")

	workers, err := gorm.G[*models.Worker](r.conn(ctx)).
		Where("active = ?", true).
		Order("position, name, id").
		Find(ctx)
	if err != nil {
		return nil, types.Persistence(log.Err("failed to list workers", err), "list workers")
	}

	return workers, nil
}

func (r *scheduleRepository) GetWorker(ctx context.Context, workerID uuid.UUID) (*models.Worker, error) {
	log := r.log.Function("GetWorker")

	worker, err := gorm.G[*models.Worker](r.conn(ctx)).Where("id = ?", workerID).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFound("worker %s", workerID)
	}
	if err != nil {
		return nil, types.Persistence(
			log.Err("failed to get worker", err, "workerID", workerID),
			"get worker %s",
			workerID,
		)
	}

	return worker, nil
}

func (r *scheduleRepository) SaveWorker(ctx context.Context, worker *models.Worker) error {
	log := r.log.Function("SaveWorker")

	if err := r.conn(ctx).Save(worker).Error; err != nil {
		return types.Persistence(
			log.Err("failed to save worker", err, "worker", worker.Name),
			"save worker %s",
			worker.Name,
		)
	}
	return nil
}

func (r *scheduleRepository) GetHistory(
	ctx context.Context,
	customerID uuid.UUID,
) ([]*models.WashHistoryRecord, error) {
	log := r.log.Function("GetHistory")

	records, err := gorm.G[*models.WashHistoryRecord](r.conn(ctx)).
		Where("customer_id = ?", customerID).
		Order("wash_date DESC, car_plate").
		Find(ctx)
	if err != nil {
		return nil, types.Persistence(
			log.Err("failed to get wash history", err, "customerID", customerID),
			"get history for %s",
			customerID,
		)
	}

	return records, nil
}

func (r *scheduleRepository) AppendHistory(
	ctx context.Context,
	records []*models.WashHistoryRecord,
) (int, error) {
	log := r.log.Function("AppendHistory")

	if len(records) == 0 {
		return 0, nil
	}

	result := r.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&records)
	if result.Error != nil {
		return 0, types.Persistence(
			log.Err("failed to append wash history", result.Error, "count", len(records)),
			"append history",
		)
	}

	return int(result.RowsAffected), nil
}

func (r *scheduleRepository) ReadTasks(
	ctx context.Context,
	week types.WeekKey,
) ([]*models.ScheduledTask, error) {
	log := r.log.Function("ReadTasks")

	tasks, err := gorm.G[*models.ScheduledTask](r.conn(ctx)).
		Where("week = ?", week.String()).
		Find(ctx)
	if err != nil {
		return nil, types.Persistence(
			log.Err("failed to read tasks", err, "week", week),
			"read tasks for %s",
			week,
		)
	}

	models.SortTasks(tasks)
	return tasks, nil
}

func (r *scheduleRepository) WriteTasks(
	ctx context.Context,
	week types.WeekKey,
	batch TaskBatch,
) error {
	log := r.log.Function("WriteTasks")

	if err := ValidateBatch(week, batch); err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}

	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		// One writer per week until commit, so the booking check below sees every
		// row a concurrent batch could add. A busy week fails fast as a conflict.
		var acquired bool
		if err := tx.Raw(weekLockSQL, "scheduled_tasks:"+week.String()).Scan(&acquired).Error; err != nil {
			return types.Persistence(err, "lock week %s", week)
		}
		if !acquired {
			return types.Conflict("week %s is being written", week)
		}

		for _, task := range batch.Deletes {
			result := tx.Where(taskKeyWhere, keyArgs(task)...).Delete(&models.ScheduledTask{})
			if result.Error != nil {
				return types.Persistence(result.Error, "delete task %s", task.Key())
			}
			if result.RowsAffected == 0 {
				return types.Conflict("task %s changed since it was read", task.Key())
			}
		}

		for _, task := range batch.Upserts {
			if task.Version == 0 {
				task.Version = 1
				result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(task)
				if result.Error != nil {
					return types.Persistence(result.Error, "create task %s", task.Key())
				}
				if result.RowsAffected == 0 {
					return types.Conflict("task %s already exists", task.Key())
				}
				continue
			}

			result := tx.Model(&models.ScheduledTask{}).
				Where(taskKeyWhere, keyArgs(task)...).
				Updates(map[string]any{
					"visit_index":   task.VisitIndex,
					"wash_type":     task.WashType,
					"worker_id":     task.WorkerID,
					"locked":        task.Locked,
					"schedule_date": task.ScheduleDate,
					"version":       task.Version + 1,
				})
			if result.Error != nil {
				return types.Persistence(result.Error, "update task %s", task.Key())
			}
			if result.RowsAffected == 0 {
				return types.Conflict("task %s changed since it was read", task.Key())
			}
			task.Version++
		}

		var after []*models.ScheduledTask
		if err := tx.Where("week = ?", week.String()).Find(&after).Error; err != nil {
			return types.Persistence(err, "read back tasks for %s", week)
		}
		if err := CheckWorkerBookings(after, batch.Upserts); err != nil {
			return err
		}

		if len(batch.Audit) > 0 {
			if err := tx.Create(&batch.Audit).Error; err != nil {
				return types.Persistence(err, "append audit")
			}
		}

		return nil
	})
	if err != nil {
		if !errors.Is(err, types.ErrConflict) {
			log.Er("failed to write tasks", err, "week", week)
		}
		return err
	}

	return nil
}

func keyArgs(task *models.ScheduledTask) []any {
	return []any{
		task.Week.String(),
		task.CustomerID,
		task.Day,
		task.Time,
		task.CarPlate,
		task.Version,
	}
}

func (r *scheduleRepository) QueryAudit(
	ctx context.Context,
	query AuditQuery,
) ([]models.AuditEntry, error) {
	log := r.log.Function("QueryAudit")

	db := r.conn(ctx).Model(&models.AuditEntry{})
	if query.CustomerID != uuid.Nil {
		db = db.Where("customer_id = ?", query.CustomerID)
	}
	if query.Week != nil {
		db = db.Where("week = ?", query.Week.String())
	}
	if !query.Since.IsZero() {
		db = db.Where("timestamp >= ?", query.Since)
	}
	if !query.Until.IsZero() {
		db = db.Where("timestamp < ?", query.Until)
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}

	var entries []models.AuditEntry
	if err := db.Order("timestamp, id").Find(&entries).Error; err != nil {
		return nil, types.Persistence(
			log.Err("failed to query audit", err, "customerID", query.CustomerID),
			"query audit",
		)
	}

	return entries, nil
}
