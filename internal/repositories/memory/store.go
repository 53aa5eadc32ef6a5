// Package memory provides an in-memory ScheduleStore used by tests, the CLI dry
// runs and ephemeral environments.
package memory

import (
	"context"
	"sort"
	"sync"

	"washplan/internal/models"
	"washplan/internal/repositories"
	"washplan/internal/types"

	"github.com/google/uuid"
)

var _ repositories.ScheduleStore = (*Store)(nil)

type historyKey struct {
	customerID uuid.UUID
	plate      string
	date       string
}

type Store struct {
	mu        sync.RWMutex
	rules     map[uuid.UUID]models.WashRule
	customers map[uuid.UUID]models.Customer
	workers   map[uuid.UUID]models.Worker
	tasks     map[types.WeekKey]map[types.TaskKey]*models.ScheduledTask
	history   map[historyKey]*models.WashHistoryRecord
	audit     []models.AuditEntry

	// FailWrites makes WriteTasks return the error. Used to simulate storage outages.
	FailWrites error
}

func New() *Store {
	return &Store{
		rules:     make(map[uuid.UUID]models.WashRule),
		customers: make(map[uuid.UUID]models.Customer),
		workers:   make(map[uuid.UUID]models.Worker),
		tasks:     make(map[types.WeekKey]map[types.TaskKey]*models.ScheduledTask),
		history:   make(map[historyKey]*models.WashHistoryRecord),
	}
}

func cloneCustomer(customer models.Customer) *models.Customer {
	clone := customer
	clone.Cars = append([]models.Car(nil), customer.Cars...)
	clone.Slots = append([]models.VisitSlot(nil), customer.Slots...)
	return &clone
}

func (s *Store) ListActiveCustomers(ctx context.Context) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]*models.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		if !customer.Active {
			continue
		}
		clone := cloneCustomer(customer)
		if rule, ok := s.rules[customer.RuleID]; ok {
			clone.Rule = &rule
		}
		customers = append(customers, clone)
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].ID.String() < customers[j].ID.String()
	})
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[customerID]
	if !ok {
		return nil, types.NotFound("customer %s", customerID)
	}
	clone := cloneCustomer(customer)
	if rule, ok := s.rules[customer.RuleID]; ok {
		clone.Rule = &rule
	}
	return clone, nil
}

func (s *Store) SaveCustomer(ctx context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	stored := *cloneCustomer(*customer)
	stored.Rule = nil
	for i := range stored.Cars {
		stored.Cars[i].CustomerID = customer.ID
	}
	for i := range stored.Slots {
		stored.Slots[i].CustomerID = customer.ID
	}
	s.customers[customer.ID] = stored
	return nil
}

func (s *Store) GetRule(ctx context.Context, ruleID uuid.UUID) (*models.WashRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[ruleID]
	if !ok {
		return nil, types.NotFound("wash rule %s", ruleID)
	}
	return &rule, nil
}

func (s *Store) SaveRule(ctx context.Context, rule *models.WashRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	stored := *rule
	stored.SingleCarPattern = append(stored.SingleCarPattern[:0:0], rule.SingleCarPattern...)
	s.rules[rule.ID] = stored
	return nil
}

func (s *Store) ListActiveWorkers(ctx context.Context) ([]*models.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workers := make([]*models.Worker, 0, len(s.workers))
	for _, worker := range s.workers {
		if !worker.Active {
			continue
		}
		w := worker
		workers = append(workers, &w)
	}
	sort.Slice(workers, func(i, j int) bool {
		a, b := workers[i], workers[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID.String() < b.ID.String()
	})
	return workers, nil
}

func (s *Store) GetWorker(ctx context.Context, workerID uuid.UUID) (*models.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	worker, ok := s.workers[workerID]
	if !ok {
		return nil, types.NotFound("worker %s", workerID)
	}
	return &worker, nil
}

func (s *Store) SaveWorker(ctx context.Context, worker *models.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if worker.ID == uuid.Nil {
		worker.ID = uuid.New()
	}
	s.workers[worker.ID] = *worker
	return nil
}

func (s *Store) GetHistory(
	ctx context.Context,
	customerID uuid.UUID,
) ([]*models.WashHistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*models.WashHistoryRecord
	for key, record := range s.history {
		if key.customerID != customerID {
			continue
		}
		r := *record
		records = append(records, &r)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].WashDate.Equal(records[j].WashDate) {
			return records[i].WashDate.After(records[j].WashDate)
		}
		return records[i].CarPlate < records[j].CarPlate
	})
	return records, nil
}

func (s *Store) AppendHistory(
	ctx context.Context,
	records []*models.WashHistoryRecord,
) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, record := range records {
		key := historyKey{
			customerID: record.CustomerID,
			plate:      record.CarPlate,
			date:       record.WashDate.Format("2006-01-02"),
		}
		if _, exists := s.history[key]; exists {
			continue
		}
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		r := *record
		s.history[key] = &r
		added++
	}
	return added, nil
}

func (s *Store) ReadTasks(ctx context.Context, week types.WeekKey) ([]*models.ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*models.ScheduledTask, 0, len(s.tasks[week]))
	for _, task := range s.tasks[week] {
		tasks = append(tasks, task.Clone())
	}
	models.SortTasks(tasks)
	return tasks, nil
}

// WriteTasks checks every version before applying anything so a conflict leaves
// the week untouched.
func (s *Store) WriteTasks(
	ctx context.Context,
	week types.WeekKey,
	batch repositories.TaskBatch,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := repositories.ValidateBatch(week, batch); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return types.Persistence(s.FailWrites, "write tasks for %s", week)
	}

	current := s.tasks[week]
	deleted := make(map[types.TaskKey]bool, len(batch.Deletes))
	for _, task := range batch.Deletes {
		existing, ok := current[task.Key()]
		if !ok || existing.Version != task.Version {
			return types.Conflict("task %s changed since it was read", task.Key())
		}
		deleted[task.Key()] = true
	}
	for _, task := range batch.Upserts {
		existing, ok := current[task.Key()]
		if task.Version == 0 {
			if ok && !deleted[task.Key()] {
				return types.Conflict("task %s already exists", task.Key())
			}
			continue
		}
		if !ok || deleted[task.Key()] || existing.Version != task.Version {
			return types.Conflict("task %s changed since it was read", task.Key())
		}
	}

	after := make([]*models.ScheduledTask, 0, len(current)+len(batch.Upserts))
	upserted := make(map[types.TaskKey]bool, len(batch.Upserts))
	for _, task := range batch.Upserts {
		upserted[task.Key()] = true
		after = append(after, task)
	}
	for key, task := range current {
		if !deleted[key] && !upserted[key] {
			after = append(after, task)
		}
	}
	if err := repositories.CheckWorkerBookings(after, batch.Upserts); err != nil {
		return err
	}

	if current == nil {
		current = make(map[types.TaskKey]*models.ScheduledTask)
		s.tasks[week] = current
	}
	for key := range deleted {
		delete(current, key)
	}
	for _, task := range batch.Upserts {
		if task.ID == uuid.Nil {
			task.ID = uuid.New()
		}
		task.Version++
		current[task.Key()] = task.Clone()
	}
	s.audit = append(s.audit, batch.Audit...)
	return nil
}

func (s *Store) QueryAudit(
	ctx context.Context,
	query repositories.AuditQuery,
) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []models.AuditEntry
	for i := range s.audit {
		if query.Matches(&s.audit[i]) {
			entries = append(entries, s.audit[i])
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	if query.Limit > 0 && len(entries) > query.Limit {
		entries = entries[:query.Limit]
	}
	return entries, nil
}
