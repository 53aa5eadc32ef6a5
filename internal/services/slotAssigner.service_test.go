package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"washplan/internal/models"
	"washplan/internal/repositories"
	"washplan/internal/repositories/memory"
	"washplan/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assignerFixture struct {
	ctx      context.Context
	store    *memory.Store
	assigner *SlotAssigner
	week     types.WeekKey
	workers  []*models.Worker
}

func newAssignerFixture(t *testing.T, workerCount int) *assignerFixture {
	t.Helper()

	store := memory.New()
	f := &assignerFixture{
		ctx:   context.Background(),
		store: store,
		week:  DefaultCycleAnchor.Add(40),
	}
	for i := 0; i < workerCount; i++ {
		worker := &models.Worker{Name: fmt.Sprintf("worker-%d", i), Active: true, Position: i}
		require.NoError(t, store.SaveWorker(f.ctx, worker))
		f.workers = append(f.workers, worker)
	}
	f.assigner = newTestAssigner(store)
	return f
}

func newTestAssigner(store repositories.ScheduleStore) *SlotAssigner {
	clock := func() time.Time { return time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC) }
	return NewSlotAssigner(
		store,
		NewWashTypeResolver(),
		NewLockManager(store),
		NewAuditLog(store, clock),
		SlotAssignerOptions{},
	)
}

func (f *assignerFixture) rule(t *testing.T, rule *models.WashRule) *models.WashRule {
	t.Helper()
	require.NoError(t, f.store.SaveRule(f.ctx, rule))
	return rule
}

func (f *assignerFixture) customer(
	t *testing.T,
	name string,
	rule *models.WashRule,
	plates []string,
	slots ...models.VisitSlot,
) *models.Customer {
	t.Helper()
	customer := &models.Customer{Name: name, RuleID: rule.ID, Active: true, Slots: slots}
	for i, plate := range plates {
		customer.Cars = append(customer.Cars, models.Car{Plate: plate, Position: i})
	}
	require.NoError(t, f.store.SaveCustomer(f.ctx, customer))
	return customer
}

func (f *assignerFixture) tasks(t *testing.T) []*models.ScheduledTask {
	t.Helper()
	tasks, err := f.store.ReadTasks(f.ctx, f.week)
	require.NoError(t, err)
	return tasks
}

func (f *assignerFixture) tasksFor(t *testing.T, customerID uuid.UUID) []*models.ScheduledTask {
	t.Helper()
	var tasks []*models.ScheduledTask
	for _, task := range f.tasks(t) {
		if task.CustomerID == customerID {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

func slot(visitIndex int, day, clock string) models.VisitSlot {
	return models.VisitSlot{VisitIndex: visitIndex, Day: day, Time: clock}
}

func weeklyRule(washTypes ...models.WashType) *models.WashRule {
	return &models.WashRule{Name: "weekly", SingleCarPattern: washTypes}
}

func assertNoDoubleBooking(t *testing.T, tasks []*models.ScheduledTask) {
	t.Helper()
	report := DetectConflicts(types.WeekKey{}, tasks)
	assert.Empty(t, report.WorkerDoubleBookings)
	assert.Empty(t, report.CustomerMultiWorker)
}

func TestSlotAssigner_RegenerateCreatesConflictFreeTasks(t *testing.T) {
	f := newAssignerFixture(t, 2)
	rule := f.rule(t, weeklyRule(ext, extInt))
	alice := f.customer(t, "alice", rule, []string{"A1"}, slot(1, "Monday", "9:00 AM"), slot(2, "thu", "2:00pm"))
	bob := f.customer(t, "bob", rule, []string{"B1", "B2"}, slot(1, "Monday", "9:00 AM"))

	result, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Created)
	assert.Equal(t, 0, result.Unassigned)
	assert.Empty(t, result.Failures)

	tasks := f.tasks(t)
	require.Len(t, tasks, 4)
	assertNoDoubleBooking(t, tasks)

	aliceTasks := f.tasksFor(t, alice.ID)
	require.Len(t, aliceTasks, 2)
	assert.Equal(t, "Monday", aliceTasks[0].Day)
	assert.Equal(t, "9:00 AM", aliceTasks[0].Time)
	assert.Equal(t, ext, aliceTasks[0].WashType)
	assert.True(t, aliceTasks[0].ScheduleDate.Equal(f.week.Date(time.Monday)))
	assert.Equal(t, "Thursday", aliceTasks[1].Day)
	assert.Equal(t, "2:00 PM", aliceTasks[1].Time)
	assert.Equal(t, extInt, aliceTasks[1].WashType)

	bobTasks := f.tasksFor(t, bob.ID)
	require.Len(t, bobTasks, 2)
	require.True(t, bobTasks[0].Assigned())
	assert.Equal(t, *bobTasks[0].WorkerID, *bobTasks[1].WorkerID)

	entries, err := f.store.QueryAudit(f.ctx, repositories.AuditQuery{CustomerID: bob.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionRegenerate, entries[0].Action)
	assert.Equal(t, "system", entries[0].Actor)
}

func TestSlotAssigner_RegenerateIsIdempotent(t *testing.T) {
	f := newAssignerFixture(t, 3)
	rule := f.rule(t, weeklyRule(ext, extInt, ext))
	for i := 0; i < 4; i++ {
		f.customer(
			t,
			fmt.Sprintf("customer-%d", i),
			rule,
			[]string{fmt.Sprintf("P%d", i)},
			slot(1, "Tuesday", "10:00 AM"),
			slot(2, "Wednesday", "10:00 AM"),
		)
	}

	first, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)
	before := f.tasks(t)

	second, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)
	after := f.tasks(t)

	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 0, second.Deleted)
	assert.Equal(t, len(before), second.Unchanged)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, TaskSetFingerprint(before), TaskSetFingerprint(after))
	assert.Equal(t, first.Unassigned, second.Unassigned)
	assert.Equal(t, 2, second.Unassigned)

	entries, err := f.store.QueryAudit(f.ctx, repositories.AuditQuery{CustomerID: before[0].CustomerID})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSlotAssigner_NoFreeWorkerLeavesTaskUnassigned(t *testing.T) {
	f := newAssignerFixture(t, 1)
	rule := f.rule(t, weeklyRule(ext))
	f.customer(t, "first", rule, []string{"A"}, slot(1, "Friday", "8:00 AM"))
	f.customer(t, "second", rule, []string{"B"}, slot(1, "Friday", "8:00 AM"))

	result, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Unassigned)

	tasks := f.tasks(t)
	require.Len(t, tasks, 2)
	assigned := 0
	for _, task := range tasks {
		if task.Assigned() {
			assigned++
		}
	}
	assert.Equal(t, 1, assigned)
}

func TestSlotAssigner_LockedTasksSurviveRegeneration(t *testing.T) {
	f := newAssignerFixture(t, 2)
	rule := f.rule(t, weeklyRule(ext))
	alice := f.customer(t, "alice", rule, []string{"A1", "A2"}, slot(1, "Monday", "9:00 AM"))
	f.customer(t, "bob", rule, []string{"B1"}, slot(1, "Monday", "9:00 AM"))

	_, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)

	aliceTasks := f.tasksFor(t, alice.ID)
	locked, err := f.assigner.OverrideWashType(
		f.ctx,
		aliceTasks[0].Key(),
		extInt,
		EditOptions{Actor: "dispatcher", Reason: "customer request"},
	)
	require.NoError(t, err)
	assert.True(t, locked.Locked)

	protectedBefore := f.tasksFor(t, alice.ID)

	rule.SingleCarPattern = []models.WashType{extInt}
	require.NoError(t, f.store.SaveRule(f.ctx, rule))
	f.customer(t, "carol", rule, []string{"C1"}, slot(1, "Monday", "9:00 AM"))

	result, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SkippedLocked)

	assert.Equal(t, protectedBefore, f.tasksFor(t, alice.ID))
	assertNoDoubleBooking(t, f.tasks(t))
	assert.Equal(t, 1, result.Unassigned)

	isProtected, err := f.assigner.locks.IsProtected(f.ctx, aliceTasks[0].Key())
	require.NoError(t, err)
	assert.True(t, isProtected)
}

func TestSlotAssigner_SupersedesRemovedSlots(t *testing.T) {
	f := newAssignerFixture(t, 1)
	rule := f.rule(t, weeklyRule(ext, ext))
	customer := f.customer(t, "alice", rule, []string{"A"}, slot(1, "Monday", "9:00 AM"), slot(2, "Friday", "9:00 AM"))

	_, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)
	require.Len(t, f.tasks(t), 2)

	customer.Slots = []models.VisitSlot{slot(1, "Monday", "9:00 AM")}
	require.NoError(t, f.store.SaveCustomer(f.ctx, customer))

	result, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	require.Len(t, f.tasks(t), 1)

	entries, err := f.store.QueryAudit(f.ctx, repositories.AuditQuery{CustomerID: customer.ID})
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, "Friday", last.Day)
	after, err := last.AfterSnapshot()
	require.NoError(t, err)
	assert.Nil(t, after)
}

func TestSlotAssigner_CollectsCustomerFailures(t *testing.T) {
	f := newAssignerFixture(t, 2)
	rule := f.rule(t, weeklyRule(ext))
	broken := f.customer(t, "no-slots", rule, []string{"X"})
	orphan := f.customer(t, "orphan", &models.WashRule{}, []string{"Y"}, slot(1, "Monday", "9:00 AM"))
	healthy := f.customer(t, "healthy", rule, []string{"Z"}, slot(1, "Monday", "9:00 AM"))

	result, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)

	require.Len(t, result.Failures, 2)
	failed := map[uuid.UUID]bool{}
	for _, failure := range result.Failures {
		failed[failure.CustomerID] = true
	}
	assert.True(t, failed[broken.ID])
	assert.True(t, failed[orphan.ID])
	assert.Len(t, f.tasksFor(t, healthy.ID), 1)
}

func TestSlotAssigner_SkipWeek(t *testing.T) {
	f := newAssignerFixture(t, 1)
	rule := f.rule(t, &models.WashRule{
		Name:             "every-other-week",
		SingleCarPattern: []models.WashType{extInt},
		BiWeekly: models.BiWeeklySettings{
			Enabled:        true,
			Week2Policy:    models.Week2PolicySkipWeek,
			CycleDetection: models.CycleDetectionWeekNumber,
		},
	})
	f.customer(t, "alice", rule, []string{"A"}, slot(1, "Monday", "9:00 AM"))

	onWeek, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)
	assert.Equal(t, 1, onWeek.Created)

	offWeek, err := f.assigner.Regenerate(f.ctx, f.week.Add(1))
	require.NoError(t, err)
	assert.Equal(t, 1, offWeek.SkippedOffWeek)
	assert.Equal(t, 0, offWeek.Created)
}

type conflictOnceStore struct {
	*memory.Store
	mu       sync.Mutex
	failures int
}

func (s *conflictOnceStore) WriteTasks(
	ctx context.Context,
	week types.WeekKey,
	batch repositories.TaskBatch,
) error {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return types.Conflict("simulated concurrent write")
	}
	s.mu.Unlock()
	return s.Store.WriteTasks(ctx, week, batch)
}

func TestSlotAssigner_RetriesConflictedBatch(t *testing.T) {
	f := newAssignerFixture(t, 1)
	rule := f.rule(t, weeklyRule(ext))
	f.customer(t, "alice", rule, []string{"A"}, slot(1, "Monday", "9:00 AM"))

	t.Run("recovers", func(t *testing.T) {
		store := &conflictOnceStore{Store: f.store, failures: 1}
		result, err := newTestAssigner(store).Regenerate(f.ctx, f.week)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Attempts)
		assert.Equal(t, 1, result.Created)
	})

	t.Run("gives up", func(t *testing.T) {
		store := &conflictOnceStore{Store: memory.New(), failures: DefaultRegenerationAttempts}
		require.NoError(t, store.SaveRule(f.ctx, rule))
		require.NoError(t, store.SaveWorker(f.ctx, &models.Worker{Name: "w", Active: true}))
		require.NoError(t, store.SaveCustomer(f.ctx, &models.Customer{
			Name:   "bob",
			RuleID: rule.ID,
			Active: true,
			Cars:   []models.Car{{Plate: "B"}},
			Slots:  []models.VisitSlot{slot(1, "Monday", "9:00 AM")},
		}))

		_, err := newTestAssigner(store).Regenerate(f.ctx, f.week)
		assert.True(t, errors.Is(err, types.ErrConflict))
	})
}

func TestSlotAssigner_PersistenceFailureAbortsBatch(t *testing.T) {
	f := newAssignerFixture(t, 1)
	rule := f.rule(t, weeklyRule(ext))
	f.customer(t, "alice", rule, []string{"A"}, slot(1, "Monday", "9:00 AM"))
	f.store.FailWrites = errors.New("disk full")

	_, err := f.assigner.Regenerate(f.ctx, f.week)
	assert.True(t, errors.Is(err, types.ErrPersistence))

	f.store.FailWrites = nil
	assert.Empty(t, f.tasks(t))
}

func TestSlotAssigner_ConcurrentRegenerations(t *testing.T) {
	f := newAssignerFixture(t, 2)
	rule := f.rule(t, weeklyRule(ext))
	for i := 0; i < 3; i++ {
		f.customer(t, fmt.Sprintf("c%d", i), rule, []string{"P"}, slot(1, "Monday", "9:00 AM"))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.assigner.Regenerate(f.ctx, f.week)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	tasks := f.tasks(t)
	assert.Len(t, tasks, 3)
	assertNoDoubleBooking(t, tasks)
}

func TestSlotAssigner_ReassignRefusesWorkerBusyWithOtherCustomer(t *testing.T) {
	f := newAssignerFixture(t, 2)
	rule := f.rule(t, weeklyRule(ext))
	alice := f.customer(t, "alice", rule, []string{"A"}, slot(1, "Monday", "9:00 AM"))
	bob := f.customer(t, "bob", rule, []string{"B"}, slot(1, "Monday", "9:00 AM"))

	_, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)

	aliceTask := f.tasksFor(t, alice.ID)[0]
	bobTask := f.tasksFor(t, bob.ID)[0]

	_, err = f.assigner.ReassignWorker(f.ctx, aliceTask.Key(), *bobTask.WorkerID, EditOptions{Actor: "ops"})
	assert.True(t, errors.Is(err, types.ErrConflict))

	assert.Equal(t, aliceTask, f.tasksFor(t, alice.ID)[0])
	assert.Equal(t, bobTask, f.tasksFor(t, bob.ID)[0])
}

func TestSlotAssigner_ReassignWorker(t *testing.T) {
	f := newAssignerFixture(t, 3)
	rule := f.rule(t, weeklyRule(ext))
	alice := f.customer(t, "alice", rule, []string{"A1", "A2"}, slot(1, "Monday", "9:00 AM"))

	_, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)
	tasks := f.tasksFor(t, alice.ID)
	newWorker := f.workers[2].ID

	updated, err := f.assigner.ReassignWorker(
		f.ctx,
		tasks[0].Key(),
		newWorker,
		EditOptions{Actor: "ops", Reason: "swap"},
	)
	require.NoError(t, err)
	assert.Equal(t, newWorker, *updated.WorkerID)
	assert.True(t, updated.Locked)

	for _, task := range f.tasksFor(t, alice.ID) {
		assert.Equal(t, newWorker, *task.WorkerID)
		assert.True(t, task.Locked)
	}

	entries, err := f.store.QueryAudit(f.ctx, repositories.AuditQuery{CustomerID: alice.ID})
	require.NoError(t, err)
	reassigned := 0
	for _, entry := range entries {
		if entry.Action == models.AuditActionReassignWorker {
			reassigned++
			assert.Equal(t, "ops", entry.Actor)
			assert.Equal(t, "swap", entry.Reason)
		}
	}
	assert.Equal(t, 2, reassigned)

	t.Run("soft mode refuses locked siblings", func(t *testing.T) {
		_, err := f.assigner.ReassignWorker(
			f.ctx,
			tasks[0].Key(),
			f.workers[1].ID,
			EditOptions{Actor: "ops", Soft: true},
		)
		assert.True(t, errors.Is(err, types.ErrLockViolation))
	})

	t.Run("unknown worker", func(t *testing.T) {
		_, err := f.assigner.ReassignWorker(f.ctx, tasks[0].Key(), uuid.New(), EditOptions{})
		assert.True(t, errors.Is(err, types.ErrNotFound))
	})

	t.Run("unknown task", func(t *testing.T) {
		key := tasks[0].Key()
		key.CarPlate = "NOPE"
		_, err := f.assigner.ReassignWorker(f.ctx, key, newWorker, EditOptions{})
		assert.True(t, errors.Is(err, types.ErrNotFound))
	})
}

// readBarrierStore holds each ReadTasks until every expected caller has read, so
// their edits are planned from the same snapshot.
type readBarrierStore struct {
	*memory.Store
	armed   atomic.Bool
	arrived sync.WaitGroup
}

func (s *readBarrierStore) ReadTasks(ctx context.Context, week types.WeekKey) ([]*models.ScheduledTask, error) {
	tasks, err := s.Store.ReadTasks(ctx, week)
	if s.armed.Load() {
		s.arrived.Done()
		s.arrived.Wait()
	}
	return tasks, err
}

func TestSlotAssigner_ConcurrentReassignsCannotShareWorker(t *testing.T) {
	f := newAssignerFixture(t, 3)
	rule := f.rule(t, weeklyRule(ext))
	alice := f.customer(t, "alice", rule, []string{"A1"}, slot(1, "Monday", "9:00 AM"))
	bob := f.customer(t, "bob", rule, []string{"B1"}, slot(1, "Monday", "9:00 AM"))

	_, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)

	keys := []types.TaskKey{f.tasksFor(t, alice.ID)[0].Key(), f.tasksFor(t, bob.ID)[0].Key()}
	target := f.workers[2].ID

	barrier := &readBarrierStore{Store: f.store}
	barrier.arrived.Add(len(keys))
	barrier.armed.Store(true)
	assigner := newTestAssigner(barrier)

	errs := make([]error, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key types.TaskKey) {
			defer wg.Done()
			_, errs[i] = assigner.ReassignWorker(f.ctx, key, target, EditOptions{Actor: "ops"})
		}(i, key)
	}
	wg.Wait()
	barrier.armed.Store(false)

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, types.ErrConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assertNoDoubleBooking(t, f.tasks(t))
}

func TestSlotAssigner_OverrideAndDelete(t *testing.T) {
	f := newAssignerFixture(t, 1)
	rule := f.rule(t, weeklyRule(ext))
	alice := f.customer(t, "alice", rule, []string{"A1", "A2"}, slot(1, "Monday", "9:00 AM"))

	_, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)
	tasks := f.tasksFor(t, alice.ID)

	_, err = f.assigner.OverrideWashType(f.ctx, tasks[0].Key(), "INT", EditOptions{})
	assert.True(t, errors.Is(err, types.ErrValidation))

	updated, err := f.assigner.OverrideWashType(f.ctx, tasks[0].Key(), extInt, EditOptions{Actor: "ops"})
	require.NoError(t, err)
	assert.Equal(t, extInt, updated.WashType)

	after := f.tasksFor(t, alice.ID)
	assert.Equal(t, extInt, after[0].WashType)
	assert.Equal(t, ext, after[1].WashType)
	assert.False(t, after[1].Locked)

	require.NoError(t, f.assigner.DeleteTask(f.ctx, tasks[1].Key(), EditOptions{Actor: "ops"}))
	assert.Len(t, f.tasksFor(t, alice.ID), 1)

	err = f.assigner.DeleteTask(f.ctx, tasks[1].Key(), EditOptions{Actor: "ops"})
	assert.True(t, errors.Is(err, types.ErrNotFound))

	customer, err := f.store.GetCustomer(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, customer.Cars, 2)
}

func TestSlotAssigner_AddTask(t *testing.T) {
	f := newAssignerFixture(t, 2)
	rule := f.rule(t, weeklyRule(ext))
	alice := f.customer(t, "alice", rule, []string{"A1", "A2"}, slot(1, "Monday", "9:00 AM"))
	bob := f.customer(t, "bob", rule, []string{"B1"}, slot(1, "Monday", "9:00 AM"))

	_, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)
	aliceTasks := f.tasksFor(t, alice.ID)
	bobTask := f.tasksFor(t, bob.ID)[0]
	require.NoError(t, f.assigner.DeleteTask(f.ctx, aliceTasks[1].Key(), EditOptions{}))

	t.Run("adopts sibling worker", func(t *testing.T) {
		created, err := f.assigner.AddTask(f.ctx, AddTaskInput{
			Key:      aliceTasks[1].Key(),
			WashType: extInt,
		}, EditOptions{Actor: "ops"})
		require.NoError(t, err)
		assert.True(t, created.Locked)
		assert.Equal(t, *aliceTasks[0].WorkerID, *created.WorkerID)
		assert.Equal(t, 1, created.VisitIndex)
	})

	t.Run("conflicting worker", func(t *testing.T) {
		_, err := f.assigner.AddTask(f.ctx, AddTaskInput{
			Key:      aliceTasks[1].Key(),
			WashType: ext,
			WorkerID: bobTask.WorkerID,
		}, EditOptions{})
		assert.True(t, errors.Is(err, types.ErrConflict))
	})

	t.Run("worker busy with another customer", func(t *testing.T) {
		key := types.TaskKey{
			Week:       f.week,
			CustomerID: alice.ID,
			Day:        "Monday",
			Time:       "11:00 AM",
			CarPlate:   "A1",
		}
		_, err := f.assigner.AddTask(f.ctx, AddTaskInput{Key: key, WashType: ext, WorkerID: bobTask.WorkerID}, EditOptions{})
		require.NoError(t, err)

		bobKey := key
		bobKey.CustomerID = bob.ID
		bobKey.CarPlate = "B1"
		_, err = f.assigner.AddTask(f.ctx, AddTaskInput{Key: bobKey, WashType: ext, WorkerID: bobTask.WorkerID}, EditOptions{})
		assert.True(t, errors.Is(err, types.ErrConflict))
	})

	t.Run("unknown plate", func(t *testing.T) {
		key := aliceTasks[1].Key()
		key.CarPlate = "ZZZ"
		_, err := f.assigner.AddTask(f.ctx, AddTaskInput{Key: key, WashType: ext}, EditOptions{})
		assert.True(t, errors.Is(err, types.ErrValidation))
	})

	t.Run("unknown customer", func(t *testing.T) {
		key := aliceTasks[1].Key()
		key.CustomerID = uuid.New()
		_, err := f.assigner.AddTask(f.ctx, AddTaskInput{Key: key, WashType: ext}, EditOptions{})
		assert.True(t, errors.Is(err, types.ErrNotFound))
	})
}

func TestSlotAssigner_EditFailsFastOnBusySlot(t *testing.T) {
	f := newAssignerFixture(t, 1)
	rule := f.rule(t, weeklyRule(ext))
	alice := f.customer(t, "alice", rule, []string{"A"}, slot(1, "Monday", "9:00 AM"))

	_, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)
	key := f.tasksFor(t, alice.ID)[0].Key()

	release, err := f.assigner.locks.TryAcquire(key.Slot())
	require.NoError(t, err)

	_, err = f.assigner.OverrideWashType(f.ctx, key, extInt, EditOptions{})
	assert.True(t, errors.Is(err, types.ErrConflict))

	release()
	_, err = f.assigner.OverrideWashType(f.ctx, key, extInt, EditOptions{})
	assert.NoError(t, err)
}

func TestDetectConflicts_WorkerDoubleBookedAcrossCustomers(t *testing.T) {
	week := types.WeekKey{Year: 2025, Week: 42}
	workerID := uuid.New()
	customerA := uuid.New()
	customerB := uuid.New()

	tasks := []*models.ScheduledTask{
		{Week: week, CustomerID: customerA, Day: "Monday", Time: "9:00 AM", CarPlate: "A", WorkerID: &workerID},
		{Week: week, CustomerID: customerB, Day: "Monday", Time: "9:00 AM", CarPlate: "B", WorkerID: &workerID},
		{Week: week, CustomerID: customerB, Day: "Monday", Time: "9:00 AM", CarPlate: "C", WorkerID: &workerID},
	}

	report := DetectConflicts(week, tasks)
	require.Len(t, report.WorkerDoubleBookings, 1)
	booking := report.WorkerDoubleBookings[0]
	assert.Equal(t, "Monday", booking.Day)
	assert.Equal(t, "9:00 AM", booking.Time)
	assert.Equal(t, workerID, booking.WorkerID)
	assert.ElementsMatch(t, []uuid.UUID{customerA, customerB}, booking.CustomerIDs)
	assert.Empty(t, report.CustomerMultiWorker)
}

func TestDetectConflicts_CustomerMultiWorker(t *testing.T) {
	week := types.WeekKey{Year: 2025, Week: 42}
	workerA := uuid.New()
	workerB := uuid.New()
	customer := uuid.New()

	report := DetectConflicts(week, []*models.ScheduledTask{
		{Week: week, CustomerID: customer, Day: "Tuesday", Time: "1:00 PM", CarPlate: "A", WorkerID: &workerA},
		{Week: week, CustomerID: customer, Day: "Tuesday", Time: "1:00 PM", CarPlate: "B", WorkerID: &workerB},
		{Week: week, CustomerID: customer, Day: "Tuesday", Time: "3:00 PM", CarPlate: "A"},
	})

	assert.Empty(t, report.WorkerDoubleBookings)
	require.Len(t, report.CustomerMultiWorker, 1)
	assert.Equal(t, customer, report.CustomerMultiWorker[0].CustomerID)
	assert.Len(t, report.CustomerMultiWorker[0].WorkerIDs, 2)
}
