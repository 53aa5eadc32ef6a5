package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"washplan/internal/metrics"
	"washplan/internal/models"
	"washplan/internal/repositories"
	"washplan/internal/types"
	"washplan/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const DefaultRegenerationAttempts = 3

// DefaultCycleAnchor is week one of every week_number bi-weekly cycle.
var DefaultCycleAnchor = types.WeekKey{Year: 2024, Week: 1}

type SlotAssignerOptions struct {
	CycleAnchor types.WeekKey
	MaxAttempts int
	Metrics     metrics.Sink
	Notifier    ScheduleNotifier
}

type EditOptions struct {
	Actor  string
	Reason string
	// Soft rejects edits that would change locked rows other than the target.
	Soft bool
}

type AddTaskInput struct {
	Key        types.TaskKey
	WashType   models.WashType
	WorkerID   *uuid.UUID
	VisitIndex int
}

type SlotAssigner struct {
	store    repositories.ScheduleStore
	resolver *WashTypeResolver
	locks    *LockManager
	audit    *AuditLog
	metrics  metrics.Sink
	notifier ScheduleNotifier
	group    singleflight.Group
	anchor   types.WeekKey
	attempts int
	log      logger.Logger
}

func NewSlotAssigner(
	store repositories.ScheduleStore,
	resolver *WashTypeResolver,
	locks *LockManager,
	audit *AuditLog,
	opts SlotAssignerOptions,
) *SlotAssigner {
	if opts.CycleAnchor.IsZero() {
		opts.CycleAnchor = DefaultCycleAnchor
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultRegenerationAttempts
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NopSink{}
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}

	return &SlotAssigner{
		store:    store,
		resolver: resolver,
		locks:    locks,
		audit:    audit,
		metrics:  opts.Metrics,
		notifier: opts.Notifier,
		anchor:   opts.CycleAnchor,
		attempts: opts.MaxAttempts,
		log:      logger.New("SlotAssigner"),
	}
}

type plannedCar struct {
	visitIndex int
	washType   models.WashType
}

type plannedSlot struct {
	key    types.SlotKey
	date   time.Time
	cars   map[string]plannedCar
	worker *uuid.UUID
}

// Regenerate recomputes every unlocked task of week and commits the difference as one
// batch. Concurrent calls for the same week share a single run.
func (s *SlotAssigner) Regenerate(
	ctx context.Context,
	week types.WeekKey,
) (*types.RegenerationResult, error) {
	log := s.log.Function("Regenerate")

	if week.IsZero() {
		return nil, types.Validation("week is required")
	}

	value, err, shared := s.group.Do(week.String(), func() (any, error) {
		return s.regenerate(ctx, week)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug("joined in-flight regeneration", "week", week.String())
	}

	result := *value.(*types.RegenerationResult)
	return &result, nil
}

func (s *SlotAssigner) regenerate(
	ctx context.Context,
	week types.WeekKey,
) (*types.RegenerationResult, error) {
	log := s.log.Function("regenerate")
	start := time.Now()

	for attempt := 1; ; attempt++ {
		result, err := s.regenerateOnce(ctx, week)
		if err == nil {
			result.Attempts = attempt
			s.metrics.RecordRegeneration(metrics.RegenerationRun{
				Week:       week.String(),
				Outcome:    metrics.OutcomeSuccess,
				Duration:   time.Since(start),
				Created:    result.Created,
				Updated:    result.Updated,
				Deleted:    result.Deleted,
				Unassigned: result.Unassigned,
				Failures:   len(result.Failures),
			})
			if result.Changed() {
				s.notifier.ScheduleUpdated(
					ctx,
					week,
					string(models.AuditActionRegenerate),
					result.Created+result.Updated+result.Deleted,
				)
			}
			log.Info(
				"Regeneration committed",
				"week", week.String(),
				"created", result.Created,
				"updated", result.Updated,
				"deleted", result.Deleted,
				"unassigned", result.Unassigned,
				"skippedLocked", result.SkippedLocked,
				"failures", len(result.Failures),
				"attempts", attempt,
			)
			return result, nil
		}

		if errors.Is(err, types.ErrConflict) && attempt < s.attempts {
			log.Warn("regeneration batch conflicted, recomputing", "week", week.String(), "attempt", attempt)
			continue
		}

		s.metrics.RecordRegeneration(metrics.RegenerationRun{
			Week:     week.String(),
			Outcome:  OutcomeFor(err),
			Duration: time.Since(start),
		})
		return nil, log.Err("regeneration failed", err, "week", week.String(), "attempts", attempt)
	}
}

func (s *SlotAssigner) regenerateOnce(
	ctx context.Context,
	week types.WeekKey,
) (*types.RegenerationResult, error) {
	log := s.log.Function("regenerateOnce")

	existing, err := s.store.ReadTasks(ctx, week)
	if err != nil {
		return nil, err
	}
	customers, err := s.store.ListActiveCustomers(ctx)
	if err != nil {
		return nil, err
	}
	workers, err := s.store.ListActiveWorkers(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].ID.String() < customers[j].ID.String()
	})

	result := &types.RegenerationResult{Week: week, Failures: []types.CustomerFailure{}}
	protected := ProtectedSlots(existing)

	existingByKey := make(map[types.TaskKey]*models.ScheduledTask, len(existing))
	prior := make(map[types.SlotKey]uuid.UUID)
	for _, task := range existing {
		existingByKey[task.Key()] = task
		if task.Assigned() {
			if _, seen := prior[task.Key().Slot()]; !seen {
				prior[task.Key().Slot()] = *task.WorkerID
			}
		}
	}

	failed := make(map[uuid.UUID]bool)
	var slots []*plannedSlot
	for _, customer := range customers {
		planned, skipped, err := s.planCustomer(ctx, week, customer)
		if err != nil {
			if !errors.Is(err, types.ErrValidation) && !errors.Is(err, types.ErrNotFound) {
				return nil, err
			}
			failed[customer.ID] = true
			result.Failures = append(result.Failures, types.CustomerFailure{
				CustomerID: customer.ID,
				Error:      err.Error(),
			})
			log.Warn("customer skipped", "customerID", customer.ID, "error", err)
			continue
		}
		if skipped {
			result.SkippedOffWeek++
			continue
		}
		for _, slot := range planned {
			if protected[slot.key] {
				result.SkippedLocked++
				continue
			}
			slots = append(slots, slot)
		}
	}

	board := newWorkerBoard(workers)
	for _, task := range existing {
		retained := task.Locked || protected[task.Key().Slot()] || failed[task.CustomerID]
		if retained && task.Assigned() {
			board.commit(task.Key().DayTime(), *task.WorkerID, task.CustomerID)
		}
	}

	for _, slot := range slots {
		workerID, ok := prior[slot.key]
		if ok && board.available(slot.key.DayTime(), workerID, slot.key.CustomerID) {
			board.commit(slot.key.DayTime(), workerID, slot.key.CustomerID)
			slot.worker = &workerID
		}
	}
	for _, slot := range slots {
		if slot.worker == nil {
			slot.worker = board.firstFree(slot.key.DayTime(), slot.key.CustomerID)
		}
	}

	desired := make([]*models.ScheduledTask, 0, len(slots))
	desiredKeys := make(map[types.TaskKey]bool, len(slots))
	for _, slot := range slots {
		for plate, car := range slot.cars {
			task := &models.ScheduledTask{
				Week:         week,
				CustomerID:   slot.key.CustomerID,
				Day:          slot.key.Day,
				Time:         slot.key.Time,
				CarPlate:     plate,
				VisitIndex:   car.visitIndex,
				WashType:     car.washType,
				ScheduleDate: slot.date,
			}
			if slot.worker != nil {
				workerID := *slot.worker
				task.WorkerID = &workerID
			} else {
				result.Unassigned++
			}
			desired = append(desired, task)
			desiredKeys[task.Key()] = true
		}
	}
	models.SortTasks(desired)

	var batch repositories.TaskBatch
	final := make([]*models.ScheduledTask, 0, len(existing)+len(desired))
	for _, want := range desired {
		have := existingByKey[want.Key()]
		switch {
		case have == nil:
			batch.Upserts = append(batch.Upserts, want)
			s.audit.Record(&batch, s.regenerationEntry(ctx, want.Key(), nil, want))
			result.Created++
		case have.SameContent(want):
			result.Unchanged++
			want = have
		default:
			want.ID = have.ID
			want.Version = have.Version
			batch.Upserts = append(batch.Upserts, want)
			s.audit.Record(&batch, s.regenerationEntry(ctx, want.Key(), have, want))
			result.Updated++
		}
		final = append(final, want)
	}

	for _, have := range existing {
		if desiredKeys[have.Key()] {
			continue
		}
		if have.Locked || protected[have.Key().Slot()] || failed[have.CustomerID] {
			final = append(final, have)
			continue
		}
		batch.Deletes = append(batch.Deletes, have)
		s.audit.Record(&batch, s.regenerationEntry(ctx, have.Key(), have, nil))
		result.Deleted++
	}

	if !batch.Empty() {
		if err := s.store.WriteTasks(ctx, week, batch); err != nil {
			return nil, err
		}
	}

	result.Fingerprint = TaskSetFingerprint(final)
	return result, nil
}

func (s *SlotAssigner) regenerationEntry(
	ctx context.Context,
	key types.TaskKey,
	before, after *models.ScheduledTask,
) models.AuditEntry {
	return s.audit.Entry(ctx, "", models.AuditActionRegenerate, key, before, after, "")
}

// planCustomer resolves wash types for every configured slot of the customer. It
// reports skipped when the rule skips this week entirely.
func (s *SlotAssigner) planCustomer(
	ctx context.Context,
	week types.WeekKey,
	customer *models.Customer,
) ([]*plannedSlot, bool, error) {
	rule := customer.Rule
	if rule == nil {
		var err error
		rule, err = s.store.GetRule(ctx, customer.RuleID)
		if err != nil {
			return nil, false, err
		}
	}
	if err := rule.Validate(); err != nil {
		return nil, false, err
	}

	plates := customer.Plates()
	if len(plates) == 0 {
		return nil, false, types.Validation("customer %s has no cars", customer.ID)
	}
	if len(customer.Slots) == 0 {
		return nil, false, types.Validation("customer %s has no visit slots", customer.ID)
	}

	history, err := s.store.GetHistory(ctx, customer.ID)
	if err != nil {
		return nil, false, err
	}
	var contractStart *time.Time
	if start, ok := customer.ContractStartTime(); ok {
		contractStart = &start
	}

	byVisit := make(map[int][]models.VisitSlot)
	for _, slot := range customer.Slots {
		if slot.VisitIndex < 1 {
			return nil, false, types.Validation(
				"customer %s slot %s %s has visit index %d",
				customer.ID, slot.Day, slot.Time, slot.VisitIndex,
			)
		}
		if slot.CarPlate != "" && !customer.HasPlate(slot.CarPlate) {
			return nil, false, types.Validation(
				"customer %s slot references unknown car %q",
				customer.ID, slot.CarPlate,
			)
		}
		byVisit[slot.VisitIndex] = append(byVisit[slot.VisitIndex], slot)
	}
	visitIndexes := make([]int, 0, len(byVisit))
	for visitIndex := range byVisit {
		visitIndexes = append(visitIndexes, visitIndex)
	}
	sort.Ints(visitIndexes)

	planned := make(map[types.SlotKey]*plannedSlot)
	for _, visitIndex := range visitIndexes {
		resolution, err := s.resolver.Resolve(ResolveInput{
			Rule:          rule,
			WeekOffset:    week.WeeksSince(s.anchor),
			TargetWeek:    week,
			VisitIndex:    visitIndex,
			CarPlates:     plates,
			History:       history,
			CustomerStart: contractStart,
		})
		if err != nil {
			return nil, false, err
		}
		if resolution.Skip {
			return nil, true, nil
		}

		perCar := make(map[string]bool)
		for _, slot := range byVisit[visitIndex] {
			if slot.CarPlate != "" {
				perCar[slot.CarPlate] = true
			}
		}

		for _, slot := range byVisit[visitIndex] {
			day, err := utils.CanonicalDay(slot.Day)
			if err != nil {
				return nil, false, types.Validation("customer %s: %v", customer.ID, err)
			}
			clock, err := utils.CanonicalClock(slot.Time)
			if err != nil {
				return nil, false, types.Validation("customer %s: %v", customer.ID, err)
			}
			weekday, _ := utils.ParseDay(day)

			key := types.SlotKey{Week: week, CustomerID: customer.ID, Day: day, Time: clock}
			target, ok := planned[key]
			if !ok {
				target = &plannedSlot{
					key:  key,
					date: week.Date(weekday),
					cars: make(map[string]plannedCar),
				}
				planned[key] = target
			}

			covered := []string{slot.CarPlate}
			if slot.CarPlate == "" {
				covered = covered[:0]
				for _, plate := range plates {
					if !perCar[plate] {
						covered = append(covered, plate)
					}
				}
			}
			for _, plate := range covered {
				if _, dup := target.cars[plate]; dup {
					return nil, false, types.Validation(
						"customer %s car %s is scheduled twice at %s %s",
						customer.ID, plate, day, clock,
					)
				}
				target.cars[plate] = plannedCar{
					visitIndex: resolution.VisitIndex,
					washType:   resolution.Types[plate],
				}
			}
		}
	}

	slots := make([]*plannedSlot, 0, len(planned))
	for _, slot := range planned {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i].key, slots[j].key
		return utils.CompareSlots(a.Day, a.Time, b.Day, b.Time) < 0
	})
	return slots, false, nil
}

func (s *SlotAssigner) ListTasks(
	ctx context.Context,
	week types.WeekKey,
) ([]*models.ScheduledTask, error) {
	if week.IsZero() {
		return nil, types.Validation("week is required")
	}
	return s.store.ReadTasks(ctx, week)
}

// ReassignWorker moves the slot of key to workerID. Every car of the customer at the
// slot follows, and the changed rows are locked.
func (s *SlotAssigner) ReassignWorker(
	ctx context.Context,
	key types.TaskKey,
	workerID uuid.UUID,
	opts EditOptions,
) (updated *models.ScheduledTask, err error) {
	action := models.AuditActionReassignWorker
	defer func() { s.metrics.RecordEdit(string(action), OutcomeFor(err)) }()

	key, release, tasks, err := s.beginEdit(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.requireActiveWorker(ctx, workerID); err != nil {
		return nil, err
	}
	if findTask(tasks, key) == nil {
		return nil, types.NotFound("task %s", key)
	}
	if other := servingOtherCustomer(tasks, key, workerID); other != nil {
		return nil, types.Conflict(
			"worker %s already serves customer %s at %s %s",
			workerID, other.CustomerID, key.Day, key.Time,
		)
	}

	var batch repositories.TaskBatch
	for _, task := range tasks {
		if task.Key().Slot() != key.Slot() {
			continue
		}
		isTarget := task.Key() == key
		if opts.Soft && !isTarget && task.Locked {
			return nil, types.LockViolation("task %s is locked", task.Key())
		}

		next := task.Clone()
		assigned := workerID
		next.WorkerID = &assigned
		next.Locked = true
		if !isTarget && task.SameContent(next) {
			continue
		}

		batch.Upserts = append(batch.Upserts, next)
		s.audit.Record(&batch, s.audit.Entry(ctx, opts.Actor, action, next.Key(), task, next, opts.Reason))
		if isTarget {
			updated = next
		}
	}

	if err := s.commitEdit(ctx, key.Week, action, batch); err != nil {
		return nil, err
	}
	return updated, nil
}

// OverrideWashType changes one car's wash type and locks the row. Siblings are untouched.
func (s *SlotAssigner) OverrideWashType(
	ctx context.Context,
	key types.TaskKey,
	washType models.WashType,
	opts EditOptions,
) (updated *models.ScheduledTask, err error) {
	action := models.AuditActionOverrideWashType
	defer func() { s.metrics.RecordEdit(string(action), OutcomeFor(err)) }()

	if !washType.Valid() {
		return nil, types.Validation("unknown wash type %q", washType)
	}

	key, release, tasks, err := s.beginEdit(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	target := findTask(tasks, key)
	if target == nil {
		return nil, types.NotFound("task %s", key)
	}

	updated = target.Clone()
	updated.WashType = washType
	updated.Locked = true

	batch := repositories.TaskBatch{Upserts: []*models.ScheduledTask{updated}}
	s.audit.Record(&batch, s.audit.Entry(ctx, opts.Actor, action, key, target, updated, opts.Reason))
	if err := s.commitEdit(ctx, key.Week, action, batch); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes one task. The customer and its slot configuration stay.
func (s *SlotAssigner) DeleteTask(ctx context.Context, key types.TaskKey, opts EditOptions) (err error) {
	action := models.AuditActionDeleteTask
	defer func() { s.metrics.RecordEdit(string(action), OutcomeFor(err)) }()

	key, release, tasks, err := s.beginEdit(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	target := findTask(tasks, key)
	if target == nil {
		return types.NotFound("task %s", key)
	}

	batch := repositories.TaskBatch{Deletes: []*models.ScheduledTask{target}}
	s.audit.Record(&batch, s.audit.Entry(ctx, opts.Actor, action, key, target, nil, opts.Reason))
	return s.commitEdit(ctx, key.Week, action, batch)
}

// AddTask creates or replaces a locked task. Without a worker it joins the worker
// already serving the customer's slot.
func (s *SlotAssigner) AddTask(
	ctx context.Context,
	input AddTaskInput,
	opts EditOptions,
) (created *models.ScheduledTask, err error) {
	action := models.AuditActionAddTask
	defer func() { s.metrics.RecordEdit(string(action), OutcomeFor(err)) }()

	if !input.WashType.Valid() {
		return nil, types.Validation("unknown wash type %q", input.WashType)
	}

	key, release, tasks, err := s.beginEdit(ctx, input.Key)
	if err != nil {
		return nil, err
	}
	defer release()

	customer, err := s.store.GetCustomer(ctx, key.CustomerID)
	if err != nil {
		return nil, err
	}
	if !customer.HasPlate(key.CarPlate) {
		return nil, types.Validation("customer %s has no car %q", key.CustomerID, key.CarPlate)
	}

	var siblingWorker *uuid.UUID
	for _, task := range tasks {
		if task.Key().Slot() == key.Slot() && task.Key() != key && task.Assigned() {
			siblingWorker = task.WorkerID
			break
		}
	}

	var workerID *uuid.UUID
	switch {
	case input.WorkerID != nil:
		if siblingWorker != nil && *siblingWorker != *input.WorkerID {
			return nil, types.Conflict(
				"slot %s is served by worker %s",
				key.Slot(), *siblingWorker,
			)
		}
		id := *input.WorkerID
		workerID = &id
	case siblingWorker != nil:
		id := *siblingWorker
		workerID = &id
	}

	if workerID != nil {
		if err := s.requireActiveWorker(ctx, *workerID); err != nil {
			return nil, err
		}
		if other := servingOtherCustomer(tasks, key, *workerID); other != nil {
			return nil, types.Conflict(
				"worker %s already serves customer %s at %s %s",
				*workerID, other.CustomerID, key.Day, key.Time,
			)
		}
	}

	weekday, _ := utils.ParseDay(key.Day)
	created = &models.ScheduledTask{
		Week:         key.Week,
		CustomerID:   key.CustomerID,
		Day:          key.Day,
		Time:         key.Time,
		CarPlate:     key.CarPlate,
		VisitIndex:   input.VisitIndex,
		WashType:     input.WashType,
		WorkerID:     workerID,
		Locked:       true,
		ScheduleDate: key.Week.Date(weekday),
	}

	existing := findTask(tasks, key)
	if existing != nil {
		created.ID = existing.ID
		created.Version = existing.Version
		if created.VisitIndex == 0 {
			created.VisitIndex = existing.VisitIndex
		}
	}
	if created.VisitIndex < 1 {
		created.VisitIndex = 1
	}

	batch := repositories.TaskBatch{Upserts: []*models.ScheduledTask{created}}
	s.audit.Record(&batch, s.audit.Entry(ctx, opts.Actor, action, key, existing, created, opts.Reason))
	if err := s.commitEdit(ctx, key.Week, action, batch); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SlotAssigner) beginEdit(
	ctx context.Context,
	key types.TaskKey,
) (types.TaskKey, func(), []*models.ScheduledTask, error) {
	key, err := key.Normalize()
	if err != nil {
		return key, nil, nil, err
	}

	release, err := s.locks.TryAcquire(key.Slot())
	if err != nil {
		return key, nil, nil, err
	}

	tasks, err := s.store.ReadTasks(ctx, key.Week)
	if err != nil {
		release()
		return key, nil, nil, err
	}
	return key, release, tasks, nil
}

func (s *SlotAssigner) commitEdit(
	ctx context.Context,
	week types.WeekKey,
	action models.AuditAction,
	batch repositories.TaskBatch,
) error {
	log := s.log.Function("commitEdit")

	if batch.Empty() {
		return nil
	}
	if err := s.store.WriteTasks(ctx, week, batch); err != nil {
		return err
	}

	log.Info("Manual edit committed", "week", week.String(), "action", action, "rows", len(batch.Audit))
	s.notifier.ScheduleUpdated(ctx, week, string(action), len(batch.Audit))
	return nil
}

func (s *SlotAssigner) requireActiveWorker(ctx context.Context, workerID uuid.UUID) error {
	worker, err := s.store.GetWorker(ctx, workerID)
	if err != nil {
		return err
	}
	if !worker.Active {
		return types.Validation("worker %s is inactive", workerID)
	}
	return nil
}

func findTask(tasks []*models.ScheduledTask, key types.TaskKey) *models.ScheduledTask {
	for _, task := range tasks {
		if task.Key() == key {
			return task
		}
	}
	return nil
}

// servingOtherCustomer returns a task that already binds workerID to a different
// customer at key's day and time.
func servingOtherCustomer(
	tasks []*models.ScheduledTask,
	key types.TaskKey,
	workerID uuid.UUID,
) *models.ScheduledTask {
	for _, task := range tasks {
		if task.CustomerID != key.CustomerID &&
			task.Day == key.Day &&
			task.Time == key.Time &&
			task.AssignedTo(workerID) {
			return task
		}
	}
	return nil
}

// OutcomeFor maps an operation error to its metrics label.
func OutcomeFor(err error) metrics.Outcome {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, types.ErrConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, types.ErrLockViolation):
		return metrics.OutcomeLocked
	case errors.Is(err, types.ErrValidation):
		return metrics.OutcomeInvalid
	case errors.Is(err, types.ErrNotFound):
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeFailure
}

// TaskSetFingerprint hashes the schedule-relevant fields of a task set.
func TaskSetFingerprint(tasks []*models.ScheduledTask) string {
	rows := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, map[string]any{
			"week":         task.Week,
			"customerId":   task.CustomerID,
			"day":          task.Day,
			"time":         task.Time,
			"carPlate":     task.CarPlate,
			"visitIndex":   task.VisitIndex,
			"washType":     string(task.WashType),
			"workerId":     task.WorkerID,
			"locked":       task.Locked,
			"scheduleDate": task.ScheduleDate.Format(time.DateOnly),
		})
	}
	return utils.HashRows(rows)
}

type workerBoard struct {
	active      map[uuid.UUID]bool
	roster      []uuid.UUID
	commitments map[types.DayTime]map[uuid.UUID]uuid.UUID
}

func newWorkerBoard(workers []*models.Worker) *workerBoard {
	board := &workerBoard{
		active:      make(map[uuid.UUID]bool, len(workers)),
		roster:      make([]uuid.UUID, 0, len(workers)),
		commitments: make(map[types.DayTime]map[uuid.UUID]uuid.UUID),
	}
	for _, worker := range workers {
		if !worker.Active {
			continue
		}
		board.active[worker.ID] = true
		board.roster = append(board.roster, worker.ID)
	}
	return board
}

func (b *workerBoard) commit(dayTime types.DayTime, workerID, customerID uuid.UUID) {
	if b.commitments[dayTime] == nil {
		b.commitments[dayTime] = make(map[uuid.UUID]uuid.UUID)
	}
	if _, taken := b.commitments[dayTime][workerID]; !taken {
		b.commitments[dayTime][workerID] = customerID
	}
}

func (b *workerBoard) available(dayTime types.DayTime, workerID, customerID uuid.UUID) bool {
	if !b.active[workerID] {
		return false
	}
	holder, taken := b.commitments[dayTime][workerID]
	return !taken || holder == customerID
}

// firstFree commits and returns the first roster worker free at dayTime, or nil.
func (b *workerBoard) firstFree(dayTime types.DayTime, customerID uuid.UUID) *uuid.UUID {
	for _, workerID := range b.roster {
		if b.available(dayTime, workerID, customerID) {
			b.commit(dayTime, workerID, customerID)
			id := workerID
			return &id
		}
	}
	return nil
}
