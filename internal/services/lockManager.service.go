package services

import (
	"context"
	"sync"

	"washplan/internal/models"
	"washplan/internal/repositories"
	"washplan/internal/types"

	logger "github.com/Bparsons0904/goLogger"
)

// LockManager answers whether a task is protected from regeneration and serializes
// manual edits per slot key. Acquisition never waits.
type LockManager struct {
	store repositories.ScheduleStore
	mu    sync.Mutex
	held  map[types.SlotKey]struct{}
	log   logger.Logger
}

func NewLockManager(store repositories.ScheduleStore) *LockManager {
	return &LockManager{
		store: store,
		held:  make(map[types.SlotKey]struct{}),
		log:   logger.New("LockManager"),
	}
}

func (m *LockManager) IsProtected(ctx context.Context, key types.TaskKey) (bool, error) {
	key, err := key.Normalize()
	if err != nil {
		return false, err
	}

	tasks, err := m.store.ReadTasks(ctx, key.Week)
	if err != nil {
		return false, err
	}

	for _, task := range tasks {
		if task.Key() == key {
			return task.Locked, nil
		}
	}
	return false, nil
}

// TryAcquire claims the slot key or fails with a conflict when another edit holds it.
func (m *LockManager) TryAcquire(key types.SlotKey) (func(), error) {
	log := m.log.Function("TryAcquire")

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.held[key]; busy {
		log.Debug("slot busy", "slot", key.String())
		return nil, types.Conflict("slot %s is being edited", key)
	}
	m.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
		})
	}, nil
}

// ProtectedSlots returns the slot keys holding at least one locked task.
func ProtectedSlots(tasks []*models.ScheduledTask) map[types.SlotKey]bool {
	protected := make(map[types.SlotKey]bool)
	for _, task := range tasks {
		if task.Locked {
			protected[task.Key().Slot()] = true
		}
	}
	return protected
}
