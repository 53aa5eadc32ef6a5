package repositories

import (
	"context"
	"strconv"
	"time"

	"washplan/internal/constants"
	"washplan/internal/database"
	"washplan/internal/models"
	"washplan/internal/types"

	txContext "washplan/internal/context"

	logger "github.com/Bparsons0904/goLogger"
)

// TaskCache stores week task lists under a per-week generation. InvalidateWeek
// advances the generation, so a fill computed from a read that raced a write lands
// under a generation nobody reads again.
type TaskCache interface {
	Generation(ctx context.Context, week types.WeekKey) (int64, error)
	GetWeek(ctx context.Context, week types.WeekKey, generation int64) ([]*models.ScheduledTask, bool, error)
	SetWeek(ctx context.Context, week types.WeekKey, generation int64, tasks []*models.ScheduledTask) error
	InvalidateWeek(ctx context.Context, week types.WeekKey) error
}

type valkeyTaskCache struct {
	cache database.CacheClient
	ttl   time.Duration
}

func NewValkeyTaskCache(cache database.CacheClient, ttl time.Duration) TaskCache {
	if ttl <= 0 {
		ttl = constants.ScheduleCacheExpiry
	}
	return &valkeyTaskCache{cache: cache, ttl: ttl}
}

func weekEntryKey(week types.WeekKey, generation int64) string {
	return week.String() + ":" + strconv.FormatInt(generation, 10)
}

func (c *valkeyTaskCache) Generation(ctx context.Context, week types.WeekKey) (int64, error) {
	return database.NewCacheBuilder(c.cache, week.String()).
		WithContext(ctx).
		WithTimeout(constants.ScheduleCacheTimeout).
		WithHash(constants.ScheduleGenerationPrefix).
		GetInt()
}

func (c *valkeyTaskCache) GetWeek(
	ctx context.Context,
	week types.WeekKey,
	generation int64,
) ([]*models.ScheduledTask, bool, error) {
	var tasks []*models.ScheduledTask
	found, err := database.NewCacheBuilder(c.cache, weekEntryKey(week, generation)).
		WithContext(ctx).
		WithTimeout(constants.ScheduleCacheTimeout).
		WithHash(constants.ScheduleWeekCachePrefix).
		Get(&tasks)
	return tasks, found, err
}

func (c *valkeyTaskCache) SetWeek(
	ctx context.Context,
	week types.WeekKey,
	generation int64,
	tasks []*models.ScheduledTask,
) error {
	if tasks == nil {
		tasks = []*models.ScheduledTask{}
	}
	return database.NewCacheBuilder(c.cache, weekEntryKey(week, generation)).
		WithContext(ctx).
		WithTimeout(constants.ScheduleCacheTimeout).
		WithHash(constants.ScheduleWeekCachePrefix).
		WithStruct(tasks).
		WithTTL(c.ttl).
		Set()
}

// InvalidateWeek advances the generation. Entries of older generations expire by TTL.
func (c *valkeyTaskCache) InvalidateWeek(ctx context.Context, week types.WeekKey) error {
	_, err := database.NewCacheBuilder(c.cache, week.String()).
		WithContext(ctx).
		WithTimeout(constants.ScheduleCacheTimeout).
		WithHash(constants.ScheduleGenerationPrefix).
		Increment()
	return err
}

// cachedScheduleStore serves ReadTasks from the cache outside transactions and
// advances the week's generation after every write commits. Cache failures fall
// through to the store.
type cachedScheduleStore struct {
	ScheduleStore
	cache TaskCache
	log   logger.Logger
}

func NewCachedScheduleStore(store ScheduleStore, cache TaskCache) ScheduleStore {
	return &cachedScheduleStore{
		ScheduleStore: store,
		cache:         cache,
		log:           logger.New("cachedScheduleStore"),
	}
}

func (s *cachedScheduleStore) ReadTasks(
	ctx context.Context,
	week types.WeekKey,
) ([]*models.ScheduledTask, error) {
	log := s.log.Function("ReadTasks")

	if _, inTx := txContext.GetTransaction(ctx); inTx {
		return s.ScheduleStore.ReadTasks(ctx, week)
	}

	generation, err := s.cache.Generation(ctx, week)
	if err != nil {
		log.Warn("failed to get week generation, bypassing cache", "week", week, "error", err)
		return s.ScheduleStore.ReadTasks(ctx, week)
	}

	tasks, found, err := s.cache.GetWeek(ctx, week, generation)
	if err != nil {
		log.Warn("failed to get week from cache", "week", week, "error", err)
	}
	if found {
		log.Debug("week tasks retrieved from cache", "week", week, "count", len(tasks))
		return tasks, nil
	}

	tasks, err = s.ScheduleStore.ReadTasks(ctx, week)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetWeek(ctx, week, generation, tasks); err != nil {
		log.Warn("failed to set week in cache", "week", week, "error", err)
	}

	return tasks, nil
}

func (s *cachedScheduleStore) WriteTasks(
	ctx context.Context,
	week types.WeekKey,
	batch TaskBatch,
) error {
	err := s.ScheduleStore.WriteTasks(ctx, week, batch)
	if _, inTx := txContext.GetTransaction(ctx); inTx {
		txContext.AfterCommit(ctx, func() { s.invalidate(context.WithoutCancel(ctx), week) })
	}
	s.invalidate(ctx, week)
	return err
}

func (s *cachedScheduleStore) invalidate(ctx context.Context, week types.WeekKey) {
	log := s.log.Function("invalidate")

	if err := s.cache.InvalidateWeek(ctx, week); err != nil {
		log.Warn("failed to invalidate week cache", "week", week, "error", err)
	}
}
