package repositories

import (
	"time"

	"washplan/internal/database"
)

type Repository struct {
	Schedule ScheduleStore
}

// New builds the gorm-backed store. Week reads go through valkey when a cache client
// is configured and cacheTTL is positive.
func New(db database.DB, cacheTTL time.Duration) Repository {
	store := NewScheduleRepository(db)
	if db.Cache.General != nil && cacheTTL > 0 {
		store = NewCachedScheduleStore(store, NewValkeyTaskCache(db.Cache.General, cacheTTL))
	}

	return Repository{
		Schedule: store,
	}
}
