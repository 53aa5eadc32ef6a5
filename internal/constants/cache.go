package constants

import "time"

const (
	ScheduleWeekCachePrefix = "schedule_week" // Week task list by week key and generation (CacheBuilder adds colon)
	ScheduleCacheExpiry     = 6 * time.Hour

	ScheduleGenerationPrefix = "schedule_week_generation" // Per-week counter advanced by every write
	ScheduleCacheTimeout     = 500 * time.Millisecond
)
