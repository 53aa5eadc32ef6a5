package database

import (
	"fmt"

	"washplan/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// Models lists every table managed by AutoMigrate, parents first.
func Models() []any {
	return []any{
		&models.WashRule{},
		&models.Worker{},
		&models.Customer{},
		&models.Car{},
		&models.VisitSlot{},
		&models.ScheduledTask{},
		&models.WashHistoryRecord{},
		&models.AuditEntry{},
	}
}

func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")

	for _, model := range Models() {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("failed to migrate model", err, "model", fmt.Sprintf("%T", model))
		}
	}

	log.Info("Database migration completed")
	return nil
}

// CreateIndexes adds the query indexes AutoMigrate does not derive from tags.
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_scheduled_tasks_week_slot ON scheduled_tasks(week, day, time)",
		"CREATE INDEX IF NOT EXISTS idx_scheduled_tasks_worker ON scheduled_tasks(week, worker_id) WHERE worker_id IS NOT NULL",
		"CREATE INDEX IF NOT EXISTS idx_audit_entries_customer_time ON audit_entries(customer_id, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_wash_history_customer_date ON wash_history_records(customer_id, wash_date DESC)",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			return log.Err("failed to create index", err, "sql", indexSQL)
		}
	}

	log.Info("Indexes created", "count", len(indexes))
	return nil
}
