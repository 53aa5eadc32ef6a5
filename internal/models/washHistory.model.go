package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WashHistoryRecord is a completed wash. Records are append only.
type WashHistoryRecord struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"           json:"id"`
	CreatedAt  time.Time  `gorm:"autoCreateTime"                                           json:"createdAt"`
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_wash_history_unique"   json:"customerId"`
	CarPlate   string     `gorm:"type:text;not null;uniqueIndex:idx_wash_history_unique"   json:"carPlate"`
	WashDate   time.Time  `gorm:"type:date;not null;uniqueIndex:idx_wash_history_unique"   json:"washDate"`
	WashType   WashType   `gorm:"type:text;not null"                                       json:"washType"`
	WorkerID   *uuid.UUID `gorm:"type:uuid"                                                json:"workerId,omitempty"`
}

func (r *WashHistoryRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
