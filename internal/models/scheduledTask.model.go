package models

import (
	"sort"
	"time"

	"washplan/internal/types"
	"washplan/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduledTask is one car's wash in one slot of one week. Rows are hard deleted
// so the natural key stays unique.
type ScheduledTask struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                        json:"id"`
	CreatedAt    time.Time     `gorm:"autoCreateTime"                                                        json:"createdAt"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime"                                                        json:"updatedAt"`
	Week         types.WeekKey `gorm:"type:varchar(8);not null;uniqueIndex:idx_scheduled_tasks_key,priority:1" json:"week"`
	CustomerID   uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_scheduled_tasks_key,priority:2"       json:"customerId"`
	Day          string        `gorm:"type:text;not null;uniqueIndex:idx_scheduled_tasks_key,priority:3"       json:"day"`
	Time         string        `gorm:"type:text;not null;uniqueIndex:idx_scheduled_tasks_key,priority:4"       json:"time"`
	CarPlate     string        `gorm:"type:text;not null;uniqueIndex:idx_scheduled_tasks_key,priority:5"       json:"carPlate"`
	VisitIndex   int           `gorm:"not null"                                                              json:"visitIndex"`
	WashType     WashType      `gorm:"type:text;not null"                                                    json:"washType"`
	WorkerID     *uuid.UUID    `gorm:"type:uuid;index"                                                       json:"workerId,omitempty"`
	Locked       bool          `gorm:"type:bool;not null;default:false"                                      json:"locked"`
	ScheduleDate time.Time     `gorm:"type:date;not null"                                                    json:"scheduleDate"`
	Version      int           `gorm:"not null;default:1"                                                    json:"version"`
}

func (t *ScheduledTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *ScheduledTask) Key() types.TaskKey {
	return types.TaskKey{
		Week:       t.Week,
		CustomerID: t.CustomerID,
		Day:        t.Day,
		Time:       t.Time,
		CarPlate:   t.CarPlate,
	}
}

func (t *ScheduledTask) Assigned() bool {
	return t.WorkerID != nil && *t.WorkerID != uuid.Nil
}

func (t *ScheduledTask) AssignedTo(workerID uuid.UUID) bool {
	return t.Assigned() && *t.WorkerID == workerID
}

// SameContent compares the fields a regeneration may change.
func (t *ScheduledTask) SameContent(other *ScheduledTask) bool {
	if t.WashType != other.WashType || t.Locked != other.Locked || t.VisitIndex != other.VisitIndex {
		return false
	}
	if !t.ScheduleDate.Equal(other.ScheduleDate) {
		return false
	}
	if t.Assigned() != other.Assigned() {
		return false
	}
	return !t.Assigned() || *t.WorkerID == *other.WorkerID
}

func (t *ScheduledTask) Clone() *ScheduledTask {
	clone := *t
	if t.WorkerID != nil {
		workerID := *t.WorkerID
		clone.WorkerID = &workerID
	}
	return &clone
}

// SortTasks orders tasks by weekday, time, customer and plate.
func SortTasks(tasks []*ScheduledTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if cmp := utils.CompareSlots(a.Day, a.Time, b.Day, b.Time); cmp != 0 {
			return cmp < 0
		}
		if a.CustomerID != b.CustomerID {
			return a.CustomerID.String() < b.CustomerID.String()
		}
		return a.CarPlate < b.CarPlate
	})
}
