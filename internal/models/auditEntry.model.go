package models

import (
	"encoding/json"
	"time"

	"washplan/internal/types"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditAction string

const (
	AuditActionRegenerate       AuditAction = "REGENERATE"
	AuditActionReassignWorker   AuditAction = "REASSIGN_WORKER"
	AuditActionOverrideWashType AuditAction = "OVERRIDE_WASH_TYPE"
	AuditActionAddTask          AuditAction = "ADD_TASK"
	AuditActionDeleteTask       AuditAction = "DELETE_TASK"
)

// AuditEntry is an immutable record of one change to one task.
type AuditEntry struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Timestamp  time.Time      `gorm:"not null;index"                                json:"timestamp"`
	Actor      string         `gorm:"type:text;not null"                            json:"actor"`
	Action     AuditAction    `gorm:"type:text;not null"                            json:"action"`
	Week       types.WeekKey  `gorm:"type:varchar(8);not null;index"                json:"week"`
	CustomerID uuid.UUID      `gorm:"type:uuid;not null;index"                      json:"customerId"`
	Day        string         `gorm:"type:text;not null"                            json:"day"`
	Time       string         `gorm:"type:text;not null"                            json:"time"`
	CarPlate   string         `gorm:"type:text;not null"                            json:"carPlate"`
	Before     datatypes.JSON `gorm:"type:jsonb"                                    json:"before,omitempty"`
	After      datatypes.JSON `gorm:"type:jsonb"                                    json:"after,omitempty"`
	Reason     string         `gorm:"type:text"                                     json:"reason,omitempty"`
}

func (a *AuditEntry) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *AuditEntry) Key() types.TaskKey {
	return types.TaskKey{
		Week:       a.Week,
		CustomerID: a.CustomerID,
		Day:        a.Day,
		Time:       a.Time,
		CarPlate:   a.CarPlate,
	}
}

type TaskSnapshot struct {
	WashType     WashType   `json:"washType"`
	WorkerID     *uuid.UUID `json:"workerId,omitempty"`
	Locked       bool       `json:"locked"`
	ScheduleDate string     `json:"scheduleDate"`
	VisitIndex   int        `json:"visitIndex"`
}

func snapshot(task *ScheduledTask) datatypes.JSON {
	if task == nil {
		return nil
	}
	raw, err := json.Marshal(TaskSnapshot{
		WashType:     task.WashType,
		WorkerID:     task.WorkerID,
		Locked:       task.Locked,
		ScheduleDate: task.ScheduleDate.Format(time.DateOnly),
		VisitIndex:   task.VisitIndex,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// NewAuditEntry records a change to key. before or after is nil for creates and deletes.
func NewAuditEntry(
	at time.Time,
	actor string,
	action AuditAction,
	key types.TaskKey,
	before, after *ScheduledTask,
	reason string,
) AuditEntry {
	return AuditEntry{
		ID:         uuid.New(),
		Timestamp:  at.UTC(),
		Actor:      actor,
		Action:     action,
		Week:       key.Week,
		CustomerID: key.CustomerID,
		Day:        key.Day,
		Time:       key.Time,
		CarPlate:   key.CarPlate,
		Before:     snapshot(before),
		After:      snapshot(after),
		Reason:     reason,
	}
}

func (a *AuditEntry) BeforeSnapshot() (*TaskSnapshot, error) {
	return decodeSnapshot(a.Before)
}

func (a *AuditEntry) AfterSnapshot() (*TaskSnapshot, error) {
	return decodeSnapshot(a.After)
}

func decodeSnapshot(raw datatypes.JSON) (*TaskSnapshot, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var snap TaskSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
