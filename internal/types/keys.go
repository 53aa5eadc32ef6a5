package types

import (
	"fmt"
	"strings"

	"washplan/internal/utils"

	"github.com/google/uuid"
)

// SlotKey is the unit of mutual exclusion: one customer at one (day, time) in one week.
type SlotKey struct {
	Week       WeekKey   `json:"week"`
	CustomerID uuid.UUID `json:"customerId"`
	Day        string    `json:"day"`
	Time       string    `json:"time"`
}

// TaskKey identifies a single scheduled task: a SlotKey plus the car plate.
type TaskKey struct {
	Week       WeekKey   `json:"week"`
	CustomerID uuid.UUID `json:"customerId"`
	Day        string    `json:"day"`
	Time       string    `json:"time"`
	CarPlate   string    `json:"carPlate"`
}

// DayTime is a (day, time) pair within a week, the grain of double-booking checks.
type DayTime struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

func (k TaskKey) Slot() SlotKey {
	return SlotKey{Week: k.Week, CustomerID: k.CustomerID, Day: k.Day, Time: k.Time}
}

func (k TaskKey) DayTime() DayTime {
	return DayTime{Day: k.Day, Time: k.Time}
}

func (k SlotKey) DayTime() DayTime {
	return DayTime{Day: k.Day, Time: k.Time}
}

func (k SlotKey) Task(plate string) TaskKey {
	return TaskKey{Week: k.Week, CustomerID: k.CustomerID, Day: k.Day, Time: k.Time, CarPlate: plate}
}

// String is for logs and lock maps only; keys are never parsed back from it.
func (k SlotKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.Week, k.CustomerID, k.Day, k.Time)
}

func (k TaskKey) String() string {
	return fmt.Sprintf("%s/%s", k.Slot(), k.CarPlate)
}

// Normalize validates the key and rewrites day and time into their canonical spelling.
func (k TaskKey) Normalize() (TaskKey, error) {
	if k.Week.IsZero() {
		return TaskKey{}, Validation("task key week is required")
	}
	if k.CustomerID == uuid.Nil {
		return TaskKey{}, Validation("task key customerId is required")
	}
	day, err := utils.CanonicalDay(k.Day)
	if err != nil {
		return TaskKey{}, Validation("task key: %v", err)
	}
	clock, err := utils.CanonicalClock(k.Time)
	if err != nil {
		return TaskKey{}, Validation("task key: %v", err)
	}
	plate := strings.TrimSpace(k.CarPlate)
	if plate == "" {
		return TaskKey{}, Validation("task key carPlate is required")
	}
	return TaskKey{Week: k.Week, CustomerID: k.CustomerID, Day: day, Time: clock, CarPlate: plate}, nil
}
