package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Customer struct {
	BaseUUIDModel
	Name          string          `gorm:"type:text;not null"              json:"name"`
	RuleID        uuid.UUID       `gorm:"type:uuid;not null;index"        json:"ruleId"`
	Rule          *WashRule       `gorm:"foreignKey:RuleID"               json:"rule,omitempty"`
	Active        bool            `gorm:"type:bool;not null"              json:"active"`
	ContractStart *datatypes.Date `gorm:"type:date"                       json:"contractStart,omitempty"`
	Cars          []Car           `gorm:"foreignKey:CustomerID"           json:"cars"`
	Slots         []VisitSlot     `gorm:"foreignKey:CustomerID"           json:"slots"`
}

type Car struct {
	BaseUUIDModel
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cars_customer_plate" json:"customerId"`
	Plate      string    `gorm:"type:text;not null;uniqueIndex:idx_cars_customer_plate" json:"plate"`
	Position   int       `gorm:"not null;default:0"                                     json:"position"`
}

// VisitSlot is a recurring weekly appointment. CarPlate narrows the slot to one car.
type VisitSlot struct {
	BaseUUIDModel
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customerId"`
	VisitIndex int       `gorm:"not null"                 json:"visitIndex"`
	Day        string    `gorm:"type:text;not null"       json:"day"`
	Time       string    `gorm:"type:text;not null"       json:"time"`
	CarPlate   string    `gorm:"type:text"                json:"carPlate,omitempty"`
}

// Plates returns plates in configured order.
func (c *Customer) Plates() []string {
	cars := make([]Car, len(c.Cars))
	copy(cars, c.Cars)
	sort.SliceStable(cars, func(i, j int) bool {
		return cars[i].Position < cars[j].Position
	})

	plates := make([]string, 0, len(cars))
	for _, car := range cars {
		plates = append(plates, car.Plate)
	}
	return plates
}

func (c *Customer) HasPlate(plate string) bool {
	for _, car := range c.Cars {
		if car.Plate == plate {
			return true
		}
	}
	return false
}

func (c *Customer) ContractStartTime() (time.Time, bool) {
	if c.ContractStart == nil {
		return time.Time{}, false
	}
	return time.Time(*c.ContractStart), true
}
