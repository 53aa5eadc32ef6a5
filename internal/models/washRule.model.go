package models

import (
	"washplan/internal/types"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WashType string

const (
	WashTypeExterior         WashType = "EXT"
	WashTypeExteriorInterior WashType = "EXT+INT"
)

func (w WashType) Valid() bool {
	return w == WashTypeExterior || w == WashTypeExteriorInterior
}

func (w WashType) IncludesInterior() bool {
	return w == WashTypeExteriorInterior
}

type IntDistribution string

const (
	IntDistributionAlternate IntDistribution = "alternate_between_cars"
	IntDistributionRotate    IntDistribution = "rotate_based_on_history"
	IntDistributionFixed     IntDistribution = "fixed_car_per_visit"
	IntDistributionAll       IntDistribution = "all_cars_get_int"
)

func (d IntDistribution) Valid() bool {
	switch d {
	case IntDistributionAlternate, IntDistributionRotate, IntDistributionFixed, IntDistributionAll:
		return true
	}
	return false
}

type Week2Policy string

const (
	Week2PolicyExtOnly     Week2Policy = "ext_only"
	Week2PolicySkipWeek    Week2Policy = "skip_week"
	Week2PolicySameAsWeek1 Week2Policy = "same_as_week1"
)

func (p Week2Policy) Valid() bool {
	switch p {
	case Week2PolicyExtOnly, Week2PolicySkipWeek, Week2PolicySameAsWeek1:
		return true
	}
	return false
}

type CycleDetection string

const (
	CycleDetectionLastWashHistory   CycleDetection = "last_wash_history"
	CycleDetectionWeekNumber        CycleDetection = "week_number"
	CycleDetectionCustomerStartDate CycleDetection = "customer_start_date"
)

func (c CycleDetection) Valid() bool {
	switch c {
	case CycleDetectionLastWashHistory, CycleDetectionWeekNumber, CycleDetectionCustomerStartDate:
		return true
	}
	return false
}

type MultiCarSettings struct {
	Enabled         bool            `gorm:"not null;default:false" json:"enabled"         yaml:"enabled"`
	IntDistribution IntDistribution `gorm:"type:text"              json:"intDistribution" yaml:"intDistribution"`
}

type BiWeeklySettings struct {
	Enabled        bool           `gorm:"not null;default:false" json:"enabled"        yaml:"enabled"`
	Week2Policy    Week2Policy    `gorm:"type:text"              json:"week2Policy"    yaml:"week2Policy"`
	CycleDetection CycleDetection `gorm:"type:text"              json:"cycleDetection" yaml:"cycleDetection"`
}

// WashRule is a subscription package. The pattern length is the number of visits per week.
type WashRule struct {
	BaseUUIDModel
	Name             string                        `gorm:"type:text;not null;uniqueIndex"    json:"name"`
	SingleCarPattern datatypes.JSONSlice[WashType] `gorm:"type:jsonb;not null"               json:"singleCarPattern"`
	MultiCar         MultiCarSettings              `gorm:"embedded;embeddedPrefix:multi_car_" json:"multiCar"`
	BiWeekly         BiWeeklySettings              `gorm:"embedded;embeddedPrefix:bi_weekly_" json:"biWeekly"`
}

func (r *WashRule) VisitsPerWeek() int {
	return len(r.SingleCarPattern)
}

func (r *WashRule) Validate() error {
	if r == nil {
		return types.Validation("wash rule is required")
	}
	if len(r.SingleCarPattern) == 0 {
		return types.Validation("rule %q has an empty singleCarPattern", r.Name)
	}
	for i, washType := range r.SingleCarPattern {
		if !washType.Valid() {
			return types.Validation("rule %q pattern[%d]: unknown wash type %q", r.Name, i, washType)
		}
	}
	if r.MultiCar.Enabled && !r.MultiCar.IntDistribution.Valid() {
		return types.Validation(
			"rule %q: unknown intDistribution %q",
			r.Name,
			r.MultiCar.IntDistribution,
		)
	}
	if r.BiWeekly.Enabled {
		if !r.BiWeekly.Week2Policy.Valid() {
			return types.Validation("rule %q: unknown week2Policy %q", r.Name, r.BiWeekly.Week2Policy)
		}
		if !r.BiWeekly.CycleDetection.Valid() {
			return types.Validation(
				"rule %q: unknown cycleDetection %q",
				r.Name,
				r.BiWeekly.CycleDetection,
			)
		}
	}
	return nil
}

func (r *WashRule) BeforeSave(tx *gorm.DB) error {
	return r.Validate()
}
