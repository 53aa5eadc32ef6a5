package services

import (
	"sort"
	"time"

	"washplan/internal/models"
	"washplan/internal/types"

	logger "github.com/Bparsons0904/goLogger"
)

type ResolveInput struct {
	Rule *models.WashRule
	// WeekOffset is the target week's distance from the cycle anchor week.
	WeekOffset int
	TargetWeek types.WeekKey
	VisitIndex int
	CarPlates  []string
	// History is most recent first.
	History       []*models.WashHistoryRecord
	CustomerStart *time.Time
}

type Resolution struct {
	VisitIndex int
	BaseType   models.WashType
	OffWeek    bool
	Skip       bool
	Types      map[string]models.WashType
}

type WashTypeResolver struct {
	log logger.Logger
}

func NewWashTypeResolver() *WashTypeResolver {
	return &WashTypeResolver{
		log: logger.New("WashTypeResolver"),
	}
}

// NormalizeVisitIndex maps any visit index into [1, patternLength].
func NormalizeVisitIndex(visitIndex, patternLength int) int {
	if patternLength <= 0 {
		return 1
	}
	normalized := (visitIndex - 1) % patternLength
	if normalized < 0 {
		normalized += patternLength
	}
	return normalized + 1
}

func (r *WashTypeResolver) Resolve(input ResolveInput) (*Resolution, error) {
	if err := input.Rule.Validate(); err != nil {
		return nil, err
	}
	if len(input.CarPlates) == 0 {
		return nil, types.Validation("customer has no cars")
	}

	rule := input.Rule
	visitIndex := NormalizeVisitIndex(input.VisitIndex, rule.VisitsPerWeek())
	resolution := &Resolution{
		VisitIndex: visitIndex,
		BaseType:   rule.SingleCarPattern[visitIndex-1],
		Types:      make(map[string]models.WashType, len(input.CarPlates)),
	}

	if rule.BiWeekly.Enabled {
		offWeek, err := r.isOffWeek(input)
		if err != nil {
			return nil, err
		}
		resolution.OffWeek = offWeek

		if offWeek {
			switch rule.BiWeekly.Week2Policy {
			case models.Week2PolicySkipWeek:
				resolution.Skip = true
				return resolution, nil
			case models.Week2PolicyExtOnly:
				resolution.BaseType = models.WashTypeExterior
			}
		}
	}

	plates := append([]string(nil), input.CarPlates...)
	sort.Strings(plates)

	if len(plates) <= 1 || !rule.MultiCar.Enabled || !resolution.BaseType.IncludesInterior() {
		for _, plate := range plates {
			resolution.Types[plate] = resolution.BaseType
		}
		return resolution, nil
	}

	if rule.MultiCar.IntDistribution == models.IntDistributionAll {
		for _, plate := range plates {
			resolution.Types[plate] = models.WashTypeExteriorInterior
		}
		return resolution, nil
	}

	var interiorPlate string
	switch rule.MultiCar.IntDistribution {
	case models.IntDistributionAlternate:
		interiorPlate = plates[(visitIndex-1)%len(plates)]
	case models.IntDistributionRotate:
		interiorPlate = leastRecentInterior(plates, input.History)
	case models.IntDistributionFixed:
		interiorPlate = plates[0]
	}

	for _, plate := range plates {
		if plate == interiorPlate {
			resolution.Types[plate] = models.WashTypeExteriorInterior
		} else {
			resolution.Types[plate] = models.WashTypeExterior
		}
	}
	return resolution, nil
}

func (r *WashTypeResolver) isOffWeek(input ResolveInput) (bool, error) {
	switch input.Rule.BiWeekly.CycleDetection {
	case models.CycleDetectionWeekNumber:
		return isOdd(input.WeekOffset), nil

	case models.CycleDetectionLastWashHistory:
		last := latestInterior(input.History)
		if last == nil {
			return false, nil
		}
		return isOdd(input.TargetWeek.WeeksSince(types.WeekOf(last.WashDate))), nil

	case models.CycleDetectionCustomerStartDate:
		if input.CustomerStart == nil {
			return false, types.Validation(
				"rule %q uses customer_start_date but the customer has no contract start",
				input.Rule.Name,
			)
		}
		return isOdd(input.TargetWeek.WeeksSince(types.WeekOf(*input.CustomerStart))), nil
	}

	return false, types.Validation("unknown cycle detection %q", input.Rule.BiWeekly.CycleDetection)
}

func isOdd(n int) bool {
	return n%2 != 0
}

func latestInterior(history []*models.WashHistoryRecord) *models.WashHistoryRecord {
	var latest *models.WashHistoryRecord
	for _, record := range history {
		if !record.WashType.IncludesInterior() {
			continue
		}
		if latest == nil || record.WashDate.After(latest.WashDate) {
			latest = record
		}
	}
	return latest
}

// leastRecentInterior picks the plate whose last interior wash is oldest. A plate
// with no interior wash counts as oldest; ties go to plate order.
func leastRecentInterior(plates []string, history []*models.WashHistoryRecord) string {
	lastInterior := make(map[string]time.Time, len(plates))
	for _, record := range history {
		if !record.WashType.IncludesInterior() {
			continue
		}
		if record.WashDate.After(lastInterior[record.CarPlate]) {
			lastInterior[record.CarPlate] = record.WashDate
		}
	}

	chosen := plates[0]
	for _, plate := range plates[1:] {
		if lastInterior[plate].Before(lastInterior[chosen]) {
			chosen = plate
		}
	}
	return chosen
}
