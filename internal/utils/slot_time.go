package utils

import (
	"fmt"
	"strings"
	"time"
)

const ClockLayout = "3:04 PM"

var clockLayouts = []string{
	ClockLayout,
	"3:04PM",
	"3:04 pm",
	"3:04pm",
	"15:04",
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
}

// ParseDay accepts full or three-letter English weekday names in any case.
func ParseDay(day string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(day))]
	if !ok {
		return time.Sunday, fmt.Errorf("unknown weekday %q", day)
	}
	return wd, nil
}

// CanonicalDay returns the full weekday name, e.g. "mon" -> "Monday".
func CanonicalDay(day string) (string, error) {
	wd, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return wd.String(), nil
}

// DayIndex orders days Monday=0 .. Sunday=6.
func DayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// ParseClock returns minutes after midnight for a clock string such as "9:00 AM" or "14:30".
func ParseClock(clock string) (int, error) {
	value := strings.TrimSpace(clock)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", clock)
}

// CanonicalClock normalizes a clock string to ClockLayout.
func CanonicalClock(clock string) (string, error) {
	minutes, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	return time.Date(2000, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC).Format(ClockLayout), nil
}

// CompareSlots orders (day, time) pairs by weekday then time of day. Unparseable values sort last
// by their raw text so ordering stays deterministic.
func CompareSlots(dayA, timeA, dayB, timeB string) int {
	ia, ib := slotOrdinal(dayA, timeA), slotOrdinal(dayB, timeB)
	switch {
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	}
	if c := strings.Compare(dayA, dayB); c != 0 {
		return c
	}
	return strings.Compare(timeA, timeB)
}

func slotOrdinal(day, clock string) int {
	wd, err := ParseDay(day)
	if err != nil {
		return 1 << 30
	}
	minutes, err := ParseClock(clock)
	if err != nil {
		minutes = 24 * 60
	}
	return DayIndex(wd)*24*60 + minutes
}
