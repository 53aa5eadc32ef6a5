package types

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// WeekKey identifies an ISO-8601 week, rendered as "2026-W42".
type WeekKey struct {
	Year int
	Week int
}

// WeekOf returns the ISO week containing t.
func WeekOf(t time.Time) WeekKey {
	year, week := t.UTC().ISOWeek()
	return WeekKey{Year: year, Week: week}
}

// ParseWeekKey parses the "YYYY-Www" form.
func ParseWeekKey(value string) (WeekKey, error) {
	var year, week int
	if _, err := fmt.Sscanf(value, "%4d-W%2d", &year, &week); err != nil {
		return WeekKey{}, Validation("invalid week key %q, expected YYYY-Www", value)
	}
	key := WeekKey{Year: year, Week: week}
	if key.String() != value {
		return WeekKey{}, Validation("invalid week key %q, expected YYYY-Www", value)
	}
	if WeekOf(key.Start()) != key {
		return WeekKey{}, Validation("week %q does not exist", value)
	}
	return key, nil
}

func (w WeekKey) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}

func (w WeekKey) IsZero() bool {
	return w.Year == 0 && w.Week == 0
}

// Start returns Monday 00:00 UTC of the week.
func (w WeekKey) Start() time.Time {
	// January 4th is always in ISO week 1.
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1Monday := jan4.AddDate(0, 0, -offset)
	return week1Monday.AddDate(0, 0, (w.Week-1)*7)
}

// Add moves the key by n weeks.
func (w WeekKey) Add(n int) WeekKey {
	return WeekOf(w.Start().AddDate(0, 0, 7*n))
}

// WeeksSince returns the whole number of calendar weeks from other to w (negative when other is later).
func (w WeekKey) WeeksSince(other WeekKey) int {
	days := int(w.Start().Sub(other.Start()).Hours() / 24)
	if days >= 0 {
		return days / 7
	}
	return -((-days + 6) / 7)
}

// Date returns the calendar date of weekday wd inside the week.
func (w WeekKey) Date(wd time.Weekday) time.Time {
	return w.Start().AddDate(0, 0, (int(wd)+6)%7)
}

func (w WeekKey) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *WeekKey) UnmarshalText(data []byte) error {
	key, err := ParseWeekKey(string(data))
	if err != nil {
		return err
	}
	*w = key
	return nil
}

// Value stores the key as text.
func (w WeekKey) Value() (driver.Value, error) {
	return w.String(), nil
}

// Scan reads the key from a text column.
func (w *WeekKey) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return w.UnmarshalText([]byte(v))
	case []byte:
		return w.UnmarshalText(v)
	case nil:
		*w = WeekKey{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into WeekKey", src)
	}
}
