package diary

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the only accepted textual form of a Day.
const DayLayout = "2006-01-02"

// Day is a calendar date without time-of-day or zone.
type Day struct {
	year  int
	month time.Month
	day   int
}

// NewDay normalises the given components, so NewDay(2024, 3, 0) is 29 Feb 2024.
func NewDay(year int, month time.Month, day int) Day {
	return DayOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DayOf returns the calendar day of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{year: y, month: m, day: d}
}

// ParseDay accepts exactly YYYY-MM-DD, surrounding spaces ignored.
func ParseDay(raw string) (Day, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(raw))
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", raw, err)
	}
	return DayOf(t), nil
}

// AddDays moves by whole calendar days, rolling months and years over.
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

func (d Day) IsZero() bool { return d == Day{} }

func (d Day) Format(layout string) string { return d.Time().Format(layout) }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DayLayout)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
