package ledger

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DATE - Civil calendar date (day granularity)
// =============================================================================

// Date is a calendar date with no time-of-day component. It serializes
// as "YYYY-MM-DD". The zero Date is "no date".
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar date, in the Time's own
// location. Today's date near midnight therefore depends on the zone the
// caller lives in, which is exactly what users expect of "today".
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current date in the process-local timezone.
// Local, not UTC: a bill closed at 11pm in a western timezone belongs to
// that local day.
func Today() Date {
	return DateOf(time.Now())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// DaysSince returns the number of whole days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.t.Sub(other.t).Hours() / 24)
}

// AddMonthsClamped advances by n months, clamping the day to the target
// month's length instead of letting time.AddDate normalize overflow
// (Aug 31 + 6 months must be Feb 28/29, not Mar 2).
func (d Date) AddMonthsClamped(n int) Date {
	y, m, day := d.Year(), d.Month(), d.Day()
	target := MonthOf(y, m).AddMonths(n)
	return target.ClampDay(day)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// MONTH - Calendar month key ("YYYY-MM")
// =============================================================================

// Month is the ledger key: one persisted document per Month.
// It serializes as "YYYY-MM".
type Month struct {
	year  int
	month time.Month
}

const monthLayout = "2006-01"

func MonthOf(year int, month time.Month) Month {
	// Normalize through time.Date so month 13 etc. roll over.
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{year: t.Year(), month: t.Month()}
}

func MonthOfDate(d Date) Month { return MonthOf(d.Year(), d.Month()) }

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return MonthOf(t.Year(), t.Month()), nil
}

func (m Month) Year() int         { return m.year }
func (m Month) Month() time.Month { return m.month }
func (m Month) IsZero() bool      { return m.year == 0 }

func (m Month) AddMonths(n int) Month {
	return MonthOf(m.year, m.month+time.Month(n))
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.Last().Day()
}

// First returns the first day of the month.
func (m Month) First() Date { return NewDate(m.year, m.month, 1) }

// Last returns the last day of the month.
func (m Month) Last() Date {
	return NewDate(m.year, m.month+1, 1).AddDays(-1)
}

// Contains reports whether d falls inside the month (inclusive).
func (m Month) Contains(d Date) bool {
	return d.Year() == m.year && d.Month() == m.month
}

// ClampDay returns the date at day within the month, clamped to the last
// day when the month is shorter. Day 31 therefore always means "last day".
func (m Month) ClampDay(day int) Date {
	if last := m.Days(); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return NewDate(m.year, m.month, day)
}

// NthWeekday returns the week-th occurrence of weekday in the month.
// Week 5 means "the last such weekday" even when only four exist.
func (m Month) NthWeekday(week int, weekday time.Weekday) Date {
	first := m.First()
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	d := first.AddDays(offset + (week-1)*7)
	for week >= 5 && !m.Contains(d) {
		d = d.AddDays(-7)
	}
	return d
}

func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.year, int(m.month))
}

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Month) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
