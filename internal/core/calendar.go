package core

import (
	"fmt"
	"time"
)

// HouseholdZone is the single civil zone every "today" and day boundary
// is computed in, regardless of where a request originates. Korea has no
// daylight saving, so a fixed offset is exact.
var HouseholdZone = time.FixedZone("KST", 9*60*60)

const dateLayout = "2006-01-02"

// Date is a civil calendar date with no time-of-day component.
// The zero value is the zero date.
type Date struct {
	t time.Time
}

// NewDate builds a date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// CivilDate converts an instant to the calendar date it falls on in the
// household zone.
func CivilDate(at time.Time) Date {
	y, m, d := at.In(HouseholdZone).Date()
	return NewDate(y, m, d)
}

func (d Date) String() string      { return d.t.Format(dateLayout) }
func (d Date) Year() int           { return d.t.Year() }
func (d Date) Month() time.Month   { return d.t.Month() }
func (d Date) Day() int            { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool        { return d.t.IsZero() }

// YearMonth returns the "YYYY-MM" the date falls in.
func (d Date) YearMonth() string { return d.t.Format("2006-01") }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseYearMonth validates a "YYYY-MM" string and returns its parts.
func ParseYearMonth(s string) (year int, month time.Month, err error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("parse year month %q: %w", s, err)
	}
	return t.Year(), t.Month(), nil
}

// PrevYearMonth returns the "YYYY-MM" immediately before the given one.
func PrevYearMonth(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0).Format("2006-01")
}

// DaysInMonth returns the number of calendar days in a month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the first and last calendar day of a month.
func MonthRange(year int, month time.Month) (start, end Date) {
	return NewDate(year, month, 1), NewDate(year, month, DaysInMonth(year, month))
}

// WeekRange returns the Monday-through-Sunday week containing the date.
// A Sunday belongs to the week starting six days earlier.
func WeekRange(d Date) (start, end Date) {
	diff := int(time.Monday - d.Weekday())
	if d.Weekday() == time.Sunday {
		diff = -6
	}
	start = d.AddDays(diff)
	return start, start.AddDays(6)
}

// DateRange returns every date in [start, end] inclusive, ascending.
func DateRange(start, end Date) []Date {
	var dates []Date
	for cur := start; !cur.After(end); cur = cur.AddDays(1) {
		dates = append(dates, cur)
	}
	return dates
}

// HolidaySet is a lookup of public-holiday dates.
type HolidaySet map[string]struct{}

// NewHolidaySet builds a set from holiday records.
func NewHolidaySet(holidays []Holiday) HolidaySet {
	set := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		set[h.Date.String()] = struct{}{}
	}
	return set
}

func (s HolidaySet) Contains(d Date) bool {
	_, ok := s[d.String()]
	return ok
}

// BusinessDays returns every date in [start, end] that is not a public
// holiday, ascending. The result may be empty.
func BusinessDays(start, end Date, holidays HolidaySet) []Date {
	var days []Date
	for _, d := range DateRange(start, end) {
		if !holidays.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// Period is the date span a reward claim covers, identified by a key
// that is stable and comparable as a string.
type Period struct {
	Key   string
	Start Date
	End   Date
}

// PeriodFor derives the claim period containing a date: the calendar
// month for SPECIAL (key "YYYY-MM"), the Monday week for BONUS (key is
// the ISO date of that week's Monday).
func PeriodFor(kind RewardKind, d Date) Period {
	if kind == RewardSpecial {
		start, end := MonthRange(d.Year(), d.Month())
		return Period{Key: d.YearMonth(), Start: start, End: end}
	}
	start, end := WeekRange(d)
	return Period{Key: start.String(), Start: start, End: end}
}
