package domain

import (
	"fmt"
	"strings"
	"time"
)

// ScheduleEntry is one cell of the recurring weekly timetable.
type ScheduleEntry struct {
	ID        int64
	StaffID   int64
	DayOfWeek time.Weekday
	Period    Period
	Activity  string
	Location  *string
	IsFree    bool
}

// DaySchedule indexes one staff member's entries for a single weekday.
type DaySchedule map[Period]ScheduleEntry

// NewDaySchedule indexes entries by period. Later entries win.
func NewDaySchedule(entries []ScheduleEntry) DaySchedule {
	out := make(DaySchedule, len(entries))
	for _, e := range entries {
		out[e.Period] = e
	}
	return out
}

// Periods returns the scheduled periods in ascending order.
func (d DaySchedule) Periods() []Period {
	out := make([]Period, 0, len(d))
	for p := range d {
		out = append(out, p)
	}
	return SortPeriods(out)
}

// IsFree reports whether the timetable marks p as free. A missing entry is not free.
func (d DaySchedule) IsFree(p Period) bool {
	e, ok := d[p]
	return ok && e.IsFree
}

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// ParseWeekday accepts full or three letter English day names in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(s)
	for _, d := range weekdays {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid day %q", s)
}

// ParseDate parses an ISO date in the given location.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.In(loc)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

// DateIn returns midnight of t's calendar day in loc, keeping the day t names rather than
// converting the instant. Dates read back from a DATE column arrive as UTC midnight.
func DateIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
