package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Period is a slot in the school day. 1-8 are teaching periods, the rest are named duties.
type Period int

const (
	PeriodBeforeSchool    Period = 0
	PeriodLunch           Period = 9
	PeriodAfterSchool     Period = 10
	PeriodBreak           Period = 11
	PeriodExtracurricular Period = 13

	FirstTeachingPeriod Period = 1
	LastTeachingPeriod  Period = 8
)

// ClockRange is a wall-clock interval within a day, in minutes since midnight.
type ClockRange struct {
	Start int
	End   int
}

func clock(h, m int) int { return h*60 + m }

// teachingTimes maps each teaching period to its fixed bell times.
var teachingTimes = map[Period]ClockRange{
	1: {clock(8, 40), clock(9, 20)},
	2: {clock(9, 20), clock(10, 0)},
	3: {clock(10, 0), clock(10, 40)},
	4: {clock(11, 0), clock(11, 40)},
	5: {clock(11, 40), clock(12, 20)},
	6: {clock(13, 10), clock(13, 50)},
	7: {clock(13, 50), clock(14, 30)},
	8: {clock(14, 30), clock(15, 10)},
}

var dutyNames = map[Period]string{
	PeriodBeforeSchool:    "Before School",
	PeriodLunch:           "Lunch",
	PeriodAfterSchool:     "After School",
	PeriodBreak:           "Break",
	PeriodExtracurricular: "Extracurricular",
}

// AllPeriods lists every known period in display order.
var AllPeriods = []Period{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 13}

// TeachingPeriods returns periods 1-8.
func TeachingPeriods() []Period {
	out := make([]Period, 0, LastTeachingPeriod)
	for p := FirstTeachingPeriod; p <= LastTeachingPeriod; p++ {
		out = append(out, p)
	}
	return out
}

// IsTeaching reports whether p is a numbered teaching period.
func (p Period) IsTeaching() bool {
	return p >= FirstTeachingPeriod && p <= LastTeachingPeriod
}

// Valid reports whether p is part of the period taxonomy.
func (p Period) Valid() bool {
	if p.IsTeaching() {
		return true
	}
	_, ok := dutyNames[p]
	return ok
}

// Times returns the bell times of a teaching period.
func (p Period) Times() (ClockRange, bool) {
	r, ok := teachingTimes[p]
	return r, ok
}

// Bounds returns the absolute start and end of a teaching period on the given date.
func (p Period) Bounds(date time.Time, loc *time.Location) (time.Time, time.Time, bool) {
	r, ok := teachingTimes[p]
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return day.Add(time.Duration(r.Start) * time.Minute), day.Add(time.Duration(r.End) * time.Minute), true
}

func (p Period) String() string {
	if name, ok := dutyNames[p]; ok {
		return name
	}
	return "P" + strconv.Itoa(int(p))
}

// AnyTeaching reports whether any period in the set is a teaching period.
func AnyTeaching(periods []Period) bool {
	for _, p := range periods {
		if p.IsTeaching() {
			return true
		}
	}
	return false
}

// ParsePeriods parses a comma separated list such as "1,2,9".
func ParsePeriods(raw string) ([]Period, error) {
	out := make([]Period, 0)
	seen := make(map[Period]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid period %q", part)
		}
		p := Period(n)
		if !p.Valid() {
			return nil, fmt.Errorf("unknown period %d", n)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// PeriodRange returns the inclusive range [start, end].
func PeriodRange(start, end Period) []Period {
	out := make([]Period, 0)
	for p := start; p <= end; p++ {
		out = append(out, p)
	}
	return out
}

// SortPeriods sorts in place and returns the slice.
func SortPeriods(periods []Period) []Period {
	sort.Slice(periods, func(i, j int) bool { return periods[i] < periods[j] })
	return periods
}
