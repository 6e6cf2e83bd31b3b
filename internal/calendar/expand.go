package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Occurrence is one concrete instance of an event on the target day.
type Occurrence struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool
	Free    bool
}

// OccurrencesOn instantiates every event touching the given date, in feed order.
// Recurring events are expanded with their EXDATEs; RECURRENCE-ID overrides replace the
// instance they name.
func OccurrencesOn(events []Event, date time.Time, loc *time.Location) ([]Occurrence, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	overridden := make(map[string][]time.Time)
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overridden[ev.UID] = append(overridden[ev.UID], *ev.RecurrenceID)
		}
	}

	out := make([]Occurrence, 0)
	for _, ev := range events {
		if ev.RawRRule == "" || ev.RecurrenceID != nil {
			if overlaps(ev.Start, ev.End, dayStart, dayEnd) {
				out = append(out, occurrence(ev, ev.Start, ev.End))
			}
			continue
		}

		occ, err := expandRecurring(ev, overridden[ev.UID], dayStart, dayEnd)
		if err != nil {
			return nil, err
		}
		out = append(out, occ...)
	}
	return out, nil
}

func expandRecurring(ev Event, overrides []time.Time, dayStart, dayEnd time.Time) ([]Occurrence, error) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, fmt.Errorf("rrule %q: %w", ev.RawRRule, err)
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	dur := ev.End.Sub(ev.Start)
	// An instance that began before midnight may still run into the target day.
	from := dayStart.Add(-dur).In(ev.Start.Location())
	to := dayEnd.In(ev.Start.Location())

	out := make([]Occurrence, 0)
	for _, start := range set.Between(from, to, true) {
		if isOverridden(start, overrides) {
			continue
		}
		end := start.Add(dur)
		if ev.AllDay {
			start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			end = start.Add(dur)
		}
		if overlaps(start, end, dayStart, dayEnd) {
			out = append(out, occurrence(ev, start, end))
		}
	}
	return out, nil
}

func isOverridden(start time.Time, overrides []time.Time) bool {
	for _, rid := range overrides {
		if rid.Equal(start) {
			return true
		}
	}
	return false
}

func occurrence(ev Event, start, end time.Time) Occurrence {
	return Occurrence{
		UID:     ev.UID,
		Summary: ev.Summary,
		Start:   start,
		End:     end,
		AllDay:  ev.AllDay,
		Free:    ev.Free,
	}
}

// overlaps is the half-open interval test: touching boundaries do not overlap.
// A zero-length event counts for the day it sits in.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aStart.Equal(aEnd) {
		return !aStart.Before(bStart) && aStart.Before(bEnd)
	}
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
