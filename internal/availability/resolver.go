package availability

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/cover-rota/internal/domain"
)

// TimetableReader reads one staff member's weekly timetable for a weekday.
type TimetableReader interface {
	DaySchedule(ctx context.Context, staffID int64, day time.Weekday) (domain.DaySchedule, error)
}

// CalendarSource reports the periods an external feed marks busy on a date.
// Implementations never fail; an unreadable feed is an empty map.
type CalendarSource interface {
	BusyPeriods(ctx context.Context, source string, date time.Time) domain.BusyMap
}

// Source names which data source decided a verdict.
type Source string

const (
	SourceNone      Source = ""
	SourceLedger    Source = "ledger"
	SourceCalendar  Source = "calendar"
	SourceTimetable Source = "timetable"
)

// Verdict is the outcome of an availability check over a set of periods.
// For a busy verdict Period and Source identify the first busy period found.
type Verdict struct {
	IsFree bool
	Reason string
	Period domain.Period
	Source Source
}

// DayProfile is a staff member's resolved day, as fed to cover ranking.
type DayProfile struct {
	FreePeriods []domain.Period
	// BusyPeriods holds ledger and timetable reasons only.
	BusyPeriods domain.BusyMap
	// CalendarEvents is the raw calendar map, kept apart so a meeting can be told from a lesson.
	CalendarEvents domain.BusyMap
}

// Resolver reconciles the cover ledger, external calendars and the weekly timetable.
type Resolver struct {
	timetable TimetableReader
	calendar  CalendarSource
	logger    *zap.Logger
}

// ResolverDependencies bundles collaborators for the resolver. Calendar may be nil.
type ResolverDependencies struct {
	Timetable TimetableReader
	Calendar  CalendarSource
	Logger    *zap.Logger
}

func NewResolver(deps ResolverDependencies) *Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{timetable: deps.Timetable, calendar: deps.Calendar, logger: logger}
}

// checkPeriods applies the precedence ledger, then calendar, then timetable, over a set of
// periods. A cover commitment in any requested period decides the verdict. Otherwise each
// period is checked against the calendar and then the timetable, stopping at the first busy
// one. It is the only place the order is decided.
func checkPeriods(staffID int64, periods []domain.Period, ledger domain.Ledger, calendarBusy domain.BusyMap, schedule domain.DaySchedule) Verdict {
	for _, p := range periods {
		if absent, ok := ledger.Covering(staffID, p); ok {
			return Verdict{Reason: "Covering " + absent, Period: p, Source: SourceLedger}
		}
	}
	for _, p := range periods {
		if title, ok := calendarBusy[p]; ok {
			return Verdict{Reason: title, Period: p, Source: SourceCalendar}
		}
		entry, ok := schedule[p]
		if !ok || (!entry.IsFree && entry.Activity == "") {
			return Verdict{Reason: "Busy", Period: p, Source: SourceTimetable}
		}
		if !entry.IsFree {
			return Verdict{Reason: entry.Activity, Period: p, Source: SourceTimetable}
		}
	}
	return Verdict{IsFree: true}
}

// IsAvailable reports whether staff is free for every period in periods. A cover commitment
// anywhere in the set wins; otherwise the first busy period is reported. A zero date skips
// the calendar check.
func (r *Resolver) IsAvailable(ctx context.Context, staff domain.StaffMember, day time.Weekday, periods []domain.Period, date time.Time, ledger domain.Ledger) (Verdict, error) {
	verdict, _, err := r.evaluate(ctx, staff, day, periods, date, ledger)
	return verdict, err
}

func (r *Resolver) evaluate(ctx context.Context, staff domain.StaffMember, day time.Weekday, periods []domain.Period, date time.Time, ledger domain.Ledger) (Verdict, domain.DaySchedule, error) {
	schedule, err := r.timetable.DaySchedule(ctx, staff.ID, day)
	if err != nil {
		return Verdict{}, nil, fmt.Errorf("load timetable for %s: %w", staff.Name, err)
	}
	calendarBusy := r.calendarBusy(ctx, staff, date)

	return checkPeriods(staff.ID, periods, ledger, calendarBusy, schedule), schedule, nil
}

// ResolveDay classifies every period the staff member has a timetable entry or a cover
// commitment for. The calendar map is returned verbatim.
func (r *Resolver) ResolveDay(ctx context.Context, staff domain.StaffMember, day time.Weekday, date time.Time, ledger domain.Ledger) (DayProfile, error) {
	schedule, err := r.timetable.DaySchedule(ctx, staff.ID, day)
	if err != nil {
		return DayProfile{}, fmt.Errorf("load timetable for %s: %w", staff.Name, err)
	}
	calendarBusy := r.calendarBusy(ctx, staff, date)

	profile := DayProfile{
		FreePeriods:    make([]domain.Period, 0),
		BusyPeriods:    make(domain.BusyMap),
		CalendarEvents: calendarBusy,
	}
	for _, p := range dayPeriods(staff.ID, schedule, ledger) {
		v := checkPeriods(staff.ID, []domain.Period{p}, ledger, calendarBusy, schedule)
		switch {
		case v.IsFree:
			profile.FreePeriods = append(profile.FreePeriods, p)
		case v.Source == SourceCalendar:
			// A timetabled lesson under a meeting is still a lesson.
			if entry, ok := schedule[p]; ok && !entry.IsFree {
				profile.BusyPeriods[p] = entry.Activity
			}
		default:
			profile.BusyPeriods[p] = v.Reason
		}
	}
	return profile, nil
}

func (r *Resolver) calendarBusy(ctx context.Context, staff domain.StaffMember, date time.Time) domain.BusyMap {
	if r.calendar == nil || date.IsZero() || !staff.HasCalendar() {
		return domain.BusyMap{}
	}
	busy := r.calendar.BusyPeriods(ctx, *staff.CalendarURL, date)
	if busy == nil {
		return domain.BusyMap{}
	}
	return busy
}

func dayPeriods(staffID int64, schedule domain.DaySchedule, ledger domain.Ledger) []domain.Period {
	seen := make(map[domain.Period]struct{}, len(schedule))
	out := make([]domain.Period, 0, len(schedule))
	for p := range schedule {
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for p := range ledger[staffID] {
		if _, ok := seen[p]; !ok {
			out = append(out, p)
		}
	}
	return domain.SortPeriods(out)
}
