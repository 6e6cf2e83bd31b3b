package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/repository"
)

// store is an in-memory stand-in for the four repositories, keeping their uniqueness rules.
type store struct {
	mu         sync.Mutex
	nextID     int64
	staff      map[int64]domain.StaffMember
	schedules  map[int64][]domain.ScheduleEntry
	absences   map[int64]domain.Absence
	covers     map[int64]domain.CoverAssignment
	clock      time.Time
	failLedger bool
}

func newStore() *store {
	return &store{
		staff:     make(map[int64]domain.StaffMember),
		schedules: make(map[int64][]domain.ScheduleEntry),
		absences:  make(map[int64]domain.Absence),
		covers:    make(map[int64]domain.CoverAssignment),
		clock:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *store) addStaff(m domain.StaffMember) domain.StaffMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	s.staff[m.ID] = m
	return m
}

func (s *store) setDay(staffID int64, day time.Weekday, entries ...domain.ScheduleEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		e.StaffID = staffID
		e.DayOfWeek = day
		s.schedules[staffID] = append(s.schedules[staffID], e)
	}
}

var errLedger = errors.New("ledger unavailable")

type staffRepo struct{ *store }
type scheduleRepo struct{ *store }
type absenceRepo struct{ *store }
type coverRepo struct{ *store }

func (r staffRepo) Upsert(_ context.Context, m *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.staff {
		if strings.EqualFold(existing.Name, m.Name) {
			m.ID = id
			r.staff[id] = *m
			return nil
		}
	}
	m.ID = r.id()
	r.staff[m.ID] = *m
	return nil
}

func (r staffRepo) GetByID(_ context.Context, id int64) (*domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &m, nil
}

func (r staffRepo) GetByName(_ context.Context, name string) (*domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.staff {
		if strings.EqualFold(m.Name, domain.CanonicalName(name)) {
			m := m
			return &m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r staffRepo) List(_ context.Context, f repository.StaffFilter) ([]domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.StaffMember, 0)
	for _, m := range r.staff {
		if f.Active != nil && m.Active != *f.Active {
			continue
		}
		if f.CanCoverPeriods != nil && m.CanCoverPeriods != *f.CanCoverPeriods {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r staffRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.staff), nil
}

func (r scheduleRepo) Upsert(_ context.Context, e *domain.ScheduleEntry) error {
	r.setDay(e.StaffID, e.DayOfWeek, *e)
	return nil
}

func (r scheduleRepo) DeleteByStaff(_ context.Context, staffID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.schedules, staffID)
	return nil
}

func (r scheduleRepo) DaySchedule(ctx context.Context, staffID int64, day time.Weekday) (domain.DaySchedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := r.ListByStaff(ctx, staffID, &day)
	if err != nil {
		return nil, err
	}
	return domain.NewDaySchedule(entries), nil
}

func (r scheduleRepo) ListByStaff(_ context.Context, staffID int64, day *time.Weekday) ([]domain.ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ScheduleEntry, 0)
	for _, e := range r.schedules[staffID] {
		if day != nil && e.DayOfWeek != *day {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (r absenceRepo) Upsert(_ context.Context, a *domain.Absence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := a.Date.Format(dateLayout)
	for id, existing := range r.absences {
		if existing.StaffID == a.StaffID && existing.Date.Format(dateLayout) == day {
			existing.StartPeriod, existing.EndPeriod = a.StartPeriod, a.EndPeriod
			if a.Reason != nil {
				existing.Reason = a.Reason
			}
			existing.UpdatedAt = r.tick()
			r.absences[id] = existing
			*a = existing
			return nil
		}
	}
	a.ID = r.id()
	a.StaffName = r.staff[a.StaffID].Name
	a.CreatedAt = r.tick()
	a.UpdatedAt = a.CreatedAt
	r.absences[a.ID] = *a
	return nil
}

func (r absenceRepo) GetByID(_ context.Context, id int64) (*domain.Absence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.absences[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (r absenceRepo) ListByDate(_ context.Context, date time.Time) ([]domain.Absence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Absence, 0)
	for _, a := range r.absences {
		if a.Date.Format(dateLayout) == date.Format(dateLayout) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StaffName < out[j].StaffName })
	return out, nil
}

func (r absenceRepo) ListRecent(_ context.Context, limit int) ([]domain.Absence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Absence, 0)
	for _, a := range r.absences {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r absenceRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.absences), nil
}

func (r coverRepo) Upsert(_ context.Context, c *domain.CoverAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.covers {
		if existing.AbsenceID == c.AbsenceID && existing.Period == c.Period {
			c.ID = id
			r.covers[id] = *c
			return nil
		}
	}
	c.ID = r.id()
	r.covers[c.ID] = *c
	return nil
}

func (r coverRepo) Delete(_ context.Context, absenceID int64, period domain.Period) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.covers {
		if c.AbsenceID == absenceID && c.Period == period {
			delete(r.covers, id)
			return true, nil
		}
	}
	return false, nil
}

func (r coverRepo) ListByAbsence(_ context.Context, absenceID int64) ([]domain.CoverAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CoverAssignment, 0)
	for _, c := range r.covers {
		if c.AbsenceID == absenceID {
			c.CoveringStaffName = r.staff[c.CoveringStaffID].Name
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (r coverRepo) LedgerForDate(_ context.Context, date time.Time) ([]domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLedger {
		return nil, errLedger
	}
	out := make([]domain.LedgerEntry, 0)
	for _, c := range r.covers {
		a := r.absences[c.AbsenceID]
		if a.Date.Format(dateLayout) != date.Format(dateLayout) {
			continue
		}
		out = append(out, r.entry(c, a))
	}
	return out, nil
}

func (r coverRepo) ListRecent(_ context.Context, limit int) ([]domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.covers))
	for id := range r.covers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	out := make([]domain.LedgerEntry, 0)
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		c := r.covers[id]
		out = append(out, r.entry(c, r.absences[c.AbsenceID]))
	}
	return out, nil
}

func (r coverRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.covers), nil
}

func (r coverRepo) entry(c domain.CoverAssignment, a domain.Absence) domain.LedgerEntry {
	return domain.LedgerEntry{
		AbsenceID:       c.AbsenceID,
		Date:            a.Date,
		Period:          c.Period,
		CoveringStaffID: c.CoveringStaffID,
		CoveringName:    r.staff[c.CoveringStaffID].Name,
		AbsentStaffID:   a.StaffID,
		AbsentName:      r.staff[a.StaffID].Name,
	}
}

type stubCalendar struct {
	busy    map[string]domain.BusyMap
	panicOn string
	onFetch func(source string)
}

func (c stubCalendar) BusyPeriods(_ context.Context, source string, _ time.Time) domain.BusyMap {
	if c.onFetch != nil {
		c.onFetch(source)
	}
	if source == c.panicOn {
		panic("malformed feed")
	}
	if b, ok := c.busy[source]; ok {
		return b
	}
	return domain.BusyMap{}
}

func (s *store) absenceCount() (int, error) {
	return absenceRepo{s}.Count(context.Background())
}
