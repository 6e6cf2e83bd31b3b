// Package timetable turns a weekly timetable file into staff records and schedule entries.
package timetable

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/cover-rota/internal/domain"
)

// File is the seed document: one record per staff member.
type File struct {
	Staff []StaffRecord `yaml:"staff"`
}

// StaffRecord is one staff member and their week. Timetable maps a day name to period
// number to the raw cell text.
type StaffRecord struct {
	Name            string                       `yaml:"name"`
	Role            string                       `yaml:"role"`
	Profile         string                       `yaml:"profile"`
	IsPriority      bool                         `yaml:"is_priority"`
	IsSpecialist    bool                         `yaml:"is_specialist"`
	Active          *bool                        `yaml:"active"`
	CanCoverPeriods *bool                        `yaml:"can_cover_periods"`
	CalendarURL     string                       `yaml:"calendar_url"`
	Timetable       map[string]map[string]string `yaml:"timetable"`
}

// Parse decodes a seed document. Unknown keys are rejected so typos do not silently drop data.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("decode timetable: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Staff))
	for i, rec := range f.Staff {
		name := domain.CanonicalName(rec.Name)
		if name == "" {
			return nil, fmt.Errorf("staff entry %d has no name", i+1)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("staff %q listed twice", name)
		}
		seen[key] = struct{}{}
	}
	return &f, nil
}

// Member returns the staff member described by the record. Active and can-cover default to true.
func (r StaffRecord) Member() domain.StaffMember {
	role := domain.StaffRole(strings.TrimSpace(r.Role))
	if role == "" {
		role = domain.StaffRoleTeacher
	}
	m := domain.StaffMember{
		Name:            domain.CanonicalName(r.Name),
		Role:            role,
		Profile:         strings.TrimSpace(r.Profile),
		IsPriority:      r.IsPriority,
		IsSpecialist:    r.IsSpecialist,
		Active:          r.Active == nil || *r.Active,
		CanCoverPeriods: r.CanCoverPeriods == nil || *r.CanCoverPeriods,
	}
	if url := strings.TrimSpace(r.CalendarURL); url != "" {
		m.CalendarURL = &url
	}
	return m
}

// Entries normalizes the record's timetable, ordered Monday first and by period.
//
// A cell is free when it is empty or one of the free-cell words. A form teacher's cell naming
// a specialist subject is also free, since the specialist takes the class; the activity text
// is kept so the availability board can say what the class is doing.
func (r StaffRecord) Entries() ([]domain.ScheduleEntry, error) {
	out := make([]domain.ScheduleEntry, 0)
	for dayName, cells := range r.Timetable {
		day, err := domain.ParseWeekday(dayName)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Name, err)
		}
		for key, raw := range cells {
			n, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || !domain.Period(n).Valid() {
				return nil, fmt.Errorf("%s: %s: unknown period %q", r.Name, day, key)
			}
			activity := strings.TrimSpace(raw)
			free := domain.IsFreeCell(activity)
			if free {
				activity = "Free"
			} else if !r.IsSpecialist {
				_, free = domain.SpecialistSubjectIn(activity)
			}
			out = append(out, domain.ScheduleEntry{
				DayOfWeek: day,
				Period:    domain.Period(n),
				Activity:  activity,
				IsFree:    free,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := mondayFirst(out[i].DayOfWeek), mondayFirst(out[j].DayOfWeek)
		if di != dj {
			return di < dj
		}
		return out[i].Period < out[j].Period
	})
	return out, nil
}

func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}
