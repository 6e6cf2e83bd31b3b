package service

import (
	"context"
	"time"

	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/repository"
	apperrors "github.com/spec-kit/cover-rota/pkg/util/errorutil"
)

// StaffService exposes staff members, their timetables and headline counts.
type StaffService struct {
	staff     repository.StaffRepository
	schedules repository.ScheduleRepository
	absences  repository.AbsenceRepository
	covers    repository.CoverRepository
}

// StaffDependencies encapsulates repositories required for staff queries.
type StaffDependencies struct {
	StaffRepo    repository.StaffRepository
	ScheduleRepo repository.ScheduleRepository
	AbsenceRepo  repository.AbsenceRepository
	CoverRepo    repository.CoverRepository
}

// NewStaffService constructs the service.
func NewStaffService(deps StaffDependencies) *StaffService {
	return &StaffService{
		staff:     deps.StaffRepo,
		schedules: deps.ScheduleRepo,
		absences:  deps.AbsenceRepo,
		covers:    deps.CoverRepo,
	}
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Active *bool
	Limit  int
	Offset int
}

// ListStaff returns staff ordered by name.
func (s *StaffService) ListStaff(ctx context.Context, filters StaffListFilters) ([]domain.StaffMember, error) {
	staff, err := s.staff.List(ctx, repository.StaffFilter{
		Active: filters.Active,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// StaffSchedule returns a staff member's timetable, optionally for a single day.
func (s *StaffService) StaffSchedule(ctx context.Context, name, day string) (*domain.StaffMember, []domain.ScheduleEntry, error) {
	var weekday *time.Weekday
	if day != "" {
		d, err := domain.ParseWeekday(day)
		if err != nil {
			return nil, nil, apperrors.NewValidationError(err.Error(), map[string]any{"day": day})
		}
		weekday = &d
	}

	staff, err := s.staff.GetByName(ctx, name)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.NewNotFound("staff member", map[string]any{"staff_name": name})
		}
		return nil, nil, apperrors.MapError(err)
	}
	entries, err := s.schedules.ListByStaff(ctx, staff.ID, weekday)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return staff, entries, nil
}

// Stats is a headline count of stored records.
type Stats struct {
	StaffCount   int
	AbsenceCount int
	CoverCount   int
}

// Stats counts staff, absences and cover assignments.
func (s *StaffService) Stats(ctx context.Context) (*Stats, error) {
	var (
		out Stats
		err error
	)
	if out.StaffCount, err = s.staff.Count(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.AbsenceCount, err = s.absences.Count(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.CoverCount, err = s.covers.Count(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &out, nil
}
