package service

import (
	"context"
	"time"

	"github.com/spec-kit/cover-rota/internal/availability"
	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/repository"
	apperrors "github.com/spec-kit/cover-rota/pkg/util/errorutil"
)

// AvailabilityService answers who is free for a set of periods on a date.
type AvailabilityService struct {
	staff    repository.StaffRepository
	covers   repository.CoverRepository
	resolver *availability.Resolver
	loc      *time.Location
	now      func() time.Time
}

// AvailabilityDependencies bundles collaborators. Now defaults to the wall clock.
type AvailabilityDependencies struct {
	StaffRepo repository.StaffRepository
	CoverRepo repository.CoverRepository
	Resolver  *availability.Resolver
	Location  *time.Location
	Now       func() time.Time
}

// NewAvailabilityService creates the service.
func NewAvailabilityService(deps AvailabilityDependencies) *AvailabilityService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		staff:    deps.StaffRepo,
		covers:   deps.CoverRepo,
		resolver: deps.Resolver,
		loc:      locationOrUTC(deps.Location),
		now:      now,
	}
}

// AvailabilityQuery selects the periods and day to check. Date defaults to today in the
// school timezone and Day to the date's weekday.
type AvailabilityQuery struct {
	Periods     []domain.Period
	Day         string
	Date        string
	IncludeBusy bool
}

// AvailabilityResult is the resolved board with the day and date it was computed for.
type AvailabilityResult struct {
	Day      time.Weekday
	Date     time.Time
	Listings []availability.Listing
}

// Check resolves availability for all eligible active staff.
func (s *AvailabilityService) Check(ctx context.Context, q AvailabilityQuery) (*AvailabilityResult, error) {
	if len(q.Periods) == 0 {
		return nil, apperrors.NewValidationError("periods is required", nil)
	}
	date := domain.DateIn(s.now().In(s.loc), s.loc)
	if q.Date != "" {
		parsed, err := domain.ParseDate(q.Date, s.loc)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"date": q.Date})
		}
		date = parsed
	}
	day, err := weekdayOr(q.Day, date)
	if err != nil {
		return nil, err
	}

	filter := repository.StaffFilter{Active: ptrBool(true)}
	if domain.AnyTeaching(q.Periods) {
		filter.CanCoverPeriods = ptrBool(true)
	}
	staff, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	entries, err := s.covers.LedgerForDate(ctx, date)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	listings, err := s.resolver.Board(ctx, staff, day, q.Periods, date, domain.NewLedger(entries), q.IncludeBusy)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &AvailabilityResult{Day: day, Date: date, Listings: listings}, nil
}
