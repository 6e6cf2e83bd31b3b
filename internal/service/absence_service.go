package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/events"
	"github.com/spec-kit/cover-rota/internal/repository"
	apperrors "github.com/spec-kit/cover-rota/pkg/util/errorutil"
)

// AbsenceService records staff absences.
type AbsenceService struct {
	staff      repository.StaffRepository
	absences   repository.AbsenceRepository
	dispatcher events.Dispatcher
	loc        *time.Location
	logger     *zap.Logger
}

// AbsenceDependencies bundles repositories.
type AbsenceDependencies struct {
	StaffRepo   repository.StaffRepository
	AbsenceRepo repository.AbsenceRepository
	Dispatcher  events.Dispatcher
	Location    *time.Location
	Logger      *zap.Logger
}

// NewAbsenceService creates the service.
func NewAbsenceService(deps AbsenceDependencies) *AbsenceService {
	return &AbsenceService{
		staff:      deps.StaffRepo,
		absences:   deps.AbsenceRepo,
		dispatcher: deps.Dispatcher,
		loc:        locationOrUTC(deps.Location),
		logger:     loggerOrNop(deps.Logger),
	}
}

// LogAbsenceInput describes an absence report. Either both periods or a span keyword
// (AM, PM, FULL, HALF, LATE) must be given.
type LogAbsenceInput struct {
	StaffName   string
	Date        string
	StartPeriod *int
	EndPeriod   *int
	Span        string
	Reason      *string
}

// LogAbsence records an absence, updating the existing one for the same staff member and date.
func (s *AbsenceService) LogAbsence(ctx context.Context, in LogAbsenceInput) (*domain.Absence, error) {
	name := domain.CanonicalName(in.StaffName)
	if name == "" {
		return nil, apperrors.NewValidationError("staff_name is required", nil)
	}
	date, err := domain.ParseDate(in.Date, s.loc)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"date": in.Date})
	}
	start, end, err := resolveRange(in)
	if err != nil {
		return nil, err
	}

	staff, err := s.staff.GetByName(ctx, name)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_name": in.StaffName})
		}
		return nil, apperrors.MapError(err)
	}

	absence := &domain.Absence{
		StaffID:     staff.ID,
		StaffName:   staff.Name,
		Date:        date,
		StartPeriod: start,
		EndPeriod:   end,
		Reason:      trimmedOrNil(in.Reason),
	}
	if err := s.absences.Upsert(ctx, absence); err != nil {
		return nil, apperrors.MapError(err)
	}
	absence.Date = date

	updated := !absence.UpdatedAt.Equal(absence.CreatedAt)
	s.logger.Info("absence logged",
		zap.Int64("absence_id", absence.ID),
		zap.String("staff", staff.Name),
		zap.String("date", date.Format(dateLayout)),
		zap.Bool("updated", updated))
	s.publish(ctx, events.NewEvent(events.EventAbsenceLogged, absence.ID, events.AbsenceLoggedPayload{
		StaffName:   staff.Name,
		Date:        date.Format(dateLayout),
		StartPeriod: int(start),
		EndPeriod:   int(end),
		Updated:     updated,
	}))
	return absence, nil
}

func resolveRange(in LogAbsenceInput) (domain.Period, domain.Period, error) {
	var start, end domain.Period
	switch {
	case in.StartPeriod != nil && in.EndPeriod != nil:
		start, end = domain.Period(*in.StartPeriod), domain.Period(*in.EndPeriod)
	case in.StartPeriod == nil && in.EndPeriod == nil && strings.TrimSpace(in.Span) != "":
		var err error
		start, end, err = domain.SpanPeriods(in.Span)
		if err != nil {
			return 0, 0, apperrors.NewValidationError(err.Error(), map[string]any{"span": in.Span})
		}
	default:
		return 0, 0, apperrors.NewValidationError("start_period and end_period, or span, are required", nil)
	}
	if err := domain.ValidatePeriodRange(start, end); err != nil {
		return 0, 0, apperrors.NewValidationError(err.Error(), map[string]any{
			"start_period": int(start),
			"end_period":   int(end),
		})
	}
	return start, end, nil
}

func (s *AbsenceService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, event)
}
