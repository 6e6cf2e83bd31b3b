package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/cover-rota/internal/availability"
	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/events"
	"github.com/spec-kit/cover-rota/internal/generator"
	"github.com/spec-kit/cover-rota/internal/repository"
	apperrors "github.com/spec-kit/cover-rota/pkg/util/errorutil"
)

// Advisor phrases cover suggestions and reports as free text.
type Advisor interface {
	SuggestCover(ctx context.Context, req generator.CoverRequest) string
	Report(ctx context.Context, query, dataContext string) string
}

// CoverService suggests, assigns and lists cover for absences.
type CoverService struct {
	staff      repository.StaffRepository
	schedules  repository.ScheduleRepository
	absences   repository.AbsenceRepository
	covers     repository.CoverRepository
	resolver   *availability.Resolver
	advisor    Advisor
	dispatcher events.Dispatcher
	loc        *time.Location
	logger     *zap.Logger
}

// CoverDependencies bundles collaborators.
type CoverDependencies struct {
	StaffRepo    repository.StaffRepository
	ScheduleRepo repository.ScheduleRepository
	AbsenceRepo  repository.AbsenceRepository
	CoverRepo    repository.CoverRepository
	Resolver     *availability.Resolver
	Advisor      Advisor
	Dispatcher   events.Dispatcher
	Location     *time.Location
	Logger       *zap.Logger
}

// NewCoverService creates the service.
func NewCoverService(deps CoverDependencies) *CoverService {
	return &CoverService{
		staff:      deps.StaffRepo,
		schedules:  deps.ScheduleRepo,
		absences:   deps.AbsenceRepo,
		covers:     deps.CoverRepo,
		resolver:   deps.Resolver,
		advisor:    deps.Advisor,
		dispatcher: deps.Dispatcher,
		loc:        locationOrUTC(deps.Location),
		logger:     loggerOrNop(deps.Logger),
	}
}

// CoverSuggestion is the computed ground truth plus the advisor's free text.
type CoverSuggestion struct {
	AbsenceID     int64
	AbsentName    string
	Day           time.Weekday
	Date          time.Time
	TargetPeriods []domain.Period
	Candidates    []generator.CandidateProfile
	Suggestions   string
}

// SuggestCover gathers every other active staff member's day and asks the advisor to rank
// them. day may be empty to use the absence date's weekday.
func (s *CoverService) SuggestCover(ctx context.Context, absenceID int64, day string) (*CoverSuggestion, error) {
	absence, err := s.getAbsence(ctx, absenceID)
	if err != nil {
		return nil, err
	}
	date := domain.DateIn(absence.Date, s.loc)
	weekday, err := weekdayOr(day, date)
	if err != nil {
		return nil, err
	}

	schedule, err := s.schedules.DaySchedule(ctx, absence.StaffID, weekday)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	targets := TargetPeriods(*absence, schedule)

	entries, err := s.covers.LedgerForDate(ctx, date)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ledger := domain.NewLedger(entries)

	staff, err := s.staff.List(ctx, repository.StaffFilter{Active: ptrBool(true)})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	candidates := make([]generator.CandidateProfile, 0, len(staff))
	for _, member := range staff {
		if member.ID == absence.StaffID {
			continue
		}
		profile, err := s.candidateDay(ctx, member, weekday, date, ledger)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidateProfile(member, profile))
	}

	suggestions := s.advisor.SuggestCover(ctx, generator.CoverRequest{
		AbsentName: absence.StaffName,
		Day:        weekday,
		Periods:    targets,
		Candidates: candidates,
	})

	return &CoverSuggestion{
		AbsenceID:     absence.ID,
		AbsentName:    absence.StaffName,
		Day:           weekday,
		Date:          date,
		TargetPeriods: targets,
		Candidates:    candidates,
		Suggestions:   suggestions,
	}, nil
}

// TargetPeriods returns the periods of the absence that the absent teacher is timetabled to
// teach. Periods with no timetable entry need no cover.
func TargetPeriods(absence domain.Absence, schedule domain.DaySchedule) []domain.Period {
	out := make([]domain.Period, 0)
	for _, p := range absence.Periods() {
		entry, ok := schedule[p]
		if ok && !entry.IsFree {
			out = append(out, p)
		}
	}
	return out
}

// candidateDay resolves one candidate. A failure degrades to a timetable and ledger only
// view, and then to an empty profile, so one bad candidate never sinks the suggestion.
// An expired or cancelled request is returned as an error instead: every later candidate
// would otherwise be reported with no free periods.
func (s *CoverService) candidateDay(ctx context.Context, member domain.StaffMember, day time.Weekday, date time.Time, ledger domain.Ledger) (availability.DayProfile, error) {
	if err := ctx.Err(); err != nil {
		return availability.DayProfile{}, fmt.Errorf("suggest cover: %w", err)
	}
	profile, err := s.safeResolveDay(ctx, member, day, date, ledger)
	if err == nil {
		return profile, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return availability.DayProfile{}, fmt.Errorf("suggest cover: %w", ctxErr)
	}
	s.logger.Warn("candidate profile degraded",
		zap.String("staff", member.Name),
		zap.Error(err))

	profile, err = s.safeResolveDay(ctx, member, day, time.Time{}, ledger)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return availability.DayProfile{}, fmt.Errorf("suggest cover: %w", ctxErr)
		}
		s.logger.Warn("candidate profile unavailable",
			zap.String("staff", member.Name),
			zap.Error(err))
		return availability.DayProfile{
			FreePeriods:    []domain.Period{},
			BusyPeriods:    domain.BusyMap{},
			CalendarEvents: domain.BusyMap{},
		}, nil
	}
	return profile, nil
}

func (s *CoverService) safeResolveDay(ctx context.Context, member domain.StaffMember, day time.Weekday, date time.Time, ledger domain.Ledger) (profile availability.DayProfile, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic resolving day: %v", r)
		}
	}()
	return s.resolver.ResolveDay(ctx, member, day, date, ledger)
}

func candidateProfile(member domain.StaffMember, day availability.DayProfile) generator.CandidateProfile {
	free := make([]int, 0, len(day.FreePeriods))
	for _, p := range day.FreePeriods {
		free = append(free, int(p))
	}
	return generator.CandidateProfile{
		Name:            member.Name,
		Role:            string(member.Role),
		CanCoverPeriods: member.CanCoverPeriods,
		Profile:         member.Profile,
		IsPriority:      member.IsPriority,
		IsSpecialist:    member.IsSpecialist,
		FreePeriods:     free,
		BusyPeriods:     intKeys(day.BusyPeriods),
		CalendarEvents:  intKeys(day.CalendarEvents),
	}
}

func intKeys(busy domain.BusyMap) map[int]string {
	out := make(map[int]string, len(busy))
	for p, v := range busy {
		out[int(p)] = v
	}
	return out
}

// AssignCoverInput names who covers which periods of an absence.
type AssignCoverInput struct {
	AbsenceID int64
	StaffName string
	Periods   []domain.Period
	Reason    *string
}

// AssignCover records the covering staff member for each period, replacing any previous
// assignment for that period.
func (s *CoverService) AssignCover(ctx context.Context, in AssignCoverInput) ([]domain.CoverAssignment, error) {
	if len(in.Periods) == 0 {
		return nil, apperrors.NewValidationError("at least one period is required", nil)
	}
	absence, err := s.getAbsence(ctx, in.AbsenceID)
	if err != nil {
		return nil, err
	}
	covering, err := s.staff.GetByName(ctx, in.StaffName)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("cover staff", map[string]any{"staff_name": in.StaffName})
		}
		return nil, apperrors.MapError(err)
	}
	if covering.ID == absence.StaffID {
		return nil, apperrors.NewConflict("staff cannot cover their own absence", map[string]any{
			"absence_id": absence.ID,
			"staff_name": covering.Name,
		})
	}

	assigned := make([]domain.CoverAssignment, 0, len(in.Periods))
	for _, p := range in.Periods {
		cover := domain.CoverAssignment{
			AbsenceID:          absence.ID,
			Period:             p,
			CoveringStaffID:    covering.ID,
			CoveringStaffName:  covering.Name,
			Status:             domain.CoverStatusConfirmed,
			ReasonForSelection: trimmedOrNil(in.Reason),
		}
		if err := s.covers.Upsert(ctx, &cover); err != nil {
			return nil, apperrors.MapError(err)
		}
		assigned = append(assigned, cover)
	}

	periods := make([]int, 0, len(in.Periods))
	for _, p := range in.Periods {
		periods = append(periods, int(p))
	}
	s.logger.Info("cover assigned",
		zap.Int64("absence_id", absence.ID),
		zap.String("covering", covering.Name),
		zap.Ints("periods", periods))
	s.publish(ctx, events.NewEvent(events.EventCoverAssigned, absence.ID, events.CoverAssignedPayload{
		AbsentName:   absence.StaffName,
		CoveringName: covering.Name,
		Date:         domain.DateIn(absence.Date, s.loc).Format(dateLayout),
		Periods:      periods,
	}))
	return assigned, nil
}

// UnassignCover removes the assignment for one period. Removing a period with no
// assignment is not an error; the returned flag reports whether a row was removed.
func (s *CoverService) UnassignCover(ctx context.Context, absenceID int64, period domain.Period) (bool, error) {
	absence, err := s.getAbsence(ctx, absenceID)
	if err != nil {
		return false, err
	}
	removed, err := s.covers.Delete(ctx, absence.ID, period)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if removed {
		s.publish(ctx, events.NewEvent(events.EventCoverUnassigned, absence.ID, events.CoverUnassignedPayload{
			AbsentName: absence.StaffName,
			Date:       domain.DateIn(absence.Date, s.loc).Format(dateLayout),
			Period:     int(period),
		}))
	}
	return removed, nil
}

// ListCovers returns the assignments of one absence ordered by period.
func (s *CoverService) ListCovers(ctx context.Context, absenceID int64) ([]domain.CoverAssignment, error) {
	covers, err := s.covers.ListByAbsence(ctx, absenceID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return covers, nil
}

// RotaEntry is one absence on the daily rota with its covers.
type RotaEntry struct {
	Absence domain.Absence
	Covers  []domain.CoverAssignment
}

// DailyRota lists every absence on date with its cover assignments.
func (s *CoverService) DailyRota(ctx context.Context, date string) ([]RotaEntry, error) {
	day, err := domain.ParseDate(date, s.loc)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"date": date})
	}
	absences, err := s.absences.ListByDate(ctx, day)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	rota := make([]RotaEntry, 0, len(absences))
	for _, a := range absences {
		covers, err := s.covers.ListByAbsence(ctx, a.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		a.Date = domain.DateIn(a.Date, s.loc)
		rota = append(rota, RotaEntry{Absence: a, Covers: covers})
	}
	return rota, nil
}

func (s *CoverService) getAbsence(ctx context.Context, id int64) (*domain.Absence, error) {
	absence, err := s.absences.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("absence", map[string]any{"absence_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return absence, nil
}

func (s *CoverService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, event)
}

// weekdayOr parses day, falling back to the weekday of date when day is empty.
func weekdayOr(day string, date time.Time) (time.Weekday, error) {
	if day == "" {
		return date.Weekday(), nil
	}
	d, err := domain.ParseWeekday(day)
	if err != nil {
		return 0, apperrors.NewValidationError(err.Error(), map[string]any{"day": day})
	}
	return d, nil
}
