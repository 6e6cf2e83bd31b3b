package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/cover-rota/internal/api/http/handlers"
	"github.com/spec-kit/cover-rota/internal/availability"
	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/generator"
	"github.com/spec-kit/cover-rota/internal/observability"
	"github.com/spec-kit/cover-rota/internal/service"
	apperrors "github.com/spec-kit/cover-rota/pkg/util/errorutil"
)

var thursday = time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)

type stubStaff struct{ filters service.StaffListFilters }

func (s *stubStaff) ListStaff(_ context.Context, f service.StaffListFilters) ([]domain.StaffMember, error) {
	s.filters = f
	return []domain.StaffMember{{ID: 1, Name: "Claire", Role: domain.StaffRoleTeacher, Active: true}}, nil
}

func (s *stubStaff) StaffSchedule(_ context.Context, name, day string) (*domain.StaffMember, []domain.ScheduleEntry, error) {
	if !strings.EqualFold(name, "claire") {
		return nil, nil, apperrors.NewNotFound("staff member", map[string]any{"staff_name": name})
	}
	return &domain.StaffMember{Name: "Claire"}, []domain.ScheduleEntry{
		{DayOfWeek: time.Thursday, Period: 1, Activity: "Y4 Maths"},
		{DayOfWeek: time.Thursday, Period: domain.PeriodLunch, Activity: "Free", IsFree: true},
	}, nil
}

func (s *stubStaff) Stats(context.Context) (*service.Stats, error) {
	return &service.Stats{StaffCount: 4, AbsenceCount: 2, CoverCount: 3}, nil
}

type stubAbsences struct {
	in      service.LogAbsenceInput
	updated bool
	err     error
}

func (s *stubAbsences) LogAbsence(_ context.Context, in service.LogAbsenceInput) (*domain.Absence, error) {
	s.in = in
	if s.err != nil {
		return nil, s.err
	}
	a := &domain.Absence{ID: 7, StaffID: 1, StaffName: "Claire", Date: thursday, StartPeriod: 1, EndPeriod: 4,
		CreatedAt: thursday, UpdatedAt: thursday}
	if s.updated {
		a.UpdatedAt = thursday.Add(time.Minute)
	}
	return a, nil
}

type stubCovers struct {
	suggestID  int64
	suggestDay string
	assign     service.AssignCoverInput
	assignErr  error
	unassigned domain.Period
}

func (s *stubCovers) SuggestCover(_ context.Context, id int64, day string) (*service.CoverSuggestion, error) {
	s.suggestID, s.suggestDay = id, day
	if id == 404 {
		return nil, apperrors.NewNotFound("absence", nil)
	}
	if id == 504 {
		return nil, context.DeadlineExceeded
	}
	return &service.CoverSuggestion{
		AbsenceID:     id,
		AbsentName:    "Claire",
		Day:           time.Thursday,
		Date:          thursday,
		TargetPeriods: []domain.Period{1, 3, 4},
		Candidates:    []generator.CandidateProfile{{Name: "Dan", FreePeriods: []int{1}}},
		Suggestions:   "Error: Failed to generate AI content. quota exceeded",
	}, nil
}

func (s *stubCovers) AssignCover(_ context.Context, in service.AssignCoverInput) ([]domain.CoverAssignment, error) {
	s.assign = in
	if s.assignErr != nil {
		return nil, s.assignErr
	}
	out := make([]domain.CoverAssignment, 0, len(in.Periods))
	for _, p := range in.Periods {
		out = append(out, domain.CoverAssignment{AbsenceID: in.AbsenceID, Period: p, CoveringStaffName: "Dan", Status: domain.CoverStatusConfirmed})
	}
	return out, nil
}

func (s *stubCovers) UnassignCover(_ context.Context, _ int64, p domain.Period) (bool, error) {
	s.unassigned = p
	return true, nil
}

func (s *stubCovers) ListCovers(_ context.Context, id int64) ([]domain.CoverAssignment, error) {
	return []domain.CoverAssignment{{AbsenceID: id, Period: 3, CoveringStaffName: "Dan", Status: domain.CoverStatusConfirmed}}, nil
}

func (s *stubCovers) DailyRota(_ context.Context, date string) ([]service.RotaEntry, error) {
	return []service.RotaEntry{{
		Absence: domain.Absence{ID: 7, StaffName: "Claire", StartPeriod: 1, EndPeriod: 4},
		Covers:  []domain.CoverAssignment{{Period: 1, CoveringStaffName: "Dan"}},
	}}, nil
}

type stubAvailability struct{ q service.AvailabilityQuery }

func (s *stubAvailability) Check(_ context.Context, q service.AvailabilityQuery) (*service.AvailabilityResult, error) {
	s.q = q
	if len(q.Periods) == 0 {
		return nil, apperrors.NewValidationError("periods is required", nil)
	}
	return &service.AvailabilityResult{Day: time.Thursday, Date: thursday, Listings: []availability.Listing{
		{Staff: domain.StaffMember{Name: "Dan"}, IsFree: true, Activity: "Free", Verdict: availability.Verdict{IsFree: true}},
		{Staff: domain.StaffMember{Name: "Sam", IsSpecialist: true}, Activity: "Dentist",
			Verdict: availability.Verdict{Reason: "Dentist", Period: 3, Source: availability.SourceCalendar}},
	}}, nil
}

type stubReports struct{}

func (stubReports) GenerateReport(_ context.Context, query string) (string, error) {
	return "answer to " + query, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app       *fiber.App
	absences  *stubAbsences
	covers    *stubCovers
	avail     *stubAvailability
	staff     *stubStaff
	metrics   *observability.Metrics
	readiness map[string]handlers.Pinger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		app:       fiber.New(),
		absences:  &stubAbsences{},
		covers:    &stubCovers{},
		avail:     &stubAvailability{},
		staff:     &stubStaff{},
		metrics:   observability.NewMetrics(),
		readiness: map[string]handlers.Pinger{"postgres": pinger{}},
	}
	RegisterMiddlewares(s.app, zap.NewNop(), s.metrics, time.Second)
	RegisterRoutes(s.app, RouteConfig{
		Health:       handlers.NewHealthHandler("cover-rota", "test", s.metrics, s.readiness),
		Staff:        handlers.NewStaffHandler(s.staff),
		Absences:     handlers.NewAbsencesHandler(s.absences),
		Covers:       handlers.NewCoversHandler(s.covers),
		Availability: handlers.NewAvailabilityHandler(s.avail),
		Reports:      handlers.NewReportsHandler(stubReports{}),
	})
	s.app.Get("/boom", func(*fiber.Ctx) error { panic("boom") })
	return s
}

func (s *testServer) do(t *testing.T, method, target, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	return e["code"].(string)
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected data object, got %v", body)
	return d
}

func TestRoutes_Health(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Teacher Cover Rota API is running", body["message"])

	status, body = s.do(t, "GET", "/health/ready", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	s.readiness["redis"] = pinger{err: errors.New("connection refused")}
	status, body = s.do(t, "GET", "/health/ready", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(t, body))

	status, body = s.do(t, "GET", "/metrics", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, data(t, body)["requests"])
}

func TestRoutes_Errors(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/no-such-route", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))

	status, body = s.do(t, "GET", "/boom", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, body))

	assert.NotEmpty(t, s.metrics.Snapshot().Errors)
}

func TestRoutes_LogAbsence(t *testing.T) {
	t.Run("query parameters", func(t *testing.T) {
		s := newTestServer(t)

		status, body := s.do(t, "POST", "/absences?staff_name=Claire&date=2026-01-29&start_period=1&end_period=4", "")

		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, "2026-01-29", data(t, body)["date"])
		assert.Equal(t, "Claire", s.absences.in.StaffName)
		require.NotNil(t, s.absences.in.StartPeriod)
		assert.Equal(t, 1, *s.absences.in.StartPeriod)
		assert.Equal(t, 4, *s.absences.in.EndPeriod)
	})

	t.Run("json body with span", func(t *testing.T) {
		s := newTestServer(t)
		s.absences.updated = true

		status, _ := s.do(t, "POST", "/absences", `{"staff_name":"Claire","date":"2026-01-29","span":"AM","reason":"sick"}`)

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "AM", s.absences.in.Span)
		assert.Nil(t, s.absences.in.StartPeriod)
		require.NotNil(t, s.absences.in.Reason)
		assert.Equal(t, "sick", *s.absences.in.Reason)
	})

	t.Run("bad period", func(t *testing.T) {
		s := newTestServer(t)

		status, body := s.do(t, "POST", "/absences?staff_name=Claire&date=2026-01-29&start_period=first", "")

		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
	})

	t.Run("unknown staff", func(t *testing.T) {
		s := newTestServer(t)
		s.absences.err = apperrors.NewNotFound("staff", map[string]any{"staff_name": "Nobody"})

		status, body := s.do(t, "POST", "/absences?staff_name=Nobody&date=2026-01-29&span=AM", "")

		assert.Equal(t, fiber.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", errorCode(t, body))
		assert.Equal(t, "Nobody", body["error"].(map[string]any)["details"].(map[string]any)["staff_name"])
	})
}

func TestRoutes_SuggestCover(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/suggest-cover/7?day=Thursday", "")

	require.Equal(t, fiber.StatusOK, status)
	d := data(t, body)
	assert.Equal(t, []any{float64(1), float64(3), float64(4)}, d["target_periods"])
	assert.Equal(t, "Error: Failed to generate AI content. quota exceeded", d["suggestions"])
	assert.Equal(t, "Claire", d["absent_teacher"])
	assert.Equal(t, int64(7), s.covers.suggestID)
	assert.Equal(t, "Thursday", s.covers.suggestDay)

	status, body = s.do(t, "GET", "/suggest-cover/404", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = s.do(t, "GET", "/suggest-cover/504", "")
	assert.Equal(t, fiber.StatusGatewayTimeout, status)

	status, body = s.do(t, "GET", "/suggest-cover/abc", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}

func TestRoutes_AssignAndUnassign(t *testing.T) {
	t.Run("query parameters", func(t *testing.T) {
		s := newTestServer(t)

		status, body := s.do(t, "POST", "/assign-cover?absence_id=7&staff_name=dan&periods=1,3", "")

		require.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, "Assigned Dan to periods 1,3", data(t, body)["message"])
		assert.Equal(t, []domain.Period{1, 3}, s.covers.assign.Periods)
	})

	t.Run("json body", func(t *testing.T) {
		s := newTestServer(t)

		status, _ := s.do(t, "POST", "/assign-cover", `{"absence_id":7,"staff_name":"Dan","periods":[4]}`)

		require.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, int64(7), s.covers.assign.AbsenceID)
		assert.Equal(t, []domain.Period{4}, s.covers.assign.Periods)
	})

	t.Run("conflict", func(t *testing.T) {
		s := newTestServer(t)
		s.covers.assignErr = apperrors.NewConflict("staff cannot cover their own absence", nil)

		status, body := s.do(t, "POST", "/assign-cover?absence_id=7&staff_name=Claire&periods=1", "")

		assert.Equal(t, fiber.StatusConflict, status)
		assert.Equal(t, "CONFLICT", errorCode(t, body))
	})

	t.Run("missing fields", func(t *testing.T) {
		s := newTestServer(t)

		status, _ := s.do(t, "POST", "/assign-cover?periods=1", "")

		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("unassign", func(t *testing.T) {
		s := newTestServer(t)

		status, body := s.do(t, "DELETE", "/unassign-cover?absence_id=7&period=3", "")

		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, true, data(t, body)["removed"])
		assert.Equal(t, domain.Period(3), s.covers.unassigned)

		status, _ = s.do(t, "DELETE", "/unassign-cover?absence_id=7", "")
		assert.Equal(t, fiber.StatusBadRequest, status)

		status, _ = s.do(t, "DELETE", "/unassign-cover?absence_id=7&period=12", "")
		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}

func TestRoutes_Availability(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/availability?periods=1,9&date=2026-01-29&include_busy=true", "")

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []domain.Period{1, 9}, s.avail.q.Periods)
	assert.True(t, s.avail.q.IncludeBusy)
	assert.Equal(t, "2026-01-29", s.avail.q.Date)

	d := data(t, body)
	assert.Equal(t, "Thursday", d["day"])
	staff := d["staff"].([]any)
	require.Len(t, staff, 2)
	sam := staff[1].(map[string]any)
	assert.Equal(t, "Dentist", sam["activity"])
	assert.Equal(t, "calendar", sam["source"])
	assert.Equal(t, float64(3), sam["busy_period"])
	_, hasBusy := staff[0].(map[string]any)["busy_period"]
	assert.False(t, hasBusy)

	status, _ = s.do(t, "GET", "/availability?periods=one", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, "GET", "/availability", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRoutes_Ledger(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/covers/7", "")
	require.Equal(t, fiber.StatusOK, status)
	covers := body["data"].([]any)
	require.Len(t, covers, 1)
	assert.Equal(t, "Dan", covers[0].(map[string]any)["staff_name"])

	status, body = s.do(t, "GET", "/daily-rota?date=2026-01-29", "")
	require.Equal(t, fiber.StatusOK, status)
	rota := body["data"].([]any)
	require.Len(t, rota, 1)
	assert.Equal(t, "Claire", rota[0].(map[string]any)["staff_name"])

	status, _ = s.do(t, "GET", "/daily-rota", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRoutes_StaffAndReports(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/staff?active=true&limit=10", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
	require.NotNil(t, s.staff.filters.Active)
	assert.True(t, *s.staff.filters.Active)
	assert.Equal(t, 10, s.staff.filters.Limit)

	status, _ = s.do(t, "GET", "/staff?active=maybe", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, "GET", "/staff-schedule/claire?day=thu", "")
	require.Equal(t, fiber.StatusOK, status)
	schedule := data(t, body)["schedule"].([]any)
	require.Len(t, schedule, 2)
	assert.Equal(t, "Y4 Maths", schedule[0].(map[string]any)["activity"])

	status, _ = s.do(t, "GET", "/staff-schedule/nobody", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = s.do(t, "GET", "/stats", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(3), data(t, body)["covers"])

	status, body = s.do(t, "GET", "/generate-report?query=who+covered+most", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "answer to who covered most", data(t, body)["report"])

	status, _ = s.do(t, "GET", "/generate-report", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}
