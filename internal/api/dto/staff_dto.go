package dto

import (
	"time"

	"github.com/spec-kit/cover-rota/internal/domain"
)

// StaffResponse is a staff member as listed by GET /staff.
type StaffResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	Profile         string `json:"profile"`
	IsPriority      bool   `json:"is_priority"`
	IsSpecialist    bool   `json:"is_specialist"`
	IsActive        bool   `json:"is_active"`
	CanCoverPeriods bool   `json:"can_cover_periods"`
	HasCalendar     bool   `json:"has_calendar"`
}

// ScheduleEntryResponse is one timetable cell.
type ScheduleEntryResponse struct {
	Period   int     `json:"period"`
	Label    string  `json:"label"`
	Day      string  `json:"day"`
	Activity string  `json:"activity"`
	Location *string `json:"location,omitempty"`
	IsFree   bool    `json:"is_free"`
}

// StaffScheduleResponse is GET /staff-schedule/:name.
type StaffScheduleResponse struct {
	Name     string                  `json:"name"`
	Schedule []ScheduleEntryResponse `json:"schedule"`
}

// StatsResponse is GET /stats.
type StatsResponse struct {
	Staff    int `json:"staff"`
	Absences int `json:"absences"`
	Covers   int `json:"covers"`
}

// NewStaffResponse maps a staff member. The calendar URL is never echoed since it may carry a token.
func NewStaffResponse(m domain.StaffMember) StaffResponse {
	return StaffResponse{
		ID:              m.ID,
		Name:            m.Name,
		Role:            string(m.Role),
		Profile:         m.Profile,
		IsPriority:      m.IsPriority,
		IsSpecialist:    m.IsSpecialist,
		IsActive:        m.Active,
		CanCoverPeriods: m.CanCoverPeriods,
		HasCalendar:     m.HasCalendar(),
	}
}

// NewScheduleEntryResponse maps a timetable cell.
func NewScheduleEntryResponse(e domain.ScheduleEntry) ScheduleEntryResponse {
	return ScheduleEntryResponse{
		Period:   int(e.Period),
		Label:    e.Period.String(),
		Day:      e.DayOfWeek.String(),
		Activity: e.Activity,
		Location: e.Location,
		IsFree:   e.IsFree,
	}
}

// FormatDate renders a calendar date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
