package domain

import (
	"strings"
	"time"
)

// StaffRole is a free label from the import, typically "Teacher" or "TA".
type StaffRole string

const (
	StaffRoleTeacher StaffRole = "Teacher"
	StaffRoleTA      StaffRole = "TA"
)

// StaffMember models a teacher or assistant who may be absent or provide cover.
type StaffMember struct {
	ID              int64
	Name            string
	Role            StaffRole
	Profile         string
	IsPriority      bool
	IsSpecialist    bool
	Active          bool
	CanCoverPeriods bool
	CalendarURL     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasCalendar reports whether an external feed is configured.
func (s StaffMember) HasCalendar() bool {
	return s.CalendarURL != nil && strings.TrimSpace(*s.CalendarURL) != ""
}

// CanCover reports whether the staff member may be offered for the given periods.
// Duty-only staff are excluded as soon as any teaching period is requested.
func (s StaffMember) CanCover(periods []Period) bool {
	if !AnyTeaching(periods) {
		return true
	}
	return s.CanCoverPeriods
}

// CanonicalName trims and collapses whitespace in a staff name.
func CanonicalName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
