package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/generator"
)

// PeriodList decodes either a JSON array of period numbers or a "1,3,4" string.
type PeriodList []domain.Period

// UnmarshalJSON implements json.Unmarshaler.
func (p *PeriodList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := domain.ParsePeriods(raw)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return fmt.Errorf("periods must be a list of numbers or a comma separated string")
	}
	out := make(PeriodList, 0, len(nums))
	for _, n := range nums {
		if !domain.Period(n).Valid() {
			return fmt.Errorf("unknown period %d", n)
		}
		out = append(out, domain.Period(n))
	}
	*p = out
	return nil
}

// LogAbsenceRequest is POST /absences. Fields may also come from the query string.
type LogAbsenceRequest struct {
	StaffName   string  `json:"staff_name"`
	Date        string  `json:"date"`
	StartPeriod *int    `json:"start_period"`
	EndPeriod   *int    `json:"end_period"`
	Span        string  `json:"span"`
	Reason      *string `json:"reason"`
}

// AbsenceResponse is an absence record.
type AbsenceResponse struct {
	ID          int64   `json:"id"`
	StaffID     int64   `json:"staff_id"`
	StaffName   string  `json:"staff_name"`
	Date        string  `json:"date"`
	StartPeriod int     `json:"start_period"`
	EndPeriod   int     `json:"end_period"`
	Reason      *string `json:"reason,omitempty"`
}

// AssignCoverRequest is POST /assign-cover.
type AssignCoverRequest struct {
	AbsenceID int64      `json:"absence_id"`
	StaffName string     `json:"staff_name"`
	Periods   PeriodList `json:"periods"`
	Reason    *string    `json:"reason"`
}

// CoverResponse is one cover assignment.
type CoverResponse struct {
	Period             int     `json:"period"`
	StaffName          string  `json:"staff_name"`
	Status             string  `json:"status"`
	ReasonForSelection *string `json:"reason_for_selection,omitempty"`
}

// CoverSuggestionResponse is GET /suggest-cover/:absence_id.
type CoverSuggestionResponse struct {
	AbsenceID     int64                        `json:"absence_id"`
	AbsentTeacher string                       `json:"absent_teacher"`
	Day           string                       `json:"day"`
	Date          string                       `json:"date"`
	TargetPeriods []int                        `json:"target_periods"`
	Candidates    []generator.CandidateProfile `json:"candidates"`
	Suggestions   string                       `json:"suggestions"`
}

// RotaEntryResponse is one absence on GET /daily-rota.
type RotaEntryResponse struct {
	AbsenceID   int64           `json:"absence_id"`
	StaffName   string          `json:"staff_name"`
	StartPeriod int             `json:"start_period"`
	EndPeriod   int             `json:"end_period"`
	Covers      []CoverResponse `json:"covers"`
}

// AvailabilityEntry is one staff member on GET /availability.
type AvailabilityEntry struct {
	Name         string `json:"name"`
	Profile      string `json:"profile"`
	IsPriority   bool   `json:"is_priority"`
	IsSpecialist bool   `json:"is_specialist"`
	IsFree       bool   `json:"is_free"`
	Activity     string `json:"activity"`
	Source       string `json:"source,omitempty"`
	BusyPeriod   *int   `json:"busy_period,omitempty"`
}

// AvailabilityResponse is GET /availability.
type AvailabilityResponse struct {
	Day     string              `json:"day"`
	Date    string              `json:"date"`
	Periods []int               `json:"periods"`
	Staff   []AvailabilityEntry `json:"staff"`
}

// ReportResponse is GET /generate-report.
type ReportResponse struct {
	Report string `json:"report"`
}

// NewAbsenceResponse maps an absence.
func NewAbsenceResponse(a domain.Absence) AbsenceResponse {
	return AbsenceResponse{
		ID:          a.ID,
		StaffID:     a.StaffID,
		StaffName:   a.StaffName,
		Date:        FormatDate(a.Date),
		StartPeriod: int(a.StartPeriod),
		EndPeriod:   int(a.EndPeriod),
		Reason:      a.Reason,
	}
}

// NewCoverResponse maps a cover assignment.
func NewCoverResponse(c domain.CoverAssignment) CoverResponse {
	return CoverResponse{
		Period:             int(c.Period),
		StaffName:          c.CoveringStaffName,
		Status:             string(c.Status),
		ReasonForSelection: c.ReasonForSelection,
	}
}

// Ints converts periods for JSON output.
func Ints(periods []domain.Period) []int {
	out := make([]int, 0, len(periods))
	for _, p := range periods {
		out = append(out, int(p))
	}
	return out
}
