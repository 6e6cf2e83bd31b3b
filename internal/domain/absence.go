package domain

import (
	"fmt"
	"strings"
	"time"
)

// Absence records a staff member being away for a contiguous block of periods on one date.
type Absence struct {
	ID          int64
	StaffID     int64
	StaffName   string
	Date        time.Time
	StartPeriod Period
	EndPeriod   Period
	Reason      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Periods returns the inclusive period range of the absence.
func (a Absence) Periods() []Period {
	return PeriodRange(a.StartPeriod, a.EndPeriod)
}

// ValidatePeriodRange checks start <= end and that both ends exist.
func ValidatePeriodRange(start, end Period) error {
	if !start.Valid() {
		return fmt.Errorf("unknown start period %d", start)
	}
	if !end.Valid() {
		return fmt.Errorf("unknown end period %d", end)
	}
	if start > end {
		return fmt.Errorf("start period %d is after end period %d", start, end)
	}
	return nil
}

// AbsenceSpan names a part-day absence as written on the staff absence sheet.
type AbsenceSpan string

const (
	SpanFull AbsenceSpan = "FULL"
	SpanAM   AbsenceSpan = "AM"
	SpanPM   AbsenceSpan = "PM"
	SpanHalf AbsenceSpan = "HALF"
	SpanLate AbsenceSpan = "LATE"
)

// spanPolicy maps part-day keywords onto teaching period ranges.
// TODO: confirm HALF and LATE with the cover coordinator; they currently mirror AM.
var spanPolicy = map[AbsenceSpan][2]Period{
	SpanFull: {1, 8},
	SpanAM:   {1, 4},
	SpanPM:   {5, 8},
	SpanHalf: {1, 4},
	SpanLate: {1, 4},
}

// SpanPeriods resolves a span keyword, case-insensitively, to its period range.
func SpanPeriods(span string) (Period, Period, error) {
	key := AbsenceSpan(strings.ToUpper(strings.TrimSpace(span)))
	if key == "0.5" {
		key = SpanHalf
	}
	r, ok := spanPolicy[key]
	if !ok {
		return 0, 0, fmt.Errorf("unknown absence span %q", span)
	}
	return r[0], r[1], nil
}
