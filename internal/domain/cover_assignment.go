package domain

import "time"

// CoverStatus tracks the lifecycle of a cover assignment.
type CoverStatus string

const (
	CoverStatusPending   CoverStatus = "pending"
	CoverStatusConfirmed CoverStatus = "confirmed"
	CoverStatusRejected  CoverStatus = "rejected"
)

// CoverAssignment is one covering staff member for one period of an absence.
type CoverAssignment struct {
	ID                 int64
	AbsenceID          int64
	Period             Period
	CoveringStaffID    int64
	CoveringStaffName  string
	Status             CoverStatus
	ReasonForSelection *string
	CreatedAt          time.Time
}

// LedgerEntry is a confirmed cover joined with the absence it belongs to.
type LedgerEntry struct {
	AbsenceID       int64
	Date            time.Time
	Period          Period
	CoveringStaffID int64
	CoveringName    string
	AbsentStaffID   int64
	AbsentName      string
}

// Ledger answers "who is this person already covering in period p" for one date.
type Ledger map[int64]map[Period]string

// NewLedger indexes entries by covering staff and period.
func NewLedger(entries []LedgerEntry) Ledger {
	l := make(Ledger)
	for _, e := range entries {
		byPeriod, ok := l[e.CoveringStaffID]
		if !ok {
			byPeriod = make(map[Period]string)
			l[e.CoveringStaffID] = byPeriod
		}
		byPeriod[e.Period] = e.AbsentName
	}
	return l
}

// Covering returns the absent staff name if staffID already covers period p.
func (l Ledger) Covering(staffID int64, p Period) (string, bool) {
	if l == nil {
		return "", false
	}
	name, ok := l[staffID][p]
	return name, ok
}
