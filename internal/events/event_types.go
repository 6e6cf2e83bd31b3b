package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAbsenceLogged   EventType = "absence_logged"
	EventCoverAssigned   EventType = "cover_assigned"
	EventCoverUnassigned EventType = "cover_unassigned"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AbsenceID int64       `json:"absence_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AbsenceLoggedPayload payload.
type AbsenceLoggedPayload struct {
	StaffName   string `json:"staff_name"`
	Date        string `json:"date"`
	StartPeriod int    `json:"start_period"`
	EndPeriod   int    `json:"end_period"`
	Updated     bool   `json:"updated"`
}

// CoverAssignedPayload payload.
type CoverAssignedPayload struct {
	AbsentName   string `json:"absent_name"`
	CoveringName string `json:"covering_name"`
	Date         string `json:"date"`
	Periods      []int  `json:"periods"`
}

// CoverUnassignedPayload payload.
type CoverUnassignedPayload struct {
	AbsentName string `json:"absent_name"`
	Date       string `json:"date"`
	Period     int    `json:"period"`
}
