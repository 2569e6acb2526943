package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEmployeeRegistered EventType = "employee_registered"
	EventEmployeeUpdated    EventType = "employee_updated"
	EventEmployeeDeleted    EventType = "employee_deleted"
	EventOrphanDetected     EventType = "orphan_detected"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UID       string      `json:"uid"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(eventType EventType, uid string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UID:       uid,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// EmployeeRegisteredPayload payload.
type EmployeeRegisteredPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	EmpID string `json:"emp_id"`
}

// EmployeeUpdatedPayload lists the fields that changed.
type EmployeeUpdatedPayload struct {
	Changed  []string `json:"changed"`
	OldEmail string   `json:"old_email,omitempty"`
	NewEmail string   `json:"new_email,omitempty"`
}

// EmployeeDeletedPayload payload.
type EmployeeDeletedPayload struct {
	Email string `json:"email"`
	EmpID string `json:"emp_id"`
}

// OrphanKind tells which side of the identity/document pair is missing.
type OrphanKind string

const (
	OrphanAccountWithoutEmployee OrphanKind = "account_without_employee"
	OrphanEmployeeWithoutAccount OrphanKind = "employee_without_account"
)

// OrphanDetectedPayload payload.
type OrphanDetectedPayload struct {
	Kind   OrphanKind `json:"kind"`
	Email  string     `json:"email,omitempty"`
	Purged bool       `json:"purged"`
}
