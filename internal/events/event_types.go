package events

import "time"

// EventType names a staff lifecycle event.
type EventType string

const (
	EventStaffCreated EventType = "staff_created"
	EventStaffUpdated EventType = "staff_updated"
	EventStaffDeleted EventType = "staff_deleted"
)

// Actor is the authenticated caller behind a change.
type Actor struct {
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
}

// Event is what the staff service publishes after each successful write.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	StaffID   int64     `json:"staffId"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

type StaffCreatedPayload struct {
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Type      string `json:"type"`
	AccountID string `json:"accountId,omitempty"`
	// Only set for locally provisioned accounts. Never serialized.
	InitialPassword string `json:"-"`
}

type StaffUpdatedPayload struct {
	Email string `json:"email"`
	Actif bool   `json:"actif"`
}

type StaffDeletedPayload struct {
	Email string `json:"email"`
}
