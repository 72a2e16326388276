package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus values.
const (
	TicketStatusActive  = "active"
	TicketStatusRevoked = "revoked"
)

// CategoryNames maps ticket category numbers to display names.
var CategoryNames = map[int]string{
	1: "Institution Pass",
	2: "Event Ticket",
	3: "General (1-Day)",
	4: "General Combo",
}

// Ticket is an issued entry pass. Usage markers are written by the database
// validator and the admin override procedures only.
type Ticket struct {
	ID             uuid.UUID  `json:"id"`
	RegistrationID *uuid.UUID `json:"registration_id,omitempty"`
	Code           string     `json:"code_6_digit"`
	QRToken        string     `json:"qr_token,omitempty"`
	QRPayload      string     `json:"qr_payload,omitempty"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	College        string     `json:"college,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Category       int        `json:"category,omitempty"`
	TicketType     string     `json:"ticket_type,omitempty"`
	EventID        string     `json:"event_id,omitempty"`
	ValidDays      []int      `json:"valid_days,omitempty"`
	UsageDay1      *time.Time `json:"usage_day1,omitempty"`
	UsageDay2      *time.Time `json:"usage_day2,omitempty"`
	UsageEvent     *time.Time `json:"usage_event,omitempty"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	Status         string     `json:"status"`
	IsRITStudent   bool       `json:"is_rit_student"`
}

// CategoryName returns the display name for the ticket's category, or "" when unknown.
func (t *Ticket) CategoryName() string {
	return CategoryNames[t.Category]
}

// Revoked reports whether the ticket has been revoked.
func (t *Ticket) Revoked() bool {
	return t.Status == TicketStatusRevoked
}
