package models

import (
	"time"

	"github.com/google/uuid"
)

// OverrideLogEntry is an audit record of an admin action. Rows are written by
// the override procedures; this code only reads them.
type OverrideLogEntry struct {
	ID              uuid.UUID `json:"id"`
	TicketID        uuid.UUID `json:"ticket_id"`
	Action          string    `json:"action"`
	Day             int       `json:"day"`
	Reason          string    `json:"reason"`
	AdminIdentifier string    `json:"admin_identifier"`
	CreatedAt       time.Time `json:"created_at"`
}
