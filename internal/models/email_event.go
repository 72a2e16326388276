package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailEventStatus for ticket email delivery.
const (
	EmailEventSent   = "sent"
	EmailEventFailed = "failed"
)

// TicketEmailEvent records one ticket email delivery attempt.
type TicketEmailEvent struct {
	ID             uuid.UUID  `json:"id"`
	RegistrationID uuid.UUID  `json:"registration_id"`
	TicketID       *uuid.UUID `json:"ticket_id,omitempty"`
	ToEmail        string     `json:"to_email"`
	Status         string     `json:"status"`
	ErrorText      string     `json:"error_text,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
