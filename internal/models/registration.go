package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatusPaid is the only payment status eligible for ticket issuance.
const PaymentStatusPaid = "paid"

// Registration is a pre-ticket signup record.
type Registration struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	College         string     `json:"college,omitempty"`
	TicketType      string     `json:"ticket_type,omitempty"`
	Price           string     `json:"price,omitempty"`
	IsRITStudent    bool       `json:"is_rit_student"`
	PaymentStatus   string     `json:"payment_status"`
	TicketGenerated bool       `json:"ticket_generated"`
	TicketEmailSent bool       `json:"ticket_email_sent"`
	TicketSentAt    *time.Time `json:"ticket_sent_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Paid reports whether the registration is eligible for a ticket. A missing
// payment status counts as unpaid.
func (r *Registration) Paid() bool {
	return r.PaymentStatus == PaymentStatusPaid
}
