package scan

import (
	"time"
)

// AutoDismiss is how long a result stays on screen before the scanner
// returns to the ready state on its own.
const AutoDismiss = 6 * time.Second

var headlines = map[Reason]string{
	ReasonValid:            "ENTRY ALLOWED",
	ReasonTicketNotFound:   "INVALID TICKET",
	ReasonTicketRevoked:    "TICKET REVOKED",
	ReasonInvalidDay:       "WRONG DAY",
	ReasonTooEarlyEntry:    "TOO EARLY",
	ReasonWrongGate:        "WRONG GATE",
	ReasonEventOnlyTicket:  "EVENT GATE ONLY",
	ReasonAlreadyUsedToday: "ALREADY USED",
	ReasonReplayAttack:     "DUPLICATE SCAN",
	ReasonError:            "SYSTEM ERROR",
}

var hints = map[Reason]string{
	ReasonValid:            "Entry recorded. Let the attendee through.",
	ReasonTicketNotFound:   "No ticket matches this QR or code. Try manual search.",
	ReasonTicketRevoked:    "This ticket has been revoked. Send the attendee to the help desk.",
	ReasonInvalidDay:       "This ticket is not valid today. Check the pass days.",
	ReasonTooEarlyEntry:    "General passes open at 3 PM. Ask the attendee to come back later.",
	ReasonWrongGate:        "This ticket belongs to another gate. Direct the attendee there.",
	ReasonEventOnlyTicket:  "Event-only ticket. Conference entry is not included.",
	ReasonAlreadyUsedToday: "This ticket was already used today.",
	ReasonReplayAttack:     "Same ticket scanned seconds ago. Wait before scanning again.",
	ReasonError:            "System error. Retry, or use manual search.",
}

// Display is what a scanner screen renders for an outcome.
type Display struct {
	Headline string `json:"headline"`
	Hint     string `json:"hint"`
	Tone     string `json:"tone"`
	// AutoDismissMs is the hold time before the screen clears on its own.
	AutoDismissMs int64 `json:"auto_dismiss_ms"`
	// LastUsedAt is shown for ALREADY_USED_TODAY when the validator sent it.
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	// CategoryName is filled for allowed results with a known category.
	CategoryName string `json:"category_name,omitempty"`
}

// Headline returns the screen headline for a reason.
func Headline(r Reason) string {
	if h, ok := headlines[r]; ok {
		return h
	}
	return "REJECTED"
}

// Hint returns the operator hint for a reason.
func Hint(r Reason) string {
	return hints[r]
}

// DisplayFor renders an outcome.
func DisplayFor(o Outcome, categoryNames map[int]string) Display {
	d := Display{
		Headline:      Headline(o.Reason()),
		Hint:          Hint(o.Reason()),
		Tone:          "rejected",
		AutoDismissMs: AutoDismiss.Milliseconds(),
	}
	if _, ok := o.(InvalidInput); ok && o.Message() != "" {
		d.Hint = o.Message()
	}
	switch t := o.(type) {
	case Allowed:
		d.Tone = "allowed"
		d.CategoryName = categoryNames[t.Ticket.Category]
	case Rejected:
		if t.Code == ReasonAlreadyUsedToday && t.Ticket != nil {
			d.LastUsedAt = t.Ticket.LastUsedAt
		}
	}
	return d
}
