package scan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reason is the validator's fixed reason code.
type Reason string

const (
	ReasonValid            Reason = "VALID"
	ReasonTicketNotFound   Reason = "TICKET_NOT_FOUND"
	ReasonTicketRevoked    Reason = "TICKET_REVOKED"
	ReasonInvalidDay       Reason = "INVALID_DAY"
	ReasonTooEarlyEntry    Reason = "TOO_EARLY_ENTRY"
	ReasonWrongGate        Reason = "WRONG_GATE"
	ReasonEventOnlyTicket  Reason = "EVENT_ONLY_TICKET"
	ReasonAlreadyUsedToday Reason = "ALREADY_USED_TODAY"
	ReasonReplayAttack     Reason = "REPLAY_ATTACK"
	ReasonError            Reason = "ERROR"
)

// Reasons lists every reason code in display order.
var Reasons = []Reason{
	ReasonValid,
	ReasonTicketNotFound,
	ReasonTicketRevoked,
	ReasonInvalidDay,
	ReasonTooEarlyEntry,
	ReasonWrongGate,
	ReasonEventOnlyTicket,
	ReasonAlreadyUsedToday,
	ReasonReplayAttack,
	ReasonError,
}

// older validator builds answered with these codes
var legacyReasons = map[string]Reason{
	"ALREADY_USED":   ReasonAlreadyUsedToday,
	"INVALID_TICKET": ReasonTicketNotFound,
}

// ParseReason maps a wire value to a Reason. Unknown values report ok=false.
func ParseReason(s string) (Reason, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if r, ok := legacyReasons[s]; ok {
		return r, true
	}
	for _, r := range Reasons {
		if string(r) == s {
			return r, true
		}
	}
	return ReasonError, false
}

// Kind discriminates Outcome variants.
type Kind string

const (
	KindAllowed      Kind = "allowed"
	KindRejected     Kind = "rejected"
	KindInvalidInput Kind = "invalid_input"
	KindFailed       Kind = "failed"
)

// Outcome is the result of one verification. Exactly one of Allowed,
// Rejected, InvalidInput or Failed.
type Outcome interface {
	Kind() Kind
	Reason() Reason
	Message() string
	IsAllowed() bool
}

// Snapshot is the ticket data the validator returns alongside a decision.
type Snapshot struct {
	TicketID     *uuid.UUID `json:"ticket_id,omitempty"`
	Name         string     `json:"name,omitempty"`
	Email        string     `json:"email,omitempty"`
	College      string     `json:"college,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Code         string     `json:"code_6_digit,omitempty"`
	TicketType   string     `json:"ticket_type,omitempty"`
	Category     int        `json:"category,omitempty"`
	IsRITStudent bool       `json:"is_rit_student,omitempty"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
}

// Empty reports whether the validator sent no ticket fields.
func (s Snapshot) Empty() bool {
	return s.TicketID == nil && s.Name == "" && s.Email == "" && s.Code == ""
}

// Allowed means the gate may admit the holder. Usage has already been marked
// by the validator.
type Allowed struct {
	Msg    string
	Ticket Snapshot
}

func (Allowed) Kind() Kind        { return KindAllowed }
func (Allowed) Reason() Reason    { return ReasonValid }
func (a Allowed) Message() string { return a.Msg }
func (Allowed) IsAllowed() bool   { return true }

// Rejected is a business rejection decided by the validator.
type Rejected struct {
	Code   Reason
	Msg    string
	Ticket *Snapshot
}

func (Rejected) Kind() Kind        { return KindRejected }
func (r Rejected) Reason() Reason  { return r.Code }
func (r Rejected) Message() string { return r.Msg }
func (Rejected) IsAllowed() bool   { return false }

// InvalidInput is a local guard failure; no network call was made.
type InvalidInput struct {
	Code Reason
	Msg  string
}

func (InvalidInput) Kind() Kind        { return KindInvalidInput }
func (i InvalidInput) Reason() Reason  { return i.Code }
func (i InvalidInput) Message() string { return i.Msg }
func (InvalidInput) IsAllowed() bool   { return false }

// Failed is a transport or system failure.
type Failed struct {
	Msg string
	Err error
}

func (Failed) Kind() Kind        { return KindFailed }
func (Failed) Reason() Reason    { return ReasonError }
func (f Failed) Message() string { return f.Msg }
func (Failed) IsAllowed() bool   { return false }

type wireResult struct {
	Success *bool           `json:"success"`
	Allowed bool            `json:"allowed"`
	Reason  string          `json:"reason"`
	Message string          `json:"message"`
	Ticket  json.RawMessage `json:"ticket"`
	Snapshot
	// legacy camelCase spelling
	TicketTypeLegacy string `json:"ticketType"`
}

// Decode turns the validate_scan JSONB document into an Outcome.
func Decode(raw []byte) (Outcome, error) {
	var w wireResult
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode validator result: %w", err)
	}
	snap := w.Snapshot
	if len(w.Ticket) > 0 && string(w.Ticket) != "null" {
		if err := json.Unmarshal(w.Ticket, &snap); err != nil {
			return nil, fmt.Errorf("decode ticket snapshot: %w", err)
		}
	}
	if snap.TicketType == "" {
		snap.TicketType = w.TicketTypeLegacy
	}

	reason, known := ParseReason(w.Reason)
	if w.Reason == "" && w.Allowed {
		reason, known = ReasonValid, true
	}

	if w.Allowed {
		if reason != ReasonValid {
			return nil, fmt.Errorf("validator allowed entry with reason %q", w.Reason)
		}
		return Allowed{Msg: w.Message, Ticket: snap}, nil
	}
	if reason == ReasonValid {
		return nil, fmt.Errorf("validator denied entry with reason VALID")
	}
	if reason == ReasonError && known {
		return Failed{Msg: w.Message}, nil
	}
	r := Rejected{Code: reason, Msg: w.Message}
	if !known && r.Msg == "" {
		r.Msg = "Unrecognised validator response: " + w.Reason
	}
	if !snap.Empty() {
		r.Ticket = &snap
	}
	return r, nil
}

// View is the flat JSON shape returned to clients.
type View struct {
	Kind    Kind      `json:"kind"`
	Allowed bool      `json:"allowed"`
	Reason  Reason    `json:"reason"`
	Message string    `json:"message"`
	Ticket  *Snapshot `json:"ticket,omitempty"`
}

// ViewOf flattens an Outcome for transport.
func ViewOf(o Outcome) View {
	v := View{Kind: o.Kind(), Allowed: o.IsAllowed(), Reason: o.Reason(), Message: o.Message()}
	switch t := o.(type) {
	case Allowed:
		snap := t.Ticket
		v.Ticket = &snap
	case Rejected:
		v.Ticket = t.Ticket
	}
	return v
}
