package issuance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yatra-gate/backend/internal/mailer"
	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/internal/registrations"
	"github.com/yatra-gate/backend/internal/tickets"
	"github.com/yatra-gate/backend/pkg/metrics"
)

// ErrNoRegistrations is returned for an empty batch.
var ErrNoRegistrations = errors.New("registration_ids array is required")

// RegistrationStore is the registrations table as issuance needs it.
type RegistrationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	MarkTicketSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkEmailSent(ctx context.Context, id uuid.UUID) error
}

// TicketStore is the tickets table as issuance needs it.
type TicketStore interface {
	CodeChecker
	GetByRegistrationID(ctx context.Context, registrationID uuid.UUID) (*models.Ticket, error)
	Insert(ctx context.Context, t *models.Ticket) error
	UpdateQRPayload(ctx context.Context, id uuid.UUID, payload string) error
}

// EmailEventStore records ticket email deliveries.
type EmailEventStore interface {
	Latest(ctx context.Context, registrationID uuid.UUID) (*models.TicketEmailEvent, error)
	Insert(ctx context.Context, ev *models.TicketEmailEvent) error
}

// FailedItem is one registration the batch could not complete.
type FailedItem struct {
	RegistrationID string `json:"registration_id"`
	Reason         string `json:"reason"`
}

// Report summarises a batch run.
type Report struct {
	Success          bool         `json:"success"`
	IssuedCount      int          `json:"issued_count"`
	SkippedCount     int          `json:"skipped_count"`
	NotPaidCount     int          `json:"not_paid_count"`
	AlreadySentCount int          `json:"already_sent_count"`
	Failed           []FailedItem `json:"failed"`
}

type itemOutcome int

const (
	outcomeIssued itemOutcome = iota
	outcomeAlreadySent
	outcomeNotPaid
)

// Item failures that no retry can fix.
var (
	ErrNotPaid              = errors.New("Not eligible: payment_status is not paid")
	ErrRegistrationNotFound = errors.New("Registration not found")
)

// BatchIssuer creates tickets for paid registrations and emails entry passes.
type BatchIssuer struct {
	regs   RegistrationStore
	tix    TicketStore
	events EmailEventStore
	codes  *CodeGenerator
	qr     *QRRenderer
	mail   mailer.Mailer
	logger *zap.Logger
	now    func() time.Time
}

// NewBatchIssuer creates a batch issuer.
func NewBatchIssuer(regs RegistrationStore, tix TicketStore, events EmailEventStore, qr *QRRenderer, mail mailer.Mailer, logger *zap.Logger) *BatchIssuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchIssuer{
		regs:   regs,
		tix:    tix,
		events: events,
		codes:  NewCodeGenerator(tix),
		qr:     qr,
		mail:   mail,
		logger: logger,
		now:    time.Now,
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Issue processes registrations one at a time in first-seen order. An item
// failure is recorded in the report and never stops the batch.
func (b *BatchIssuer) Issue(ctx context.Context, issuedBy string, ids []string) (*Report, error) {
	if len(ids) == 0 {
		return nil, ErrNoRegistrations
	}
	unique := dedupe(ids)
	b.logger.Info("issuing tickets", zap.Int("count", len(unique)), zap.String("issuer", issuedBy))

	report := &Report{Success: true, Failed: []FailedItem{}}
	for _, raw := range unique {
		outcome, err := b.issueOne(ctx, issuedBy, raw, false)
		switch {
		case errors.Is(err, ErrNotPaid):
			report.NotPaidCount++
			report.Failed = append(report.Failed, FailedItem{RegistrationID: raw, Reason: err.Error()})
			metrics.ObserveIssuance("not_paid")
		case err != nil:
			b.logger.Error("ticket issuance failed", zap.String("registration_id", raw), zap.Error(err))
			report.Failed = append(report.Failed, FailedItem{RegistrationID: raw, Reason: err.Error()})
			metrics.ObserveIssuance("failed")
		case outcome == outcomeAlreadySent:
			report.SkippedCount++
			report.AlreadySentCount++
			metrics.ObserveIssuance("already_sent")
		default:
			report.IssuedCount++
			metrics.ObserveIssuance("issued")
		}
	}
	return report, nil
}

// Resend emails the entry pass for one registration even when it was sent
// before. Payment eligibility still applies.
func (b *BatchIssuer) Resend(ctx context.Context, issuedBy string, registrationID uuid.UUID) error {
	_, err := b.issueOne(ctx, issuedBy, registrationID.String(), true)
	if err == nil {
		metrics.ObserveIssuance("resent")
	}
	return err
}

func (b *BatchIssuer) issueOne(ctx context.Context, issuedBy, raw string, force bool) (itemOutcome, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id", ErrRegistrationNotFound)
	}
	reg, err := b.regs.GetByID(ctx, id)
	if errors.Is(err, registrations.ErrNotFound) {
		return 0, fmt.Errorf("%w: %v", ErrRegistrationNotFound, err)
	}
	if err != nil {
		return 0, fmt.Errorf("Registration not found: %v", err)
	}
	if !reg.Paid() {
		return outcomeNotPaid, ErrNotPaid
	}
	if !force {
		if reg.TicketEmailSent {
			b.logger.Info("skipping, already sent", zap.String("email", reg.Email))
			return outcomeAlreadySent, nil
		}
		if b.latestSent(ctx, id) {
			b.logger.Info("skipping, last email event is sent", zap.String("email", reg.Email))
			if err := b.regs.MarkEmailSent(ctx, id); err != nil {
				b.logger.Warn("backfill ticket_email_sent failed", zap.String("registration_id", raw), zap.Error(err))
			}
			return outcomeAlreadySent, nil
		}
	}

	ticket, err := b.ensureTicket(ctx, reg)
	if err != nil {
		return 0, err
	}
	src, err := b.qr.Source(ctx, ticket.ID.String(), ticket.QRPayload)
	if err != nil {
		return 0, fmt.Errorf("QR render failed: %w", err)
	}
	html, text, err := EntryPass(reg, ticket.Code, src, issuedBy)
	if err != nil {
		return 0, fmt.Errorf("render email: %w", err)
	}

	sendErr := b.mail.Send(ctx, mailer.Message{
		To:      reg.Email,
		Subject: fmt.Sprintf(subjectEntryPass, ticket.Code),
		HTML:    html,
		Text:    text,
	})
	ev := &models.TicketEmailEvent{RegistrationID: id, TicketID: &ticket.ID, ToEmail: reg.Email, Status: models.EmailEventSent}
	if sendErr != nil {
		ev.Status = models.EmailEventFailed
		ev.ErrorText = sendErr.Error()
	}
	if err := b.events.Insert(ctx, ev); err != nil {
		b.logger.Warn("record email event failed", zap.String("registration_id", raw), zap.Error(err))
	}
	if sendErr != nil {
		return 0, fmt.Errorf("Email send failed: %v", sendErr)
	}

	if err := b.regs.MarkTicketSent(ctx, id, b.now()); err != nil {
		b.logger.Error("failed to update registration status", zap.String("registration_id", raw), zap.Error(err))
	}
	b.logger.Info("issued ticket", zap.String("code", ticket.Code), zap.String("email", reg.Email))
	return outcomeIssued, nil
}

// latestSent reports whether the newest email event is "sent". Lookup errors
// count as no event.
func (b *BatchIssuer) latestSent(ctx context.Context, id uuid.UUID) bool {
	ev, err := b.events.Latest(ctx, id)
	if err != nil {
		b.logger.Debug("latest email event lookup failed", zap.Error(err))
		return false
	}
	return ev != nil && ev.Status == models.EmailEventSent
}

// ensureTicket reuses the registration's ticket or creates one. The QR
// payload is the registration id.
func (b *BatchIssuer) ensureTicket(ctx context.Context, reg *models.Registration) (*models.Ticket, error) {
	payload := reg.ID.String()
	existing, err := b.tix.GetByRegistrationID(ctx, reg.ID)
	switch {
	case err == nil:
		if existing.QRPayload != payload {
			if err := b.tix.UpdateQRPayload(ctx, existing.ID, payload); err != nil {
				return nil, fmt.Errorf("Failed to update QR payload: %v", err)
			}
			existing.QRPayload = payload
		}
		return existing, nil
	case !errors.Is(err, tickets.ErrNotFound):
		return nil, fmt.Errorf("Failed to check existing ticket: %v", err)
	}

	code, err := b.codes.Generate(ctx)
	if err != nil {
		return nil, err
	}
	regID := reg.ID
	t := &models.Ticket{
		ID:             uuid.New(),
		RegistrationID: &regID,
		Code:           code,
		QRPayload:      payload,
		Name:           reg.Name,
		Email:          reg.Email,
		College:        reg.College,
		Phone:          reg.Phone,
		TicketType:     reg.TicketType,
		IsRITStudent:   reg.IsRITStudent,
	}
	if err := b.tix.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("Ticket insert failed: %v", err)
	}
	return t, nil
}
