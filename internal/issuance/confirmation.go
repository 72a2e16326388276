package issuance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yatra-gate/backend/internal/mailer"
	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/internal/tickets"
)

// ErrMissingFields is returned when a confirmation lacks email or name.
var ErrMissingFields = errors.New("Missing required fields: email and name")

// ConfirmationRequest is the registration webhook payload.
type ConfirmationRequest struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	College      string  `json:"college"`
	TicketType   *string `json:"ticket_type"`
	Price        *string `json:"price"`
	IsRITStudent *bool   `json:"is_rit_student"`
	CreatedAt    string  `json:"created_at"`
}

// ConfirmationResult is returned to the webhook caller.
type ConfirmationResult struct {
	Message         string               `json:"message"`
	To              string               `json:"to,omitempty"`
	TicketGenerated bool                 `json:"ticket_generated"`
	Registration    *ConfirmationRequest `json:"registration,omitempty"`
}

func (r *ConfirmationRequest) registration() *models.Registration {
	reg := &models.Registration{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		College: r.College,
	}
	if id, err := uuid.Parse(r.ID); err == nil {
		reg.ID = id
	}
	if r.TicketType != nil {
		reg.TicketType = *r.TicketType
	}
	if r.Price != nil {
		reg.Price = *r.Price
	}
	if r.IsRITStudent != nil {
		reg.IsRITStudent = *r.IsRITStudent
	}
	return reg
}

// RegistrationMailer sends the confirmation email for a new registration and
// attaches a ticket when one can be created.
type RegistrationMailer struct {
	regs   RegistrationStore
	tix    TicketStore
	codes  *CodeGenerator
	qr     *QRRenderer
	mail   mailer.Mailer
	logger *zap.Logger
	now    func() time.Time
}

// NewRegistrationMailer creates a confirmation mailer.
func NewRegistrationMailer(regs RegistrationStore, tix TicketStore, qr *QRRenderer, mail mailer.Mailer, logger *zap.Logger) *RegistrationMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationMailer{
		regs:   regs,
		tix:    tix,
		codes:  NewCodeGenerator(tix),
		qr:     qr,
		mail:   mail,
		logger: logger,
		now:    time.Now,
	}
}

// Send emails the confirmation. Without SMTP credentials it only logs the
// registration. A ticket failure still sends the email without the ticket
// section.
func (m *RegistrationMailer) Send(ctx context.Context, req *ConfirmationRequest) (*ConfirmationResult, error) {
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, ErrMissingFields
	}
	if !m.mail.Configured() {
		m.logger.Info("email not configured, registration logged", zap.String("email", req.Email), zap.String("registration_id", req.ID))
		return &ConfirmationResult{Message: "Email service not configured. Registration logged.", Registration: req}, nil
	}

	reg := req.registration()
	code, src, err := m.ticket(ctx, reg)
	if err != nil {
		m.logger.Error("ticket generation failed", zap.String("registration_id", req.ID), zap.Error(err))
		code, src = "", ""
	}

	html, text, err := Confirmation(reg, code, src)
	if err != nil {
		return nil, fmt.Errorf("render email: %w", err)
	}
	if err := m.mail.Send(ctx, mailer.Message{To: reg.Email, Subject: SubjectConfirmation, HTML: html, Text: text}); err != nil {
		return nil, err
	}
	return &ConfirmationResult{Message: "Confirmation email sent successfully", To: reg.Email, TicketGenerated: code != ""}, nil
}

type confirmationPayload struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// ticket reuses or creates the registration's ticket and returns its code and
// QR image source.
func (m *RegistrationMailer) ticket(ctx context.Context, reg *models.Registration) (code, src string, err error) {
	if reg.ID == uuid.Nil {
		return "", "", errors.New("registration id missing")
	}
	existing, err := m.tix.GetByRegistrationID(ctx, reg.ID)
	if err == nil {
		m.logger.Info("using existing ticket", zap.String("code", existing.Code), zap.String("registration_id", reg.ID.String()))
		src, err := m.qr.Source(ctx, existing.ID.String(), existing.QRPayload)
		return existing.Code, src, err
	}
	if !errors.Is(err, tickets.ErrNotFound) {
		return "", "", err
	}

	code, err = m.codes.Generate(ctx)
	if err != nil {
		return "", "", err
	}
	ticketID := uuid.New()
	payload, err := json.Marshal(confirmationPayload{ID: ticketID.String(), Code: code})
	if err != nil {
		return "", "", err
	}
	regID := reg.ID
	t := &models.Ticket{
		ID:             ticketID,
		RegistrationID: &regID,
		Code:           code,
		QRPayload:      string(payload),
		Name:           reg.Name,
		Email:          reg.Email,
		College:        reg.College,
		Phone:          reg.Phone,
		TicketType:     reg.TicketType,
		IsRITStudent:   reg.IsRITStudent,
	}
	if err := m.tix.Insert(ctx, t); err != nil {
		return "", "", fmt.Errorf("Ticket creation failed: %v", err)
	}
	if err := m.regs.MarkTicketSent(ctx, reg.ID, m.now()); err != nil {
		m.logger.Error("failed to update registration", zap.String("registration_id", reg.ID.String()), zap.Error(err))
	}
	m.logger.Info("generated ticket", zap.String("code", code), zap.String("registration_id", reg.ID.String()))
	src, err = m.qr.Source(ctx, ticketID.String(), t.QRPayload)
	return code, src, err
}
