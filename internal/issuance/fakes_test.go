package issuance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yatra-gate/backend/internal/mailer"
	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/internal/registrations"
	"github.com/yatra-gate/backend/internal/tickets"
)

type fakeRegs struct {
	regs      map[uuid.UUID]*models.Registration
	marked    []uuid.UUID
	backfills []uuid.UUID
	markErr   error
}

func newFakeRegs(list ...*models.Registration) *fakeRegs {
	f := &fakeRegs{regs: map[uuid.UUID]*models.Registration{}}
	for _, r := range list {
		f.regs[r.ID] = r
	}
	return f
}

func (f *fakeRegs) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	r, ok := f.regs[id]
	if !ok {
		return nil, registrations.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRegs) MarkTicketSent(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.marked = append(f.marked, id)
	if f.markErr != nil {
		return f.markErr
	}
	if r, ok := f.regs[id]; ok {
		r.TicketGenerated = true
		r.TicketEmailSent = true
	}
	return nil
}

func (f *fakeRegs) MarkEmailSent(_ context.Context, id uuid.UUID) error {
	f.backfills = append(f.backfills, id)
	return nil
}

type fakeTickets struct {
	byReg    map[uuid.UUID]*models.Ticket
	codes    map[string]bool
	inserted []*models.Ticket
	payloads map[uuid.UUID]string
	checks   int
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{byReg: map[uuid.UUID]*models.Ticket{}, codes: map[string]bool{}, payloads: map[uuid.UUID]string{}}
}

func (f *fakeTickets) CodeExists(_ context.Context, code string) (bool, error) {
	f.checks++
	return f.codes[code], nil
}

func (f *fakeTickets) GetByRegistrationID(_ context.Context, id uuid.UUID) (*models.Ticket, error) {
	t, ok := f.byReg[id]
	if !ok {
		return nil, tickets.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTickets) Insert(_ context.Context, t *models.Ticket) error {
	t.QRToken = "tok-" + t.Code
	f.inserted = append(f.inserted, t)
	f.codes[t.Code] = true
	if t.RegistrationID != nil {
		cp := *t
		f.byReg[*t.RegistrationID] = &cp
	}
	return nil
}

func (f *fakeTickets) UpdateQRPayload(_ context.Context, id uuid.UUID, payload string) error {
	f.payloads[id] = payload
	return nil
}

type fakeEvents struct {
	latest map[uuid.UUID]*models.TicketEmailEvent
	all    []*models.TicketEmailEvent
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{latest: map[uuid.UUID]*models.TicketEmailEvent{}}
}

func (f *fakeEvents) Latest(_ context.Context, id uuid.UUID) (*models.TicketEmailEvent, error) {
	return f.latest[id], nil
}

func (f *fakeEvents) Insert(_ context.Context, ev *models.TicketEmailEvent) error {
	f.all = append(f.all, ev)
	f.latest[ev.RegistrationID] = ev
	return nil
}

type fakeMailer struct {
	mu         sync.Mutex
	configured bool
	sent       []mailer.Message
	failFor    map[string]error
}

func (m *fakeMailer) Configured() bool { return m.configured }

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[msg.To]; err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func paidReg(email string) *models.Registration {
	return &models.Registration{ID: uuid.New(), Name: "Asha " + email, Email: email, PaymentStatus: models.PaymentStatusPaid}
}
