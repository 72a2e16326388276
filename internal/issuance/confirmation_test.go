package issuance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatra-gate/backend/config"
	"github.com/yatra-gate/backend/internal/models"
)

func strp(s string) *string { return &s }

func TestConfirmation_MissingFields(t *testing.T) {
	m := NewRegistrationMailer(newFakeRegs(), newFakeTickets(), NewQRRenderer("", nil), &fakeMailer{configured: true}, nil)
	_, err := m.Send(context.Background(), &ConfirmationRequest{Email: "a@x.test"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestConfirmation_NotConfigured(t *testing.T) {
	mail := &fakeMailer{}
	m := NewRegistrationMailer(newFakeRegs(), newFakeTickets(), NewQRRenderer("", nil), mail, nil)
	res, err := m.Send(context.Background(), &ConfirmationRequest{ID: uuid.NewString(), Name: "Asha", Email: "a@x.test"})
	require.NoError(t, err)
	assert.Equal(t, "Email service not configured. Registration logged.", res.Message)
	assert.NotNil(t, res.Registration)
	assert.Empty(t, mail.sent)
}

func TestConfirmation_CreatesTicketWithJSONPayload(t *testing.T) {
	regID := uuid.New()
	regs := newFakeRegs()
	tix := newFakeTickets()
	mail := &fakeMailer{configured: true}
	m := NewRegistrationMailer(regs, tix, NewQRRenderer(config.QRImageDataURL, nil), mail, nil)

	res, err := m.Send(context.Background(), &ConfirmationRequest{
		ID: regID.String(), Name: "Asha", Email: "a@x.test", Phone: "99", College: "RIT",
		IsRITStudent: func() *bool { b := true; return &b }(),
	})
	require.NoError(t, err)
	assert.True(t, res.TicketGenerated)
	require.Len(t, tix.inserted, 1)
	tk := tix.inserted[0]

	var payload struct{ ID, Code string }
	require.NoError(t, json.Unmarshal([]byte(tk.QRPayload), &payload))
	assert.Equal(t, tk.ID.String(), payload.ID)
	assert.Equal(t, tk.Code, payload.Code)
	assert.Equal(t, []uuid.UUID{regID}, regs.marked)

	require.Len(t, mail.sent, 1)
	msg := mail.sent[0]
	assert.Equal(t, SubjectConfirmation, msg.Subject)
	assert.Contains(t, msg.Text, "PASS TYPE: STANDARD")
	assert.Contains(t, msg.Text, "PRICE:     N/A")
	assert.Contains(t, msg.Text, "STATUS:    RIT STUDENT DISCOUNT")
	assert.Contains(t, msg.Text, "ENTRY CODE: "+tk.Code)
	assert.Contains(t, msg.HTML, "data:image/png;base64,")
	assert.Contains(t, msg.HTML, "RIT STUDENT DISCOUNT APPLIED")
}

func TestConfirmation_TicketFailureStillSends(t *testing.T) {
	tix := newFakeTickets()
	mail := &fakeMailer{configured: true}
	m := NewRegistrationMailer(newFakeRegs(), tix, NewQRRenderer("", nil), mail, nil)

	res, err := m.Send(context.Background(), &ConfirmationRequest{Name: "Asha", Email: "a@x.test", TicketType: strp("VIP"), Price: strp("₹499")})
	require.NoError(t, err)
	assert.False(t, res.TicketGenerated)
	require.Len(t, mail.sent, 1)
	assert.NotContains(t, mail.sent[0].Text, "ENTRY CODE")
	assert.NotContains(t, mail.sent[0].HTML, "SCAN TO ENTER")
	assert.Contains(t, mail.sent[0].Text, "PASS TYPE: VIP")
	assert.Contains(t, mail.sent[0].Text, "PRICE:     ₹499")
	assert.NotContains(t, mail.sent[0].Text, "RIT STUDENT")
}

func TestConfirmation_ReusesExistingTicket(t *testing.T) {
	regID := uuid.New()
	tix := newFakeTickets()
	tix.byReg[regID] = &models.Ticket{ID: uuid.New(), Code: "424242", QRPayload: `{"id":"x","code":"424242"}`}
	mail := &fakeMailer{configured: true}
	m := NewRegistrationMailer(newFakeRegs(), tix, NewQRRenderer(config.QRImageQRService, nil), mail, nil)

	res, err := m.Send(context.Background(), &ConfirmationRequest{ID: regID.String(), Name: "Asha", Email: "a@x.test"})
	require.NoError(t, err)
	assert.True(t, res.TicketGenerated)
	assert.Empty(t, tix.inserted)
	assert.Contains(t, mail.sent[0].Text, "ENTRY CODE: 424242")
}

func TestHandlerConfirm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewRegistrationMailer(newFakeRegs(), newFakeTickets(), NewQRRenderer("", nil), &fakeMailer{}, nil)
	h := NewHandler(nil, m)
	r := gin.New()
	r.POST("/registrations/email", h.Confirm)

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/registrations/email", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := post(`{"name":"Asha"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing required fields: email and name")

	w = post(`{"name":"Asha","email":"a@x.test"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Registration logged.")
}

func TestHandlerIssueBatchRequiresIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(newIssuer(newFakeRegs(), newFakeTickets(), newFakeEvents(), &fakeMailer{}), nil)
	r := gin.New()
	r.POST("/tickets/issue-batch", h.IssueBatch)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/tickets/issue-batch", strings.NewReader(`{"registration_ids":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "registration_ids array is required")
}
