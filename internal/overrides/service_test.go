package overrides

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatra-gate/backend/internal/models"
)

type call struct {
	fn     string
	day    int
	reason string
	admin  string
}

type fakeProcs struct {
	calls []call
	res   Result
	err   error
	logs  []models.OverrideLogEntry
}

func (f *fakeProcs) ForceAllow(_ context.Context, _ uuid.UUID, day int, reason, admin string) (Result, error) {
	f.calls = append(f.calls, call{"force_allow", day, reason, admin})
	return f.res, f.err
}

func (f *fakeProcs) ResetEntry(_ context.Context, _ uuid.UUID, day int, reason, admin string) (Result, error) {
	f.calls = append(f.calls, call{"reset", day, reason, admin})
	return f.res, f.err
}

func (f *fakeProcs) OverrideLogs(context.Context, uuid.UUID) ([]models.OverrideLogEntry, error) {
	return f.logs, f.err
}

func intp(v int) *int { return &v }

func TestGuardsNeverReachProcedures(t *testing.T) {
	f := &fakeProcs{}
	svc := NewService(f, nil)
	id := uuid.New()

	res, err := svc.ForceAllow(context.Background(), Request{TicketID: id, Reason: "   too short  ", AdminName: "Ravi"})
	assert.ErrorIs(t, err, ErrReasonTooShort)
	assert.False(t, res.Success)
	assert.Equal(t, "Reason must be at least 10 characters", res.Message)

	res, err = svc.ResetEntry(context.Background(), Request{TicketID: id, Reason: "phone died at gate", AdminName: " R "})
	assert.ErrorIs(t, err, ErrAdminNameTooShort)
	assert.Equal(t, "Please enter your name for audit trail", res.Message)

	_, err = svc.ForceAllow(context.Background(), Request{TicketID: id, Day: intp(3), Reason: "phone died at gate", AdminName: "Ravi"})
	assert.ErrorIs(t, err, ErrInvalidDay)

	_, err = svc.ResetEntry(context.Background(), Request{TicketID: id, Day: intp(3), Reason: "phone died at gate", AdminName: "Ravi"})
	assert.ErrorIs(t, err, ErrInvalidDay)

	assert.Empty(t, f.calls)
}

func TestGuardsCountCharacters(t *testing.T) {
	f := &fakeProcs{res: Result{Success: true}}
	svc := NewService(f, nil)
	id := uuid.New()

	_, err := svc.ForceAllow(context.Background(), Request{TicketID: id, Reason: "123456789", AdminName: "Ravi"})
	assert.ErrorIs(t, err, ErrReasonTooShort)
	_, err = svc.ForceAllow(context.Background(), Request{TicketID: id, Reason: "ééééé", AdminName: "Ravi"})
	assert.ErrorIs(t, err, ErrReasonTooShort)
	_, err = svc.ResetEntry(context.Background(), Request{TicketID: id, Reason: "phone died at gate", AdminName: "é"})
	assert.ErrorIs(t, err, ErrAdminNameTooShort)
	assert.Empty(t, f.calls)

	_, err = svc.ForceAllow(context.Background(), Request{TicketID: id, Reason: "1234567890", AdminName: "Jo"})
	require.NoError(t, err)
	_, err = svc.ResetEntry(context.Background(), Request{TicketID: id, Reason: "éééééééééé", AdminName: "Zé"})
	require.NoError(t, err)
	require.Len(t, f.calls, 2)
	assert.Equal(t, "éééééééééé", f.calls[1].reason)
}

func TestForceAllowDayZeroMeansDayOne(t *testing.T) {
	f := &fakeProcs{res: Result{Success: true}}
	svc := NewService(f, nil)

	_, err := svc.ForceAllow(context.Background(), Request{TicketID: uuid.New(), Day: intp(0), Reason: "phone died at gate", AdminName: "Ravi"})
	require.NoError(t, err)
	require.Len(t, f.calls, 1)
	assert.Equal(t, Day1, f.calls[0].day)
}

func TestDayDefaultsAndTrimming(t *testing.T) {
	f := &fakeProcs{res: Result{Success: true, Message: "ok"}}
	svc := NewService(f, nil)
	id := uuid.New()

	_, err := svc.ForceAllow(context.Background(), Request{TicketID: id, Reason: "  scanner was offline  ", AdminName: " Ravi "})
	require.NoError(t, err)
	_, err = svc.ResetEntry(context.Background(), Request{TicketID: id, Reason: "wrongly marked entry", AdminName: "Ravi"})
	require.NoError(t, err)
	_, err = svc.ResetEntry(context.Background(), Request{TicketID: id, Day: intp(2), Reason: "wrongly marked entry", AdminName: "Ravi"})
	require.NoError(t, err)

	require.Len(t, f.calls, 3)
	assert.Equal(t, call{"force_allow", 1, "scanner was offline", "Ravi"}, f.calls[0])
	assert.Equal(t, 0, f.calls[1].day)
	assert.Equal(t, 2, f.calls[2].day)
}

func TestProcedureFailureMessages(t *testing.T) {
	f := &fakeProcs{err: errors.New("conn reset")}
	svc := NewService(f, nil)
	req := Request{TicketID: uuid.New(), Reason: "scanner was offline", AdminName: "Ravi"}

	res, err := svc.ForceAllow(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, Result{Success: false, Message: "Override failed. Check connection."}, res)

	res, err = svc.ResetEntry(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "Reset failed. Check connection.", res.Message)

	assert.NotNil(t, svc.Logs(context.Background(), req.TicketID))
	assert.Empty(t, svc.Logs(context.Background(), req.TicketID))
}

func TestServerMessageSurfacedVerbatim(t *testing.T) {
	f := &fakeProcs{res: Result{Success: false, Message: "Ticket is revoked"}}
	svc := NewService(f, nil)
	res, err := svc.ForceAllow(context.Background(), Request{TicketID: uuid.New(), Reason: "scanner was offline", AdminName: "Ravi"})
	require.NoError(t, err)
	assert.Equal(t, "Ticket is revoked", res.Message)
}

func TestHandlerStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := &fakeProcs{res: Result{Success: true, Message: "Entry allowed for day 1"}}
	h := NewHandler(NewService(f, nil))
	r := gin.New()
	r.POST("/admin/tickets/:id/force-allow", h.ForceAllow)
	r.POST("/admin/tickets/:id/reset", h.Reset)
	r.GET("/admin/tickets/:id/logs", h.Logs)

	post := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}
	id := uuid.NewString()

	w := post("/admin/tickets/"+id+"/force-allow", `{"reason":"scanner was offline","admin_name":"Ravi"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Entry allowed for day 1")

	w = post("/admin/tickets/"+id+"/reset", `{"reason":"short","admin_name":"Ravi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Reason must be at least 10 characters")

	assert.Equal(t, http.StatusBadRequest, post("/admin/tickets/nope/reset", `{}`).Code)

	f.res = Result{Success: false, Message: "Already entered"}
	assert.Equal(t, http.StatusConflict, post("/admin/tickets/"+id+"/force-allow", `{"reason":"scanner was offline","admin_name":"Ravi"}`).Code)

	f.err = errors.New("down")
	assert.Equal(t, http.StatusBadGateway, post("/admin/tickets/"+id+"/force-allow", `{"reason":"scanner was offline","admin_name":"Ravi"}`).Code)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin/tickets/"+id+"/logs", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
}
