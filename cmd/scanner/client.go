package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yatra-gate/backend/internal/auth"
	"github.com/yatra-gate/backend/internal/middleware"
	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/internal/overrides"
	"github.com/yatra-gate/backend/internal/scan"
	"github.com/yatra-gate/backend/internal/tickets"
)

// errBusy is returned when the server is still processing this device's
// previous scan.
var errBusy = errors.New("previous scan still in progress")

// envelope mirrors the server's {success, data, error} body.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// apiError is a non-2xx reply without a usable payload.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Message
}

// API talks to the check-in server on behalf of one gate device.
type API struct {
	base     string
	http     *http.Client
	token    string
	adminPin string
	session  auth.GateSession
}

// NewAPI creates a client for the server at base (e.g. http://localhost:8080).
func NewAPI(base string, timeout time.Duration) *API {
	return &API{base: base, http: &http.Client{Timeout: timeout}}
}

// SetAdminPin sets the PIN sent with override requests.
func (a *API) SetAdminPin(pin string) { a.adminPin = pin }

// Session returns the current gate session.
func (a *API) Session() auth.GateSession { return a.session }

// Login exchanges the gate password for a session token.
func (a *API) Login(ctx context.Context, password, device string) (auth.GateSession, error) {
	var s auth.GateSession
	_, err := a.do(ctx, http.MethodPost, "/auth/gate", auth.GateLoginRequest{Password: password, Device: device}, &s, false)
	if err != nil {
		return s, err
	}
	a.token = s.Token
	a.session = s
	return s, nil
}

// ScanQR verifies a scanned qr_token.
func (a *API) ScanQR(ctx context.Context, token string) (scan.Response, error) {
	return a.scan(ctx, "/scan/qr", scan.QRRequest{QRToken: token})
}

// ScanCode verifies a 6-digit code.
func (a *API) ScanCode(ctx context.Context, code string) (scan.Response, error) {
	return a.scan(ctx, "/scan/code", scan.CodeRequest{Code: code})
}

// scan returns the result for every reply that carries one, including 400
// (invalid input) and 502 (validator failure).
func (a *API) scan(ctx context.Context, path string, body any) (scan.Response, error) {
	var r scan.Response
	status, err := a.do(ctx, http.MethodPost, path, body, &r, false)
	if status == http.StatusConflict {
		return r, errBusy
	}
	var apiErr *apiError
	if errors.As(err, &apiErr) && r.Display.Headline != "" {
		return r, nil
	}
	return r, err
}

// Search runs the fallback ticket search.
func (a *API) Search(ctx context.Context, q string) ([]tickets.SearchResult, error) {
	var out []tickets.SearchResult
	_, err := a.do(ctx, http.MethodGet, "/tickets/search?q="+url.QueryEscape(q), nil, &out, false)
	return out, err
}

// ForceAllow asks the override procedure to admit a ticket.
func (a *API) ForceAllow(ctx context.Context, ticketID string, req overrides.ActionRequest) (overrides.Result, error) {
	return a.override(ctx, "/admin/tickets/"+url.PathEscape(ticketID)+"/force-allow", req)
}

// Reset asks the override procedure to clear a ticket's usage.
func (a *API) Reset(ctx context.Context, ticketID string, req overrides.ActionRequest) (overrides.Result, error) {
	return a.override(ctx, "/admin/tickets/"+url.PathEscape(ticketID)+"/reset", req)
}

func (a *API) override(ctx context.Context, path string, req overrides.ActionRequest) (overrides.Result, error) {
	var res overrides.Result
	_, err := a.do(ctx, http.MethodPost, path, req, &res, true)
	if err != nil && res.Message != "" {
		// refusals carry the procedure's message
		return res, nil
	}
	return res, err
}

// Logs lists the override audit trail for a ticket.
func (a *API) Logs(ctx context.Context, ticketID string) ([]models.OverrideLogEntry, error) {
	var out []models.OverrideLogEntry
	_, err := a.do(ctx, http.MethodGet, "/admin/tickets/"+url.PathEscape(ticketID)+"/logs", nil, &out, true)
	return out, err
}

// do sends a request and decodes the envelope's data into out, even for
// error replies. It returns the HTTP status.
func (a *API) do(ctx context.Context, method, path string, body, out any, admin bool) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, rd)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	if admin {
		req.Header.Set(middleware.HeaderAdminPin, a.adminPin)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, &apiError{Status: resp.StatusCode}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if resp.StatusCode >= 300 || !env.Success {
		return resp.StatusCode, &apiError{Status: resp.StatusCode, Message: env.Error}
	}
	return resp.StatusCode, nil
}
