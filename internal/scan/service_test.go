package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validateCall struct{ token, gate, device string }

type fakeValidator struct {
	calls []validateCall
	raw   []byte
	err   error
}

func (f *fakeValidator) ValidateScan(_ context.Context, token, gate, device string) ([]byte, error) {
	f.calls = append(f.calls, validateCall{token, gate, device})
	return f.raw, f.err
}

type fakeLookup struct {
	tokens  map[string]string
	lookups []string
	err     error
}

func (f *fakeLookup) TokenByCode(_ context.Context, code string) (string, bool, error) {
	f.lookups = append(f.lookups, code)
	if f.err != nil {
		return "", false, f.err
	}
	tok, ok := f.tokens[code]
	return tok, ok, nil
}

type recorder struct{ events []Event }

func (r *recorder) PublishScan(ev Event) { r.events = append(r.events, ev) }

var gate = Station{Gate: "CONFERENCE", Device: "Scanner-1"}

func TestVerifyCode_GuardRejectsWithoutCalls(t *testing.T) {
	v := &fakeValidator{}
	l := &fakeLookup{}
	svc := NewService(v, l, nil, nil)

	for _, code := range []string{"12345", "abcdef", "1234567", ""} {
		out := svc.VerifyCode(context.Background(), gate, code)
		assert.Equal(t, KindInvalidInput, out.Kind(), code)
		assert.Equal(t, ReasonTicketNotFound, out.Reason())
		assert.Equal(t, "Code must be 6 digits", out.Message())
	}
	assert.Empty(t, l.lookups)
	assert.Empty(t, v.calls)
}

func TestVerifyCode_Flow(t *testing.T) {
	v := &fakeValidator{raw: []byte(`{"allowed":true,"reason":"VALID","name":"Asha"}`)}
	l := &fakeLookup{tokens: map[string]string{"568789": "tok-abcdef", "111111": "  "}}
	pub := &recorder{}
	svc := NewService(v, l, pub, nil)

	out := svc.VerifyCode(context.Background(), gate, " 568789 ")
	assert.True(t, out.IsAllowed())
	require.Len(t, v.calls, 1)
	assert.Equal(t, validateCall{"tok-abcdef", "CONFERENCE", "Scanner-1"}, v.calls[0])
	require.Len(t, pub.events, 1)
	assert.Equal(t, "code", pub.events[0].Method)

	out = svc.VerifyCode(context.Background(), gate, "999999")
	assert.Equal(t, KindRejected, out.Kind())
	assert.Equal(t, "Invalid code — ticket not found", out.Message())

	out = svc.VerifyCode(context.Background(), gate, "111111")
	assert.Equal(t, KindFailed, out.Kind())
	assert.Equal(t, "Ticket has no QR token. Please contact admin.", out.Message())

	assert.Len(t, v.calls, 1)
}

func TestVerifyQRToken(t *testing.T) {
	v := &fakeValidator{raw: []byte(`{"allowed":false,"reason":"WRONG_GATE","message":"Use event gate"}`)}
	svc := NewService(v, &fakeLookup{}, nil, nil)

	out := svc.VerifyQRToken(context.Background(), gate, " ab ")
	assert.Equal(t, KindInvalidInput, out.Kind())
	assert.Equal(t, "Invalid QR code format", out.Message())
	out = svc.VerifyQRToken(context.Background(), gate, "éé")
	assert.Equal(t, KindInvalidInput, out.Kind())
	assert.Empty(t, v.calls)

	out = svc.VerifyQRToken(context.Background(), gate, "  tok-abcdef\n")
	assert.Equal(t, ReasonWrongGate, out.Reason())
	require.Len(t, v.calls, 1)
	assert.Equal(t, "tok-abcdef", v.calls[0].token)

	v.err = errors.New("connection refused")
	out = svc.VerifyQRToken(context.Background(), gate, "tok-abcdef")
	assert.Equal(t, KindFailed, out.Kind())
	assert.Equal(t, ReasonError, out.Reason())
	assert.Equal(t, "Verification failed. Please try again.", out.Message())

	v.err = nil
	v.raw = []byte(`{"allowed":true,"reason":"WRONG_GATE"}`)
	out = svc.VerifyQRToken(context.Background(), gate, "tok-abcdef")
	assert.Equal(t, KindFailed, out.Kind())
}

func TestVerify_Dispatch(t *testing.T) {
	v := &fakeValidator{raw: []byte(`{"allowed":true}`)}
	l := &fakeLookup{tokens: map[string]string{"568789": "tok-abcdef"}}
	pub := &recorder{}
	svc := NewService(v, l, pub, nil)

	svc.Verify(context.Background(), gate, "568789")
	svc.Verify(context.Background(), gate, "tok-zzzzzz")

	assert.Equal(t, []string{"568789"}, l.lookups)
	require.Len(t, v.calls, 2)
	assert.Equal(t, "tok-zzzzzz", v.calls[1].token)
	assert.Equal(t, "code", pub.events[0].Method)
	assert.Equal(t, "qr", pub.events[1].Method)
}

func TestVerifyCode_LookupError(t *testing.T) {
	svc := NewService(&fakeValidator{}, &fakeLookup{err: errors.New("timeout")}, nil, nil)
	out := svc.VerifyCode(context.Background(), gate, "568789")
	assert.Equal(t, KindFailed, out.Kind())
}
