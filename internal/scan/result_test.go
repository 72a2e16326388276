package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReason(t *testing.T) {
	r, ok := ParseReason("already_used")
	assert.True(t, ok)
	assert.Equal(t, ReasonAlreadyUsedToday, r)

	r, ok = ParseReason("INVALID_TICKET")
	assert.True(t, ok)
	assert.Equal(t, ReasonTicketNotFound, r)

	for _, want := range Reasons {
		got, ok := ParseReason(string(want))
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok = ParseReason("SOLAR_FLARE")
	assert.False(t, ok)
}

func TestDecode(t *testing.T) {
	t.Run("allowed with nested ticket", func(t *testing.T) {
		out, err := Decode([]byte(`{"allowed":true,"reason":"VALID","message":"Welcome","ticket":{"name":"Asha","code_6_digit":"568789","category":3}}`))
		require.NoError(t, err)
		a, ok := out.(Allowed)
		require.True(t, ok)
		assert.Equal(t, "Asha", a.Ticket.Name)
		assert.Equal(t, 3, a.Ticket.Category)
		assert.True(t, out.IsAllowed())
	})

	t.Run("allowed with flat fields and legacy ticketType", func(t *testing.T) {
		out, err := Decode([]byte(`{"allowed":true,"name":"Ravi","ticketType":"combo"}`))
		require.NoError(t, err)
		a := out.(Allowed)
		assert.Equal(t, "Ravi", a.Ticket.Name)
		assert.Equal(t, "combo", a.Ticket.TicketType)
	})

	t.Run("rejected keeps last_used_at", func(t *testing.T) {
		out, err := Decode([]byte(`{"allowed":false,"reason":"ALREADY_USED","message":"Used","name":"Asha","last_used_at":"2026-02-20T10:00:00Z"}`))
		require.NoError(t, err)
		r, ok := out.(Rejected)
		require.True(t, ok)
		assert.Equal(t, ReasonAlreadyUsedToday, r.Code)
		require.NotNil(t, r.Ticket)
		require.NotNil(t, r.Ticket.LastUsedAt)
	})

	t.Run("rejected without ticket", func(t *testing.T) {
		out, err := Decode([]byte(`{"allowed":false,"reason":"TICKET_NOT_FOUND","message":"Not found"}`))
		require.NoError(t, err)
		assert.Nil(t, out.(Rejected).Ticket)
	})

	t.Run("error reason is a failure", func(t *testing.T) {
		out, err := Decode([]byte(`{"allowed":false,"reason":"ERROR","message":"boom"}`))
		require.NoError(t, err)
		assert.Equal(t, KindFailed, out.Kind())
	})

	t.Run("unknown reason", func(t *testing.T) {
		out, err := Decode([]byte(`{"allowed":false,"reason":"SOLAR_FLARE"}`))
		require.NoError(t, err)
		assert.Equal(t, ReasonError, out.Reason())
		assert.Equal(t, KindRejected, out.Kind())
		assert.Contains(t, out.Message(), "SOLAR_FLARE")
	})

	t.Run("inconsistent documents", func(t *testing.T) {
		_, err := Decode([]byte(`{"allowed":true,"reason":"WRONG_GATE"}`))
		assert.Error(t, err)
		_, err = Decode([]byte(`{"allowed":false,"reason":"VALID"}`))
		assert.Error(t, err)
		_, err = Decode([]byte(`not json`))
		assert.Error(t, err)
	})
}

func TestViewOf(t *testing.T) {
	v := ViewOf(Allowed{Msg: "ok", Ticket: Snapshot{Name: "Asha"}})
	assert.True(t, v.Allowed)
	assert.Equal(t, ReasonValid, v.Reason)
	require.NotNil(t, v.Ticket)

	v = ViewOf(InvalidInput{Code: ReasonTicketNotFound, Msg: "Code must be 6 digits"})
	assert.Equal(t, KindInvalidInput, v.Kind)
	assert.Nil(t, v.Ticket)
}

func TestDisplayFor(t *testing.T) {
	names := map[int]string{4: "General Combo"}

	d := DisplayFor(Allowed{Ticket: Snapshot{Category: 4}}, names)
	assert.Equal(t, "ENTRY ALLOWED", d.Headline)
	assert.Equal(t, "allowed", d.Tone)
	assert.Equal(t, "General Combo", d.CategoryName)
	assert.Equal(t, int64(6000), d.AutoDismissMs)

	d = DisplayFor(InvalidInput{Code: ReasonTicketNotFound, Msg: "Code must be 6 digits"}, names)
	assert.Equal(t, "INVALID TICKET", d.Headline)
	assert.Equal(t, "Code must be 6 digits", d.Hint)

	for _, r := range Reasons {
		assert.NotEqual(t, "REJECTED", Headline(r), r)
		assert.NotEmpty(t, Hint(r), r)
	}
	assert.Equal(t, "REJECTED", Headline("SOLAR_FLARE"))
}
