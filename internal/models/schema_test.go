package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileTicketColumns(t *testing.T) {
	t.Run("canonical", func(t *testing.T) {
		r := ReconcileTicketColumns([]string{"id", "code_6_digit", "status", "qr_token"})
		assert.True(t, r.Consistent())
		assert.True(t, r.Canonical())
	})

	t.Run("legacy", func(t *testing.T) {
		r := ReconcileTicketColumns([]string{"id", "six_digit_code", "ticket_status"})
		assert.True(t, r.Consistent())
		assert.False(t, r.Canonical())
		assert.Equal(t, []string{ColumnLegacyCode}, r.CodeColumns)
	})

	t.Run("both namings", func(t *testing.T) {
		r := ReconcileTicketColumns([]string{"code_6_digit", "six_digit_code", "status", "ticket_status"})
		assert.False(t, r.Consistent())
		assert.Equal(t, []string{"code", "status"}, r.Conflicts)
	})

	t.Run("missing", func(t *testing.T) {
		r := ReconcileTicketColumns([]string{"id", "status"})
		assert.Equal(t, []string{"code"}, r.Missing)
		assert.False(t, r.Canonical())
	})
}

func TestTicketCategoryName(t *testing.T) {
	tk := &Ticket{Category: 3}
	assert.Equal(t, "General (1-Day)", tk.CategoryName())
	tk.Category = 9
	assert.Empty(t, tk.CategoryName())
}

func TestRegistrationPaid(t *testing.T) {
	assert.True(t, (&Registration{PaymentStatus: "paid"}).Paid())
	assert.False(t, (&Registration{}).Paid())
	assert.False(t, (&Registration{PaymentStatus: "pending"}).Paid())
}
