package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func unpaidInvoice(due time.Time) Invoice {
	return Invoice{
		ID:           uuid.New(),
		PatientID:    uuid.New(),
		AmountCents:  10000,
		BalanceCents: 10000,
		DueDate:      due,
		Status:       StatusUnpaid,
	}
}

func TestDueAsOf(t *testing.T) {
	// Evaluated on 2025-03-10.
	asOf := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	overdue := unpaidInvoice(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))
	assert.True(t, overdue.DueAsOf(asOf, time.UTC))

	dueToday := unpaidInvoice(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	assert.False(t, dueToday.DueAsOf(asOf, time.UTC), "due today is not yet overdue")

	future := unpaidInvoice(time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC))
	assert.False(t, future.DueAsOf(asOf, time.UTC))
}

func TestDueAsOfExcludesSettledInvoices(t *testing.T) {
	asOf := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	paid := unpaidInvoice(due)
	paid.Status = StatusPaid
	paid.BalanceCents = 0
	assert.False(t, paid.DueAsOf(asOf, time.UTC))

	void := unpaidInvoice(due)
	void.Status = StatusVoid
	assert.False(t, void.DueAsOf(asOf, time.UTC))

	zeroBalance := unpaidInvoice(due)
	zeroBalance.BalanceCents = 0
	assert.False(t, zeroBalance.DueAsOf(asOf, time.UTC))
}
