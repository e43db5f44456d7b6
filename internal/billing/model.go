package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus tracks whether an invoice still carries a balance.
type InvoiceStatus string

const (
	StatusUnpaid InvoiceStatus = "unpaid"
	StatusPaid   InvoiceStatus = "paid"
	StatusVoid   InvoiceStatus = "void"
)

// Invoice is a billed amount with a due date. The reminder dispatcher
// treats "due date in the past AND unpaid AND balance outstanding" as
// its due predicate.
type Invoice struct {
	ID           uuid.UUID     `json:"id"`
	PatientID    uuid.UUID     `json:"patient_id"`
	AmountCents  int64         `json:"amount_cents"`
	BalanceCents int64         `json:"balance_cents"`
	DueDate      time.Time     `json:"due_date"`
	Status       InvoiceStatus `json:"status"`
	IssuedAt     time.Time     `json:"issued_at"`
	PaidAt       *time.Time    `json:"paid_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// DueAsOf reports whether the invoice needs a payment reminder when
// evaluated on asOf's calendar day in the given timezone.
func (i *Invoice) DueAsOf(asOf time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	if i.Status != StatusUnpaid || i.BalanceCents <= 0 {
		return false
	}
	local := asOf.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return i.DueDate.Before(dayStart)
}

var (
	// ErrNotFound is returned when the referenced invoice does not exist.
	ErrNotFound = errors.New("billing: invoice not found")

	// ErrForbidden is returned when the caller may not manage invoices.
	ErrForbidden = errors.New("billing: operation not permitted for caller")

	// ErrInvalidAmount is returned for non-positive invoice amounts.
	ErrInvalidAmount = errors.New("billing: amount must be positive")

	// ErrMissingDueDate is returned when no due date is given.
	ErrMissingDueDate = errors.New("billing: due date is required")
)
