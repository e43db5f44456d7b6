package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakpoint-health/clinic-ops/internal/auth"
)

type captureNotifier struct {
	issued []*Invoice
}

func (n *captureNotifier) InvoiceIssued(ctx context.Context, inv *Invoice) {
	n.issued = append(n.issued, inv)
}

func receptionist() auth.Actor {
	return auth.Actor{ID: uuid.New(), Role: auth.RoleReceptionist}
}

func TestIssueCreatesUnpaidInvoiceAndNotifies(t *testing.T) {
	repo := NewInMemoryRepository(time.UTC)
	notifier := &captureNotifier{}
	svc := NewService(repo, notifier, nil)

	inv, err := svc.Issue(context.Background(), receptionist(), IssueInput{
		PatientID:   uuid.New(),
		AmountCents: 25000,
		DueDate:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusUnpaid, inv.Status)
	assert.Equal(t, int64(25000), inv.BalanceCents, "balance starts equal to amount")
	require.Len(t, notifier.issued, 1, "issuing fires the immediate payment notice")
}

func TestIssueValidation(t *testing.T) {
	repo := NewInMemoryRepository(time.UTC)
	svc := NewService(repo, nil, nil)
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Issue(context.Background(), receptionist(), IssueInput{PatientID: uuid.New(), AmountCents: 0, DueDate: due})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Issue(context.Background(), receptionist(), IssueInput{PatientID: uuid.New(), AmountCents: -50, DueDate: due})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Issue(context.Background(), receptionist(), IssueInput{PatientID: uuid.New(), AmountCents: 100})
	assert.ErrorIs(t, err, ErrMissingDueDate)
}

func TestIssueForbiddenForPatientsAndDoctors(t *testing.T) {
	repo := NewInMemoryRepository(time.UTC)
	svc := NewService(repo, nil, nil)
	in := IssueInput{
		PatientID:   uuid.New(),
		AmountCents: 100,
		DueDate:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := svc.Issue(context.Background(), auth.Actor{ID: uuid.New(), Role: auth.RolePatient}, in)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Issue(context.Background(), auth.Actor{ID: uuid.New(), Role: auth.RoleDoctor}, in)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMarkPaidClearsBalance(t *testing.T) {
	repo := NewInMemoryRepository(time.UTC)
	svc := NewService(repo, nil, nil)

	inv, err := svc.Issue(context.Background(), receptionist(), IssueInput{
		PatientID:   uuid.New(),
		AmountCents: 5000,
		DueDate:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), receptionist(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	assert.Zero(t, paid.BalanceCents)
	assert.NotNil(t, paid.PaidAt)

	// Settled invoices drop out of the due scan.
	due, err := repo.ListDueBefore(context.Background(), time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestMarkPaidForbiddenForPatients(t *testing.T) {
	repo := NewInMemoryRepository(time.UTC)
	svc := NewService(repo, nil, nil)

	_, err := svc.MarkPaid(context.Background(), auth.Actor{ID: uuid.New(), Role: auth.RolePatient}, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetPatientOwnOnly(t *testing.T) {
	repo := NewInMemoryRepository(time.UTC)
	svc := NewService(repo, nil, nil)
	patientID := uuid.New()

	inv, err := svc.Issue(context.Background(), receptionist(), IssueInput{
		PatientID:   patientID,
		AmountCents: 100,
		DueDate:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, inv.ID)
	assert.NoError(t, err)
	_, err = svc.Get(context.Background(), auth.Actor{ID: uuid.New(), Role: auth.RolePatient}, inv.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
