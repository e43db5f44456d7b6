package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/oakpoint-health/clinic-ops/internal/auth"
	"github.com/oakpoint-health/clinic-ops/pkg/logging"
)

var tracer = otel.Tracer("clinicops.internal.billing")

// Notifier receives the invoice-issued side effect. Delivery is
// best-effort and never blocks invoice creation.
type Notifier interface {
	InvoiceIssued(ctx context.Context, inv *Invoice)
}

// Service issues invoices and records payments.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *logging.Logger
	now      func() time.Time
}

// NewService constructs a billing service.
func NewService(repo Repository, notifier Notifier, logger *logging.Logger) *Service {
	if repo == nil {
		panic("billing: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// IssueInput carries a new invoice.
type IssueInput struct {
	PatientID   uuid.UUID
	AmountCents int64
	DueDate     time.Time
}

// Issue creates an unpaid invoice and fires the immediate payment notice.
func (s *Service) Issue(ctx context.Context, actor auth.Actor, in IssueInput) (*Invoice, error) {
	ctx, span := tracer.Start(ctx, "billing.issue")
	defer span.End()
	span.SetAttributes(attribute.String("clinicops.patient_id", in.PatientID.String()))

	if !auth.Can(actor.Role, auth.ActionIssueInvoice) {
		return nil, ErrForbidden
	}
	if in.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.DueDate.IsZero() {
		return nil, ErrMissingDueDate
	}

	now := s.now().UTC()
	inv := &Invoice{
		ID:           uuid.New(),
		PatientID:    in.PatientID,
		AmountCents:  in.AmountCents,
		BalanceCents: in.AmountCents,
		DueDate:      in.DueDate,
		Status:       StatusUnpaid,
		IssuedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.Info("invoice issued", "id", inv.ID, "patient_id", inv.PatientID, "amount_cents", inv.AmountCents)

	if s.notifier != nil {
		s.notifier.InvoiceIssued(ctx, inv)
	}
	return inv, nil
}

// Get fetches an invoice. Patients may only read their own.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == auth.RolePatient && actor.ID != inv.PatientID {
		return nil, ErrForbidden
	}
	return inv, nil
}

// MarkPaid settles an invoice.
func (s *Service) MarkPaid(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Invoice, error) {
	ctx, span := tracer.Start(ctx, "billing.mark_paid")
	defer span.End()

	if !auth.IsStaff(actor.Role) {
		return nil, ErrForbidden
	}
	inv, err := s.repo.MarkPaid(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info("invoice paid", "id", inv.ID)
	return inv, nil
}
