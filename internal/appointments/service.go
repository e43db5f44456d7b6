package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/oakpoint-health/clinic-ops/internal/auth"
	"github.com/oakpoint-health/clinic-ops/internal/observability/metrics"
	"github.com/oakpoint-health/clinic-ops/internal/schedlock"
	"github.com/oakpoint-health/clinic-ops/pkg/logging"
)

var tracer = otel.Tracer("clinicops.internal.appointments")

// Notifier receives lifecycle side effects. Implementations must treat
// delivery as best-effort: a failed notification never blocks or rolls
// back the state transition.
type Notifier interface {
	AppointmentApproved(ctx context.Context, appt *Appointment)
}

// Service is the appointment lifecycle state machine. Every mutating
// operation validates the candidate time with the shared TimePolicy and
// consults the conflict detector under a per-provider lock before
// accepting a time-bearing transition.
type Service struct {
	repo     Repository
	locks    schedlock.ProviderLocker
	policy   TimePolicy
	notifier Notifier
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewService constructs the lifecycle service.
func NewService(repo Repository, locks schedlock.ProviderLocker, policy TimePolicy, notifier Notifier, m *metrics.SchedulingMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if locks == nil {
		locks = schedlock.NewMutexLocker()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		locks:    locks,
		policy:   policy,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Tests use this to pin "now".
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// CreateInput carries a booking request.
type CreateInput struct {
	PatientID   uuid.UUID
	ProviderID  uuid.UUID
	BranchID    *uuid.UUID
	ScheduledAt time.Time
	Reason      string
}

// Create books a new appointment. Staff with direct-booking authority
// create it approved; patient self-service requests start pending.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinicops.provider_id", in.ProviderID.String()),
		attribute.String("clinicops.actor_role", string(actor.Role)),
	)

	if actor.Role == auth.RolePatient && actor.ID != in.PatientID {
		return nil, ErrForbidden
	}
	if in.PatientID == uuid.Nil || in.ProviderID == uuid.Nil {
		return nil, newValidationError("patient_id/provider_id", "must be set")
	}
	if err := s.policy.ValidateTime(s.now(), in.ScheduledAt); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, in.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("appointments: lock provider schedule: %w", err)
	}
	defer unlock()

	conflict, err := s.hasConflict(ctx, in.ProviderID, in.ScheduledAt, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		s.metrics.ObserveConflict()
		return nil, newValidationError("scheduled_at", "conflicts with an existing booking for this provider")
	}

	now := s.now().UTC()
	appt := &Appointment{
		ID:            uuid.New(),
		PatientID:     in.PatientID,
		ProviderID:    in.ProviderID,
		BranchID:      in.BranchID,
		ScheduledAt:   in.ScheduledAt,
		Status:        StatusPending,
		Reason:        in.Reason,
		CreatedBy:     actor.ID,
		CreatedByRole: actor.Role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	origin := "patient"
	if auth.Can(actor.Role, auth.ActionBookDirect) {
		appt.Status = StatusApproved
		appt.ApprovedBy = &actor.ID
		appt.ApprovedAt = &now
		origin = "staff"
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}
	s.metrics.ObserveBooking(origin, string(appt.Status))
	s.logger.Info("appointment created",
		"id", appt.ID,
		"provider_id", appt.ProviderID,
		"status", appt.Status,
		"origin", origin,
	)

	if appt.Status == StatusApproved {
		s.fireApproved(ctx, appt)
	}
	return appt, nil
}

// Approve confirms a pending appointment: clears any rejection reason,
// stamps the approver, and fires the confirmation side effects.
func (s *Service) Approve(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.approve")
	defer span.End()

	if !auth.Can(actor.Role, auth.ActionApprove) {
		return nil, ErrForbidden
	}
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusPending {
		return nil, newValidationError("status", fmt.Sprintf("cannot approve a %s appointment", appt.Status))
	}

	now := s.now().UTC()
	appt.Status = StatusApproved
	appt.RejectionReason = ""
	appt.ApprovedBy = &actor.ID
	appt.ApprovedAt = &now
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.logger.Info("appointment approved", "id", appt.ID, "approved_by", actor.ID)

	s.fireApproved(ctx, appt)
	return appt, nil
}

// Get fetches a single appointment. Patients may only read their own.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == auth.RolePatient && actor.ID != appt.PatientID {
		return nil, ErrForbidden
	}
	return appt, nil
}

// Reject declines a pending appointment with a reason.
func (s *Service) Reject(ctx context.Context, actor auth.Actor, id uuid.UUID, reason string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.reject")
	defer span.End()

	if !auth.Can(actor.Role, auth.ActionReject) {
		return nil, ErrForbidden
	}
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusPending {
		return nil, newValidationError("status", fmt.Sprintf("cannot reject a %s appointment", appt.Status))
	}

	if reason == "" {
		reason = DefaultRejectionReason
	}
	appt.Status = StatusRejected
	appt.RejectionReason = reason
	appt.ApprovedBy = nil
	appt.ApprovedAt = nil
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.logger.Info("appointment rejected", "id", appt.ID, "reason", reason)
	return appt, nil
}

// Reschedule moves a non-terminal appointment to a new time. The
// appointment keeps its current status; its own slot is excluded from
// the conflict scan.
func (s *Service) Reschedule(ctx context.Context, actor auth.Actor, id uuid.UUID, newTime time.Time) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.reschedule")
	defer span.End()

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == auth.RolePatient && actor.ID != appt.PatientID {
		return nil, ErrForbidden
	}
	if appt.Status.Terminal() {
		return nil, newValidationError("status", fmt.Sprintf("cannot reschedule a %s appointment", appt.Status))
	}
	if err := s.policy.ValidateTime(s.now(), newTime); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, appt.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("appointments: lock provider schedule: %w", err)
	}
	defer unlock()

	conflict, err := s.hasConflict(ctx, appt.ProviderID, newTime, appt.ID)
	if err != nil {
		return nil, err
	}
	if conflict {
		s.metrics.ObserveConflict()
		return nil, newValidationError("scheduled_at", "conflicts with an existing booking for this provider")
	}

	appt.ScheduledAt = newTime
	if appt.Status == StatusApproved && auth.Can(actor.Role, auth.ActionApprove) {
		now := s.now().UTC()
		appt.ApprovedBy = &actor.ID
		appt.ApprovedAt = &now
	}
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.logger.Info("appointment rescheduled", "id", appt.ID, "scheduled_at", newTime)
	return appt, nil
}

// Cancel moves a non-terminal appointment to cancelled. The booking
// patient or staff may cancel; no notification is defined.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.cancel")
	defer span.End()

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == auth.RolePatient && actor.ID != appt.PatientID {
		return nil, ErrForbidden
	}
	if appt.Status.Terminal() {
		return nil, newValidationError("status", fmt.Sprintf("cannot cancel a %s appointment", appt.Status))
	}

	appt.Status = StatusCancelled
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.logger.Info("appointment cancelled", "id", appt.ID, "by", actor.ID)
	return appt, nil
}

// SetStatus is the administrative override: staff may move a
// non-terminal appointment to any status, including completed and
// no-show after the visit.
func (s *Service) SetStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, status Status) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.set_status")
	defer span.End()

	if !auth.Can(actor.Role, auth.ActionOverrideStatus) {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, newValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, newValidationError("status", fmt.Sprintf("appointment is already %s", appt.Status))
	}

	appt.Status = status
	if status == StatusApproved {
		now := s.now().UTC()
		appt.ApprovedBy = &actor.ID
		appt.ApprovedAt = &now
		appt.RejectionReason = ""
	}
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.logger.Info("appointment status set", "id", appt.ID, "status", status, "by", actor.ID)
	return appt, nil
}

// FreeSlots enumerates the provider's open half-hour slots on a day.
func (s *Service) FreeSlots(ctx context.Context, providerID uuid.UUID, day time.Time) ([]time.Time, error) {
	dayStart, dayEnd := s.policy.dayBounds(day)
	// Widen the scan so bookings just outside the day still block edge slots.
	from := dayStart.Add(-s.policy.ConflictWindow)
	to := dayEnd.Add(s.policy.ConflictWindow)

	existing, err := s.repo.ListForProviderBetween(ctx, providerID, from, to)
	if err != nil {
		return nil, err
	}
	var booked []time.Time
	for _, a := range existing {
		if a.Status.Terminal() {
			continue
		}
		booked = append(booked, a.ScheduledAt)
	}
	return s.policy.FreeSlots(day, booked), nil
}

// hasConflict reports whether another non-terminal appointment for the
// provider falls inside the conflict window around t. excludeID keeps a
// reschedule from colliding with its own row.
func (s *Service) hasConflict(ctx context.Context, providerID uuid.UUID, t time.Time, excludeID uuid.UUID) (bool, error) {
	from := t.Add(-s.policy.ConflictWindow)
	to := t.Add(s.policy.ConflictWindow)
	existing, err := s.repo.ListForProviderBetween(ctx, providerID, from, to)
	if err != nil {
		return false, fmt.Errorf("appointments: conflict scan: %w", err)
	}
	for _, a := range existing {
		if a.ID == excludeID {
			continue
		}
		if a.Status.Terminal() {
			continue
		}
		if s.policy.InConflictWindow(a.ScheduledAt, t) {
			return true, nil
		}
	}
	return false, nil
}

// fireApproved hands the approved appointment to the notifier. Failures
// there are logged by the notifier itself; nothing propagates back.
func (s *Service) fireApproved(ctx context.Context, appt *Appointment) {
	if s.notifier == nil {
		return
	}
	s.notifier.AppointmentApproved(ctx, appt)
}
