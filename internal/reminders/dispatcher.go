package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oakpoint-health/clinic-ops/internal/appointments"
	"github.com/oakpoint-health/clinic-ops/internal/billing"
	"github.com/oakpoint-health/clinic-ops/internal/notify"
	"github.com/oakpoint-health/clinic-ops/internal/observability/metrics"
	"github.com/oakpoint-health/clinic-ops/pkg/logging"
)

// AppointmentSource lists appointments needing day-of reminders.
type AppointmentSource interface {
	ListScheduledOn(ctx context.Context, dayStart, dayEnd time.Time, statuses []appointments.Status) ([]appointments.Appointment, error)
}

// InvoiceSource lists overdue unpaid invoices.
type InvoiceSource interface {
	ListDueBefore(ctx context.Context, asOf time.Time) ([]billing.Invoice, error)
}

// ContactDirectory resolves patient contact info and provider display names.
type ContactDirectory interface {
	PatientContact(ctx context.Context, patientID uuid.UUID) (notify.Contact, error)
	ProviderName(ctx context.Context, providerID uuid.UUID) (string, error)
}

// Dispatcher resolves which appointments and invoices need a reminder
// at a given evaluation time and emits notification requests. The bulk
// scans are pure with respect to their inputs: no sent marker is kept,
// each run simply re-evaluates the due predicate.
type Dispatcher struct {
	appts    AppointmentSource
	invoices InvoiceSource
	dir      ContactDirectory
	notifier *notify.Service
	loc      *time.Location
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
}

// NewDispatcher creates a reminder dispatcher.
func NewDispatcher(appts AppointmentSource, invoices InvoiceSource, dir ContactDirectory, notifier *notify.Service, loc *time.Location, m *metrics.SchedulingMetrics, logger *logging.Logger) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		appts:    appts,
		invoices: invoices,
		dir:      dir,
		notifier: notifier,
		loc:      loc,
		metrics:  m,
		logger:   logger,
	}
}

// RunDailyAppointmentReminders scans for appointments scheduled on
// asOf's calendar day in an active status and sends each patient a
// reminder. Per-item failures are logged and skipped, never fatal.
// Returns the number of reminders successfully dispatched.
func (d *Dispatcher) RunDailyAppointmentReminders(ctx context.Context, asOf time.Time) (int, error) {
	start := time.Now()
	defer func() {
		d.metrics.ObserveScan("appointment", time.Since(start).Seconds())
	}()

	dayStart, dayEnd := d.dayBounds(asOf)
	due, err := d.appts.ListScheduledOn(ctx, dayStart, dayEnd, appointments.RemindableStatuses())
	if err != nil {
		return 0, fmt.Errorf("reminders: list due appointments: %w", err)
	}
	if len(due) == 0 {
		d.logger.Debug("reminders: no appointments due", "day", dayStart.Format(time.DateOnly))
		return 0, nil
	}

	d.logger.Info("reminders: processing due appointments", "count", len(due), "day", dayStart.Format(time.DateOnly))
	sent := 0
	for i := range due {
		a := &due[i]
		if err := d.remindAppointment(ctx, a); err != nil {
			d.metrics.ObserveReminder("appointment", "failed")
			d.logger.Error("reminders: appointment reminder failed", "id", a.ID, "error", err)
			continue
		}
		d.metrics.ObserveReminder("appointment", "sent")
		sent++
	}
	return sent, nil
}

// RunDailyPaymentReminders scans for overdue unpaid invoices and sends
// each patient a payment reminder.
func (d *Dispatcher) RunDailyPaymentReminders(ctx context.Context, asOf time.Time) (int, error) {
	start := time.Now()
	defer func() {
		d.metrics.ObserveScan("payment", time.Since(start).Seconds())
	}()

	due, err := d.invoices.ListDueBefore(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("reminders: list due invoices: %w", err)
	}
	if len(due) == 0 {
		d.logger.Debug("reminders: no invoices due")
		return 0, nil
	}

	d.logger.Info("reminders: processing overdue invoices", "count", len(due))
	sent := 0
	for i := range due {
		inv := &due[i]
		if err := d.remindInvoice(ctx, inv); err != nil {
			d.metrics.ObserveReminder("payment", "failed")
			d.logger.Error("reminders: payment reminder failed", "id", inv.ID, "error", err)
			continue
		}
		d.metrics.ObserveReminder("payment", "sent")
		sent++
	}
	return sent, nil
}

// AppointmentApproved is the ad hoc trigger fired by the lifecycle
// state machine: confirmation plus an immediate reminder for the one
// approved record. Failures are logged and swallowed; the state
// transition has already been persisted.
func (d *Dispatcher) AppointmentApproved(ctx context.Context, appt *appointments.Appointment) {
	details, err := d.appointmentDetails(ctx, appt)
	if err != nil {
		d.logger.Error("reminders: resolve approved appointment", "id", appt.ID, "error", err)
		return
	}
	if err := d.notifier.SendAppointmentConfirmation(ctx, details); err != nil {
		d.metrics.ObserveReminder("confirmation", "failed")
		d.logger.Error("reminders: confirmation failed", "id", appt.ID, "error", err)
	} else {
		d.metrics.ObserveReminder("confirmation", "sent")
	}
	if err := d.notifier.SendAppointmentReminder(ctx, details); err != nil {
		d.metrics.ObserveReminder("appointment", "failed")
		d.logger.Error("reminders: immediate reminder failed", "id", appt.ID, "error", err)
		return
	}
	d.metrics.ObserveReminder("appointment", "sent")
	d.logger.Info("reminders: registered for approved appointment",
		"id", appt.ID, "scheduled_at", appt.ScheduledAt)
}

// InvoiceIssued is the ad hoc trigger fired at invoice creation.
func (d *Dispatcher) InvoiceIssued(ctx context.Context, inv *billing.Invoice) {
	if err := d.remindInvoice(ctx, inv); err != nil {
		d.metrics.ObserveReminder("payment", "failed")
		d.logger.Error("reminders: invoice notice failed", "id", inv.ID, "error", err)
		return
	}
	d.metrics.ObserveReminder("payment", "sent")
}

func (d *Dispatcher) remindAppointment(ctx context.Context, a *appointments.Appointment) error {
	details, err := d.appointmentDetails(ctx, a)
	if err != nil {
		return err
	}
	return d.notifier.SendAppointmentReminder(ctx, details)
}

func (d *Dispatcher) remindInvoice(ctx context.Context, inv *billing.Invoice) error {
	contact, err := d.dir.PatientContact(ctx, inv.PatientID)
	if err != nil {
		return fmt.Errorf("resolve patient contact: %w", err)
	}
	return d.notifier.SendPaymentReminder(ctx, notify.InvoiceDetails{
		ID:           inv.ID,
		Patient:      contact,
		BalanceCents: inv.BalanceCents,
		DueDate:      inv.DueDate,
	})
}

func (d *Dispatcher) appointmentDetails(ctx context.Context, a *appointments.Appointment) (notify.AppointmentDetails, error) {
	contact, err := d.dir.PatientContact(ctx, a.PatientID)
	if err != nil {
		return notify.AppointmentDetails{}, fmt.Errorf("resolve patient contact: %w", err)
	}
	provider, err := d.dir.ProviderName(ctx, a.ProviderID)
	if err != nil {
		return notify.AppointmentDetails{}, fmt.Errorf("resolve provider name: %w", err)
	}
	return notify.AppointmentDetails{
		ID:           a.ID,
		Patient:      contact,
		ProviderName: provider,
		ScheduledAt:  a.ScheduledAt.In(d.loc),
	}, nil
}

func (d *Dispatcher) dayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(d.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.loc)
	return start, start.AddDate(0, 0, 1)
}
