package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oakpoint-health/clinic-ops/pkg/logging"
)

// Contact is the patient's resolved contact information. Either channel
// may be empty; the absent one is simply skipped.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// AppointmentDetails is everything needed to word an appointment message.
type AppointmentDetails struct {
	ID           uuid.UUID
	Patient      Contact
	ProviderName string
	ScheduledAt  time.Time
}

// InvoiceDetails is everything needed to word a payment reminder.
type InvoiceDetails struct {
	ID           uuid.UUID
	Patient      Contact
	BalanceCents int64
	DueDate      time.Time
}

// Service formats and sends patient notifications. Email and SMS are
// independent channels: failure on one never blocks the other, and the
// caller decides whether a combined failure matters.
type Service struct {
	email      EmailSender
	sms        SMSSender
	clinicName string
	logger     *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, sms SMSSender, clinicName string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, sms: sms, clinicName: clinicName, logger: logger}
}

// SendAppointmentConfirmation tells the patient their booking is confirmed.
func (s *Service) SendAppointmentConfirmation(ctx context.Context, d AppointmentDetails) error {
	when := d.ScheduledAt.Format("Monday, January 2 at 3:04 PM")
	subject := fmt.Sprintf("Appointment confirmed - %s", s.clinicName)
	body := fmt.Sprintf(`Hi %s,

Your appointment with %s is confirmed for %s.

If you need to reschedule or cancel, please contact us.

— %s`, patientName(d.Patient), d.ProviderName, when, s.clinicName)
	sms := fmt.Sprintf("%s: your appointment with %s is confirmed for %s.",
		s.clinicName, d.ProviderName, d.ScheduledAt.Format("Mon 1/2 3:04PM"))

	return s.sendBoth(ctx, d.Patient, subject, body, sms)
}

// SendAppointmentReminder reminds the patient of an upcoming visit.
func (s *Service) SendAppointmentReminder(ctx context.Context, d AppointmentDetails) error {
	when := d.ScheduledAt.Format("Monday, January 2 at 3:04 PM")
	subject := fmt.Sprintf("Appointment reminder - %s", s.clinicName)
	body := fmt.Sprintf(`Hi %s,

This is a reminder of your appointment with %s on %s.

— %s`, patientName(d.Patient), d.ProviderName, when, s.clinicName)
	sms := fmt.Sprintf("%s: reminder of your appointment with %s on %s.",
		s.clinicName, d.ProviderName, d.ScheduledAt.Format("Mon 1/2 3:04PM"))

	return s.sendBoth(ctx, d.Patient, subject, body, sms)
}

// SendPaymentReminder notifies the patient of an overdue balance.
func (s *Service) SendPaymentReminder(ctx context.Context, d InvoiceDetails) error {
	amount := fmt.Sprintf("$%.2f", float64(d.BalanceCents)/100)
	due := d.DueDate.Format("January 2, 2006")
	subject := fmt.Sprintf("Payment reminder - %s", s.clinicName)
	body := fmt.Sprintf(`Hi %s,

Your invoice balance of %s was due on %s. Please arrange payment at your
earliest convenience.

— %s`, patientName(d.Patient), amount, due, s.clinicName)
	sms := fmt.Sprintf("%s: your balance of %s was due %s. Please arrange payment.",
		s.clinicName, amount, d.DueDate.Format("1/2/2006"))

	return s.sendBoth(ctx, d.Patient, subject, body, sms)
}

// sendBoth dispatches each configured channel independently and reports
// a combined error only after trying all of them.
func (s *Service) sendBoth(ctx context.Context, c Contact, subject, emailBody, smsBody string) error {
	var errs []error

	if s.email != nil && c.Email != "" {
		msg := EmailMessage{To: c.Email, ToName: c.Name, Subject: subject, Body: emailBody}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: email failed", "error", err, "to", c.Email)
			errs = append(errs, err)
		}
	}
	if s.sms != nil && c.Phone != "" {
		if err := s.sms.SendSMS(ctx, c.Phone, smsBody); err != nil {
			s.logger.Error("notify: sms failed", "error", err, "to", c.Phone)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d notification(s) failed", len(errs))
	}
	return nil
}

func patientName(c Contact) string {
	if c.Name == "" {
		return "there"
	}
	return c.Name
}
