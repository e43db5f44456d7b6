package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakpoint-health/clinic-ops/pkg/logging"
)

type fakeEmail struct {
	sent []EmailMessage
	err  error
}

func (f *fakeEmail) Send(ctx context.Context, msg EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeSMS struct {
	sent []string
	err  error
}

func (f *fakeSMS) SendSMS(ctx context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, body)
	return nil
}

func details() AppointmentDetails {
	return AppointmentDetails{
		ID:           uuid.New(),
		Patient:      Contact{Name: "Ada Byron", Email: "ada@example.com", Phone: "+15550001111"},
		ProviderName: "Dr. Hart",
		ScheduledAt:  time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
	}
}

func TestSendAppointmentConfirmationBothChannels(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	svc := NewService(email, sms, "Oakpoint Health", logging.Default())

	err := svc.SendAppointmentConfirmation(context.Background(), details())
	require.NoError(t, err)

	require.Len(t, email.sent, 1)
	assert.Contains(t, email.sent[0].Subject, "confirmed")
	assert.Contains(t, email.sent[0].Body, "Dr. Hart")
	require.Len(t, sms.sent, 1)
	assert.Contains(t, sms.sent[0], "confirmed")
}

func TestEmailFailureDoesNotBlockSMS(t *testing.T) {
	email := &fakeEmail{err: errors.New("smtp down")}
	sms := &fakeSMS{}
	svc := NewService(email, sms, "Oakpoint Health", logging.Default())

	err := svc.SendAppointmentReminder(context.Background(), details())
	assert.Error(t, err)
	assert.Len(t, sms.sent, 1, "sms must still be attempted")
}

func TestMissingChannelIsSkipped(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	svc := NewService(email, sms, "Oakpoint Health", logging.Default())

	d := details()
	d.Patient.Phone = ""
	err := svc.SendAppointmentReminder(context.Background(), d)
	require.NoError(t, err)
	assert.Len(t, email.sent, 1)
	assert.Empty(t, sms.sent)
}

func TestSendPaymentReminderFormatsAmount(t *testing.T) {
	email := &fakeEmail{}
	svc := NewService(email, nil, "Oakpoint Health", logging.Default())

	err := svc.SendPaymentReminder(context.Background(), InvoiceDetails{
		ID:           uuid.New(),
		Patient:      Contact{Name: "Ada Byron", Email: "ada@example.com"},
		BalanceCents: 15000,
		DueDate:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, email.sent, 1)
	assert.Contains(t, email.sent[0].Body, "$150.00")
	assert.Contains(t, email.sent[0].Body, "March 1, 2025")
}
