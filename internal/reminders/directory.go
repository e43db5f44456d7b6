package reminders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oakpoint-health/clinic-ops/internal/appointments"
	"github.com/oakpoint-health/clinic-ops/internal/notify"
)

// ErrUnknownParty is returned when a patient or provider row is missing.
var ErrUnknownParty = errors.New("reminders: unknown patient or provider")

// PostgresDirectory resolves contact details from the patients and
// providers tables.
type PostgresDirectory struct {
	db appointments.DB
}

// NewPostgresDirectory creates a directory backed by a pgx pool or tx.
func NewPostgresDirectory(db appointments.DB) *PostgresDirectory {
	if db == nil {
		panic("reminders: db required")
	}
	return &PostgresDirectory{db: db}
}

// PatientContact returns the patient's name, email, and phone.
func (d *PostgresDirectory) PatientContact(ctx context.Context, patientID uuid.UUID) (notify.Contact, error) {
	row := d.db.QueryRow(ctx, `
		SELECT full_name, COALESCE(email, ''), COALESCE(phone, '')
		FROM patients
		WHERE id = $1`, patientID)
	var c notify.Contact
	if err := row.Scan(&c.Name, &c.Email, &c.Phone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notify.Contact{}, ErrUnknownParty
		}
		return notify.Contact{}, fmt.Errorf("reminders: select patient: %w", err)
	}
	return c, nil
}

// ProviderName returns the provider's display name.
func (d *PostgresDirectory) ProviderName(ctx context.Context, providerID uuid.UUID) (string, error) {
	row := d.db.QueryRow(ctx, `
		SELECT full_name
		FROM providers
		WHERE id = $1`, providerID)
	var name string
	if err := row.Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUnknownParty
		}
		return "", fmt.Errorf("reminders: select provider: %w", err)
	}
	return name, nil
}

var _ ContactDirectory = (*PostgresDirectory)(nil)
