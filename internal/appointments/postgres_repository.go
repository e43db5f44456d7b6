package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oakpoint-health/clinic-ops/internal/auth"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a repository backed by a pgx pool or tx.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("appointments: db required")
	}
	return &PostgresRepository{db: db}
}

const appointmentColumns = `id, patient_id, provider_id, branch_id, scheduled_at, status, reason,
	rejection_reason, created_by, created_by_role, approved_by, approved_at, created_at, updated_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := r.db.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, provider_id, branch_id, scheduled_at, status, reason,
			rejection_reason, created_by, created_by_role, approved_by, approved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.PatientID, a.ProviderID, a.BranchID, a.ScheduledAt, string(a.Status), a.Reason,
		a.RejectionReason, a.CreatedBy, string(a.CreatedByRole), a.ApprovedBy, a.ApprovedAt,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// GetByID fetches an appointment by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select by id: %w", err)
	}
	return a, nil
}

// Update persists the mutable fields of an appointment.
func (r *PostgresRepository) Update(ctx context.Context, a *Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET scheduled_at = $1, status = $2, rejection_reason = $3,
			approved_by = $4, approved_at = $5, updated_at = $6
		WHERE id = $7`,
		a.ScheduledAt, string(a.Status), a.RejectionReason,
		a.ApprovedBy, a.ApprovedAt, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("appointments: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForProviderBetween returns a provider's appointments in [from, to].
func (r *PostgresRepository) ListForProviderBetween(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1 AND scheduled_at BETWEEN $2 AND $3
		ORDER BY scheduled_at ASC`, providerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("appointments: list for provider: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ListScheduledOn returns appointments in [dayStart, dayEnd) with one of the given statuses.
func (r *PostgresRepository) ListScheduledOn(ctx context.Context, dayStart, dayEnd time.Time, statuses []Status) ([]Appointment, error) {
	set := make([]string, len(statuses))
	for i, s := range statuses {
		set[i] = string(s)
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE scheduled_at >= $1 AND scheduled_at < $2 AND status = ANY($3)
		ORDER BY scheduled_at ASC`, dayStart, dayEnd, set)
	if err != nil {
		return nil, fmt.Errorf("appointments: list scheduled: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status, role string
	err := row.Scan(
		&a.ID, &a.PatientID, &a.ProviderID, &a.BranchID, &a.ScheduledAt, &status, &a.Reason,
		&a.RejectionReason, &a.CreatedBy, &role, &a.ApprovedBy, &a.ApprovedAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	a.CreatedByRole = auth.Role(role)
	return &a, nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}
