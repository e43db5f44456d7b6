package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores invoices in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a repository backed by a pgx pool or tx.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("billing: db required")
	}
	return &PostgresRepository{db: db}
}

const invoiceColumns = `id, patient_id, amount_cents, balance_cents, due_date, status, issued_at, paid_at, created_at, updated_at`

// Create inserts a new invoice row.
func (r *PostgresRepository) Create(ctx context.Context, inv *Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	_, err := r.db.Exec(ctx, `
		INSERT INTO invoices (id, patient_id, amount_cents, balance_cents, due_date, status, issued_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.ID, inv.PatientID, inv.AmountCents, inv.BalanceCents, inv.DueDate,
		string(inv.Status), inv.IssuedAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("billing: insert invoice: %w", err)
	}
	return nil
}

// GetByID fetches an invoice.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("billing: select invoice: %w", err)
	}
	return inv, nil
}

// ListDueBefore returns unpaid invoices with outstanding balance due
// strictly before asOf's calendar day.
func (r *PostgresRepository) ListDueBefore(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE due_date < $1::date AND status = 'unpaid' AND balance_cents > 0
		ORDER BY due_date ASC`, asOf)
	if err != nil {
		return nil, fmt.Errorf("billing: list due: %w", err)
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("billing: scan invoice: %w", err)
		}
		result = append(result, *inv)
	}
	return result, rows.Err()
}

// MarkPaid transitions an unpaid invoice to paid.
func (r *PostgresRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (*Invoice, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET status = 'paid', balance_cents = 0, paid_at = $1, updated_at = $1
		WHERE id = $2 AND status = 'unpaid'`, paidAt, id)
	if err != nil {
		return nil, fmt.Errorf("billing: mark paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var status string
	err := row.Scan(
		&inv.ID, &inv.PatientID, &inv.AmountCents, &inv.BalanceCents, &inv.DueDate,
		&status, &inv.IssuedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = InvoiceStatus(status)
	return &inv, nil
}
