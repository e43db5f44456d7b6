package billing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for invoice storage.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// ListDueBefore returns unpaid invoices with outstanding balance
	// whose due date is strictly before asOf's calendar day.
	ListDueBefore(ctx context.Context, asOf time.Time) ([]Invoice, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (*Invoice, error)
}

// InMemoryRepository stores invoices in process memory for tests and
// local development.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Invoice
	loc   *time.Location
}

// NewInMemoryRepository creates an empty in-memory invoice repository.
func NewInMemoryRepository(loc *time.Location) *InMemoryRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &InMemoryRepository{items: make(map[uuid.UUID]Invoice), loc: loc}
}

// Create stores a new invoice.
func (r *InMemoryRepository) Create(ctx context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[inv.ID] = *inv
	return nil
}

// GetByID retrieves an invoice.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := inv
	return &cp, nil
}

// ListDueBefore applies the due predicate against the stored invoices.
func (r *InMemoryRepository) ListDueBefore(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Invoice
	for _, inv := range r.items {
		if inv.DueAsOf(asOf, r.loc) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

// MarkPaid clears the balance and stamps the payment time.
func (r *InMemoryRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	inv.Status = StatusPaid
	inv.BalanceCents = 0
	inv.PaidAt = &paidAt
	inv.UpdatedAt = paidAt
	r.items[id] = inv
	cp := inv
	return &cp, nil
}
