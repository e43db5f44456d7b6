package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	// ListForProviderBetween returns a provider's appointments with
	// scheduled_at in [from, to], any status.
	ListForProviderBetween(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Appointment, error)
	// ListScheduledOn returns appointments with scheduled_at in
	// [dayStart, dayEnd) whose status is in the given set.
	ListScheduledOn(ctx context.Context, dayStart, dayEnd time.Time, statuses []Status) ([]Appointment, error)
}

// InMemoryRepository stores appointments in process memory. Used in
// tests and local development without a database.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Appointment
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[uuid.UUID]Appointment)}
}

// Create stores a new appointment.
func (r *InMemoryRepository) Create(ctx context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[a.ID] = *a
	return nil
}

// GetByID retrieves an appointment by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := a
	return &cp, nil
}

// Update replaces a stored appointment.
func (r *InMemoryRepository) Update(ctx context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; !ok {
		return ErrNotFound
	}
	r.items[a.ID] = *a
	return nil
}

// ListForProviderBetween returns the provider's appointments in [from, to].
func (r *InMemoryRepository) ListForProviderBetween(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Appointment
	for _, a := range r.items {
		if a.ProviderID != providerID {
			continue
		}
		if a.ScheduledAt.Before(from) || a.ScheduledAt.After(to) {
			continue
		}
		out = append(out, a)
	}
	sortByTime(out)
	return out, nil
}

// ListScheduledOn returns appointments in [dayStart, dayEnd) with one of the given statuses.
func (r *InMemoryRepository) ListScheduledOn(ctx context.Context, dayStart, dayEnd time.Time, statuses []Status) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []Appointment
	for _, a := range r.items {
		if !want[a.Status] {
			continue
		}
		if a.ScheduledAt.Before(dayStart) || !a.ScheduledAt.Before(dayEnd) {
			continue
		}
		out = append(out, a)
	}
	sortByTime(out)
	return out, nil
}

func sortByTime(list []Appointment) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].ScheduledAt.Before(list[j].ScheduledAt)
	})
}
