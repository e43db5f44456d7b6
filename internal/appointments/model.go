package appointments

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakpoint-health/clinic-ops/internal/auth"
)

// Status represents the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Terminal reports whether no further lifecycle transition is possible.
// Terminal appointments release their slot: they never count as conflicts.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusScheduled,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// ActiveStatuses are the states whose appointments still hold a slot.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusScheduled}
}

// RemindableStatuses are the states that receive day-of reminders.
// Pending requests are excluded until a staff member confirms them.
func RemindableStatuses() []Status {
	return []Status{StatusApproved, StatusScheduled}
}

// DefaultRejectionReason is stored when staff reject without a reason.
const DefaultRejectionReason = "Not specified"

// Appointment is a booking of a patient against a provider at a point
// in time. There is no stored duration; conflict checks use a fixed
// window around ScheduledAt.
type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	ProviderID      uuid.UUID  `json:"provider_id"`
	BranchID        *uuid.UUID `json:"branch_id,omitempty"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	Status          Status     `json:"status"`
	Reason          string     `json:"reason,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	CreatedByRole   auth.Role  `json:"created_by_role"`
	ApprovedBy      *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
