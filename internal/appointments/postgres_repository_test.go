package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakpoint-health/clinic-ops/internal/auth"
)

func appointmentRowColumns() []string {
	return []string{
		"id", "patient_id", "provider_id", "branch_id", "scheduled_at", "status", "reason",
		"rejection_reason", "created_by", "created_by_role", "approved_by", "approved_at",
		"created_at", "updated_at",
	}
}

func TestPostgresCreateInsertsRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	a := &Appointment{
		PatientID:     uuid.New(),
		ProviderID:    uuid.New(),
		ScheduledAt:   time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		Status:        StatusApproved,
		Reason:        "follow-up",
		CreatedBy:     uuid.New(),
		CreatedByRole: auth.RoleReceptionist,
	}

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), a.PatientID, a.ProviderID, a.BranchID, a.ScheduledAt,
			"approved", "follow-up", "", a.CreatedBy, "receptionist", a.ApprovedBy, a.ApprovedAt,
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), a))
	assert.NotEqual(t, uuid.Nil, a.ID, "missing IDs are assigned on insert")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(appointmentRowColumns()))

	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByIDScansRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	id := uuid.New()
	patientID := uuid.New()
	providerID := uuid.New()
	createdBy := uuid.New()
	scheduled := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(appointmentRowColumns()).AddRow(
			id, patientID, providerID, (*uuid.UUID)(nil), scheduled, "pending", "checkup",
			"", createdBy, "patient", (*uuid.UUID)(nil), (*time.Time)(nil), now, now,
		))

	a, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, a.Status)
	assert.Equal(t, auth.RolePatient, a.CreatedByRole)
	assert.Equal(t, scheduled, a.ScheduledAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateMissingRowReturnsNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	a := &Appointment{
		ID:          uuid.New(),
		ScheduledAt: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		Status:      StatusCancelled,
	}

	mock.ExpectExec("UPDATE appointments").
		WithArgs(a.ScheduledAt, "cancelled", "", a.ApprovedBy, a.ApprovedAt, pgxmock.AnyArg(), a.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.Update(context.Background(), a), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListScheduledOnFiltersStatuses(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(dayStart, dayEnd, []string{"approved", "scheduled"}).
		WillReturnRows(pgxmock.NewRows(appointmentRowColumns()).AddRow(
			id, uuid.New(), uuid.New(), (*uuid.UUID)(nil), dayStart.Add(10*time.Hour), "approved", "",
			"", uuid.New(), "receptionist", (*uuid.UUID)(nil), (*time.Time)(nil), now, now,
		))

	list, err := repo.ListScheduledOn(context.Background(), dayStart, dayEnd, RemindableStatuses())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
