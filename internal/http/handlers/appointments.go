package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakpoint-health/clinic-ops/internal/appointments"
	"github.com/oakpoint-health/clinic-ops/pkg/logging"
)

// AppointmentsHandler exposes the appointment lifecycle over HTTP.
type AppointmentsHandler struct {
	svc    *appointments.Service
	loc    *time.Location
	logger *logging.Logger
}

// NewAppointmentsHandler creates the appointment lifecycle handler.
// loc is the clinic timezone used to interpret date query parameters.
func NewAppointmentsHandler(svc *appointments.Service, loc *time.Location, logger *logging.Logger) *AppointmentsHandler {
	if svc == nil {
		panic("handlers: appointments service required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{svc: svc, loc: loc, logger: logger}
}

type createAppointmentRequest struct {
	PatientID   uuid.UUID  `json:"patient_id"`
	ProviderID  uuid.UUID  `json:"provider_id"`
	BranchID    *uuid.UUID `json:"branch_id,omitempty"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Reason      string     `json:"reason"`
}

// Create books an appointment.
// POST /api/v1/appointments
func (h *AppointmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Create(r.Context(), a, appointments.CreateInput{
		PatientID:   req.PatientID,
		ProviderID:  req.ProviderID,
		BranchID:    req.BranchID,
		ScheduledAt: req.ScheduledAt,
		Reason:      req.Reason,
	})
	if err != nil {
		respondAppointmentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// Get returns a single appointment.
// GET /api/v1/appointments/{id}
func (h *AppointmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.Get(r.Context(), a, id)
	if err != nil {
		respondAppointmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Approve confirms a pending appointment.
// POST /api/v1/appointments/{id}/approve
func (h *AppointmentsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.Approve(r.Context(), a, id)
	if err != nil {
		respondAppointmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject declines a pending appointment.
// POST /api/v1/appointments/{id}/reject
func (h *AppointmentsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	var req rejectRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	appt, err := h.svc.Reject(r.Context(), a, id, req.Reason)
	if err != nil {
		respondAppointmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// Reschedule moves an appointment to a new time.
// POST /api/v1/appointments/{id}/reschedule
func (h *AppointmentsHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.Reschedule(r.Context(), a, id, req.ScheduledAt)
	if err != nil {
		respondAppointmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Cancel moves an appointment to cancelled.
// POST /api/v1/appointments/{id}/cancel
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.Cancel(r.Context(), a, id)
	if err != nil {
		respondAppointmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus is the staff override for completed / no-show and friends.
// PUT /api/v1/appointments/{id}/status
func (h *AppointmentsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.SetStatus(r.Context(), a, id, appointments.Status(req.Status))
	if err != nil {
		respondAppointmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type freeSlotsResponse struct {
	ProviderID uuid.UUID   `json:"provider_id"`
	Date       string      `json:"date"`
	Slots      []time.Time `json:"slots"`
}

// FreeSlots lists a provider's open slots for one day.
// GET /api/v1/providers/{providerID}/slots?date=2006-01-02
func (h *AppointmentsHandler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(w, r); !ok {
		return
	}
	providerID, err := uuid.Parse(chi.URLParam(r, "providerID"))
	if err != nil {
		jsonError(w, "invalid provider id", http.StatusBadRequest)
		return
	}
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		jsonError(w, "missing date query parameter", http.StatusBadRequest)
		return
	}
	day, err := time.ParseInLocation("2006-01-02", dateStr, h.loc)
	if err != nil {
		jsonError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	slots, err := h.svc.FreeSlots(r.Context(), providerID, day)
	if err != nil {
		h.logger.Error("free slot scan failed", "provider_id", providerID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if slots == nil {
		slots = []time.Time{}
	}
	writeJSON(w, http.StatusOK, freeSlotsResponse{ProviderID: providerID, Date: dateStr, Slots: slots})
}
