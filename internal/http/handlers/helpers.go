package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oakpoint-health/clinic-ops/internal/appointments"
	"github.com/oakpoint-health/clinic-ops/internal/auth"
	"github.com/oakpoint-health/clinic-ops/internal/billing"
	"github.com/oakpoint-health/clinic-ops/internal/http/middleware"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// actor pulls the authenticated actor out of the request context. A
// missing actor means the auth middleware was bypassed.
func actor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	a, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return auth.Actor{}, false
	}
	return a, true
}

// respondAppointmentError maps lifecycle errors onto HTTP statuses.
func respondAppointmentError(w http.ResponseWriter, err error) {
	var verr *appointments.ValidationError
	switch {
	case errors.Is(err, appointments.ErrNotFound):
		jsonError(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, appointments.ErrForbidden):
		jsonError(w, "forbidden", http.StatusForbidden)
	case errors.As(err, &verr):
		jsonError(w, verr.Error(), http.StatusUnprocessableEntity)
	default:
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func respondBillingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrNotFound):
		jsonError(w, "invoice not found", http.StatusNotFound)
	case errors.Is(err, billing.ErrForbidden):
		jsonError(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, billing.ErrInvalidAmount), errors.Is(err, billing.ErrMissingDueDate):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
