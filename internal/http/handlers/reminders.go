package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oakpoint-health/clinic-ops/internal/auth"
	"github.com/oakpoint-health/clinic-ops/internal/reminders"
	"github.com/oakpoint-health/clinic-ops/pkg/logging"
)

// RemindersHandler lets authorized staff fire a reminder scan on demand
// instead of waiting for the daily trigger.
type RemindersHandler struct {
	worker *reminders.Worker
	logger *logging.Logger
}

// NewRemindersHandler creates the manual reminder trigger handler.
func NewRemindersHandler(worker *reminders.Worker, logger *logging.Logger) *RemindersHandler {
	if worker == nil {
		panic("handlers: reminders worker required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RemindersHandler{worker: worker, logger: logger}
}

type runReminderResponse struct {
	Job  string `json:"job"`
	Sent int    `json:"sent"`
}

// Run fires the named reminder job once.
// POST /api/v1/admin/reminders/{job}/run
func (h *RemindersHandler) Run(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if !auth.Can(a.Role, auth.ActionRunReminders) {
		jsonError(w, "forbidden", http.StatusForbidden)
		return
	}
	job := chi.URLParam(r, "job")

	sent, err := h.worker.RunOnce(r.Context(), job)
	if err != nil {
		if errors.Is(err, reminders.ErrUnknownJob) {
			jsonError(w, "unknown reminder job", http.StatusNotFound)
			return
		}
		h.logger.Error("manual reminder run failed", "job", job, "error", err)
		jsonError(w, "reminder run failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runReminderResponse{Job: job, Sent: sent})
}
