package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakpoint-health/clinic-ops/internal/billing"
	"github.com/oakpoint-health/clinic-ops/pkg/logging"
)

// BillingHandler exposes invoice issuance and settlement over HTTP.
type BillingHandler struct {
	svc    *billing.Service
	logger *logging.Logger
}

// NewBillingHandler creates the billing handler.
func NewBillingHandler(svc *billing.Service, logger *logging.Logger) *BillingHandler {
	if svc == nil {
		panic("handlers: billing service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BillingHandler{svc: svc, logger: logger}
}

type issueInvoiceRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	AmountCents int64     `json:"amount_cents"`
	DueDate     string    `json:"due_date"`
}

// Issue creates an unpaid invoice.
// POST /api/v1/invoices
func (h *BillingHandler) Issue(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req issueInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	var due time.Time
	if req.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			jsonError(w, "due_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		due = parsed
	}

	inv, err := h.svc.Issue(r.Context(), a, billing.IssueInput{
		PatientID:   req.PatientID,
		AmountCents: req.AmountCents,
		DueDate:     due,
	})
	if err != nil {
		respondBillingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// Get returns a single invoice.
// GET /api/v1/invoices/{id}
func (h *BillingHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "invalid invoice id", http.StatusBadRequest)
		return
	}
	inv, err := h.svc.Get(r.Context(), a, id)
	if err != nil {
		respondBillingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// MarkPaid settles an invoice.
// POST /api/v1/invoices/{id}/pay
func (h *BillingHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "invalid invoice id", http.StatusBadRequest)
		return
	}
	inv, err := h.svc.MarkPaid(r.Context(), a, id)
	if err != nil {
		respondBillingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
