package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
	"github.com/nazeru/pizza-billing-go/internal/billing/store"
	"github.com/nazeru/pizza-billing-go/pkg/idempotency"
)

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.store.ListInvoices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch invoices")
		return
	}
	if invoices == nil {
		invoices = []domain.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid invoice ID")
	if !ok {
		return
	}
	inv, err := s.store.GetInvoice(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Invoice not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch invoice")
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		if errors.Is(err, domain.ErrNoLines) {
			writeError(w, http.StatusBadRequest, "Invoice must have at least one item")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}

	inv, err := s.store.CreateInvoice(r.Context(), req, idempotency.Key(r))
	if err != nil {
		var notFound store.ItemNotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Item not found with ID: %d", notFound.ID))
			return
		}
		var unavailable store.ItemUnavailableError
		if errors.As(err, &unavailable) {
			writeError(w, http.StatusBadRequest, "Item is not available: "+unavailable.Name)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	if s.metrics != nil {
		s.metrics.InvoicesCreated.Inc()
	}
	writeJSON(w, http.StatusCreated, inv)
}
