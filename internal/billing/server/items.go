package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
	"github.com/nazeru/pizza-billing-go/internal/billing/store"
)

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch items")
		return
	}
	if items == nil {
		items = []domain.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid item ID")
	if !ok {
		return
	}
	item, err := s.store.GetItem(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var item domain.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}
	if item.Name == "" {
		writeError(w, http.StatusBadRequest, "Item name is required")
		return
	}
	if item.Category == "" {
		writeError(w, http.StatusBadRequest, "Category is required")
		return
	}
	if !item.Price.IsPositive() {
		writeError(w, http.StatusBadRequest, "Price must be greater than 0")
		return
	}

	created, err := s.store.CreateItem(r.Context(), item)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create item")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid item ID")
	if !ok {
		return
	}
	var patch domain.Item
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}

	updated, err := s.store.UpdateItem(r.Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update item")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid item ID")
	if !ok {
		return
	}
	err := s.store.DeleteItem(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete item")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Item deleted successfully"})
}

// pathID parses the {id} segment, writing a 400 itself on garbage input.
func pathID(w http.ResponseWriter, r *http.Request, badMsg string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, badMsg)
		return 0, false
	}
	return id, true
}
