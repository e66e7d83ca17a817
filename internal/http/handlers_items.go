package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"marketlens/internal/core"
	"marketlens/internal/ports"
	"marketlens/internal/session"
)

type updateItemRequest struct {
	ProductName string  `json:"productName"`
	Category    string  `json:"category"`
	SubCategory string  `json:"subCategory"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unitPrice"`
}

// handleUpdateItem saves new field values for one item. The total price is
// recomputed from quantity and unit price, and the owning receipt's total is
// refreshed; other receipts are untouched.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := core.Item{
		ID:          id,
		ProductName: sanitizeInput(req.ProductName),
		Category:    sanitizeInput(req.Category),
		SubCategory: sanitizeInput(req.SubCategory),
		Quantity:    req.Quantity,
		Unit:        sanitizeInput(req.Unit),
		UnitPrice:   core.MoneyFromReais(req.UnitPrice),
	}

	saved, err := s.service.UpdateItem(r.Context(), item)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update item failed", "error", err, "id", id)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateSnapshot()
	writeJSON(w, http.StatusOK, itemToDTO(saved))
}

// handleSearchSmart returns autocomplete suggestions. Queries of two
// characters or fewer get an empty list without touching the backend,
// mirroring the client-side trigger threshold. Characters are runes:
// "pã" is two characters even though it is three bytes.
func (s *Server) handleSearchSmart(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("name"))
	if utf8.RuneCountInString(query) <= session.MinQueryLength {
		writeJSON(w, http.StatusOK, []suggestionDTO{})
		return
	}

	suggestions, err := s.backend.SearchSmart(r.Context(), query)
	if err != nil {
		slog.ErrorContext(r.Context(), "Smart search failed", "error", err, "query", query)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	dtos := make([]suggestionDTO, 0, len(suggestions))
	for _, sug := range suggestions {
		dtos = append(dtos, suggestionDTO{Name: sug.Name, Type: string(sug.Kind)})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// handleProductHistory returns the price history for a product name.
// An empty history is a valid response, not an error.
func (s *Server) handleProductHistory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("exactName"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing exactName parameter")
		return
	}

	obs, err := s.backend.HistoryByProduct(r.Context(), name)
	if err != nil {
		slog.ErrorContext(r.Context(), "Product history failed", "error", err, "product", name)
		writeError(w, http.StatusInternalServerError, "history lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, historyToResponse(name, obs))
}

// handleCategoryHistory returns the price history for every product of a
// subcategory, mixing brands so the group's evolution is visible.
func (s *Server) handleCategoryHistory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("categoryName"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing categoryName parameter")
		return
	}

	obs, err := s.backend.HistoryByCategory(r.Context(), name)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category history failed", "error", err, "category", name)
		writeError(w, http.StatusInternalServerError, "history lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, historyToResponse(name, obs))
}
