package http

import (
	"log/slog"
	"net/http"
	"strings"

	"marketlens/internal/core"
)

type categoryBucketDTO struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type monthBucketDTO struct {
	Month string  `json:"month"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

type summaryResponse struct {
	TotalSpending  float64            `json:"totalSpending"`
	ReceiptCount   int                `json:"receiptCount"`
	BiggestExpense *categoryBucketDTO `json:"biggestExpense"`
}

// handleDashboardCategories returns spending buckets per macro category,
// highest first. With ?category=X it drills down into X's subcategories.
func (s *Server) handleDashboardCategories(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load receipts")
		return
	}

	var buckets []core.CategoryBucket
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		buckets = core.AggregateBySubcategory(receipts, category)
	} else {
		buckets = core.AggregateByCategory(receipts)
	}

	writeJSON(w, http.StatusOK, bucketsToDTOs(buckets))
}

// handleDashboardMonths returns monthly spending totals, oldest first, with
// the short pt-BR chart labels.
func (s *Server) handleDashboardMonths(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard months failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load receipts")
		return
	}

	buckets := core.AggregateByMonth(receipts)
	dtos := make([]monthBucketDTO, 0, len(buckets))
	for _, b := range buckets {
		dtos = append(dtos, monthBucketDTO{
			Month: b.MonthKey,
			Label: b.Label,
			Total: b.Total.Reais(),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// handleDashboardSummary returns the headline numbers: total spending,
// receipt count, and the biggest category (null for an empty snapshot).
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load receipts")
		return
	}

	resp := summaryResponse{
		TotalSpending: core.TotalSpending(receipts).Reais(),
		ReceiptCount:  len(receipts),
	}
	if biggest, ok := core.BiggestExpense(core.AggregateByCategory(receipts)); ok {
		resp.BiggestExpense = &categoryBucketDTO{Name: biggest.Name, Value: biggest.Value.Reais()}
	}

	writeJSON(w, http.StatusOK, resp)
}

func bucketsToDTOs(buckets []core.CategoryBucket) []categoryBucketDTO {
	dtos := make([]categoryBucketDTO, 0, len(buckets))
	for _, b := range buckets {
		dtos = append(dtos, categoryBucketDTO{Name: b.Name, Value: b.Value.Reais()})
	}
	return dtos
}
