package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketlens/internal/core"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	t, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t}, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// Wire DTOs. Amounts travel as decimal reais, matching what the frontend
// renders; cents stay internal.

type itemDTO struct {
	ID          int64   `json:"id"`
	ProductName string  `json:"productName"`
	Category    string  `json:"category"`
	SubCategory string  `json:"subCategory"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

type receiptDTO struct {
	ID              int64     `json:"id"`
	SupermarketName string    `json:"supermarketName"`
	Date            string    `json:"date"`
	TotalAmount     float64   `json:"totalAmount"`
	Items           []itemDTO `json:"items"`
}

type suggestionDTO struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type observationDTO struct {
	Date        string  `json:"date"`
	Price       float64 `json:"price"`
	ProductName string  `json:"productName"`
	Supermarket string  `json:"supermarket"`
}

type trendDTO struct {
	VariationPercent float64 `json:"variationPercent"`
	IsUp             bool    `json:"isUp"`
}

type historyResponse struct {
	Query        string           `json:"query"`
	Observations []observationDTO `json:"observations"`
	// Trend is null with fewer than two observations or a zero first price.
	Trend *trendDTO `json:"trend"`
}

func itemToDTO(it core.Item) itemDTO {
	return itemDTO{
		ID:          it.ID,
		ProductName: it.ProductName,
		Category:    it.Category,
		SubCategory: it.SubCategory,
		Quantity:    it.Quantity,
		Unit:        it.Unit,
		UnitPrice:   it.UnitPrice.Reais(),
		TotalPrice:  it.TotalPrice.Reais(),
	}
}

func receiptToDTO(r core.Receipt) receiptDTO {
	items := make([]itemDTO, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, itemToDTO(it))
	}
	return receiptDTO{
		ID:              r.ID,
		SupermarketName: r.SupermarketName,
		Date:            r.Date.Format(dateLayout),
		TotalAmount:     r.TotalAmount.Reais(),
		Items:           items,
	}
}

func historyToResponse(query string, obs []core.PriceObservation) historyResponse {
	dtos := make([]observationDTO, 0, len(obs))
	for _, o := range obs {
		dtos = append(dtos, observationDTO{
			Date:        o.Date.Format(dateLayout),
			Price:       o.Price.Reais(),
			ProductName: o.ProductName,
			Supermarket: o.Supermarket,
		})
	}

	resp := historyResponse{Query: query, Observations: dtos}
	if trend := core.ComputeTrend(obs); trend.Defined {
		resp.Trend = &trendDTO{VariationPercent: trend.VariationPercent, IsUp: trend.IsUp}
	}
	return resp
}
