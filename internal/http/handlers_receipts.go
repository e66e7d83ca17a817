package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"marketlens/internal/core"
	"marketlens/internal/ports"
)

// maxUploadSize caps receipt photos at 10 MiB.
const maxUploadSize = 10 << 20

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List receipts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load receipts")
		return
	}

	dtos := make([]receiptDTO, 0, len(receipts))
	for _, rec := range receipts {
		dtos = append(dtos, receiptToDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

type createItemRequest struct {
	ProductName string  `json:"productName"`
	Category    string  `json:"category"`
	SubCategory string  `json:"subCategory"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unitPrice"`
}

type createReceiptRequest struct {
	SupermarketName string              `json:"supermarketName"`
	Date            string              `json:"date"`
	Items           []createItemRequest `json:"items"`
}

// handleCreateReceipt stores a manually entered receipt. Totals are
// recomputed server-side; the payload carries no totals at all.
func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req createReceiptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
		return
	}

	items := make([]core.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, core.Item{
			ProductName: sanitizeInput(it.ProductName),
			Category:    sanitizeInput(it.Category),
			SubCategory: sanitizeInput(it.SubCategory),
			Quantity:    it.Quantity,
			Unit:        sanitizeInput(it.Unit),
			UnitPrice:   core.MoneyFromReais(it.UnitPrice),
		})
	}

	receipt := core.Receipt{
		SupermarketName: sanitizeInput(req.SupermarketName),
		Date:            date,
		Items:           items,
	}

	saved, err := s.service.CreateReceipt(r.Context(), receipt)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create receipt failed", "error", err, "supermarket", receipt.SupermarketName)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateSnapshot()
	writeJSON(w, http.StatusCreated, receiptToDTO(saved))
}

// handleUploadReceipt accepts a receipt photo and queues it for extraction.
// The response is 202: the receipt appears in the list once the pipeline
// finishes.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		slog.ErrorContext(r.Context(), "Create upload directory failed", "error", err, "dir", s.uploadDir)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename))
	path := filepath.Join(s.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create upload file failed", "error", err, "path", path)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		slog.ErrorContext(r.Context(), "Write upload failed", "error", err, "path", path)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	if err := s.service.RequestScan(r.Context(), path); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	slog.InfoContext(r.Context(), "Receipt upload accepted",
		"path", path,
		"size", header.Size)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "processing",
		"file":   name,
	})
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid receipt id")
		return
	}

	if err := s.service.DeleteReceipt(r.Context(), id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "receipt not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete receipt failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete receipt")
		return
	}

	s.invalidateSnapshot()
	w.WriteHeader(http.StatusNoContent)
}
