// Package services orchestrates receipt operations across the storage
// backend and the AMQP scan pipeline.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"marketlens/internal/core"
	"marketlens/internal/ports"
)

// Store is the backend surface the service needs.
type Store interface {
	ports.ReceiptLister
	ports.ReceiptCreator
	ports.ReceiptDeleter
	ports.ItemUpdater
}

// ScanPublisher hands a receipt image off to the extraction pipeline.
type ScanPublisher interface {
	PublishScanRequest(ctx context.Context, imagePath string) error
}

// ReceiptService coordinates local mutations with the asynchronous scan
// pipeline. The publisher is optional; without it uploads are accepted but
// stay unprocessed until a pipeline is configured.
type ReceiptService struct {
	store     Store
	publisher ScanPublisher
}

func NewReceiptService(store Store, publisher ScanPublisher) *ReceiptService {
	return &ReceiptService{
		store:     store,
		publisher: publisher,
	}
}

// RequestScan queues a receipt image for extraction. Publish failures do not
// fail the request; the image stays on disk and can be re-queued.
func (s *ReceiptService) RequestScan(ctx context.Context, imagePath string) error {
	if strings.TrimSpace(imagePath) == "" {
		return fmt.Errorf("empty image path")
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "Scan pipeline not configured, upload will stay unprocessed",
			"image_path", imagePath)
		return nil
	}

	if err := s.publisher.PublishScanRequest(ctx, imagePath); err != nil {
		slog.ErrorContext(ctx, "Failed to publish scan request",
			"image_path", imagePath, "error", err)
		return nil
	}

	return nil
}

// CreateReceipt stores a receipt directly, bypassing the scan pipeline.
// Used for manual entry and by the extraction worker.
func (s *ReceiptService) CreateReceipt(ctx context.Context, r core.Receipt) (core.Receipt, error) {
	saved, err := s.store.CreateReceipt(ctx, r)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("create receipt: %w", err)
	}
	return saved, nil
}

func (s *ReceiptService) ListReceipts(ctx context.Context) ([]core.Receipt, error) {
	return s.store.ListReceipts(ctx)
}

func (s *ReceiptService) DeleteReceipt(ctx context.Context, id int64) error {
	if err := s.store.DeleteReceipt(ctx, id); err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}

// UpdateItem saves new field values for one item. The backend recomputes the
// item's total and the owning receipt's total.
func (s *ReceiptService) UpdateItem(ctx context.Context, item core.Item) (core.Item, error) {
	saved, err := s.store.UpdateItem(ctx, item)
	if err != nil {
		return core.Item{}, fmt.Errorf("update item: %w", err)
	}
	return saved, nil
}

// Close closes the store and the publisher when they hold resources.
func (s *ReceiptService) Close() error {
	var errs []error

	if closer, ok := s.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if closer, ok := s.publisher.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close receipt service: %v", errs)
	}
	return nil
}
