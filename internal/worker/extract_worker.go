// Package worker turns extraction-service results into stored receipts.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marketlens/internal/amqp"
	"marketlens/internal/core"
	"marketlens/internal/ports"
)

const dateLayout = "2006-01-02"

// ExtractWorker consumes extracted receipts and persists them. Totals are
// recomputed by the store; the message's prices are only trusted per line.
type ExtractWorker struct {
	store ports.ReceiptCreator
}

func NewExtractWorker(store ports.ReceiptCreator) *ExtractWorker {
	return &ExtractWorker{store: store}
}

// HandleExtractedMessage processes a single extraction result. Conversion
// and validation failures are permanent (bad payloads never become valid
// on retry) and are wrapped with amqp.ErrBadPayload so the consumer drops
// them instead of requeueing; store failures stay transient.
func (w *ExtractWorker) HandleExtractedMessage(ctx context.Context, msg *amqp.ReceiptExtractedMessage) error {
	receipt, err := ReceiptFromMessage(msg)
	if err != nil {
		return fmt.Errorf("convert extracted receipt: %w: %w", amqp.ErrBadPayload, err)
	}
	if err := receipt.Recompute().Validate(); err != nil {
		return fmt.Errorf("validate extracted receipt: %w: %w", amqp.ErrBadPayload, err)
	}

	saved, err := w.store.CreateReceipt(ctx, receipt)
	if err != nil {
		return fmt.Errorf("store extracted receipt: %w", err)
	}

	slog.InfoContext(ctx, "Stored extracted receipt",
		"id", saved.ID,
		"supermarket", saved.SupermarketName,
		"date", saved.Date.Format(dateLayout),
		"items", len(saved.Items),
		"total_cents", saved.TotalAmount.Cents)

	return nil
}

// ReceiptFromMessage converts a wire message into a domain receipt. Prices
// arrive as decimal strings ("4,59" or "4.59") and are parsed to cents; line
// and receipt totals are left for the store to derive.
func ReceiptFromMessage(msg *amqp.ReceiptExtractedMessage) (core.Receipt, error) {
	t, err := time.Parse(dateLayout, msg.Date)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("parse date %q: %w", msg.Date, err)
	}

	items := make([]core.Item, 0, len(msg.Items))
	for i, it := range msg.Items {
		cents, err := core.ParseDecimalToCents(it.UnitPrice)
		if err != nil {
			return core.Receipt{}, fmt.Errorf("item %d (%s): parse unit price %q: %w", i, it.ProductName, it.UnitPrice, err)
		}
		items = append(items, core.Item{
			ProductName: it.ProductName,
			Category:    it.Category,
			SubCategory: it.SubCategory,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			UnitPrice:   core.Money{Cents: cents},
		})
	}

	return core.Receipt{
		SupermarketName: msg.SupermarketName,
		Date:            core.Date{Time: t},
		Items:           items,
	}, nil
}
