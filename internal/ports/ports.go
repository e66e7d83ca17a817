// Package ports declares the interfaces between the aggregation engine's
// orchestration and whatever backend owns the authoritative data.
package ports

import (
	"context"
	"errors"

	"marketlens/internal/core"
)

// ErrNotFound is returned by backends when a receipt or item id does not
// exist. Callers distinguish it from transport failures with errors.Is.
var ErrNotFound = errors.New("not found")

type (
	// ReceiptLister returns the full receipt snapshot, newest first.
	ReceiptLister interface {
		ListReceipts(ctx context.Context) ([]core.Receipt, error)
	}

	// ReceiptCreator stores an extracted receipt and returns it with
	// assigned ids and server-recomputed totals.
	ReceiptCreator interface {
		CreateReceipt(ctx context.Context, r core.Receipt) (core.Receipt, error)
	}

	ReceiptDeleter interface {
		DeleteReceipt(ctx context.Context, id int64) error
	}

	// ItemUpdater saves new field values for an item and returns the saved
	// item, with total_price recomputed server-side and the owning
	// receipt's total refreshed.
	ItemUpdater interface {
		UpdateItem(ctx context.Context, item core.Item) (core.Item, error)
	}

	// SuggestionSource is the smart-search index: candidates matching the
	// query across product names, categories and subcategories, already
	// tagged PRODUTO or CATEGORIA.
	SuggestionSource interface {
		SearchSmart(ctx context.Context, query string) ([]core.Suggestion, error)
	}

	// HistorySource returns price observations ordered by date ascending.
	HistorySource interface {
		HistoryByProduct(ctx context.Context, exactName string) ([]core.PriceObservation, error)
		HistoryByCategory(ctx context.Context, categoryName string) ([]core.PriceObservation, error)
	}
)
