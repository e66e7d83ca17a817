package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"marketlens/internal/core"
	"marketlens/internal/ports"

	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"
	// searchLimit caps smart-search suggestions so the dropdown stays usable.
	searchLimit = 10
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListReceipts implements ports.ReceiptLister. Receipts come back newest
// first; items keep their scan order.
func (r *SQLiteRepository) ListReceipts(ctx context.Context) ([]core.Receipt, error) {
	receiptRows, err := r.queries.ListReceipts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	itemRows, err := r.queries.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	itemsByReceipt := make(map[int64][]core.Item, len(receiptRows))
	for _, row := range itemRows {
		itemsByReceipt[row.ReceiptID] = append(itemsByReceipt[row.ReceiptID], itemFromRow(row))
	}

	receipts := make([]core.Receipt, 0, len(receiptRows))
	for _, row := range receiptRows {
		date, err := parseDate(row.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("receipt %d: %w", row.ID, err)
		}
		receipts = append(receipts, core.Receipt{
			ID:              row.ID,
			SupermarketName: row.SupermarketName,
			Date:            date,
			TotalAmount:     core.Money{Cents: row.TotalAmountCents},
			Items:           itemsByReceipt[row.ID],
		})
	}
	return receipts, nil
}

// CreateReceipt implements ports.ReceiptCreator. Item and receipt totals
// are recomputed here; whatever the extraction service claimed is ignored.
func (r *SQLiteRepository) CreateReceipt(ctx context.Context, receipt core.Receipt) (core.Receipt, error) {
	receipt = receipt.Recompute()
	if err := receipt.Validate(); err != nil {
		return core.Receipt{}, fmt.Errorf("validate receipt: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	receiptID, err := q.InsertReceipt(ctx, InsertReceiptParams{
		SupermarketName:  receipt.SupermarketName,
		PurchaseDate:     receipt.Date.Format(dateLayout),
		TotalAmountCents: receipt.TotalAmount.Cents,
	})
	if err != nil {
		return core.Receipt{}, fmt.Errorf("insert receipt: %w", err)
	}

	for i := range receipt.Items {
		it := receipt.Items[i]
		itemID, err := q.InsertItem(ctx, InsertItemParams{
			ReceiptID:       receiptID,
			Position:        int64(i),
			ProductName:     it.ProductName,
			Category:        it.Category,
			SubCategory:     it.SubCategory,
			Quantity:        it.Quantity,
			Unit:            it.Unit,
			UnitPriceCents:  it.UnitPrice.Cents,
			TotalPriceCents: it.TotalPrice.Cents,
		})
		if err != nil {
			return core.Receipt{}, fmt.Errorf("insert item %d: %w", i, err)
		}
		receipt.Items[i].ID = itemID
	}

	if err := tx.Commit(); err != nil {
		return core.Receipt{}, fmt.Errorf("commit: %w", err)
	}
	receipt.ID = receiptID

	slog.InfoContext(ctx, "Receipt saved",
		"id", receiptID,
		"supermarket", receipt.SupermarketName,
		"items", len(receipt.Items),
		"total_cents", receipt.TotalAmount.Cents)

	return receipt, nil
}

// DeleteReceipt implements ports.ReceiptDeleter. Items cascade.
func (r *SQLiteRepository) DeleteReceipt(ctx context.Context, id int64) error {
	affected, err := r.queries.DeleteReceipt(ctx, id)
	if err != nil {
		return fmt.Errorf("delete receipt %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete receipt %d: %w", id, ports.ErrNotFound)
	}
	slog.InfoContext(ctx, "Receipt deleted", "id", id)
	return nil
}

// UpdateItem implements ports.ItemUpdater. The item's total is recomputed
// from quantity and unit price and the owning receipt's total is refreshed
// in the same transaction.
func (r *SQLiteRepository) UpdateItem(ctx context.Context, item core.Item) (core.Item, error) {
	item = item.Recompute()
	if err := item.Validate(); err != nil {
		return core.Item{}, fmt.Errorf("validate item: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Item{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	existing, err := q.GetItem(ctx, item.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Item{}, fmt.Errorf("item %d: %w", item.ID, ports.ErrNotFound)
		}
		return core.Item{}, fmt.Errorf("get item %d: %w", item.ID, err)
	}

	if err := q.UpdateItem(ctx, UpdateItemParams{
		ID:              item.ID,
		ProductName:     item.ProductName,
		Category:        item.Category,
		SubCategory:     item.SubCategory,
		Quantity:        item.Quantity,
		Unit:            item.Unit,
		UnitPriceCents:  item.UnitPrice.Cents,
		TotalPriceCents: item.TotalPrice.Cents,
	}); err != nil {
		return core.Item{}, fmt.Errorf("update item %d: %w", item.ID, err)
	}

	total, err := q.SumReceiptItems(ctx, existing.ReceiptID)
	if err != nil {
		return core.Item{}, fmt.Errorf("sum receipt items: %w", err)
	}
	if err := q.SetReceiptTotal(ctx, existing.ReceiptID, total); err != nil {
		return core.Item{}, fmt.Errorf("set receipt total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Item{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Item updated",
		"id", item.ID,
		"receipt_id", existing.ReceiptID,
		"total_price_cents", item.TotalPrice.Cents,
		"receipt_total_cents", total)

	return item, nil
}

// SearchSmart implements ports.SuggestionSource: subcategory matches come
// first tagged CATEGORIA, then product names tagged PRODUTO, capped overall.
func (r *SQLiteRepository) SearchSmart(ctx context.Context, query string) ([]core.Suggestion, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	subs, err := r.queries.SearchSubCategories(ctx, pattern, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search subcategories: %w", err)
	}
	names, err := r.queries.SearchProductNames(ctx, pattern, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search product names: %w", err)
	}

	suggestions := make([]core.Suggestion, 0, searchLimit)
	for _, s := range subs {
		suggestions = append(suggestions, core.Suggestion{Name: s, Kind: core.SuggestionCategory})
	}
	for _, n := range names {
		if len(suggestions) >= searchLimit {
			break
		}
		suggestions = append(suggestions, core.Suggestion{Name: n, Kind: core.SuggestionProduct})
	}
	if len(suggestions) > searchLimit {
		suggestions = suggestions[:searchLimit]
	}
	return suggestions, nil
}

// HistoryByProduct implements ports.HistorySource for PRODUTO selections.
func (r *SQLiteRepository) HistoryByProduct(ctx context.Context, exactName string) ([]core.PriceObservation, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(exactName)) + "%"
	rows, err := r.queries.HistoryByProduct(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("history by product: %w", err)
	}
	return observationsFromRows(rows)
}

// HistoryByCategory implements ports.HistorySource for CATEGORIA
// selections: every product of the subcategory, so the chart mixes brands
// and the caller sees the group evolve.
func (r *SQLiteRepository) HistoryByCategory(ctx context.Context, categoryName string) ([]core.PriceObservation, error) {
	rows, err := r.queries.HistoryBySubCategory(ctx, strings.TrimSpace(categoryName))
	if err != nil {
		return nil, fmt.Errorf("history by category: %w", err)
	}
	return observationsFromRows(rows)
}

func observationsFromRows(rows []ObservationRow) ([]core.PriceObservation, error) {
	out := make([]core.PriceObservation, 0, len(rows))
	for _, row := range rows {
		date, err := parseDate(row.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("observation item %d: %w", row.ItemID, err)
		}
		out = append(out, core.PriceObservation{
			ItemID:      row.ItemID,
			ProductName: row.ProductName,
			Date:        date,
			Price:       core.Money{Cents: row.UnitPriceCents},
			Supermarket: row.SupermarketName,
		})
	}
	return out, nil
}

func itemFromRow(row ItemRow) core.Item {
	return core.Item{
		ID:          row.ID,
		ProductName: row.ProductName,
		Category:    row.Category,
		SubCategory: row.SubCategory,
		Quantity:    row.Quantity,
		Unit:        row.Unit,
		UnitPrice:   core.Money{Cents: row.UnitPriceCents},
		TotalPrice:  core.Money{Cents: row.TotalPriceCents},
	}
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}
