package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries bundles the raw SQL statements over a connection or transaction.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns the same queries bound to a transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// ReceiptRow mirrors the receipts table.
type ReceiptRow struct {
	ID               int64
	SupermarketName  string
	PurchaseDate     string // YYYY-MM-DD
	TotalAmountCents int64
}

// ItemRow mirrors the product_items table.
type ItemRow struct {
	ID              int64
	ReceiptID       int64
	Position        int64
	ProductName     string
	Category        string
	SubCategory     string
	Quantity        float64
	Unit            string
	UnitPriceCents  int64
	TotalPriceCents int64
}

// ObservationRow is one row of a price-history query.
type ObservationRow struct {
	ItemID          int64
	ProductName     string
	PurchaseDate    string
	UnitPriceCents  int64
	SupermarketName string
}

const insertReceipt = `
INSERT INTO receipts (supermarket_name, purchase_date, total_amount_cents)
VALUES (?, ?, ?)
`

type InsertReceiptParams struct {
	SupermarketName  string
	PurchaseDate     string
	TotalAmountCents int64
}

func (q *Queries) InsertReceipt(ctx context.Context, arg InsertReceiptParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertReceipt,
		arg.SupermarketName, arg.PurchaseDate, arg.TotalAmountCents)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const insertItem = `
INSERT INTO product_items
  (receipt_id, position, product_name, category, sub_category, quantity, unit, unit_price_cents, total_price_cents)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertItemParams struct {
	ReceiptID       int64
	Position        int64
	ProductName     string
	Category        string
	SubCategory     string
	Quantity        float64
	Unit            string
	UnitPriceCents  int64
	TotalPriceCents int64
}

func (q *Queries) InsertItem(ctx context.Context, arg InsertItemParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertItem,
		arg.ReceiptID, arg.Position, arg.ProductName, arg.Category, arg.SubCategory,
		arg.Quantity, arg.Unit, arg.UnitPriceCents, arg.TotalPriceCents)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listReceipts = `
SELECT id, supermarket_name, purchase_date, total_amount_cents
FROM receipts
ORDER BY purchase_date DESC, id DESC
`

func (q *Queries) ListReceipts(ctx context.Context) ([]ReceiptRow, error) {
	rows, err := q.db.QueryContext(ctx, listReceipts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReceiptRow
	for rows.Next() {
		var r ReceiptRow
		if err := rows.Scan(&r.ID, &r.SupermarketName, &r.PurchaseDate, &r.TotalAmountCents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const listItems = `
SELECT id, receipt_id, position, product_name, category, sub_category, quantity, unit, unit_price_cents, total_price_cents
FROM product_items
ORDER BY receipt_id, position
`

func (q *Queries) ListItems(ctx context.Context) ([]ItemRow, error) {
	rows, err := q.db.QueryContext(ctx, listItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemRow
	for rows.Next() {
		var it ItemRow
		if err := rows.Scan(&it.ID, &it.ReceiptID, &it.Position, &it.ProductName, &it.Category,
			&it.SubCategory, &it.Quantity, &it.Unit, &it.UnitPriceCents, &it.TotalPriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

const deleteReceipt = `DELETE FROM receipts WHERE id = ?`

func (q *Queries) DeleteReceipt(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteReceipt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getItem = `
SELECT id, receipt_id, position, product_name, category, sub_category, quantity, unit, unit_price_cents, total_price_cents
FROM product_items
WHERE id = ?
`

func (q *Queries) GetItem(ctx context.Context, id int64) (ItemRow, error) {
	var it ItemRow
	err := q.db.QueryRowContext(ctx, getItem, id).Scan(
		&it.ID, &it.ReceiptID, &it.Position, &it.ProductName, &it.Category,
		&it.SubCategory, &it.Quantity, &it.Unit, &it.UnitPriceCents, &it.TotalPriceCents)
	return it, err
}

const updateItem = `
UPDATE product_items
SET product_name = ?, category = ?, sub_category = ?, quantity = ?, unit = ?, unit_price_cents = ?, total_price_cents = ?
WHERE id = ?
`

type UpdateItemParams struct {
	ID              int64
	ProductName     string
	Category        string
	SubCategory     string
	Quantity        float64
	Unit            string
	UnitPriceCents  int64
	TotalPriceCents int64
}

func (q *Queries) UpdateItem(ctx context.Context, arg UpdateItemParams) error {
	_, err := q.db.ExecContext(ctx, updateItem,
		arg.ProductName, arg.Category, arg.SubCategory, arg.Quantity, arg.Unit,
		arg.UnitPriceCents, arg.TotalPriceCents, arg.ID)
	return err
}

const sumReceiptItems = `
SELECT COALESCE(SUM(total_price_cents), 0) FROM product_items WHERE receipt_id = ?
`

func (q *Queries) SumReceiptItems(ctx context.Context, receiptID int64) (int64, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx, sumReceiptItems, receiptID).Scan(&cents)
	return cents, err
}

const setReceiptTotal = `UPDATE receipts SET total_amount_cents = ? WHERE id = ?`

func (q *Queries) SetReceiptTotal(ctx context.Context, receiptID, cents int64) error {
	_, err := q.db.ExecContext(ctx, setReceiptTotal, cents, receiptID)
	return err
}

const searchSubCategories = `
SELECT DISTINCT sub_category
FROM product_items
WHERE sub_category <> '' AND LOWER(sub_category) LIKE ?
ORDER BY sub_category
LIMIT ?
`

func (q *Queries) SearchSubCategories(ctx context.Context, pattern string, limit int64) ([]string, error) {
	return q.queryStrings(ctx, searchSubCategories, pattern, limit)
}

const searchProductNames = `
SELECT DISTINCT product_name
FROM product_items
WHERE LOWER(product_name) LIKE ?
ORDER BY product_name
LIMIT ?
`

func (q *Queries) SearchProductNames(ctx context.Context, pattern string, limit int64) ([]string, error) {
	return q.queryStrings(ctx, searchProductNames, pattern, limit)
}

func (q *Queries) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const historyByProduct = `
SELECT i.id, i.product_name, r.purchase_date, i.unit_price_cents, r.supermarket_name
FROM product_items i
JOIN receipts r ON r.id = i.receipt_id
WHERE LOWER(i.product_name) LIKE ?
ORDER BY r.purchase_date ASC, r.id ASC, i.position ASC
`

func (q *Queries) HistoryByProduct(ctx context.Context, pattern string) ([]ObservationRow, error) {
	return q.queryObservations(ctx, historyByProduct, pattern)
}

const historyBySubCategory = `
SELECT i.id, i.product_name, r.purchase_date, i.unit_price_cents, r.supermarket_name
FROM product_items i
JOIN receipts r ON r.id = i.receipt_id
WHERE LOWER(i.sub_category) = LOWER(?)
ORDER BY r.purchase_date ASC, r.id ASC, i.position ASC
`

func (q *Queries) HistoryBySubCategory(ctx context.Context, name string) ([]ObservationRow, error) {
	return q.queryObservations(ctx, historyBySubCategory, name)
}

func (q *Queries) queryObservations(ctx context.Context, query string, args ...any) ([]ObservationRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ObservationRow
	for rows.Next() {
		var o ObservationRow
		if err := rows.Scan(&o.ItemID, &o.ProductName, &o.PurchaseDate, &o.UnitPriceCents, &o.SupermarketName); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
