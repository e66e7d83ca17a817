package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	// FallbackCategory buckets items that arrive without a macro category.
	FallbackCategory = "OUTROS"
	// FallbackSubcategory buckets items without a subcategory inside a drill-down.
	FallbackSubcategory = "Geral"
)

const (
	SuggestionProduct  SuggestionKind = "PRODUTO"
	SuggestionCategory SuggestionKind = "CATEGORIA"
)

type (
	SuggestionKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Item is one product line inside a receipt.
	Item struct {
		ID          int64
		ProductName string
		Category    string // macro category, e.g. "LATICINIOS"
		SubCategory string // e.g. "LEITE"; may be empty
		Quantity    float64
		Unit        string // "UN", "KG", "LT"
		UnitPrice   Money
		TotalPrice  Money
	}

	// Receipt is one shopping transaction. Items keep scan order.
	Receipt struct {
		ID              int64
		SupermarketName string
		Date            Date
		TotalAmount     Money
		Items           []Item
	}

	// Suggestion is a search-autocomplete candidate. Kind decides which
	// history lookup runs when it is selected.
	Suggestion struct {
		Name string
		Kind SuggestionKind
	}

	// PriceObservation is one historical unit-price data point.
	PriceObservation struct {
		ItemID      int64
		ProductName string
		Date        Date
		Price       Money
		Supermarket string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrEmptyProductName = errors.New("empty product name")
	ErrEmptySupermarket = errors.New("empty supermarket name")
)

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthKey returns the zero-padded "YYYY-MM" prefix used for monthly grouping.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// LineTotal returns quantity * unit price, rounded half-up to the cent.
func (i Item) LineTotal() Money {
	return Money{Cents: int64(math.Round(i.Quantity * float64(i.UnitPrice.Cents)))}
}

// Recompute returns a copy with TotalPrice derived from quantity and unit
// price. External totals are never trusted.
func (i Item) Recompute() Item {
	i.TotalPrice = i.LineTotal()
	return i
}

func (i Item) Validate() error {
	if len(strings.TrimSpace(i.ProductName)) == 0 {
		return ErrEmptyProductName
	}
	if len(i.ProductName) > 200 {
		return errors.New("product name too long (max 200 characters)")
	}
	if i.Quantity <= 0 || math.IsNaN(i.Quantity) || math.IsInf(i.Quantity, 0) {
		return ErrInvalidQuantity
	}
	if i.UnitPrice.Cents < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// SumItems returns the sum of the items' line totals.
func SumItems(items []Item) Money {
	var cents int64
	for _, it := range items {
		cents += it.TotalPrice.Cents
	}
	return Money{Cents: cents}
}

// Recompute returns a copy of the receipt with every item total and the
// receipt total re-derived. Used on ingestion so the stored invariants never
// depend on what the extraction service sent.
func (r Receipt) Recompute() Receipt {
	items := make([]Item, len(r.Items))
	for i, it := range r.Items {
		items[i] = it.Recompute()
	}
	r.Items = items
	r.TotalAmount = SumItems(items)
	return r
}

func (r Receipt) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.SupermarketName)) == 0 {
		return ErrEmptySupermarket
	}
	for _, it := range r.Items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (k SuggestionKind) IsValid() bool {
	return k == SuggestionProduct || k == SuggestionCategory
}
