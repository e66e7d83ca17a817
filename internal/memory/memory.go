// Package memory is an in-memory backend with the same contract as the
// SQLite repository. It backs local development without a database file and
// the HTTP server tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"marketlens/internal/core"
	"marketlens/internal/ports"
)

const searchLimit = 10

type Store struct {
	mu            sync.Mutex
	receipts      []core.Receipt // newest first
	nextReceiptID int64
	nextItemID    int64
}

func New() *Store {
	return &Store{nextReceiptID: 1, nextItemID: 1}
}

// Seed loads receipts through the normal create path, so ids and totals are
// assigned the same way uploads would get them.
func Seed(receipts ...core.Receipt) *Store {
	s := New()
	for _, r := range receipts {
		if _, err := s.CreateReceipt(context.Background(), r); err != nil {
			continue
		}
	}
	return s
}

// ListReceipts implements ports.ReceiptLister.
func (s *Store) ListReceipts(_ context.Context) ([]core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Receipt, len(s.receipts))
	copy(out, s.receipts)
	return out, nil
}

// CreateReceipt implements ports.ReceiptCreator.
func (s *Store) CreateReceipt(_ context.Context, r core.Receipt) (core.Receipt, error) {
	r = r.Recompute()
	if err := r.Validate(); err != nil {
		return core.Receipt{}, fmt.Errorf("validate receipt: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextReceiptID
	s.nextReceiptID++
	items := make([]core.Item, len(r.Items))
	copy(items, r.Items)
	for i := range items {
		items[i].ID = s.nextItemID
		s.nextItemID++
	}
	r.Items = items
	s.receipts = append([]core.Receipt{r}, s.receipts...)
	return r, nil
}

// DeleteReceipt implements ports.ReceiptDeleter.
func (s *Store) DeleteReceipt(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.receipts {
		if r.ID == id {
			s.receipts = append(s.receipts[:i], s.receipts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete receipt %d: %w", id, ports.ErrNotFound)
}

// UpdateItem implements ports.ItemUpdater with the same server-side
// recompute the SQLite backend performs.
func (s *Store) UpdateItem(_ context.Context, item core.Item) (core.Item, error) {
	item = item.Recompute()
	if err := item.Validate(); err != nil {
		return core.Item{}, fmt.Errorf("validate item: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ri, r := range s.receipts {
		for ii, it := range r.Items {
			if it.ID != item.ID {
				continue
			}
			items := make([]core.Item, len(r.Items))
			copy(items, r.Items)
			items[ii] = item
			r.Items = items
			r.TotalAmount = core.SumItems(items)
			s.receipts[ri] = r
			return item, nil
		}
	}
	return core.Item{}, fmt.Errorf("item %d: %w", item.ID, ports.ErrNotFound)
}

// SearchSmart implements ports.SuggestionSource: subcategories first, then
// product names, case-insensitive contains, capped at the same limit the
// SQLite backend uses.
func (s *Store) SearchSmart(_ context.Context, query string) ([]core.Suggestion, error) {
	needle := strings.ToLower(strings.TrimSpace(query))

	s.mu.Lock()
	defer s.mu.Unlock()

	subs := map[string]struct{}{}
	names := map[string]struct{}{}
	for _, r := range s.receipts {
		for _, it := range r.Items {
			if it.SubCategory != "" && strings.Contains(strings.ToLower(it.SubCategory), needle) {
				subs[it.SubCategory] = struct{}{}
			}
			if strings.Contains(strings.ToLower(it.ProductName), needle) {
				names[it.ProductName] = struct{}{}
			}
		}
	}

	suggestions := make([]core.Suggestion, 0, searchLimit)
	for _, name := range sortedKeys(subs) {
		suggestions = append(suggestions, core.Suggestion{Name: name, Kind: core.SuggestionCategory})
	}
	for _, name := range sortedKeys(names) {
		if len(suggestions) >= searchLimit {
			break
		}
		suggestions = append(suggestions, core.Suggestion{Name: name, Kind: core.SuggestionProduct})
	}
	if len(suggestions) > searchLimit {
		suggestions = suggestions[:searchLimit]
	}
	return suggestions, nil
}

// HistoryByProduct implements ports.HistorySource.
func (s *Store) HistoryByProduct(_ context.Context, exactName string) ([]core.PriceObservation, error) {
	needle := strings.ToLower(strings.TrimSpace(exactName))
	return s.collectObservations(func(it core.Item) bool {
		return strings.Contains(strings.ToLower(it.ProductName), needle)
	}), nil
}

// HistoryByCategory implements ports.HistorySource.
func (s *Store) HistoryByCategory(_ context.Context, categoryName string) ([]core.PriceObservation, error) {
	needle := strings.TrimSpace(categoryName)
	return s.collectObservations(func(it core.Item) bool {
		return strings.EqualFold(it.SubCategory, needle)
	}), nil
}

func (s *Store) collectObservations(match func(core.Item) bool) []core.PriceObservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.PriceObservation
	for _, r := range s.receipts {
		for _, it := range r.Items {
			if !match(it) {
				continue
			}
			out = append(out, core.PriceObservation{
				ItemID:      it.ID,
				ProductName: it.ProductName,
				Date:        r.Date,
				Price:       it.UnitPrice,
				Supermarket: r.SupermarketName,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
