// Package session owns the single in-memory snapshot a browsing session
// works on and the search state machine around it. All mutation flows
// through the pure transforms in core; the backend stays behind the port
// interfaces and is only touched at the boundaries.
package session

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"marketlens/internal/core"
	"marketlens/internal/log"
	"marketlens/internal/ports"
)

// MinQueryLength is the exclusive lower bound for suggestion lookups: a
// query must be strictly longer than this to hit the backing index. The
// bound counts runes, not bytes, so accented queries ("pã") behave like
// their unaccented spelling.
const MinQueryLength = 2

type State string

const (
	StateIdle       State = "idle"
	StateSuggesting State = "suggesting"
	StateSearching  State = "searching"
)

// Backend is the slice of the external collaborator a session needs.
type Backend interface {
	ports.ReceiptLister
	ports.ReceiptDeleter
	ports.ItemUpdater
	ports.SuggestionSource
	ports.HistorySource
}

type Session struct {
	mu      sync.Mutex
	backend Backend
	logger  *log.Logger

	receipts    []core.Receipt
	state       State
	query       string
	suggestions []core.Suggestion
	results     []core.PriceObservation
}

func New(backend Backend, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent("session")
	}
	return &Session{
		backend: backend,
		logger:  logger,
		state:   StateIdle,
	}
}

// Refresh replaces the snapshot with a fresh fetch. On failure the previous
// snapshot stays in place.
func (s *Session) Refresh(ctx context.Context) error {
	receipts, err := s.backend.ListReceipts(ctx)
	if err != nil {
		return fmt.Errorf("list receipts: %w", err)
	}
	s.mu.Lock()
	s.receipts = receipts
	s.mu.Unlock()
	return nil
}

// Receipts returns the current snapshot. The receipts themselves are shared
// read-only data; only the slice header is copied.
func (s *Session) Receipts() []core.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Receipt, len(s.receipts))
	copy(out, s.receipts)
	return out
}

// AddReceipt prepends a newly created receipt, keeping newest-first order.
func (s *Session) AddReceipt(r core.Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append([]core.Receipt{r}, s.receipts...)
}

// Categories aggregates the snapshot by macro category.
func (s *Session) Categories() []core.CategoryBucket {
	return core.AggregateByCategory(s.Receipts())
}

// Subcategories drills into one category of the snapshot.
func (s *Session) Subcategories(category string) []core.CategoryBucket {
	return core.AggregateBySubcategory(s.Receipts(), category)
}

// Months aggregates the snapshot into the monthly spending series.
func (s *Session) Months() []core.MonthBucket {
	return core.AggregateByMonth(s.Receipts())
}

// Suggest runs the smart-search lookup for query. Queries at or below
// MinQueryLength never reach the index and clear whatever suggestions were
// showing. Responses that come back after the query text has moved on are
// discarded: the most recent text is the source of truth, so a slow lookup
// for a stale prefix can never overwrite a newer suggestion list.
func (s *Session) Suggest(ctx context.Context, query string) ([]core.Suggestion, error) {
	s.mu.Lock()
	s.query = query
	if utf8.RuneCountInString(query) <= MinQueryLength {
		s.suggestions = nil
		if s.state == StateSuggesting {
			s.state = StateIdle
		}
		s.mu.Unlock()
		return nil, nil
	}
	s.mu.Unlock()

	got, err := s.backend.SearchSmart(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.query != query {
		s.logger.DebugContext(ctx, "Discarding stale suggestion response",
			"stale_query", query, "current_query", s.query)
		return s.suggestions, nil
	}
	if err != nil {
		return nil, fmt.Errorf("smart search %q: %w", query, err)
	}
	s.suggestions = got
	s.state = StateSuggesting
	return got, nil
}

// Select resolves a chosen suggestion into its price history. A CATEGORIA
// selection routes to the grouped category history, a PRODUTO selection to
// the exact-name history. An empty history is a valid outcome ("no
// occurrences"), distinct from a failed lookup, which leaves the session
// state untouched.
func (s *Session) Select(ctx context.Context, sel core.Suggestion) ([]core.PriceObservation, core.Trend, error) {
	var (
		obs []core.PriceObservation
		err error
	)
	switch sel.Kind {
	case core.SuggestionCategory:
		obs, err = s.backend.HistoryByCategory(ctx, sel.Name)
	case core.SuggestionProduct:
		obs, err = s.backend.HistoryByProduct(ctx, sel.Name)
	default:
		return nil, core.Trend{}, fmt.Errorf("unknown suggestion kind %q", sel.Kind)
	}
	if err != nil {
		return nil, core.Trend{}, fmt.Errorf("load history for %q: %w", sel.Name, err)
	}

	s.mu.Lock()
	s.state = StateSearching
	s.query = sel.Name
	s.suggestions = nil
	s.results = obs
	s.mu.Unlock()

	return obs, core.ComputeTrend(obs), nil
}

// Clear resets query text, suggestions and search results in one step and
// returns the session to idle.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.query = ""
	s.suggestions = nil
	s.results = nil
}

// UpdateItem sends the edited item to the backend and, when the save
// succeeds, patches the local snapshot with the saved item instead of
// refetching everything. A saved item the snapshot does not know is logged
// and left as a no-op; the caller may choose to Refresh.
func (s *Session) UpdateItem(ctx context.Context, item core.Item) (core.Item, error) {
	saved, err := s.backend.UpdateItem(ctx, item)
	if err != nil {
		return core.Item{}, fmt.Errorf("update item %d: %w", item.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !snapshotContainsItem(s.receipts, saved.ID) {
		s.logger.WarnContext(ctx, "Saved item unknown to local snapshot, skipping patch",
			"item_id", saved.ID)
		return saved, nil
	}
	s.receipts = core.ApplyItemUpdate(s.receipts, saved)
	return saved, nil
}

// DeleteReceipt deletes on the backend first and drops the receipt from the
// snapshot only after the backend confirms.
func (s *Session) DeleteReceipt(ctx context.Context, id int64) error {
	if err := s.backend.DeleteReceipt(ctx, id); err != nil {
		return fmt.Errorf("delete receipt %d: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.receipts[:0:0]
	for _, r := range s.receipts {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.receipts = kept
	return nil
}

// State reports the current phase of the search state machine.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Query returns the current query text.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Suggestions returns the currently shown suggestion list.
func (s *Session) Suggestions() []core.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Suggestion(nil), s.suggestions...)
}

// Results returns the active search results.
func (s *Session) Results() []core.PriceObservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PriceObservation(nil), s.results...)
}

func snapshotContainsItem(receipts []core.Receipt, id int64) bool {
	for _, r := range receipts {
		for _, it := range r.Items {
			if it.ID == id {
				return true
			}
		}
	}
	return false
}
