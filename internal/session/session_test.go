package session

import (
	"context"
	"errors"
	"testing"

	"marketlens/internal/core"
)

type fakeBackend struct {
	receipts    []core.Receipt
	suggestions []core.Suggestion
	byProduct   []core.PriceObservation
	byCategory  []core.PriceObservation

	searchCalls  []string
	productCalls []string
	catCalls     []string

	searchHook func(query string)
	searchErr  error
	historyErr error
	updateErr  error
}

func (f *fakeBackend) ListReceipts(context.Context) ([]core.Receipt, error) {
	return f.receipts, nil
}

func (f *fakeBackend) DeleteReceipt(_ context.Context, id int64) error {
	return nil
}

func (f *fakeBackend) UpdateItem(_ context.Context, item core.Item) (core.Item, error) {
	if f.updateErr != nil {
		return core.Item{}, f.updateErr
	}
	return item.Recompute(), nil
}

func (f *fakeBackend) SearchSmart(_ context.Context, query string) ([]core.Suggestion, error) {
	f.searchCalls = append(f.searchCalls, query)
	if f.searchHook != nil {
		hook := f.searchHook
		f.searchHook = nil
		hook(query)
	}
	return f.suggestions, f.searchErr
}

func (f *fakeBackend) HistoryByProduct(_ context.Context, name string) ([]core.PriceObservation, error) {
	f.productCalls = append(f.productCalls, name)
	return f.byProduct, f.historyErr
}

func (f *fakeBackend) HistoryByCategory(_ context.Context, name string) ([]core.PriceObservation, error) {
	f.catCalls = append(f.catCalls, name)
	return f.byCategory, f.historyErr
}

func testReceipts() []core.Receipt {
	r := core.Receipt{
		ID:              1,
		SupermarketName: "Carrefour",
		Date:            core.NewDate(2024, 1, 15),
		Items: []core.Item{
			{ID: 10, ProductName: "Leite Integral", Category: "LATICINIOS", SubCategory: "LEITE", Quantity: 2, UnitPrice: core.Money{Cents: 459}},
		},
	}
	return []core.Receipt{r.Recompute()}
}

func TestSuggestTriggerBoundary(t *testing.T) {
	f := &fakeBackend{suggestions: []core.Suggestion{{Name: "Leite", Kind: core.SuggestionCategory}}}
	s := New(f, nil)
	ctx := context.Background()

	got, err := s.Suggest(ctx, "le")
	if err != nil || got != nil {
		t.Fatalf("2-char query must not suggest: got %+v err %v", got, err)
	}
	if len(f.searchCalls) != 0 {
		t.Fatalf("2-char query issued a lookup: %v", f.searchCalls)
	}

	got, err = s.Suggest(ctx, "lei")
	if err != nil {
		t.Fatalf("3-char query: %v", err)
	}
	if len(f.searchCalls) != 1 || f.searchCalls[0] != "lei" {
		t.Fatalf("expected one lookup for %q, got %v", "lei", f.searchCalls)
	}
	if len(got) != 1 || s.State() != StateSuggesting {
		t.Fatalf("expected suggesting state with results, got %+v state=%s", got, s.State())
	}
}

func TestSuggestTriggerCountsRunes(t *testing.T) {
	f := &fakeBackend{suggestions: []core.Suggestion{{Name: "Pão Francês", Kind: core.SuggestionProduct}}}
	s := New(f, nil)
	ctx := context.Background()

	// "pã" is three bytes but two characters; it must behave like "pa".
	got, err := s.Suggest(ctx, "pã")
	if err != nil || got != nil {
		t.Fatalf("2-rune query must not suggest: got %+v err %v", got, err)
	}
	if len(f.searchCalls) != 0 {
		t.Fatalf("2-rune query issued a lookup: %v", f.searchCalls)
	}

	if _, err := s.Suggest(ctx, "pão"); err != nil {
		t.Fatal(err)
	}
	if len(f.searchCalls) != 1 || f.searchCalls[0] != "pão" {
		t.Fatalf("expected one lookup for %q, got %v", "pão", f.searchCalls)
	}
}

func TestSuggestShortQueryClearsShownSuggestions(t *testing.T) {
	f := &fakeBackend{suggestions: []core.Suggestion{{Name: "Leite", Kind: core.SuggestionProduct}}}
	s := New(f, nil)
	ctx := context.Background()

	if _, err := s.Suggest(ctx, "leite"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Suggest(ctx, "le"); err != nil {
		t.Fatal(err)
	}
	if got := s.Suggestions(); len(got) != 0 {
		t.Fatalf("short query must clear suggestions, got %+v", got)
	}
	if s.State() != StateIdle {
		t.Fatalf("expected idle after clearing, got %s", s.State())
	}
}

func TestSuggestStaleResponseDiscarded(t *testing.T) {
	f := &fakeBackend{suggestions: []core.Suggestion{{Name: "Leite Integral", Kind: core.SuggestionProduct}}}
	s := New(f, nil)
	ctx := context.Background()

	// While the lookup for "lei" is in flight, the user keeps typing and a
	// newer lookup for "leite" resolves first.
	f.searchHook = func(string) {
		f.suggestions = []core.Suggestion{{Name: "Leite", Kind: core.SuggestionCategory}}
		if _, err := s.Suggest(ctx, "leite"); err != nil {
			t.Errorf("inner suggest: %v", err)
		}
		f.suggestions = []core.Suggestion{{Name: "stale", Kind: core.SuggestionProduct}}
	}

	got, err := s.Suggest(ctx, "lei")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Leite" {
		t.Fatalf("stale response overwrote newer suggestions: %+v", got)
	}
	if q := s.Query(); q != "leite" {
		t.Fatalf("query text must stay at the newest value, got %q", q)
	}
}

func TestSelectRoutesByKind(t *testing.T) {
	f := &fakeBackend{
		byProduct:  []core.PriceObservation{{Price: core.Money{Cents: 1000}}, {Price: core.Money{Cents: 1200}}},
		byCategory: []core.PriceObservation{{Price: core.Money{Cents: 500}}},
	}
	s := New(f, nil)
	ctx := context.Background()

	obs, trend, err := s.Select(ctx, core.Suggestion{Name: "Leite Integral", Kind: core.SuggestionProduct})
	if err != nil {
		t.Fatal(err)
	}
	if len(f.productCalls) != 1 || len(f.catCalls) != 0 {
		t.Fatalf("product selection routed wrong: products=%v categories=%v", f.productCalls, f.catCalls)
	}
	if len(obs) != 2 || !trend.Defined || trend.VariationPercent != 20 || !trend.IsUp {
		t.Fatalf("unexpected history/trend: %+v %+v", obs, trend)
	}
	if s.State() != StateSearching {
		t.Fatalf("expected searching state, got %s", s.State())
	}

	if _, _, err := s.Select(ctx, core.Suggestion{Name: "LEITE", Kind: core.SuggestionCategory}); err != nil {
		t.Fatal(err)
	}
	if len(f.catCalls) != 1 {
		t.Fatalf("category selection did not route to category history")
	}

	if _, _, err := s.Select(ctx, core.Suggestion{Name: "x", Kind: "WAT"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestSelectEmptyHistoryIsValid(t *testing.T) {
	f := &fakeBackend{}
	s := New(f, nil)

	obs, trend, err := s.Select(context.Background(), core.Suggestion{Name: "Caviar", Kind: core.SuggestionProduct})
	if err != nil {
		t.Fatalf("empty history must not be an error: %v", err)
	}
	if len(obs) != 0 || trend.Defined {
		t.Fatalf("expected empty, undefined trend: %+v %+v", obs, trend)
	}
}

func TestSelectFailureLeavesStateIntact(t *testing.T) {
	f := &fakeBackend{suggestions: []core.Suggestion{{Name: "Leite", Kind: core.SuggestionProduct}}}
	s := New(f, nil)
	ctx := context.Background()

	if _, err := s.Suggest(ctx, "leite"); err != nil {
		t.Fatal(err)
	}
	f.historyErr = errors.New("boom")
	if _, _, err := s.Select(ctx, core.Suggestion{Name: "Leite", Kind: core.SuggestionProduct}); err == nil {
		t.Fatalf("expected error")
	}
	if s.State() != StateSuggesting || len(s.Suggestions()) != 1 {
		t.Fatalf("failed lookup must leave prior state intact: state=%s", s.State())
	}
}

func TestClearResetsEverything(t *testing.T) {
	f := &fakeBackend{
		suggestions: []core.Suggestion{{Name: "Leite", Kind: core.SuggestionProduct}},
		byProduct:   []core.PriceObservation{{Price: core.Money{Cents: 100}}},
	}
	s := New(f, nil)
	ctx := context.Background()

	if _, err := s.Suggest(ctx, "leite"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Select(ctx, core.Suggestion{Name: "Leite", Kind: core.SuggestionProduct}); err != nil {
		t.Fatal(err)
	}

	s.Clear()
	if s.State() != StateIdle || s.Query() != "" || len(s.Suggestions()) != 0 || len(s.Results()) != 0 {
		t.Fatalf("clear did not reset session: state=%s query=%q", s.State(), s.Query())
	}
}

func TestUpdateItemPatchesSnapshot(t *testing.T) {
	f := &fakeBackend{receipts: testReceipts()}
	s := New(f, nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	edited := core.Item{ID: 10, ProductName: "Leite Integral Italac", Category: "LATICINIOS", SubCategory: "LEITE", Quantity: 3, Unit: "UN", UnitPrice: core.Money{Cents: 500}}
	saved, err := s.UpdateItem(ctx, edited)
	if err != nil {
		t.Fatal(err)
	}
	if saved.TotalPrice.Cents != 1500 {
		t.Fatalf("backend recompute missing: %+v", saved)
	}

	got := s.Receipts()
	if got[0].Items[0].ProductName != "Leite Integral Italac" {
		t.Fatalf("snapshot not patched: %+v", got[0].Items[0])
	}
	if got[0].TotalAmount.Cents != 1500 {
		t.Fatalf("receipt total not reconciled: %d", got[0].TotalAmount.Cents)
	}
}

func TestUpdateItemUnknownIDIsNoop(t *testing.T) {
	f := &fakeBackend{receipts: testReceipts()}
	s := New(f, nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	before := s.Receipts()

	if _, err := s.UpdateItem(ctx, core.Item{ID: 999, ProductName: "x", Quantity: 1}); err != nil {
		t.Fatalf("unknown id is a no-op, not an error: %v", err)
	}
	after := s.Receipts()
	if len(after) != len(before) || after[0].TotalAmount != before[0].TotalAmount {
		t.Fatalf("snapshot changed on unknown id")
	}
}

func TestUpdateItemFailureLeavesSnapshot(t *testing.T) {
	f := &fakeBackend{receipts: testReceipts(), updateErr: errors.New("network down")}
	s := New(f, nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateItem(ctx, core.Item{ID: 10, Quantity: 5}); err == nil {
		t.Fatalf("expected error")
	}
	if got := s.Receipts(); got[0].Items[0].Quantity != 2 {
		t.Fatalf("failed update partially applied: %+v", got[0].Items[0])
	}
}

func TestDeleteReceiptDropsFromSnapshot(t *testing.T) {
	f := &fakeBackend{receipts: testReceipts()}
	s := New(f, nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteReceipt(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if got := s.Receipts(); len(got) != 0 {
		t.Fatalf("receipt not dropped: %+v", got)
	}
}

func TestDashboardHelpers(t *testing.T) {
	f := &fakeBackend{receipts: testReceipts()}
	s := New(f, nil)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	cats := s.Categories()
	if len(cats) != 1 || cats[0].Name != "LATICINIOS" {
		t.Fatalf("unexpected categories: %+v", cats)
	}
	subs := s.Subcategories("LATICINIOS")
	if len(subs) != 1 || subs[0].Name != "LEITE" {
		t.Fatalf("unexpected subcategories: %+v", subs)
	}
	months := s.Months()
	if len(months) != 1 || months[0].MonthKey != "2024-01" {
		t.Fatalf("unexpected months: %+v", months)
	}
}
