package memory

import (
	"context"
	"errors"
	"testing"

	"marketlens/internal/core"
	"marketlens/internal/ports"
)

func seedStore(t *testing.T) *Store {
	t.Helper()
	return Seed(
		core.Receipt{
			SupermarketName: "Carrefour",
			Date:            core.NewDate(2024, 1, 15),
			Items: []core.Item{
				{ProductName: "Leite Integral Italac", Category: "LATICINIOS", SubCategory: "LEITE", Quantity: 2, Unit: "UN", UnitPrice: core.Money{Cents: 459}},
				{ProductName: "Feijao Carioca", Category: "MERCEARIA", SubCategory: "FEIJAO", Quantity: 1, Unit: "KG", UnitPrice: core.Money{Cents: 899}},
			},
		},
		core.Receipt{
			SupermarketName: "Pao de Acucar",
			Date:            core.NewDate(2024, 2, 10),
			Items: []core.Item{
				{ProductName: "Leite Desnatado Piracanjuba", Category: "LATICINIOS", SubCategory: "LEITE", Quantity: 1, Unit: "UN", UnitPrice: core.Money{Cents: 529}},
			},
		},
	)
}

func TestListReceiptsNewestFirst(t *testing.T) {
	s := seedStore(t)
	receipts, err := s.ListReceipts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(receipts) != 2 {
		t.Fatalf("expected 2 receipts, got %d", len(receipts))
	}
	if receipts[0].SupermarketName != "Pao de Acucar" {
		t.Fatalf("expected newest first, got %+v", receipts[0])
	}
	if receipts[1].TotalAmount.Cents != 2*459+899 {
		t.Fatalf("seed did not recompute totals: %+v", receipts[1])
	}
}

func TestSearchSmartTagsAndOrder(t *testing.T) {
	s := seedStore(t)
	got, err := s.SearchSmart(context.Background(), "lei")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected subcategory + 2 products, got %+v", got)
	}
	if got[0].Kind != core.SuggestionCategory || got[0].Name != "LEITE" {
		t.Fatalf("categories must rank first: %+v", got)
	}
	for _, sug := range got[1:] {
		if sug.Kind != core.SuggestionProduct {
			t.Fatalf("expected product suggestions after categories: %+v", got)
		}
	}
}

func TestHistoryByCategoryChronological(t *testing.T) {
	s := seedStore(t)
	obs, err := s.HistoryByCategory(context.Background(), "leite")
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %+v", obs)
	}
	if obs[0].Date.After(obs[1].Date.Time) {
		t.Fatalf("observations not chronological: %+v", obs)
	}
	if obs[0].Price.Cents != 459 || obs[1].Price.Cents != 529 {
		t.Fatalf("unexpected prices: %+v", obs)
	}

	trend := core.ComputeTrend(obs)
	if !trend.Defined || !trend.IsUp {
		t.Fatalf("expected upward trend, got %+v", trend)
	}
}

func TestHistoryByProductEmptyIsValid(t *testing.T) {
	s := seedStore(t)
	obs, err := s.HistoryByProduct(context.Background(), "caviar")
	if err != nil {
		t.Fatalf("empty history must not error: %v", err)
	}
	if len(obs) != 0 {
		t.Fatalf("expected no observations, got %+v", obs)
	}
}

func TestUpdateItemRecomputesTotals(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	receipts, _ := s.ListReceipts(ctx)
	target := receipts[1].Items[0] // Leite Integral
	target.Quantity = 3
	target.UnitPrice = core.Money{Cents: 500}
	target.TotalPrice = core.Money{Cents: 1} // bogus, must be recomputed

	saved, err := s.UpdateItem(ctx, target)
	if err != nil {
		t.Fatal(err)
	}
	if saved.TotalPrice.Cents != 1500 {
		t.Fatalf("server-side recompute missing: %+v", saved)
	}

	receipts, _ = s.ListReceipts(ctx)
	if receipts[1].TotalAmount.Cents != 1500+899 {
		t.Fatalf("receipt total not refreshed: %+v", receipts[1])
	}
}

func TestUpdateItemNotFound(t *testing.T) {
	s := seedStore(t)
	_, err := s.UpdateItem(context.Background(), core.Item{ID: 999, ProductName: "x", Quantity: 1})
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteReceipt(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	receipts, _ := s.ListReceipts(ctx)
	if err := s.DeleteReceipt(ctx, receipts[0].ID); err != nil {
		t.Fatal(err)
	}
	left, _ := s.ListReceipts(ctx)
	if len(left) != 1 {
		t.Fatalf("expected 1 receipt left, got %d", len(left))
	}
	if err := s.DeleteReceipt(ctx, 999); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
