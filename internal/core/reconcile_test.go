package core

import (
	"reflect"
	"testing"
)

func TestApplyItemUpdate(t *testing.T) {
	receipts := receiptsFixture()
	updated := Item{
		ID:          2,
		ProductName: "Cerveja Heineken 600ml",
		Category:    "BEBIDAS",
		Quantity:    4,
		Unit:        "UN",
		UnitPrice:   Money{Cents: 899},
	}.Recompute()

	got := ApplyItemUpdate(receipts, updated)

	if len(got) != len(receipts) {
		t.Fatalf("receipt count changed: %d -> %d", len(receipts), len(got))
	}
	if len(got[0].Items) != len(receipts[0].Items) {
		t.Fatalf("item count changed: %d -> %d", len(receipts[0].Items), len(got[0].Items))
	}
	if got[0].Items[1].ProductName != "Cerveja Heineken 600ml" {
		t.Fatalf("item not replaced in place: %+v", got[0].Items)
	}
	if got[0].Items[0] != receipts[0].Items[0] || got[0].Items[2] != receipts[0].Items[2] {
		t.Fatalf("sibling items changed")
	}

	wantTotal := SumItems(got[0].Items)
	if got[0].TotalAmount != wantTotal {
		t.Fatalf("owning receipt total not recomputed: %+v != %+v", got[0].TotalAmount, wantTotal)
	}
	if updated.TotalPrice.Cents != 4*899 {
		t.Fatalf("line total invariant broken: %d", updated.TotalPrice.Cents)
	}
}

func TestApplyItemUpdateLeavesOtherReceiptsUntouched(t *testing.T) {
	receipts := receiptsFixture()
	updated := receipts[0].Items[0]
	updated.Quantity = 3
	updated = updated.Recompute()

	got := ApplyItemUpdate(receipts, updated)

	if !reflect.DeepEqual(got[1], receipts[1]) {
		t.Fatalf("unaffected receipt changed: %+v", got[1])
	}
	// Referential equality preserved for the untouched receipt's items.
	if &got[1].Items[0] != &receipts[1].Items[0] {
		t.Fatalf("unaffected receipt items were copied")
	}
	// Input snapshot not mutated.
	if receipts[0].Items[0].Quantity == 3 {
		t.Fatalf("input snapshot mutated")
	}
}

func TestApplyItemUpdateUnknownIDIsNoop(t *testing.T) {
	receipts := receiptsFixture()
	got := ApplyItemUpdate(receipts, Item{ID: 999, Quantity: 1})
	if !reflect.DeepEqual(got, receipts) {
		t.Fatalf("unknown id should leave collection unchanged")
	}
}

func TestApplyItemUpdateMatchesRecomputeFromScratch(t *testing.T) {
	receipts := receiptsFixture()
	updated := receipts[1].Items[0]
	updated.UnitPrice = Money{Cents: 999}
	updated = updated.Recompute()

	got := ApplyItemUpdate(receipts, updated)

	// A full refetch would recompute the receipt from its items; the local
	// patch must be indistinguishable from that.
	fresh := got[1].Recompute()
	if got[1].TotalAmount != fresh.TotalAmount {
		t.Fatalf("patched total %+v differs from recomputed %+v", got[1].TotalAmount, fresh.TotalAmount)
	}
}
