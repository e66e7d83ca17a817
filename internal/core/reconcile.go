package core

// ApplyItemUpdate patches the snapshot with an item the backend already
// saved, without refetching everything. It locates the receipt owning an
// item with the same ID, replaces that item in place (order of the remaining
// items untouched) and recomputes only that receipt's total from its items.
//
// Receipts that do not own the item are returned as-is, so their item slices
// keep referential equality with the input. When no receipt owns the item
// the snapshot comes back unchanged; the caller decides whether that is
// worth a full refetch.
func ApplyItemUpdate(receipts []Receipt, updated Item) []Receipt {
	target := -1
	for ri, r := range receipts {
		for _, it := range r.Items {
			if it.ID == updated.ID {
				target = ri
				break
			}
		}
		if target >= 0 {
			break
		}
	}
	if target < 0 {
		return receipts
	}

	out := make([]Receipt, len(receipts))
	copy(out, receipts)

	r := receipts[target]
	items := make([]Item, len(r.Items))
	for i, it := range r.Items {
		if it.ID == updated.ID {
			items[i] = updated
		} else {
			items[i] = it
		}
	}
	r.Items = items
	r.TotalAmount = SumItems(items)
	out[target] = r
	return out
}
