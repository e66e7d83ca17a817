package core

import "sort"

// CategoryBucket is a derived (name, total) aggregate used for the category
// and subcategory spending breakdowns.
type CategoryBucket struct {
	Name  string
	Value Money
}

// AggregateByCategory groups every item of every receipt by macro category
// and sums the line totals. Buckets come back sorted by value, highest
// first; buckets with equal values keep the order in which their category
// was first seen. Items without a category land in FallbackCategory.
//
// The result is re-derived from scratch on every call; there is no
// incremental index to invalidate.
func AggregateByCategory(receipts []Receipt) []CategoryBucket {
	return bucketItems(receipts, func(it Item) (string, bool) {
		name := it.Category
		if name == "" {
			name = FallbackCategory
		}
		return name, true
	})
}

// AggregateBySubcategory is the drill-down companion of AggregateByCategory:
// it considers only items whose macro category equals category and groups
// them by subcategory, with FallbackSubcategory for items without one.
func AggregateBySubcategory(receipts []Receipt, category string) []CategoryBucket {
	return bucketItems(receipts, func(it Item) (string, bool) {
		if it.Category != category {
			return "", false
		}
		name := it.SubCategory
		if name == "" {
			name = FallbackSubcategory
		}
		return name, true
	})
}

func bucketItems(receipts []Receipt, keyOf func(Item) (string, bool)) []CategoryBucket {
	totals := make(map[string]int64)
	var order []string
	for _, r := range receipts {
		for _, it := range r.Items {
			key, ok := keyOf(it)
			if !ok {
				continue
			}
			if _, seen := totals[key]; !seen {
				order = append(order, key)
			}
			totals[key] += it.TotalPrice.Cents
		}
	}

	buckets := make([]CategoryBucket, 0, len(order))
	for _, name := range order {
		buckets = append(buckets, CategoryBucket{Name: name, Value: Money{Cents: totals[name]}})
	}
	// Stable keeps first-encounter order among equal values.
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Value.Cents > buckets[j].Value.Cents
	})
	return buckets
}

// TotalSpending sums the receipt totals across the whole snapshot.
func TotalSpending(receipts []Receipt) Money {
	var cents int64
	for _, r := range receipts {
		cents += r.TotalAmount.Cents
	}
	return Money{Cents: cents}
}

// BiggestExpense returns the highest-spending category bucket, i.e. the
// first one after sorting. ok is false for an empty snapshot.
func BiggestExpense(buckets []CategoryBucket) (CategoryBucket, bool) {
	if len(buckets) == 0 {
		return CategoryBucket{}, false
	}
	return buckets[0], true
}
