package core

import (
	"sort"
	"strings"
)

// MonthBucket is the derived aggregate behind the monthly spending chart.
type MonthBucket struct {
	MonthKey string // "YYYY-MM"
	Label    string // "Fev/24"
	Total    Money
}

// Short month names in pt-BR, index 1-12.
var shortMonthsPtBR = [...]string{"", "jan", "fev", "mar", "abr", "mai", "jun",
	"jul", "ago", "set", "out", "nov", "dez"}

// AggregateByMonth groups receipts by the "YYYY-MM" prefix of their date and
// sums the receipt totals (receipt-level granularity, not per item). Buckets
// are sorted ascending by key; the zero-padded key makes the lexicographic
// sort chronological. Months without receipts are simply absent.
func AggregateByMonth(receipts []Receipt) []MonthBucket {
	totals := make(map[string]int64)
	for _, r := range receipts {
		totals[r.Date.MonthKey()] += r.TotalAmount.Cents
	}

	buckets := make([]MonthBucket, 0, len(totals))
	for key, cents := range totals {
		buckets = append(buckets, MonthBucket{
			MonthKey: key,
			Label:    MonthLabel(key),
			Total:    Money{Cents: cents},
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].MonthKey < buckets[j].MonthKey
	})
	return buckets
}

// MonthLabel turns "2024-02" into the short pt-BR chart label "Fev/24",
// with the first letter capitalized. Malformed keys are returned as-is.
func MonthLabel(monthKey string) string {
	parts := strings.SplitN(monthKey, "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return monthKey
	}
	month := int(parts[1][0]-'0')*10 + int(parts[1][1]-'0')
	if month < 1 || month > 12 {
		return monthKey
	}
	name := shortMonthsPtBR[month]
	return strings.ToUpper(name[:1]) + name[1:] + "/" + parts[0][2:]
}
