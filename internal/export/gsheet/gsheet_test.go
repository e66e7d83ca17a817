package gsheet

import (
	"testing"

	"marketlens/internal/core"
)

func TestSummaryRows(t *testing.T) {
	receipts := []core.Receipt{
		{
			SupermarketName: "Carrefour",
			Date:            core.NewDate(2024, 1, 15),
			Items: []core.Item{
				{ProductName: "Leite", Category: "LATICINIOS", Quantity: 1, UnitPrice: core.Money{Cents: 500}},
			},
		},
		{
			SupermarketName: "Extra",
			Date:            core.NewDate(2024, 2, 10),
			Items: []core.Item{
				{ProductName: "Feijao", Category: "MERCEARIA", Quantity: 1, UnitPrice: core.Money{Cents: 900}},
			},
		},
	}
	for i := range receipts {
		receipts[i] = receipts[i].Recompute()
	}

	rows := SummaryRows(receipts)

	if got := rows[0][0]; got != "Mes" {
		t.Fatalf("rows[0] = %v", rows[0])
	}
	if rows[1][0] != "Jan/24" || rows[2][0] != "Fev/24" {
		t.Fatalf("months not ascending with labels: %v %v", rows[1], rows[2])
	}

	// Category table follows a blank spacer row.
	if len(rows[3]) != 0 {
		t.Fatalf("expected spacer row, got %v", rows[3])
	}
	if rows[4][0] != "Categoria" {
		t.Fatalf("rows[4] = %v", rows[4])
	}
	if rows[5][0] != "MERCEARIA" || rows[5][1] != 9.0 {
		t.Fatalf("categories must be sorted by value desc: %v", rows[5])
	}

	last := rows[len(rows)-1]
	if last[0] != "Total geral" || last[1] != 14.0 {
		t.Fatalf("unexpected grand total row: %v", last)
	}
}

func TestSummaryRowsEmpty(t *testing.T) {
	rows := SummaryRows(nil)
	last := rows[len(rows)-1]
	if last[1] != 0.0 {
		t.Fatalf("empty snapshot grand total = %v", last)
	}
}
