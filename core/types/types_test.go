package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSquash(t *testing.T) {
	rows := []AllocationRow{
		{CostCenter: "910", Cost: decimal.RequireFromString("1.10")},
		{CostCenter: "100", Cost: decimal.RequireFromString("2.50")},
		{CostCenter: "910", Cost: decimal.RequireFromString("0.90")},
	}

	got := Squash(rows)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].CostCenter != "100" || got[1].CostCenter != "910" {
		t.Errorf("labels not sorted ascending: %v", got)
	}
	if !got[1].Cost.Equal(decimal.RequireFromString("2.00")) {
		t.Errorf("910 total = %s, want 2.00", got[1].Cost)
	}
}

func TestTableTotalAndRound(t *testing.T) {
	table := Table{
		{CostCenter: "a", Cost: decimal.RequireFromString("1.005")},
		{CostCenter: "b", Cost: decimal.RequireFromString("2.004")},
	}

	if want := decimal.RequireFromString("3.009"); !table.Total().Equal(want) {
		t.Errorf("total = %s, want %s", table.Total(), want)
	}

	rounded := table.Round(2)
	if !rounded[0].Cost.Equal(decimal.RequireFromString("1.01")) {
		t.Errorf("rounded = %s, want 1.01", rounded[0].Cost)
	}
	// Round returns a copy.
	if !table[0].Cost.Equal(decimal.RequireFromString("1.005")) {
		t.Errorf("original mutated: %s", table[0].Cost)
	}
}
