package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"cloudalloc/core/period"
	"cloudalloc/core/policy"
	"cloudalloc/core/support"
	"cloudalloc/core/types"
	"cloudalloc/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// stubSource serves canned datasets for one period
type stubSource struct {
	usage       []types.UsageRecord
	firstDay    decimal.Decimal
	supCharges  []support.AccountCharge
	supBase     []support.BaseCharge
	prepayRows  []types.PrepayRecord
}

func (s *stubSource) UsageRows(ctx context.Context, p period.Period) ([]types.UsageRecord, error) {
	return s.usage, nil
}

func (s *stubSource) FirstDayCost(ctx context.Context, p period.Period) (decimal.Decimal, error) {
	return s.firstDay, nil
}

func (s *stubSource) SupportCharges(ctx context.Context, p period.Period) ([]support.AccountCharge, error) {
	return s.supCharges, nil
}

func (s *stubSource) SupportedBase(ctx context.Context, p period.Period) ([]support.BaseCharge, error) {
	return s.supBase, nil
}

func (s *stubSource) PrepayRows(ctx context.Context, p period.Period) ([]types.PrepayRecord, error) {
	return s.prepayRows, nil
}

func fixtureTables() *policy.Tables {
	return &policy.Tables{
		ValidCostCenters:     []string{"100", "220", "910"},
		ClusterDefaultCenter: "220",
		StagingClusterMarker: "stg",
		AccountOwner: map[string]string{
			"acct-a": "100",
			"acct-b": "220",
			"acct-c": "910",
		},
		GLMapping: map[string]string{
			"100":               "5605-000-00",
			"220":               "6795-220-00",
			"910":               "6795-910-00",
			policy.Unset:        "6795-999-00",
			policy.PrepayCenter: "1310-000-00",
		},
		SupportAccounts: []string{"acct-a", "acct-b", "acct-c"},
		SupportTiers:    policy.DefaultSupportTiers(),
		SupportDiscount: dec("0.8"),
		PrepayDiscount:  dec("0.9"),
	}
}

// fixtureSource mirrors the end-to-end scenario: no observed support charge,
// a 200,000 supported base forcing a 14,800 tier estimate, mistagged usage,
// and one prepay purchase.
func fixtureSource() *stubSource {
	return &stubSource{
		usage: []types.UsageRecord{
			{UsageAccountID: "acct-a", CostCenter: "100", Cost: dec("120000")},
			{UsageAccountID: "acct-b", CostCenter: "bogus-tag", Cost: dec("50000")},
			{UsageAccountID: "acct-c", CostCenter: "", ClusterTag: "prd-cluster", Cost: dec("30000")},
		},
		supBase: []support.BaseCharge{
			{UsageAccountID: "acct-a", Cost: dec("100000")},
			{UsageAccountID: "acct-b", Cost: dec("60000")},
			{UsageAccountID: "acct-c", Cost: dec("40000")},
		},
		prepayRows: []types.PrepayRecord{
			{PayerAccountID: "acct-c", Tag: "team-data", Cost: dec("10000")},
		},
	}
}

func fullMonth() period.Period {
	return period.Period{FullMonth: true, DaysInMonth: 31, DaysObserved: 31}
}

func TestRunEstimateMode(t *testing.T) {
	e := New(fixtureSource(), fixtureTables())

	res, err := e.Run(context.Background(), RunRequest{Period: fullMonth()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.RunID == "" {
		t.Error("run ID not set")
	}
	if res.Fee.Source != support.FeeSourceEstimated {
		t.Errorf("fee source = %s, want estimated", res.Fee.Source)
	}
	if !res.Fee.Amount.Equal(dec("14800")) {
		t.Errorf("fee = %s, want 14800", res.Fee.Amount)
	}

	// Usage 200,000 + fee 14,800 + discounted prepay 9,000.
	if want := dec("223800"); !res.Allocation.Total().Equal(want) {
		t.Errorf("allocation total = %s, want %s", res.Allocation.Total(), want)
	}

	// acct-b's bogus tag lands on its owner center 220; acct-c's untagged
	// production cluster lands on the cluster default 220.
	wantAlloc := map[string]string{
		"1310-000-00": "9000",
		"5605-000-00": "127400", // 120000 usage + 7400 fee share
		"6795-220-00": "84440",  // 50000 + 30000 usage + 4440 fee share
		"6795-910-00": "2960",   // fee share only
	}
	for _, row := range res.Allocation {
		if want, ok := wantAlloc[row.CostCenter]; !ok {
			t.Errorf("unexpected GL row %q", row.CostCenter)
		} else if !row.Cost.Equal(dec(want)) {
			t.Errorf("row %s = %s, want %s", row.CostCenter, row.Cost, want)
		}
	}

	// Prepay breakout groups by the payer's owner center.
	if len(res.Prepay) != 1 || res.Prepay[0].CostCenter != "910" || !res.Prepay[0].Cost.Equal(dec("9000")) {
		t.Errorf("prepay breakout = %v, want [910 9000]", res.Prepay)
	}
}

func TestRunInvoiceMode(t *testing.T) {
	e := New(fixtureSource(), fixtureTables())

	// Usage+support subtotal is 214,800; the target nets to 107,400 after
	// the 9,000 prepay, halving every usage and support row.
	res, err := e.Run(context.Background(), RunRequest{
		Period:        fullMonth(),
		InvoiceTarget: dec("116400"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !res.Allocation.Total().Equal(dec("116400")) {
		t.Errorf("allocation total = %s, want invoice 116400", res.Allocation.Total())
	}

	// Prepay is never molded to the invoice.
	for _, row := range res.Allocation {
		if row.CostCenter == "1310-000-00" && !row.Cost.Equal(dec("9000")) {
			t.Errorf("prepay row rescaled to %s", row.Cost)
		}
	}
}

func TestRunPartialMonth(t *testing.T) {
	src := fixtureSource()
	src.firstDay = dec("40000")
	e := New(src, fixtureTables())

	p := period.Period{FullMonth: false, DaysInMonth: 30, DaysObserved: 11}
	res, err := e.Run(context.Background(), RunRequest{Period: p})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Usage normalizes to ((200000-40000)/10)*29 + 40000 = 504,000, plus the
	// 14,800 fee and 9,000 prepay.
	if want := dec("527800"); !res.Allocation.Total().Equal(want) {
		t.Errorf("allocation total = %s, want %s", res.Allocation.Total(), want)
	}
}

func TestRunNoPrepay(t *testing.T) {
	src := fixtureSource()
	src.prepayRows = nil
	e := New(src, fixtureTables())

	res, err := e.Run(context.Background(), RunRequest{Period: fullMonth()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Prepay != nil {
		t.Errorf("prepay table = %v, want nil", res.Prepay)
	}
}

func TestRunObservedFee(t *testing.T) {
	src := fixtureSource()
	src.supCharges = []support.AccountCharge{
		{PayerAccountID: "payer-1", UsageAccountID: "acct-a", Cost: dec("16000")},
	}
	e := New(src, fixtureTables())

	res, err := e.Run(context.Background(), RunRequest{Period: fullMonth()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Fee.Source != support.FeeSourceObserved {
		t.Errorf("fee source = %s, want observed", res.Fee.Source)
	}
	if !res.Fee.Amount.Equal(dec("16000")) {
		t.Errorf("fee = %s, want 16000", res.Fee.Amount)
	}
}

func TestRunZeroSupportBase(t *testing.T) {
	src := fixtureSource()
	src.supBase = nil
	e := New(src, fixtureTables())

	_, err := e.Run(context.Background(), RunRequest{Period: fullMonth()})
	if err == nil {
		t.Fatal("expected computation error for zero supported-charge base")
	}
	if !errors.IsType(err, errors.TypeComputation) {
		t.Errorf("error type = %v, want computation error", err)
	}
}
