package allocate

import (
	"testing"

	"github.com/shopspring/decimal"

	"cloudalloc/core/policy"
	"cloudalloc/core/types"
	"cloudalloc/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
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
			"100":                "5605-000-00",
			"220":                "6795-220-00",
			"910":                "6795-910-00",
			policy.Unset:         "6795-999-00",
			policy.PrepayCenter:  "1310-000-00",
		},
		SupportTiers:    policy.DefaultSupportTiers(),
		SupportDiscount: dec("0.8"),
		PrepayDiscount:  dec("0.9"),
	}
}

func fixtureInput() Input {
	return Input{
		Usage: []types.UsageRecord{
			{UsageAccountID: "acct-a", CostCenter: "100", Cost: dec("60000")},
			{UsageAccountID: "acct-b", CostCenter: "220", Cost: dec("25000")},
			{UsageAccountID: "acct-c", CostCenter: "910", Cost: dec("15000")},
		},
		Support: []types.SupportBreakout{
			{UsageAccountID: "acct-a", CostCenter: "100", Cost: dec("5000")},
			{UsageAccountID: "acct-c", CostCenter: "910", Cost: dec("3000")},
		},
		Prepay: []types.PrepayRecord{
			{PayerAccountID: "acct-b", CostCenter: policy.PrepayCenter, Cost: dec("9000")},
		},
	}
}

func TestAllocateEstimateMode(t *testing.T) {
	a := New(fixtureTables())

	res, err := a.Allocate(fixtureInput())
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// Usage + support + prepay, grouped by GL string, sorted ascending.
	want := types.Table{
		{CostCenter: "1310-000-00", Cost: dec("9000")},
		{CostCenter: "5605-000-00", Cost: dec("65000")},
		{CostCenter: "6795-220-00", Cost: dec("25000")},
		{CostCenter: "6795-910-00", Cost: dec("18000")},
	}
	assertTable(t, "allocation", res.Allocation, want)

	if err := a.Reconcile(res); err != nil {
		t.Errorf("Reconcile in estimate mode: %v", err)
	}
}

func TestAllocateInvoiceMode(t *testing.T) {
	a := New(fixtureTables())

	in := fixtureInput()
	// Usage+support total is 108,000; the target nets to 99,000 after the
	// 9,000 prepay, so every usage and support row scales down.
	in.InvoiceTarget = dec("108000")

	res, err := a.Allocate(in)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// Scale factor is 99000/108000 = 11/12.
	want := types.Table{
		{CostCenter: "1310-000-00", Cost: dec("9000")},
		{CostCenter: "5605-000-00", Cost: dec("59583.33")},
		{CostCenter: "6795-220-00", Cost: dec("22916.67")},
		{CostCenter: "6795-910-00", Cost: dec("16500")},
	}
	assertTable(t, "allocation", res.Allocation, want)

	if !res.Allocation.Total().Equal(dec("108000").Round(2)) {
		t.Errorf("total = %s, want 108000.00", res.Allocation.Total())
	}
	if err := a.Reconcile(res); err != nil {
		t.Errorf("Reconcile: %v", err)
	}
}

// TestAllocatePreservesShares checks invoice rescaling keeps each row's
// relative share of the usage+support subtotal.
func TestAllocatePreservesShares(t *testing.T) {
	a := New(fixtureTables())

	in := fixtureInput()
	in.Prepay = nil
	in.InvoiceTarget = dec("54000") // exactly half the 108,000 subtotal

	res, err := a.Allocate(in)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	want := types.Table{
		{CostCenter: "5605-000-00", Cost: dec("32500")},
		{CostCenter: "6795-220-00", Cost: dec("12500")},
		{CostCenter: "6795-910-00", Cost: dec("9000")},
	}
	assertTable(t, "allocation", res.Allocation, want)
}

func TestReconcileMismatch(t *testing.T) {
	a := New(fixtureTables())

	res := &Result{
		Allocation:    types.Table{{CostCenter: "5605-000-00", Cost: dec("100")}},
		InvoiceTarget: dec("200"),
	}

	err := a.Reconcile(res)
	if err == nil {
		t.Fatal("expected reconciliation error")
	}
	if !errors.IsType(err, errors.TypeReconciliation) {
		t.Errorf("error type = %v, want reconciliation error", err)
	}
}

func TestAllocateMissingGLMapping(t *testing.T) {
	tables := fixtureTables()
	delete(tables.GLMapping, policy.Unset)
	a := New(tables)

	in := Input{
		Usage: []types.UsageRecord{{UsageAccountID: "acct-x", CostCenter: policy.Unset, Cost: dec("10")}},
	}
	_, err := a.Allocate(in)
	if err == nil {
		t.Fatal("expected policy mapping error for unmapped sentinel")
	}
	if !errors.IsType(err, errors.TypePolicyMapping) {
		t.Errorf("error type = %v, want policy mapping error", err)
	}
}

func TestAllocateSupportBreakout(t *testing.T) {
	a := New(fixtureTables())

	res, err := a.Allocate(fixtureInput())
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// Support breakout stays in owner center codes, not GL strings.
	want := types.Table{
		{CostCenter: "100", Cost: dec("5000")},
		{CostCenter: "910", Cost: dec("3000")},
	}
	assertTable(t, "support", res.Support, want)
}

func TestAllocatePrepayBreakout(t *testing.T) {
	a := New(fixtureTables())

	res, err := a.Allocate(fixtureInput())
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// Prepay breakout groups by the payer's owner center.
	want := types.Table{
		{CostCenter: "220", Cost: dec("9000")},
	}
	assertTable(t, "prepay", res.Prepay, want)
}

// TestAllocateNoPrepay checks the prepay table is absent, not zero-filled.
func TestAllocateNoPrepay(t *testing.T) {
	a := New(fixtureTables())

	in := fixtureInput()
	in.Prepay = nil

	res, err := a.Allocate(in)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if res.Prepay != nil {
		t.Errorf("prepay table = %v, want nil", res.Prepay)
	}
}

func TestAllocatePrepayUnmappedPayer(t *testing.T) {
	a := New(fixtureTables())

	in := fixtureInput()
	in.Prepay = []types.PrepayRecord{
		{PayerAccountID: "acct-nowhere", CostCenter: policy.PrepayCenter, Cost: dec("100")},
	}

	_, err := a.Allocate(in)
	if err == nil {
		t.Fatal("expected policy mapping error for unmapped payer account")
	}
	if !errors.IsType(err, errors.TypePolicyMapping) {
		t.Errorf("error type = %v, want policy mapping error", err)
	}
}

func assertTable(t *testing.T, name string, got, want types.Table) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s table has %d rows, want %d: %v", name, len(got), len(want), got)
	}
	for i := range want {
		if got[i].CostCenter != want[i].CostCenter {
			t.Errorf("%s row %d label = %q, want %q", name, i, got[i].CostCenter, want[i].CostCenter)
		}
		if !got[i].Cost.Equal(want[i].Cost) {
			t.Errorf("%s row %d cost = %s, want %s", name, i, got[i].Cost, want[i].Cost)
		}
	}
}
