// Package allocate merges the classified datasets into final reporting tables.
package allocate

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cloudalloc/core/policy"
	"cloudalloc/core/types"
	"cloudalloc/internal/errors"
	"cloudalloc/internal/logging"
)

// currencyPlaces is the rounding precision for final amounts
const currencyPlaces = 2

// Input is the merged material for one allocation run
type Input struct {
	// Usage is the classified (and, for partial months, normalized) usage dataset
	Usage []types.UsageRecord

	// Support is the allocated enterprise support fee
	Support []types.SupportBreakout

	// Prepay is the discounted prepay dataset, possibly empty
	Prepay []types.PrepayRecord

	// InvoiceTarget rescales the combined total when nonzero; zero means
	// pure estimate mode
	InvoiceTarget decimal.Decimal
}

// Result holds the three packaged reporting tables
type Result struct {
	// Allocation is the combined total, grouped by GL string
	Allocation types.Table `json:"allocation"`

	// Support is the fee breakout, grouped by owner cost center
	Support types.Table `json:"support"`

	// Prepay is the prepay breakout, grouped by the payer's owner center.
	// Nil when the period had no prepay charges.
	Prepay types.Table `json:"prepay,omitempty"`

	// InvoiceTarget echoes the requested invoice total, zero in estimate mode
	InvoiceTarget decimal.Decimal `json:"invoice_target"`
}

// Aggregator combines usage, support, and prepay into posting-ready tables
type Aggregator struct {
	tables *policy.Tables
}

// New creates an aggregator over the given policy tables
func New(tables *policy.Tables) *Aggregator {
	return &Aggregator{tables: tables}
}

// Allocate merges the datasets, optionally rescales to the invoice target,
// and packages the three reporting tables. Prepay charges are never rescaled;
// when a target is given it is reduced by the prepay total and only the
// usage and support rows are molded to the remainder, preserving each row's
// relative share.
func (a *Aggregator) Allocate(in Input) (*Result, error) {
	combined, err := a.combine(in)
	if err != nil {
		return nil, err
	}

	logging.Info("creating final table with GL strings in place of cost centers")

	allocation, err := a.toLedger(types.Squash(combined).Round(currencyPlaces))
	if err != nil {
		return nil, err
	}

	prepayTable, err := a.prepayBreakout(in.Prepay)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allocation:    allocation,
		Support:       supportBreakout(in.Support),
		Prepay:        prepayTable,
		InvoiceTarget: in.InvoiceTarget,
	}, nil
}

// Reconcile verifies the invoice-equality guard. When a target was supplied,
// the allocation total must equal the rounded target exactly. This is the
// run's sole consistency guarantee and is never downgraded to a warning.
func (a *Aggregator) Reconcile(res *Result) error {
	if res.InvoiceTarget.IsZero() {
		return nil
	}

	total := res.Allocation.Total()
	want := res.InvoiceTarget.Round(currencyPlaces)
	if !total.Equal(want) {
		return errors.Reconciliation("invoice amount and allocation total unequal").
			WithContext("invoice", want.String()).
			WithContext("allocation_total", total.String())
	}
	return nil
}

func (a *Aggregator) combine(in Input) ([]types.AllocationRow, error) {
	rows := make([]types.AllocationRow, 0, len(in.Usage)+len(in.Support)+len(in.Prepay))
	for _, r := range in.Usage {
		rows = append(rows, types.AllocationRow{CostCenter: r.CostCenter, Cost: r.Cost})
	}
	for _, r := range in.Support {
		rows = append(rows, types.AllocationRow{CostCenter: r.CostCenter, Cost: r.Cost})
	}

	if in.InvoiceTarget.IsZero() {
		logging.Info("concatenating datasets")
		for _, r := range in.Prepay {
			rows = append(rows, types.AllocationRow{CostCenter: r.CostCenter, Cost: r.Cost})
		}
		return rows, nil
	}

	logging.Info("concatenating datasets and adjusting for invoice total",
		zap.String("invoice", in.InvoiceTarget.String()))

	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Cost)
	}
	if total.IsZero() {
		return nil, errors.Computation("combined usage and support total",
			"cannot rescale to invoice over a zero combined total")
	}

	adjusted := in.InvoiceTarget.Sub(types.PrepayTotal(in.Prepay))
	for i, r := range rows {
		rows[i].Cost = r.Cost.Div(total).Mul(adjusted)
	}
	for _, r := range in.Prepay {
		rows = append(rows, types.AllocationRow{CostCenter: r.CostCenter, Cost: r.Cost})
	}
	return rows, nil
}

// toLedger rewrites center codes to GL strings and re-sorts. Every center,
// the sentinel included, must have a ledger entry.
func (a *Aggregator) toLedger(t types.Table) (types.Table, error) {
	out := make([]types.AllocationRow, 0, len(t))
	for _, r := range t {
		gl, ok := a.tables.GL(r.CostCenter)
		if !ok {
			return nil, errors.PolicyMapping("gl_mapping", r.CostCenter)
		}
		out = append(out, types.AllocationRow{CostCenter: gl, Cost: r.Cost})
	}
	return types.Squash(out), nil
}

func supportBreakout(rows []types.SupportBreakout) types.Table {
	flat := make([]types.AllocationRow, len(rows))
	for i, r := range rows {
		flat[i] = types.AllocationRow{CostCenter: r.CostCenter, Cost: r.Cost}
	}
	return types.Squash(flat).Round(currencyPlaces)
}

// prepayBreakout groups prepay charges by the payer's owner cost center.
// Absent prepay charges yield a nil table, not a zero-filled one.
func (a *Aggregator) prepayBreakout(rows []types.PrepayRecord) (types.Table, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	flat := make([]types.AllocationRow, 0, len(rows))
	for _, r := range rows {
		owner, ok := a.tables.OwnerCenter(r.PayerAccountID)
		if !ok {
			return nil, errors.PolicyMapping("account_to_owner_center", r.PayerAccountID)
		}
		flat = append(flat, types.AllocationRow{CostCenter: owner, Cost: r.Cost})
	}
	return types.Squash(flat).Round(currencyPlaces), nil
}
