// Package support computes the enterprise support fee and its allocation.
//
// The fee is either observed directly on the bill or estimated from the
// tiered schedule in the policy tables, then allocated across supported
// accounts in proportion to each account's share of the supported charge base.
package support

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cloudalloc/core/policy"
	"cloudalloc/core/types"
	"cloudalloc/internal/errors"
	"cloudalloc/internal/logging"
)

// FeeSource tags how the fee total was determined
type FeeSource string

const (
	// FeeSourceObserved means the fee was present as a billed line item
	FeeSourceObserved FeeSource = "observed"

	// FeeSourceEstimated means the fee was derived from the tier schedule
	FeeSourceEstimated FeeSource = "estimated"
)

// Fee is the period's support fee total and how it was determined
type Fee struct {
	Amount decimal.Decimal `json:"amount"`
	Source FeeSource       `json:"source"`
}

// AccountCharge is an observed support line-item charge grouped by payer
type AccountCharge struct {
	PayerAccountID string
	UsageAccountID string
	Cost           decimal.Decimal
}

// BaseCharge is one supported account's charge base, support line item excluded
type BaseCharge struct {
	UsageAccountID string
	Cost           decimal.Decimal
}

// Estimator computes and allocates the enterprise support fee
type Estimator struct {
	tables *policy.Tables
}

// New creates an estimator over the given policy tables
func New(tables *policy.Tables) *Estimator {
	return &Estimator{tables: tables}
}

// Breakout determines the period fee from the observed charges, falling back
// to a tier estimate over the supported charge base, and allocates it across
// accounts proportionally to their base share. The returned rows sum to the fee.
func (e *Estimator) Breakout(observed []AccountCharge, base []BaseCharge) (Fee, []types.SupportBreakout, error) {
	fee := e.fee(observed, base)

	rows, err := e.allocate(fee, base)
	if err != nil {
		return Fee{}, nil, err
	}
	return fee, rows, nil
}

func (e *Estimator) fee(observed []AccountCharge, base []BaseCharge) Fee {
	observedTotal := decimal.Zero
	for _, c := range observed {
		observedTotal = observedTotal.Add(c.Cost)
	}

	if observedTotal.GreaterThan(decimal.Zero) {
		logging.Info("support fee observed on bill", zap.String("fee", observedTotal.String()))
		return Fee{Amount: observedTotal, Source: FeeSourceObserved}
	}

	actual := baseTotal(base)
	estimate := TierFee(e.tables.SupportTiers, e.tables.SupportDiscount, actual)
	logging.Info("no support fee found - generating estimate",
		zap.String("base", actual.String()),
		zap.String("fee", estimate.String()))
	return Fee{Amount: estimate, Source: FeeSourceEstimated}
}

// TierFee evaluates the tiered fee schedule for a supported charge base.
// Tiers must ascend by floor with the first floor at zero; the matching tier
// is the highest one whose floor does not exceed the base.
func TierFee(tiers []policy.SupportTier, discount, base decimal.Decimal) decimal.Decimal {
	tier := tiers[0]
	for _, t := range tiers[1:] {
		if base.GreaterThanOrEqual(t.Floor) {
			tier = t
		}
	}
	list := base.Sub(tier.Floor).Mul(tier.Rate).Add(tier.Base)
	return list.Mul(discount)
}

// allocate distributes the fee across accounts by base share and resolves
// each account to its owner cost center.
func (e *Estimator) allocate(fee Fee, base []BaseCharge) ([]types.SupportBreakout, error) {
	actual := baseTotal(base)
	if actual.IsZero() {
		return nil, errors.Computation("supported-charge base",
			"cannot allocate support fee over a zero supported-charge base")
	}

	logging.Info("calculating support fee allocation by account",
		zap.Int("accounts", len(base)), zap.String("source", string(fee.Source)))

	rows := make([]types.SupportBreakout, 0, len(base))
	for _, b := range base {
		owner, ok := e.tables.OwnerCenter(b.UsageAccountID)
		if !ok {
			return nil, errors.PolicyMapping("account_to_owner_center", b.UsageAccountID)
		}
		rows = append(rows, types.SupportBreakout{
			UsageAccountID: b.UsageAccountID,
			CostCenter:     owner,
			Cost:           b.Cost.Div(actual).Mul(fee.Amount),
		})
	}
	return rows, nil
}

func baseTotal(base []BaseCharge) decimal.Decimal {
	total := decimal.Zero
	for _, b := range base {
		total = total.Add(b.Cost)
	}
	return total
}
