// Package accrual extrapolates a partial month's cost to a full-month estimate.
//
// Recurring fees are front loaded on day 1 and would artificially inflate a
// linear extrapolation, so the day-1 cost is held fixed while the remainder
// scales with the number of days in the month.
package accrual

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cloudalloc/core/types"
	"cloudalloc/internal/errors"
	"cloudalloc/internal/logging"
)

// Normalize rescales every record's cost so the dataset total becomes the
// full-month estimate. Each row keeps its relative share of the observed
// total. Requires at least two observed days, since same-day data is
// unreliable, and a nonzero observed total.
func Normalize(records []types.UsageRecord, firstDaySum decimal.Decimal, daysObserved, daysInMonth int) ([]types.UsageRecord, error) {
	observedSum := types.UsageTotal(records)

	factor, err := scaleFactor(observedSum, firstDaySum, daysObserved, daysInMonth)
	if err != nil {
		return nil, err
	}

	logging.Info("adjusting accrual estimate for full month",
		zap.String("observed", observedSum.String()),
		zap.Int("days_observed", daysObserved),
		zap.Int("days_in_month", daysInMonth))

	out := make([]types.UsageRecord, len(records))
	for i, r := range records {
		r.Cost = r.Cost.Mul(factor)
		out[i] = r
	}
	return out, nil
}

// Extrapolate computes the full-month estimate of the linearly accruing
// remainder: everything observed after day 1, scaled from the observed day
// count to the rest of the month.
func Extrapolate(observedSum, firstDaySum decimal.Decimal, daysObserved, daysInMonth int) (decimal.Decimal, error) {
	if daysObserved < 2 {
		return decimal.Zero, errors.Computation("days observed",
			"accrual normalization needs at least two observed days")
	}
	if observedSum.IsZero() {
		return decimal.Zero, errors.Computation("observed cost total",
			"accrual normalization needs a nonzero observed cost total")
	}

	restSum := observedSum.Sub(firstDaySum).
		Div(decimal.NewFromInt(int64(daysObserved - 1))).
		Mul(decimal.NewFromInt(int64(daysInMonth - 1)))
	return restSum, nil
}

// scaleFactor is (restSum + firstDaySum) / observedSum, so that
// row.Cost * factor == (row.Cost/observedSum)*restSum + (row.Cost/observedSum)*firstDaySum.
func scaleFactor(observedSum, firstDaySum decimal.Decimal, daysObserved, daysInMonth int) (decimal.Decimal, error) {
	restSum, err := Extrapolate(observedSum, firstDaySum, daysObserved, daysInMonth)
	if err != nil {
		return decimal.Zero, err
	}
	return restSum.Add(firstDaySum).Div(observedSum), nil
}
