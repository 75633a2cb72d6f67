// Package prepay adjusts reserved-capacity purchase charges.
package prepay

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cloudalloc/core/policy"
	"cloudalloc/core/types"
	"cloudalloc/internal/logging"
)

// Adjust relabels purchase and cancellation charges to the prepay cost center
// and applies the negotiated discount. An empty input is a valid no-op, not
// an error. The input is not modified.
func Adjust(records []types.PrepayRecord, discount decimal.Decimal) []types.PrepayRecord {
	if len(records) == 0 {
		logging.Info("no reserved-capacity purchases found - moving on")
		return nil
	}

	logging.Info("allocating reserved-capacity purchases",
		zap.Int("records", len(records)), zap.String("discount", discount.String()))

	out := make([]types.PrepayRecord, len(records))
	for i, r := range records {
		r.CostCenter = policy.PrepayCenter
		r.Cost = r.Cost.Mul(discount)
		out[i] = r
	}
	return out
}
