// Package engine orchestrates one allocation run.
//
// A run is a single-pass batch computation: fetch, classify, normalize,
// estimate, adjust, aggregate, reconcile. No state survives the run and no
// error is recovered locally; every failure aborts and surfaces to the caller.
package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cloudalloc/core/accrual"
	"cloudalloc/core/allocate"
	"cloudalloc/core/classify"
	"cloudalloc/core/period"
	"cloudalloc/core/policy"
	"cloudalloc/core/prepay"
	"cloudalloc/core/support"
	"cloudalloc/core/types"
	"cloudalloc/internal/logging"
)

// Source fetches the period's cost datasets from the reporting collaborator.
// Implementations own the filter predicates that keep the usage, support,
// and prepay datasets disjoint.
type Source interface {
	// UsageRows returns usage cost rows, support and prepay line items excluded
	UsageRows(ctx context.Context, p period.Period) ([]types.UsageRecord, error)

	// FirstDayCost returns the total usage cost of the window's first day
	FirstDayCost(ctx context.Context, p period.Period) (decimal.Decimal, error)

	// SupportCharges returns observed enterprise support line items by payer
	SupportCharges(ctx context.Context, p period.Period) ([]support.AccountCharge, error)

	// SupportedBase returns each support-eligible account's charge base,
	// the support line item itself excluded
	SupportedBase(ctx context.Context, p period.Period) ([]support.BaseCharge, error)

	// PrepayRows returns reserved-capacity purchase and cancellation charges
	PrepayRows(ctx context.Context, p period.Period) ([]types.PrepayRecord, error)
}

// RunRequest describes one allocation run
type RunRequest struct {
	// Period is the reporting window
	Period period.Period

	// InvoiceTarget molds the allocation total to a known bill when nonzero
	InvoiceTarget decimal.Decimal
}

// RunResult is the packaged outcome of a run
type RunResult struct {
	// RunID uniquely identifies this run in logs and output
	RunID string `json:"run_id"`

	// Period is the reporting window that was allocated
	Period period.Period `json:"period"`

	// Fee is the support fee total and whether it was observed or estimated
	Fee support.Fee `json:"support_fee"`

	// Allocation is the combined total by GL string
	Allocation types.Table `json:"allocation"`

	// Support is the fee breakout by owner cost center
	Support types.Table `json:"support"`

	// Prepay is the prepay breakout by owner center, nil when none exist
	Prepay types.Table `json:"prepay,omitempty"`
}

// Engine runs allocations against a reporting source and policy tables
type Engine struct {
	source Source
	tables *policy.Tables
}

// New creates an engine
func New(source Source, tables *policy.Tables) *Engine {
	return &Engine{source: source, tables: tables}
}

// Run executes one allocation end to end
func (e *Engine) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	runID := uuid.NewString()
	log := logging.With(zap.String("run_id", runID))
	log.Info("starting allocation run",
		zap.Time("start", req.Period.Start),
		zap.Time("end", req.Period.End),
		zap.Bool("full_month", req.Period.FullMonth))

	log.Info("calling reporting source for usage data")
	usage, err := e.source.UsageRows(ctx, req.Period)
	if err != nil {
		return nil, err
	}

	usage = classify.New(e.tables).Classify(usage)

	if !req.Period.FullMonth {
		log.Info("calling reporting source for first-day cost")
		firstDaySum, err := e.source.FirstDayCost(ctx, req.Period)
		if err != nil {
			return nil, err
		}
		usage, err = accrual.Normalize(usage, firstDaySum, req.Period.DaysObserved, req.Period.DaysInMonth)
		if err != nil {
			return nil, err
		}
	}

	log.Info("calling reporting source for support fee")
	observed, err := e.source.SupportCharges(ctx, req.Period)
	if err != nil {
		return nil, err
	}
	log.Info("calling reporting source for total supported charges by account")
	base, err := e.source.SupportedBase(ctx, req.Period)
	if err != nil {
		return nil, err
	}
	fee, supportRows, err := support.New(e.tables).Breakout(observed, base)
	if err != nil {
		return nil, err
	}

	log.Info("calling reporting source for reserved-capacity purchases")
	prepayRaw, err := e.source.PrepayRows(ctx, req.Period)
	if err != nil {
		return nil, err
	}
	prepayRows := prepay.Adjust(prepayRaw, e.tables.PrepayDiscount)

	aggregator := allocate.New(e.tables)
	result, err := aggregator.Allocate(allocate.Input{
		Usage:         usage,
		Support:       supportRows,
		Prepay:        prepayRows,
		InvoiceTarget: req.InvoiceTarget,
	})
	if err != nil {
		return nil, err
	}
	if err := aggregator.Reconcile(result); err != nil {
		return nil, err
	}

	log.Info("allocation run complete",
		zap.String("total", result.Allocation.Total().String()),
		zap.String("fee_source", string(fee.Source)))

	return &RunResult{
		RunID:      runID,
		Period:     req.Period,
		Fee:        fee,
		Allocation: result.Allocation,
		Support:    result.Support,
		Prepay:     result.Prepay,
	}, nil
}
