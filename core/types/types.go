// Package types defines the allocation data model.
package types

import (
	"sort"

	"github.com/shopspring/decimal"
)

// UsageRecord is one raw usage row from the reporting source.
// Only the CostCenter field is mutated by classification; Cost is conserved.
type UsageRecord struct {
	// UsageAccountID is the account that consumed the usage
	UsageAccountID string `json:"usage_account_id"`

	// CostCenter is the raw or classified cost center tag
	CostCenter string `json:"cost_center"`

	// ClusterTag is the cluster name tag, dropped during classification
	ClusterTag string `json:"cluster_tag,omitempty"`

	// Cost is the usage cost in currency units
	Cost decimal.Decimal `json:"cost"`
}

// SupportBreakout is one account's share of the enterprise support fee.
// CostCenter is always a resolved owner center, never a raw tag.
type SupportBreakout struct {
	// UsageAccountID is the supported account
	UsageAccountID string `json:"usage_account_id"`

	// CostCenter is the account's owner cost center
	CostCenter string `json:"cost_center"`

	// Cost is the allocated fee share
	Cost decimal.Decimal `json:"cost"`
}

// PrepayRecord is one reserved-capacity purchase or cancellation charge
type PrepayRecord struct {
	// PayerAccountID is the account that paid the charge
	PayerAccountID string `json:"payer_account_id"`

	// Tag is the secondary free-form grouping tag
	Tag string `json:"tag,omitempty"`

	// CostCenter is the prepay constant once adjusted
	CostCenter string `json:"cost_center"`

	// Cost is the charge, post-discount once adjusted
	Cost decimal.Decimal `json:"cost"`
}

// AllocationRow is one (label, amount) pair of a final reporting table
type AllocationRow struct {
	// CostCenter is the row label: a center code or its GL string
	CostCenter string `json:"cost_center"`

	// Cost is the summed amount
	Cost decimal.Decimal `json:"cost"`
}

// Table is an ordered sequence of allocation rows ready for rendering
type Table []AllocationRow

// Squash groups rows by label and sums their cost, sorted by label ascending
func Squash(rows []AllocationRow) Table {
	sums := make(map[string]decimal.Decimal)
	for _, r := range rows {
		sums[r.CostCenter] = sums[r.CostCenter].Add(r.Cost)
	}

	out := make(Table, 0, len(sums))
	for cc, cost := range sums {
		out = append(out, AllocationRow{CostCenter: cc, Cost: cost})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CostCenter < out[j].CostCenter
	})
	return out
}

// Total returns the sum of all row costs
func (t Table) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range t {
		total = total.Add(r.Cost)
	}
	return total
}

// Round returns a copy with every cost rounded to the given places
func (t Table) Round(places int32) Table {
	out := make(Table, len(t))
	for i, r := range t {
		out[i] = AllocationRow{CostCenter: r.CostCenter, Cost: r.Cost.Round(places)}
	}
	return out
}

// UsageTotal sums the cost of a usage dataset
func UsageTotal(records []UsageRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Cost)
	}
	return total
}

// PrepayTotal sums the cost of a prepay dataset
func PrepayTotal(records []PrepayRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Cost)
	}
	return total
}
