// Package policy holds the allocation policy tables.
// Tables are explicit inputs to every component entry point, never ambient state,
// so the engine can run against varied policy fixtures.
package policy

import (
	"sort"

	"github.com/shopspring/decimal"

	"cloudalloc/internal/errors"
)

const (
	// Unset is the sentinel cost center for records with no valid tag
	Unset = "(not set)"

	// PrepayCenter is the dedicated cost center for reserved-capacity purchases
	PrepayCenter = "Pre-pay"
)

// SupportTier is one rung of the enterprise support fee schedule.
// The fee for a base amount within this tier is (base - Floor)*Rate + Base,
// before the negotiated discount is applied.
type SupportTier struct {
	// Floor is the inclusive lower bound of the tier
	Floor decimal.Decimal `json:"floor"`

	// Rate is the marginal rate applied above Floor
	Rate decimal.Decimal `json:"rate"`

	// Base is the accumulated fee at Floor from all lower tiers
	Base decimal.Decimal `json:"base"`
}

// Tables contains every policy table the allocation core consults
type Tables struct {
	// ValidCostCenters are center codes accepted verbatim from tags
	ValidCostCenters []string

	// ClusterDefaultCenter pays for untagged non-staging cluster usage
	ClusterDefaultCenter string

	// StagingClusterMarker identifies staging clusters by substring match
	StagingClusterMarker string

	// AccountOwner maps a usage account to its fallback owner cost center
	AccountOwner map[string]string

	// GLMapping maps a cost center code to its general-ledger string
	GLMapping map[string]string

	// SupportAccounts are the accounts subject to enterprise support cost-sharing
	SupportAccounts []string

	// SupportTiers is the fee schedule, ascending by Floor
	SupportTiers []SupportTier

	// SupportDiscount is the negotiated discount multiplier on the list fee
	SupportDiscount decimal.Decimal

	// PrepayDiscount is the negotiated discount multiplier on prepay purchases
	PrepayDiscount decimal.Decimal
}

// DefaultSupportTiers returns the published enterprise support schedule.
// Each tier's Base equals the fee accumulated through all lower tiers, which
// keeps the schedule continuous at every boundary.
func DefaultSupportTiers() []SupportTier {
	return []SupportTier{
		{Floor: decimal.Zero, Rate: dec("0.10"), Base: decimal.Zero},
		{Floor: dec("150000"), Rate: dec("0.07"), Base: dec("15000")},
		{Floor: dec("500000"), Rate: dec("0.05"), Base: dec("39500")},
		{Floor: dec("1000000"), Rate: dec("0.03"), Base: dec("64500")},
	}
}

// IsValidCenter reports whether cc is an accepted cost center code.
// The sentinel is always accepted.
func (t *Tables) IsValidCenter(cc string) bool {
	if cc == Unset {
		return true
	}
	for _, v := range t.ValidCostCenters {
		if v == cc {
			return true
		}
	}
	return false
}

// OwnerCenter returns the fallback owner cost center for an account
func (t *Tables) OwnerCenter(account string) (string, bool) {
	cc, ok := t.AccountOwner[account]
	return cc, ok
}

// GL returns the general-ledger string for a cost center code
func (t *Tables) GL(cc string) (string, bool) {
	gl, ok := t.GLMapping[cc]
	return gl, ok
}

// IsSupportAccount reports whether the account shares the enterprise support fee
func (t *Tables) IsSupportAccount(account string) bool {
	for _, a := range t.SupportAccounts {
		if a == account {
			return true
		}
	}
	return false
}

// Validate checks the tables for internal consistency
func (t *Tables) Validate() error {
	if t.ClusterDefaultCenter == "" {
		return errors.New(errors.TypeConfig, "cluster default cost center not set")
	}
	if !t.IsValidCenter(t.ClusterDefaultCenter) {
		return errors.Newf(errors.TypeConfig, "cluster default cost center %q is not a valid center", t.ClusterDefaultCenter)
	}
	if len(t.SupportTiers) == 0 {
		return errors.New(errors.TypeConfig, "support tier schedule is empty")
	}
	if !sort.SliceIsSorted(t.SupportTiers, func(i, j int) bool {
		return t.SupportTiers[i].Floor.LessThan(t.SupportTiers[j].Floor)
	}) {
		return errors.New(errors.TypeConfig, "support tiers must ascend by floor")
	}
	if !t.SupportTiers[0].Floor.IsZero() {
		return errors.New(errors.TypeConfig, "lowest support tier must start at zero")
	}
	if t.SupportDiscount.LessThanOrEqual(decimal.Zero) || t.SupportDiscount.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New(errors.TypeConfig, "support discount must be in (0, 1]")
	}
	if t.PrepayDiscount.LessThanOrEqual(decimal.Zero) || t.PrepayDiscount.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New(errors.TypeConfig, "prepay discount must be in (0, 1]")
	}
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
