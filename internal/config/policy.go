package config

import (
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/shopspring/decimal"

	"cloudalloc/core/policy"
	"cloudalloc/internal/errors"
)

// policyFile is the HCL shape of the policy tables document
type policyFile struct {
	CostCenters *costCentersBlock `hcl:"cost_centers,block"`
	Owners      []ownerBlock      `hcl:"owner,block"`
	GLs         []glBlock         `hcl:"gl,block"`
	Support     *supportBlock     `hcl:"support,block"`
	Prepay      *prepayBlock      `hcl:"prepay,block"`
}

type costCentersBlock struct {
	Valid          []string `hcl:"valid"`
	ClusterDefault string   `hcl:"cluster_default"`
	StagingMarker  string   `hcl:"staging_marker,optional"`
}

type ownerBlock struct {
	Account string `hcl:"account,label"`
	Center  string `hcl:"center"`
}

type glBlock struct {
	Center string `hcl:"center,label"`
	Code   string `hcl:"code"`
}

type supportBlock struct {
	Accounts []string    `hcl:"accounts"`
	Discount float64     `hcl:"discount,optional"`
	Tiers    []tierBlock `hcl:"tier,block"`
}

type tierBlock struct {
	Floor float64 `hcl:"floor"`
	Rate  float64 `hcl:"rate"`
	Base  float64 `hcl:"base"`
}

type prepayBlock struct {
	Discount float64 `hcl:"discount,optional"`
}

// LoadPolicy reads the policy tables from an HCL file and validates them.
// Missing discounts and tier schedules fall back to the standard defaults.
func LoadPolicy(path string) (*policy.Tables, error) {
	var file policyFile
	if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
		return nil, errors.Config("failed to parse policy file", err)
	}

	if file.CostCenters == nil {
		return nil, errors.New(errors.TypeConfig, "policy file missing cost_centers block")
	}

	tables := &policy.Tables{
		ValidCostCenters:     file.CostCenters.Valid,
		ClusterDefaultCenter: file.CostCenters.ClusterDefault,
		StagingClusterMarker: file.CostCenters.StagingMarker,
		AccountOwner:         make(map[string]string, len(file.Owners)),
		GLMapping:            make(map[string]string, len(file.GLs)),
		SupportTiers:         policy.DefaultSupportTiers(),
		SupportDiscount:      decimal.NewFromFloat(0.8),
		PrepayDiscount:       decimal.NewFromFloat(0.9),
	}
	if tables.StagingClusterMarker == "" {
		tables.StagingClusterMarker = "stg"
	}

	for _, o := range file.Owners {
		tables.AccountOwner[o.Account] = o.Center
	}
	for _, g := range file.GLs {
		tables.GLMapping[g.Center] = g.Code
	}

	if file.Support != nil {
		tables.SupportAccounts = file.Support.Accounts
		if file.Support.Discount != 0 {
			tables.SupportDiscount = decimal.NewFromFloat(file.Support.Discount)
		}
		if len(file.Support.Tiers) > 0 {
			tables.SupportTiers = make([]policy.SupportTier, len(file.Support.Tiers))
			for i, t := range file.Support.Tiers {
				tables.SupportTiers[i] = policy.SupportTier{
					Floor: decimal.NewFromFloat(t.Floor),
					Rate:  decimal.NewFromFloat(t.Rate),
					Base:  decimal.NewFromFloat(t.Base),
				}
			}
		}
	}
	if file.Prepay != nil && file.Prepay.Discount != 0 {
		tables.PrepayDiscount = decimal.NewFromFloat(file.Prepay.Discount)
	}

	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return tables, nil
}
