package reporting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cloudalloc/core/engine"
	"cloudalloc/core/period"
	"cloudalloc/core/support"
	"cloudalloc/core/types"
	"cloudalloc/internal/errors"
)

// Dimensions names the reporting dimensions and metric used by the source
type Dimensions struct {
	// PayerAccount is the paying account dimension
	PayerAccount string `json:"payer_account"`

	// UsageAccount is the consuming account dimension
	UsageAccount string `json:"usage_account"`

	// CostCenter is the cost center tag dimension
	CostCenter string `json:"cost_center"`

	// ClusterTag is the cluster name tag dimension
	ClusterTag string `json:"cluster_tag"`

	// SecondaryTag is the free-form grouping tag on prepay charges
	SecondaryTag string `json:"secondary_tag"`

	// Metric is the cost metric column
	Metric string `json:"metric"`
}

// LineItems names the line-item predicates that keep the three datasets disjoint
type LineItems struct {
	// Dimension is the line-item description dimension
	Dimension string `json:"dimension"`

	// Support is the enterprise support line item, matched exactly
	Support string `json:"support"`

	// PrepayContains are the prepay line items, matched by substring
	PrepayContains []string `json:"prepay_contains"`
}

// DefaultDimensions returns the standard reporting dimension names
func DefaultDimensions() Dimensions {
	return Dimensions{
		PayerAccount: "account_identifier",
		UsageAccount: "vendor_account_identifier",
		CostCenter:   "cost_center",
		ClusterTag:   "cluster",
		SecondaryTag: "tag2",
		Metric:       "unblended_cost",
	}
}

// DefaultLineItems returns the standard line-item predicates
func DefaultLineItems() LineItems {
	return LineItems{
		Dimension:      "item_description",
		Support:        "AWS Support (Enterprise)",
		PrepayContains: []string{"ri cancellation", "sign up charge for subscription"},
	}
}

// Source implements engine.Source over the reporting client. The usage,
// support, and prepay queries carry mutually exclusive line-item predicates,
// so the datasets are disjoint in origin.
type Source struct {
	client          *Client
	dims            Dimensions
	items           LineItems
	supportAccounts []string
}

var _ engine.Source = (*Source)(nil)

// NewSource creates a reporting source
func NewSource(client *Client, dims Dimensions, items LineItems, supportAccounts []string) *Source {
	return &Source{
		client:          client,
		dims:            dims,
		items:           items,
		supportAccounts: supportAccounts,
	}
}

// UsageRows fetches usage cost, support and prepay line items excluded
func (s *Source) UsageRows(ctx context.Context, p period.Period) ([]types.UsageRecord, error) {
	rows, err := s.client.FetchCostRows(ctx, s.usageQuery(p.Start, p.End))
	if err != nil {
		return nil, err
	}

	records := make([]types.UsageRecord, len(rows))
	for i, r := range rows {
		records[i] = types.UsageRecord{
			UsageAccountID: r.Dimensions[s.dims.UsageAccount],
			CostCenter:     r.Dimensions[s.dims.CostCenter],
			ClusterTag:     r.Dimensions[s.dims.ClusterTag],
			Cost:           r.Cost,
		}
	}
	return records, nil
}

// FirstDayCost fetches the usage total for the window's first day only
func (s *Source) FirstDayCost(ctx context.Context, p period.Period) (decimal.Decimal, error) {
	rows, err := s.client.FetchCostRows(ctx, s.usageQuery(p.Start, p.Start))
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Cost)
	}
	return total, nil
}

// SupportCharges fetches observed enterprise support line items by payer
func (s *Source) SupportCharges(ctx context.Context, p period.Period) ([]support.AccountCharge, error) {
	rows, err := s.client.FetchCostRows(ctx, Query{
		Start:      p.Start,
		End:        p.End,
		Dimensions: []string{s.dims.PayerAccount, s.dims.UsageAccount},
		Metric:     s.dims.Metric,
		SortBy:     s.dims.PayerAccount,
		Filters:    []Filter{Equals(s.items.Dimension, s.items.Support)},
	})
	if err != nil {
		return nil, err
	}

	charges := make([]support.AccountCharge, len(rows))
	for i, r := range rows {
		charges[i] = support.AccountCharge{
			PayerAccountID: r.Dimensions[s.dims.PayerAccount],
			UsageAccountID: r.Dimensions[s.dims.UsageAccount],
			Cost:           r.Cost,
		}
	}
	return charges, nil
}

// SupportedBase fetches each support-eligible account's charge base,
// the support line item itself excluded
func (s *Source) SupportedBase(ctx context.Context, p period.Period) ([]support.BaseCharge, error) {
	filters := In(s.dims.UsageAccount, s.supportAccounts)
	filters = append(filters, NotEquals(s.items.Dimension, s.items.Support))

	rows, err := s.client.FetchCostRows(ctx, Query{
		Start:      p.Start,
		End:        p.End,
		Dimensions: []string{s.dims.UsageAccount},
		Metric:     s.dims.Metric,
		SortBy:     s.dims.UsageAccount,
		Filters:    filters,
	})
	if err != nil {
		return nil, err
	}

	base := make([]support.BaseCharge, len(rows))
	for i, r := range rows {
		base[i] = support.BaseCharge{
			UsageAccountID: r.Dimensions[s.dims.UsageAccount],
			Cost:           r.Cost,
		}
	}
	return base, nil
}

// PrepayRows fetches reserved-capacity purchase and cancellation charges
func (s *Source) PrepayRows(ctx context.Context, p period.Period) ([]types.PrepayRecord, error) {
	filters := make([]Filter, 0, len(s.items.PrepayContains))
	for _, item := range s.items.PrepayContains {
		filters = append(filters, Contains(s.items.Dimension, item))
	}

	rows, err := s.client.FetchCostRows(ctx, Query{
		Start:      p.Start,
		End:        p.End,
		Dimensions: []string{s.dims.PayerAccount, s.dims.SecondaryTag},
		Metric:     s.dims.Metric,
		SortBy:     s.dims.PayerAccount,
		Filters:    filters,
	})
	if err != nil {
		return nil, err
	}

	records := make([]types.PrepayRecord, len(rows))
	for i, r := range rows {
		records[i] = types.PrepayRecord{
			PayerAccountID: r.Dimensions[s.dims.PayerAccount],
			Tag:            r.Dimensions[s.dims.SecondaryTag],
			Cost:           r.Cost,
		}
	}
	return records, nil
}

func (s *Source) usageQuery(start, end time.Time) Query {
	return Query{
		Start:      start,
		End:        end,
		Dimensions: []string{s.dims.UsageAccount, s.dims.CostCenter, s.dims.ClusterTag},
		Metric:     s.dims.Metric,
		SortBy:     s.dims.UsageAccount,
		Filters: append(
			[]Filter{NotEquals(s.items.Dimension, s.items.Support)},
			notContainsAll(s.items.Dimension, s.items.PrepayContains)...,
		),
	}
}

func notContainsAll(dimension string, values []string) []Filter {
	filters := make([]Filter, len(values))
	for i, v := range values {
		filters[i] = NotContains(dimension, v)
	}
	return filters
}

func dataFetchErr(message string, cause error) error {
	return errors.DataFetch(message, cause)
}
