// Package reporting is the client for the cost-reporting collaborator.
package reporting

import (
	"net/url"
	"strings"
)

// Operator is a filter comparison operator in the reporting API's syntax
type Operator string

const (
	// OpEquals matches a dimension value exactly
	OpEquals Operator = "=="

	// OpNotEquals excludes an exact dimension value
	OpNotEquals Operator = "!="

	// OpContains matches a dimension value by substring
	OpContains Operator = "=@"

	// OpNotContains excludes dimension values by substring
	OpNotContains Operator = "!=@"
)

// Filter is one predicate on a reporting dimension. The backend combines
// filters on the same dimension with OR and across dimensions with AND.
type Filter struct {
	Dimension string
	Operator  Operator
	Value     string
}

// Encode renders the filter in the API's query syntax
func (f Filter) Encode() string {
	return f.Dimension + string(f.Operator) + url.QueryEscape(f.Value)
}

// Equals builds an exact-match filter
func Equals(dimension, value string) Filter {
	return Filter{Dimension: dimension, Operator: OpEquals, Value: value}
}

// NotEquals builds an exclusion filter
func NotEquals(dimension, value string) Filter {
	return Filter{Dimension: dimension, Operator: OpNotEquals, Value: value}
}

// Contains builds a substring filter
func Contains(dimension, value string) Filter {
	return Filter{Dimension: dimension, Operator: OpContains, Value: value}
}

// NotContains builds a substring exclusion filter
func NotContains(dimension, value string) Filter {
	return Filter{Dimension: dimension, Operator: OpNotContains, Value: value}
}

// In builds a membership-in-list predicate as repeated equality filters,
// which the backend ORs together.
func In(dimension string, values []string) []Filter {
	filters := make([]Filter, len(values))
	for i, v := range values {
		filters[i] = Equals(dimension, v)
	}
	return filters
}

func encodeFilters(filters []Filter) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.Encode()
	}
	return strings.Join(parts, ",")
}
