package reporting

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayout is the wire format for period bounds
const dateLayout = "2006-01-02"

// Query describes one cost report request
type Query struct {
	// Start and End bound the reporting window, inclusive
	Start time.Time
	End   time.Time

	// Dimensions are the grouping dimensions, in column order
	Dimensions []string

	// Metric is the cost metric column to return
	Metric string

	// SortBy is the dimension to sort on (ascending)
	SortBy string

	// Filters restrict the returned rows
	Filters []Filter
}

// Row is one grouped cost row
type Row struct {
	// Dimensions holds the grouped dimension values by dimension name
	Dimensions map[string]string

	// Cost is the row's metric value
	Cost decimal.Decimal
}

// ClientConfig configures the reporting client
type ClientConfig struct {
	// BaseURL is the reporting endpoint, e.g. https://host/api/1/reporting
	BaseURL string

	// Token authenticates the request
	Token string

	// Timeout bounds each request
	Timeout time.Duration
}

// Client fetches cost reports over HTTP. Responses are CSV; anything else,
// including the backend's in-band error payload, is a data fetch error.
// No retries happen here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a reporting client
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
	}
}

// FetchCostRows runs the query and parses the CSV response
func (c *Client) FetchCostRows(ctx context.Context, q Query) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(q), nil)
	if err != nil {
		return nil, dataFetchErr("invalid API request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dataFetchErr("invalid API request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, dataFetchErr(fmt.Sprintf("invalid API request: status %d", resp.StatusCode), nil)
	}

	return parseCSV(resp.Body, q)
}

func (c *Client) buildURL(q Query) string {
	params := []string{
		"auth_token=" + url.QueryEscape(c.token),
		"start_date=" + q.Start.Format(dateLayout),
		"end_date=" + q.End.Format(dateLayout),
		"dimensions=" + strings.Join(q.Dimensions, ","),
		"metrics=" + q.Metric,
		"sort_by=" + q.SortBy,
		"order=asc",
	}
	if len(q.Filters) > 0 {
		params = append(params, "filters="+encodeFilters(q.Filters))
	}
	return c.baseURL + "/cost/run.csv?" + strings.Join(params, "&")
}

func parseCSV(r io.Reader, q Query) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, dataFetchErr("invalid API response", err)
	}
	if len(header) > 0 && strings.Contains(strings.ToLower(header[0]), "error") {
		return nil, dataFetchErr("invalid API response: "+header[0], nil)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	costCol, ok := columns[q.Metric]
	if !ok {
		return nil, dataFetchErr("invalid API response: missing metric column "+q.Metric, nil)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dataFetchErr("invalid API response", err)
		}
		if costCol >= len(record) {
			return nil, dataFetchErr("invalid API response: short row", nil)
		}

		cost, err := decimal.NewFromString(strings.TrimSpace(record[costCol]))
		if err != nil {
			return nil, dataFetchErr("invalid API response: non-numeric cost", err)
		}

		dims := make(map[string]string, len(q.Dimensions))
		for _, d := range q.Dimensions {
			if col, ok := columns[d]; ok && col < len(record) {
				dims[d] = record[col]
			}
		}
		rows = append(rows, Row{Dimensions: dims, Cost: cost})
	}
	return rows, nil
}
