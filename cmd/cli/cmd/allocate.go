// Package cmd - allocate command
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cloudalloc/adapters/reporting"
	"cloudalloc/core/engine"
	"cloudalloc/core/output"
	"cloudalloc/core/period"
	"cloudalloc/internal/config"
	"cloudalloc/internal/errors"
	"cloudalloc/internal/logging"
)

// tokenEnvVar supplies the reporting API token when the flag is absent
const tokenEnvVar = "CLOUDALLOC_API_TOKEN"

var (
	periodChoice string
	invoiceFlag  string
	outputFormat string
	policyPath   string
	apiToken     string
)

// allocateCmd represents the allocate command
var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Run the cost allocation for a reporting period",
	Long: `Run the cost allocation for one reporting period.

The period is either the previous full month (prev) or the current month to
date (current). For the previous month an invoice total may be supplied; the
allocation is then molded to match it exactly. Current-month runs are accrual
estimates and accept no invoice.

Examples:
  cloudalloc allocate --period prev --invoice 425000.00
  cloudalloc allocate --period prev
  cloudalloc allocate --period current`,
	RunE: runAllocate,
}

func init() {
	allocateCmd.Flags().StringVarP(&periodChoice, "period", "p", "prev", "reporting period (prev, current)")
	allocateCmd.Flags().StringVarP(&invoiceFlag, "invoice", "i", "0", "invoice total to reconcile against, 0 to estimate")
	allocateCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (cli, json)")
	allocateCmd.Flags().StringVar(&policyPath, "policy", "", "policy tables file (HCL)")
	allocateCmd.Flags().StringVar(&apiToken, "token", "", "reporting API token (or "+tokenEnvVar+")")
}

func runAllocate(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	now := time.Now()

	req, err := buildRequest(cfg, now)
	if err != nil {
		return err
	}

	token := apiToken
	if token == "" {
		token = os.Getenv(tokenEnvVar)
	}
	if token == "" {
		return errors.Input("no reporting API token given")
	}

	path := policyPath
	if path == "" {
		path = cfg.Allocation.PolicyPath
	}
	tables, err := config.LoadPolicy(path)
	if err != nil {
		return err
	}

	format := output.Format(outputFormat)
	if outputFormat == "" {
		format = output.Format(cfg.Output.DefaultFormat)
	}
	formatter, err := output.New(format)
	if err != nil {
		return err
	}

	client := reporting.NewClient(reporting.ClientConfig{
		BaseURL: cfg.Reporting.Endpoint,
		Token:   token,
		Timeout: time.Duration(cfg.Reporting.TimeoutSeconds) * time.Second,
	})
	source := reporting.NewSource(client, cfg.Reporting.Dimensions, cfg.Reporting.LineItems, tables.SupportAccounts)

	result, err := engine.New(source, tables).Run(context.Background(), req)
	if err != nil {
		logging.Error("allocation run failed")
		return err
	}

	return formatter.Render(os.Stdout, result)
}

// buildRequest validates the user-level selections before the core runs
func buildRequest(cfg *config.Config, now time.Time) (engine.RunRequest, error) {
	invoice, err := decimal.NewFromString(invoiceFlag)
	if err != nil {
		return engine.RunRequest{}, errors.Input("invalid invoice amount: " + invoiceFlag)
	}

	switch periodChoice {
	case "prev":
		if !invoice.IsZero() && invoice.LessThan(decimal.NewFromFloat(cfg.Allocation.LowInvoiceWarning)) {
			fmt.Fprintln(os.Stderr, "WARNING: invoice total entered is lower than usual")
		}
		return engine.RunRequest{
			Period:        period.PreviousMonth(now),
			InvoiceTarget: invoice,
		}, nil

	case "current":
		if !invoice.IsZero() {
			return engine.RunRequest{}, errors.Input("current-month runs are estimates and accept no invoice total")
		}
		if now.Day() < cfg.Allocation.ReliableDay {
			return engine.RunRequest{}, errors.Input(
				fmt.Sprintf("current-month estimates unavailable until the %dth", cfg.Allocation.ReliableDay))
		}
		p, err := period.CurrentMonthToDate(now)
		if err != nil {
			return engine.RunRequest{}, err
		}
		return engine.RunRequest{Period: p}, nil

	default:
		return engine.RunRequest{}, errors.Input("invalid period option: " + periodChoice)
	}
}
