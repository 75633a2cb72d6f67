// Package output provides output formatting interfaces.
// This package produces human and machine-readable renderings of run results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"cloudalloc/core/engine"
	"cloudalloc/core/types"
	"cloudalloc/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable table layout
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render writes the run result
	Render(w io.Writer, result *engine.RunResult) error
}

// New returns the formatter for a format name
func New(format Format) (Formatter, error) {
	switch format {
	case FormatCLI:
		return &CLIFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, errors.Input(fmt.Sprintf("unknown output format: %s", format))
	}
}

// CLIFormatter renders the three tables for terminal reading
type CLIFormatter struct{}

// Format returns the format type
func (f *CLIFormatter) Format() Format { return FormatCLI }

// Render writes the allocation, support, and prepay tables. The prepay
// section is omitted entirely when the period had no prepay charges.
func (f *CLIFormatter) Render(w io.Writer, result *engine.RunResult) error {
	if err := renderTable(w, "Allocation:", result.Allocation); err != nil {
		return err
	}
	if err := renderTable(w, "Enterprise Support Breakout:", result.Support); err != nil {
		return err
	}
	if result.Prepay != nil {
		if err := renderTable(w, "New Pre-pay Breakout:", result.Prepay); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(w io.Writer, title string, t types.Table) error {
	if _, err := fmt.Fprintf(w, "\n%s\n", title); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, row := range t {
		fmt.Fprintf(tw, "%s\t%s\t\n", row.CostCenter, row.Cost.StringFixed(2))
	}
	return tw.Flush()
}

// JSONFormatter renders the full run result as JSON
type JSONFormatter struct{}

// Format returns the format type
func (f *JSONFormatter) Format() Format { return FormatJSON }

// Render writes the result as indented JSON
func (f *JSONFormatter) Render(w io.Writer, result *engine.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
