// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"cloudalloc/adapters/reporting"
	"cloudalloc/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Reporting contains reporting-source configuration
	Reporting ReportingConfig `json:"reporting"`

	// Allocation contains allocation run settings
	Allocation AllocationConfig `json:"allocation"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// ReportingConfig contains reporting-source settings
type ReportingConfig struct {
	// Endpoint is the reporting API base URL
	Endpoint string `json:"endpoint"`

	// TimeoutSeconds bounds each reporting request
	TimeoutSeconds int `json:"timeout_seconds"`

	// Dimensions names the reporting dimensions and metric
	Dimensions reporting.Dimensions `json:"dimensions"`

	// LineItems names the dataset-splitting line-item predicates
	LineItems reporting.LineItems `json:"line_items"`
}

// AllocationConfig contains allocation run settings
type AllocationConfig struct {
	// PolicyPath is the policy tables file
	PolicyPath string `json:"policy_path"`

	// ReliableDay is the earliest day of month on which current-month
	// accrual estimates carry enough data to be trustworthy
	ReliableDay int `json:"reliable_day"`

	// LowInvoiceWarning triggers a warning for invoice totals below it
	LowInvoiceWarning float64 `json:"low_invoice_warning"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	policyPath := filepath.Join(homeDir, ".cloudalloc", "policy.hcl")

	return &Config{
		Version: "1.0",
		Reporting: ReportingConfig{
			Endpoint:       "https://app.cloudability.com/api/1/reporting",
			TimeoutSeconds: 120,
			Dimensions:     reporting.DefaultDimensions(),
			LineItems:      reporting.DefaultLineItems(),
		},
		Allocation: AllocationConfig{
			PolicyPath:        policyPath,
			ReliableDay:       20,
			LowInvoiceWarning: 250000,
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
