// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"billing-fixtures/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Fees contains fee catalog and ledger settings
	Fees FeesConfig `json:"fees"`

	// Template describes the baseline scenario template
	Template TemplateConfig `json:"template"`

	// Generate contains fixture generation settings
	Generate GenerateConfig `json:"generate"`

	// Output contains report output settings
	Output OutputConfig `json:"output"`

	// Metrics contains metrics export settings
	Metrics MetricsConfig `json:"metrics"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// FeesConfig contains fee-related settings
type FeesConfig struct {
	// CatalogPath is a YAML fee catalog; empty uses the embedded catalog
	CatalogPath string `json:"catalog_path,omitempty"`

	// Basis is "per_generation" or "per_voucher"
	Basis string `json:"basis"`

	// Currency is the ISO code amounts are denominated in
	Currency string `json:"currency"`

	// Tolerance is the comparison band for balance deltas
	Tolerance string `json:"tolerance"`
}

// TemplateConfig names the steps of the baseline folder
type TemplateConfig struct {
	// Index is the position of the baseline folder in the collection
	Index int `json:"index"`

	UserBefore     string `json:"user_before"`
	SystemBefore   string `json:"system_before"`
	Generate       string `json:"generate"`
	UserAfter      string `json:"user_after"`
	VoucherDetails string `json:"voucher_details"`
	SystemAfter    string `json:"system_after"`
}

// GenerateConfig contains generation settings
type GenerateConfig struct {
	// SuitePath is an HCL suite file; empty uses the embedded suite
	SuitePath string `json:"suite_path,omitempty"`

	// Concurrency bounds parallel scenario builds
	Concurrency int `json:"concurrency"`

	// InsertAfterPrefix places new folders after the last folder with this prefix
	InsertAfterPrefix string `json:"insert_after_prefix"`

	// Verify replays every fixture in the sandbox ledger before emitting
	Verify bool `json:"verify"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default report format
	DefaultFormat string `json:"default_format"`

	// NoColor disables ANSI colors in cli output
	NoColor bool `json:"no_color"`
}

// MetricsConfig contains metrics settings
type MetricsConfig struct {
	// TextfilePath writes a Prometheus textfile after each run when set
	TextfilePath string `json:"textfile_path,omitempty"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Fees: FeesConfig{
			Basis:     "per_generation",
			Currency:  "PHP",
			Tolerance: "0.01",
		},
		Template: TemplateConfig{
			Index:          0,
			UserBefore:     "Get Balance (Before)",
			SystemBefore:   "Get System Balances (Before)",
			Generate:       "Generate Voucher",
			UserAfter:      "Get Balance (After)",
			VoucherDetails: "Get Voucher Details",
			SystemAfter:    "Get System Balances (After)",
		},
		Generate: GenerateConfig{
			Concurrency:       4,
			InsertAfterPrefix: "01 ",
			Verify:            true,
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
