package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// metricsFile is the on-disk shape of the metrics configuration.
// The era cutoff is a calendar date, not an instant.
type metricsFile struct {
	Cohorts     *CohortThresholds `json:"cohorts"`
	EraCutoff   string            `json:"era_cutoff"`
	CostModel   *CostModel        `json:"cost_model"`
	ActionBands []ActionBand      `json:"action_bands"`
	Alerts      *AlertThresholds  `json:"alerts"`
}

// LoadMetricsConfig reads the metrics configuration from file, filling
// unset sections from the defaults. A missing file returns the pure
// defaults; a present but invalid file is a fatal configuration error.
func LoadMetricsConfig(path string) (MetricsConfig, error) {
	cfg := DefaultMetricsConfig()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read metrics config: %w", err)
	}

	var file metricsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse metrics config: %w", err)
	}

	if file.Cohorts != nil {
		cfg.Cohorts = *file.Cohorts
	}
	if file.EraCutoff != "" {
		cutoff, err := time.Parse("2006-01-02", file.EraCutoff)
		if err != nil {
			return cfg, &ConfigError{Field: "era_cutoff", Reason: "expected YYYY-MM-DD"}
		}
		cfg.EraCutoff = cutoff
	}
	if file.CostModel != nil {
		cfg.CostModel = *file.CostModel
	}
	if len(file.ActionBands) > 0 {
		cfg.ActionBands = file.ActionBands
	}
	if file.Alerts != nil {
		cfg.Alerts = *file.Alerts
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyOverrides folds environment cost overrides into the metrics
// configuration. Zero overrides leave the file values untouched.
func ApplyOverrides(cfg MetricsConfig, overrides *Config) MetricsConfig {
	if overrides == nil {
		return cfg
	}
	if overrides.CostOverrides.MonthlyHoldingCost > 0 {
		cfg.CostModel.MonthlyHoldingCost = overrides.CostOverrides.MonthlyHoldingCost
	}
	if overrides.CostOverrides.RenovationPct > 0 {
		cfg.CostModel.RenovationPct = overrides.CostOverrides.RenovationPct
	}
	return cfg
}
