package config

import (
	"fmt"
	"time"

	"glasshouse/server/internal/models"
)

// ConfigError marks a metrics configuration that would make
// classification or action recommendation undefined. It is fatal for
// the whole pipeline run.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid metrics config: %s: %s", e.Field, e.Reason)
}

// CohortThresholds are the day boundaries between cohorts. Boundary
// values belong to the higher band: days == NewMax classifies as mid.
type CohortThresholds struct {
	NewMax int `json:"new_max"`
	MidMax int `json:"mid_max"`
	OldMax int `json:"old_max"`
}

// CostModel holds the estimated cost assumptions for true unit
// economics. RenovationMin/Max clamp the renovation estimate when both
// are set; zero values disable the clamp.
type CostModel struct {
	RenovationPct      float64 `json:"renovation_pct"`
	RenovationMin      float64 `json:"renovation_min"`
	RenovationMax      float64 `json:"renovation_max"`
	MonthlyHoldingCost float64 `json:"monthly_holding_cost"`
	TransactionPct     float64 `json:"transaction_pct"`
}

// ActionBand maps a minimum win rate (percent) to a recommended
// market action. Bands are an ordered table, checked top down.
type ActionBand struct {
	MinWinRate float64       `json:"min_win_rate"`
	Action     models.Action `json:"action"`
}

// AlertThresholds drive the report warnings section.
type AlertThresholds struct {
	NewCohortWinRateMin float64 `json:"new_cohort_win_rate_min"`
	KazWinRateMin       float64 `json:"kaz_win_rate_min"`
	MarginPctMin        float64 `json:"margin_pct_min"`
	ToxicPctMax         float64 `json:"toxic_pct_max"`
}

// MetricsConfig is the immutable configuration passed into every core
// computation. It is never read from globals so alternate
// configurations (for example backtesting different thresholds) can
// run side by side.
type MetricsConfig struct {
	Cohorts     CohortThresholds `json:"cohorts"`
	EraCutoff   time.Time        `json:"-"`
	CostModel   CostModel        `json:"cost_model"`
	ActionBands []ActionBand     `json:"action_bands"`
	Alerts      AlertThresholds  `json:"alerts"`
}

// DefaultMetricsConfig returns the standard Glass House configuration:
// 90/180/365 day cohorts, the September 10 2025 era cutoff, and the
// cost assumptions derived from SEC filings.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Cohorts: CohortThresholds{
			NewMax: 90,
			MidMax: 180,
			OldMax: 365,
		},
		EraCutoff: time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC),
		CostModel: CostModel{
			RenovationPct:      0.05,
			RenovationMin:      8000,
			RenovationMax:      35000,
			MonthlyHoldingCost: 1650,
			TransactionPct:     0.03,
		},
		ActionBands: []ActionBand{
			{MinWinRate: 80, Action: models.ActionGrow},
			{MinWinRate: 60, Action: models.ActionHold},
			{MinWinRate: 40, Action: models.ActionPause},
			{MinWinRate: 0, Action: models.ActionExit},
		},
		Alerts: AlertThresholds{
			NewCohortWinRateMin: 95,
			KazWinRateMin:       80,
			MarginPctMin:        5,
			ToxicPctMax:         10,
		},
	}
}

// Validate checks the configuration before any computation begins.
func (c *MetricsConfig) Validate() error {
	if c.Cohorts.NewMax <= 0 {
		return &ConfigError{Field: "cohorts.new_max", Reason: "must be positive"}
	}
	if c.Cohorts.MidMax <= c.Cohorts.NewMax {
		return &ConfigError{Field: "cohorts.mid_max", Reason: "must be greater than new_max"}
	}
	if c.Cohorts.OldMax <= c.Cohorts.MidMax {
		return &ConfigError{Field: "cohorts.old_max", Reason: "must be greater than mid_max"}
	}
	if c.EraCutoff.IsZero() {
		return &ConfigError{Field: "era_cutoff", Reason: "missing"}
	}
	if c.CostModel.RenovationPct < 0 || c.CostModel.TransactionPct < 0 || c.CostModel.MonthlyHoldingCost < 0 {
		return &ConfigError{Field: "cost_model", Reason: "cost rates must not be negative"}
	}
	if c.CostModel.RenovationMax > 0 && c.CostModel.RenovationMax < c.CostModel.RenovationMin {
		return &ConfigError{Field: "cost_model.renovation_max", Reason: "must not be less than renovation_min"}
	}
	if len(c.ActionBands) == 0 {
		return &ConfigError{Field: "action_bands", Reason: "missing"}
	}
	prev := c.ActionBands[0].MinWinRate
	for i, band := range c.ActionBands {
		if band.Action == "" {
			return &ConfigError{Field: "action_bands", Reason: fmt.Sprintf("band %d has no action", i)}
		}
		if i > 0 && band.MinWinRate >= prev {
			return &ConfigError{Field: "action_bands", Reason: "bands must be in strictly descending order"}
		}
		prev = band.MinWinRate
	}
	if c.ActionBands[len(c.ActionBands)-1].MinWinRate != 0 {
		return &ConfigError{Field: "action_bands", Reason: "last band must start at 0"}
	}
	return nil
}
