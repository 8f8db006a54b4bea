package models

import "time"

// ReportDocument is the assembled dashboard payload. The rendering
// layer indexes into this structure by fixed key paths (for example
// current.v3.kaz_era.win_rate and current.inventory.toxic_count), so
// field names and nesting are stable.
type ReportDocument struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Current     CurrentReport `json:"current"`
	Trends      TrendReport   `json:"trends"`
	Warnings    Warnings      `json:"warnings"`
}

type CurrentReport struct {
	Performance PerformanceSummary `json:"performance"`
	V3          EraSplit           `json:"v3"`
	Cohorts     []CohortRow        `json:"cohorts"`
	Inventory   InventorySummary   `json:"inventory"`
	Markets     []MarketAggregate  `json:"markets"`
}

// PerformanceSummary is the headline rollup over all valid sales.
type PerformanceSummary struct {
	SaleCount     int     `json:"sale_count"`
	SampleSize    int     `json:"sample_size"`
	WinCount      int     `json:"win_count"`
	WinRate       float64 `json:"win_rate"`
	AvgTrueProfit float64 `json:"avg_true_profit"`
	AvgMarginPct  float64 `json:"avg_margin_pct"`
	AvgDaysHeld   float64 `json:"avg_days_held"`

	// Reported vs estimated economics, kept side by side because the
	// source's realized_net is gross spread only.
	ReportedNetTotal float64 `json:"reported_net_total"`
	TrueProfitTotal  float64 `json:"true_profit_total"`
	HiddenCostsTotal float64 `json:"hidden_costs_total"`
}

// EraSplit carries the kaz-era vs legacy portfolio comparison.
type EraSplit struct {
	KazEra      EraReport `json:"kaz_era"`
	Legacy      EraReport `json:"legacy"`
	Improvement float64   `json:"improvement_pp"`
}

// EraReport combines realized (sold) and unrealized (on market)
// performance for one era.
type EraReport struct {
	SoldCount        int     `json:"sold_count"`
	SampleSize       int     `json:"sample_size"`
	WinCount         int     `json:"win_count"`
	WinRate          float64 `json:"win_rate"`
	AvgTrueProfit    float64 `json:"avg_true_profit"`
	ListedCount      int     `json:"listed_count"`
	AboveWater       int     `json:"above_water"`
	AboveWaterPct    float64 `json:"above_water_pct"`
	Underwater       int     `json:"underwater"`
	OverallHealthPct float64 `json:"overall_health_pct"`
}

// CohortRow is one line of the per-cohort performance table.
type CohortRow struct {
	Cohort        Cohort  `json:"cohort"`
	Label         string  `json:"label"`
	SoldCount     int     `json:"sold_count"`
	SampleSize    int     `json:"sample_size"`
	WinCount      int     `json:"win_count"`
	WinRate       float64 `json:"win_rate"`
	AvgTrueProfit float64 `json:"avg_true_profit"`
	AvgMarginPct  float64 `json:"avg_margin_pct"`
	AvgDaysHeld   float64 `json:"avg_days_held"`
	Inventory     int     `json:"inventory"`
}

// InventorySummary is the active-listing health rollup.
type InventorySummary struct {
	Total           int     `json:"total"`
	NewCount        int     `json:"new_count"`
	MidCount        int     `json:"mid_count"`
	OldCount        int     `json:"old_count"`
	ToxicCount      int     `json:"toxic_count"`
	LegacyPct       float64 `json:"legacy_pct"`
	UnderwaterCount int     `json:"underwater_count"`
	UnderwaterPct   float64 `json:"underwater_pct"`
	AvgDOM          float64 `json:"avg_dom"`
	WithCuts        int     `json:"with_cuts"`
	WithCutsPct     float64 `json:"with_cuts_pct"`
	PriceCutStress  float64 `json:"price_cut_stress_pct"`
	UnrealizedTotal float64 `json:"unrealized_total"`
}

// TrendReport holds week-over-week movement and the toxic-inventory
// countdown.
type TrendReport struct {
	HasPrior       bool             `json:"has_prior"`
	WoW            map[string]Delta `json:"wow"`
	ToxicCountdown ToxicCountdown   `json:"toxic_countdown"`
}

// Delta is the movement of one metric between two snapshots.
type Delta struct {
	Current    float64 `json:"current"`
	Previous   float64 `json:"previous"`
	Absolute   float64 `json:"absolute"`
	Percentage float64 `json:"percentage"`
	Direction  string  `json:"direction"`
}

// ToxicCountdown projects when toxic inventory reaches zero at the
// trailing average weekly decline. Determined is false when the trend
// is flat or increasing, in which case ClearDate is empty rather than
// a misleading past date.
type ToxicCountdown struct {
	CurrentCount     int     `json:"current_count"`
	WeeklyCounts     []int   `json:"weekly_counts"`
	AvgWeeklyDecline float64 `json:"avg_weekly_decline"`
	WeeksToClear     float64 `json:"weeks_to_clear"`
	ClearDate        string  `json:"clear_date"`
	Determined       bool    `json:"determined"`
}

// Warnings summarizes data-quality issues so dashboard consumers see
// skipped records instead of silently wrong numbers.
type Warnings struct {
	SkippedRecords int           `json:"skipped_records"`
	Errors         []RecordError `json:"errors"`
	Alerts         []string      `json:"alerts"`
}

// Snapshot is one persisted report run, kept for trend comparison.
type Snapshot struct {
	ID          int64     `json:"id"`
	Date        string    `json:"date"`
	GeneratedAt time.Time `json:"generated_at"`

	WinRate        float64 `json:"win_rate"`
	KazWinRate     float64 `json:"kaz_win_rate"`
	AvgTrueProfit  float64 `json:"avg_true_profit"`
	SaleCount      int     `json:"sale_count"`
	ToxicCount     int     `json:"toxic_count"`
	Underwater     int     `json:"underwater_count"`
	InventoryTotal int     `json:"inventory_total"`

	MarketWinRates map[string]float64 `json:"market_win_rates"`
}
