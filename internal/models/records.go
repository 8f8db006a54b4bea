package models

import "time"

// Cohort is the age bucket assigned to a record from its days held
// (sales) or days on market (listings).
type Cohort string

const (
	CohortNew   Cohort = "new"
	CohortMid   Cohort = "mid"
	CohortOld   Cohort = "old"
	CohortToxic Cohort = "toxic"
)

// Label returns the display label used in dashboard tables.
func (c Cohort) Label() string {
	switch c {
	case CohortNew:
		return "New (<90d)"
	case CohortMid:
		return "Mid (90-180d)"
	case CohortOld:
		return "Old (180-365d)"
	case CohortToxic:
		return "Toxic (>365d)"
	default:
		return string(c)
	}
}

// Action is the per-market recommendation derived from win rate.
type Action string

const (
	ActionGrow  Action = "GROW"
	ActionHold  Action = "HOLD"
	ActionPause Action = "PAUSE"
	ActionExit  Action = "EXIT"
)

// Sale is one closed transaction. RealizedNet is the gross spread as
// supplied by the source; TrueProfit is our richer estimate layered on
// top. The two are deliberately kept separate.
type Sale struct {
	ID            int64     `json:"id"`
	PropertyID    string    `json:"property_id"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Zip           string    `json:"zip"`
	PurchaseDate  time.Time `json:"purchase_date"`
	PurchasePrice *float64  `json:"purchase_price"`
	SaleDate      time.Time `json:"sale_date"`
	SalePrice     *float64  `json:"sale_price"`
	RealizedNet   *float64  `json:"realized_net"`
	DaysHeld      int       `json:"days_held"`
	Beds          *int      `json:"beds"`
	Baths         *float64  `json:"baths"`
	Sqft          *int      `json:"sqft"`
	YearBuilt     *int      `json:"year_built"`

	// Derived fields, populated by classification.
	Cohort     Cohort           `json:"cohort"`
	IsKazEra   bool             `json:"is_kaz_era"`
	IsWin      bool             `json:"is_win"`
	Incomplete bool             `json:"incomplete"`
	Economics  *ProfitBreakdown `json:"economics"`
}

// Market returns the grouping key used for per-market rollups.
func (s Sale) Market() string {
	if s.City == "" && s.State == "" {
		return "Unknown"
	}
	if s.City == "" {
		return s.State
	}
	return s.City + ", " + s.State
}

// RecordID identifies the sale in validation error lists.
func (s Sale) RecordID() string {
	if s.PropertyID != "" {
		return s.PropertyID
	}
	return s.Address
}

// Listing is one active or historical inventory item.
type Listing struct {
	ID            int64      `json:"id"`
	PropertyID    string     `json:"property_id"`
	Address       string     `json:"address"`
	City          string     `json:"city"`
	State         string     `json:"state"`
	PurchaseDate  *time.Time `json:"purchase_date"`
	ListPrice     *float64   `json:"list_price"`
	PurchasePrice *float64   `json:"purchase_price"`
	DaysOnMarket  int        `json:"days_on_market"`
	PriceCuts     int        `json:"price_cuts"`

	// Derived fields.
	IsUnderwater bool   `json:"is_underwater"`
	Cohort       Cohort `json:"cohort"`
	IsKazEra     bool   `json:"is_kaz_era"`
}

// Market returns the grouping key used for per-market rollups.
func (l Listing) Market() string {
	if l.City == "" && l.State == "" {
		return "Unknown"
	}
	if l.City == "" {
		return l.State
	}
	return l.City + ", " + l.State
}

// RecordID identifies the listing in validation error lists.
func (l Listing) RecordID() string {
	if l.PropertyID != "" {
		return l.PropertyID
	}
	return l.Address
}

// ProfitBreakdown is the estimated true unit economics for a sale.
// All cost components are estimates; the source supplies no itemized
// costs.
type ProfitBreakdown struct {
	GrossSpread     float64 `json:"gross_spread"`
	RenovationCost  float64 `json:"renovation_cost"`
	HoldingCost     float64 `json:"holding_cost"`
	TransactionCost float64 `json:"transaction_cost"`
	TrueProfit      float64 `json:"true_profit"`
	MarginPct       float64 `json:"margin_pct"`
	// DegenerateMargin is set when sale price is zero and the margin
	// could not be computed.
	DegenerateMargin bool   `json:"degenerate_margin"`
	Tier             string `json:"tier"`
}

// RecordError is a per-record validation failure. Malformed records are
// excluded from aggregates but never abort the batch.
type RecordError struct {
	RecordID string `json:"record_id"`
	Field    string `json:"field"`
	Reason   string `json:"reason"`
}

func (e RecordError) Error() string {
	return e.RecordID + ": " + e.Field + ": " + e.Reason
}

// MarketAggregate is the per-market rollup feeding the market matrix.
type MarketAggregate struct {
	Market         string  `json:"market"`
	SaleCount      int     `json:"sale_count"`
	SampleSize     int     `json:"sample_size"`
	WinCount       int     `json:"win_count"`
	WinRate        float64 `json:"win_rate"`
	AvgTrueProfit  float64 `json:"avg_true_profit"`
	AvgMarginPct   float64 `json:"avg_margin_pct"`
	AvgDaysHeld    float64 `json:"avg_days_held"`
	InventoryCount int     `json:"inventory_count"`
	ToxicCount     int     `json:"toxic_count"`
	UnderwaterPct  float64 `json:"underwater_pct"`
	AvgDOM         float64 `json:"avg_dom"`
	Trend          string  `json:"trend"`
	Action         Action  `json:"recommended_action"`
}
