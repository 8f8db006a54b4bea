package metrics

import (
	"glasshouse/server/config"
	"glasshouse/server/internal/models"
)

// Profitability tiers by margin, matching the dashboard's breakdown.
const (
	TierStrong   = "strong"
	TierMarginal = "marginal"
	TierLoss     = "loss"

	strongMarginPct = 5.0
)

// EstimateRenovation estimates renovation cost as a percentage of the
// purchase price, clamped to the configured bounds when they are set.
func EstimateRenovation(purchasePrice float64, cm config.CostModel) float64 {
	cost := purchasePrice * cm.RenovationPct
	if cm.RenovationMin > 0 && cost < cm.RenovationMin {
		cost = cm.RenovationMin
	}
	if cm.RenovationMax > 0 && cost > cm.RenovationMax {
		cost = cm.RenovationMax
	}
	return cost
}

// EstimateTrueProfit derives the true unit economics of a sale from
// its prices and holding period. The source supplies no itemized
// costs, so renovation, holding and transaction costs are estimates:
//
//	gross_spread     = sale - purchase
//	renovation_cost  = purchase * renovation_pct (clamped)
//	holding_cost     = monthly_holding_cost * days_held / 30
//	transaction_cost = sale * transaction_pct
//	true_profit      = gross_spread - all costs
//
// MarginPct is true profit as a percentage of sale price; a zero sale
// price flags the margin as degenerate instead of dividing by zero.
func EstimateTrueProfit(purchasePrice, salePrice float64, daysHeld int, cm config.CostModel) models.ProfitBreakdown {
	gross := salePrice - purchasePrice
	renovation := EstimateRenovation(purchasePrice, cm)
	holding := cm.MonthlyHoldingCost * float64(daysHeld) / 30
	transaction := salePrice * cm.TransactionPct

	trueProfit := gross - renovation - holding - transaction

	b := models.ProfitBreakdown{
		GrossSpread:     gross,
		RenovationCost:  renovation,
		HoldingCost:     holding,
		TransactionCost: transaction,
		TrueProfit:      trueProfit,
	}

	if salePrice == 0 {
		b.DegenerateMargin = true
	} else {
		b.MarginPct = trueProfit / salePrice * 100
	}

	switch {
	case !b.DegenerateMargin && b.MarginPct >= strongMarginPct:
		b.Tier = TierStrong
	case trueProfit >= 0:
		b.Tier = TierMarginal
	default:
		b.Tier = TierLoss
	}

	return b
}
