package metrics

import (
	"fmt"
	"sort"
	"time"

	"glasshouse/server/config"
	"glasshouse/server/internal/models"
)

// Assembler turns one batch of raw records plus prior snapshots into
// the report document consumed by the dashboard. Every run is a full
// recomputation; nothing is carried between calls.
type Assembler struct {
	cfg config.MetricsConfig
	now func() time.Time
}

func NewAssembler(cfg config.MetricsConfig) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Assembler{cfg: cfg, now: time.Now}, nil
}

// Assemble classifies the batch, aggregates it along every dimension,
// and folds in trend data from prior snapshots. history must be
// ordered oldest first; prior is the week-over-week baseline chosen
// from it, or nil when no earlier run exists.
func (a *Assembler) Assemble(sales []models.Sale, listings []models.Listing, prior *models.Snapshot, history []models.Snapshot) models.ReportDocument {
	validSales, validListings, recordErrs := ClassifyBatch(sales, listings, a.cfg)

	performance := a.buildPerformance(validSales)
	eras := a.buildEraSplit(validSales, validListings)
	cohorts := a.buildCohortRows(validSales, validListings)
	inventory := a.buildInventory(validListings)
	markets := a.buildMarkets(validSales, validListings, prior)

	current := models.CurrentReport{
		Performance: performance,
		V3:          eras,
		Cohorts:     cohorts,
		Inventory:   inventory,
		Markets:     markets,
	}

	snapshot := a.Summarize(current)
	trends := models.TrendReport{
		HasPrior:       prior != nil,
		WoW:            WeekOverWeek(&snapshot, prior),
		ToxicCountdown: ProjectToxicCountdown(history, inventory.ToxicCount, a.now()),
	}

	return models.ReportDocument{
		GeneratedAt: a.now(),
		Current:     current,
		Trends:      trends,
		Warnings: models.Warnings{
			SkippedRecords: len(recordErrs),
			Errors:         recordErrs,
			Alerts:         a.buildAlerts(current, prior),
		},
	}
}

// Classify runs batch classification under the assembler's
// configuration without building a report.
func (a *Assembler) Classify(sales []models.Sale, listings []models.Listing) ([]models.Sale, []models.Listing, []models.RecordError) {
	return ClassifyBatch(sales, listings, a.cfg)
}

// Summarize reduces an assembled report to the snapshot shape
// persisted for trend comparison on later runs.
func (a *Assembler) Summarize(current models.CurrentReport) models.Snapshot {
	marketRates := make(map[string]float64, len(current.Markets))
	for _, m := range current.Markets {
		marketRates[m.Market] = m.WinRate
	}
	return models.Snapshot{
		Date:           a.now().Format("2006-01-02"),
		GeneratedAt:    a.now(),
		WinRate:        current.Performance.WinRate,
		KazWinRate:     current.V3.KazEra.WinRate,
		AvgTrueProfit:  current.Performance.AvgTrueProfit,
		SaleCount:      current.Performance.SampleSize,
		ToxicCount:     current.Inventory.ToxicCount,
		Underwater:     current.Inventory.UnderwaterCount,
		InventoryTotal: current.Inventory.Total,
		MarketWinRates: marketRates,
	}
}

func (a *Assembler) buildPerformance(sales []models.Sale) models.PerformanceSummary {
	var p models.PerformanceSummary
	p.SaleCount = len(sales)

	for _, s := range sales {
		if s.Incomplete || s.Economics == nil {
			continue
		}
		p.SampleSize++
		if s.IsWin {
			p.WinCount++
		}
		p.AvgTrueProfit += s.Economics.TrueProfit
		if !s.Economics.DegenerateMargin {
			p.AvgMarginPct += s.Economics.MarginPct
		}
		p.AvgDaysHeld += float64(s.DaysHeld)
		p.TrueProfitTotal += s.Economics.TrueProfit
		if s.RealizedNet != nil {
			p.ReportedNetTotal += *s.RealizedNet
		} else {
			p.ReportedNetTotal += s.Economics.GrossSpread
		}
	}

	if p.SampleSize > 0 {
		n := float64(p.SampleSize)
		// Win rates ship unrounded so they always re-derive exactly
		// from win_count and sample_size; rounding is a rendering
		// concern.
		p.WinRate = float64(p.WinCount) / n * 100
		p.AvgTrueProfit = round2(p.AvgTrueProfit / n)
		p.AvgMarginPct = round2(p.AvgMarginPct / n)
		p.AvgDaysHeld = round2(p.AvgDaysHeld / n)
	}
	p.HiddenCostsTotal = round2(p.ReportedNetTotal - p.TrueProfitTotal)
	p.ReportedNetTotal = round2(p.ReportedNetTotal)
	p.TrueProfitTotal = round2(p.TrueProfitTotal)
	return p
}

func (a *Assembler) buildEraSplit(sales []models.Sale, listings []models.Listing) models.EraSplit {
	saleGroups := Aggregate(sales, ByEra, KeyKazEra, KeyLegacy)
	listingGroups := AggregateListings(listings, ByEra)

	listingsByKey := make(map[string]ListingGroupStats, len(listingGroups))
	for _, g := range listingGroups {
		listingsByKey[g.Key] = g
	}

	build := func(key string) models.EraReport {
		var r models.EraReport
		for _, g := range saleGroups {
			if g.Key != key {
				continue
			}
			r.SoldCount = g.SaleCount
			r.SampleSize = g.SampleSize
			r.WinCount = g.WinCount
			r.WinRate = g.WinRate
			r.AvgTrueProfit = round2(g.AvgTrueProfit)
		}
		if g, ok := listingsByKey[key]; ok {
			r.ListedCount = g.Count
			r.Underwater = g.UnderwaterCount
			r.AboveWater = g.Count - g.UnderwaterCount
			if g.Count > 0 {
				r.AboveWaterPct = round2(float64(r.AboveWater) / float64(g.Count) * 100)
			}
		}
		healthy := r.WinCount + r.AboveWater
		total := r.SampleSize + r.ListedCount
		if total > 0 {
			r.OverallHealthPct = round2(float64(healthy) / float64(total) * 100)
		}
		return r
	}

	kaz := build(KeyKazEra)
	legacy := build(KeyLegacy)
	return models.EraSplit{
		KazEra:      kaz,
		Legacy:      legacy,
		Improvement: round2(kaz.WinRate - legacy.WinRate),
	}
}

func (a *Assembler) buildCohortRows(sales []models.Sale, listings []models.Listing) []models.CohortRow {
	order := []models.Cohort{models.CohortNew, models.CohortMid, models.CohortOld, models.CohortToxic}

	saleGroups := Aggregate(sales, ByCohort,
		string(models.CohortNew), string(models.CohortMid), string(models.CohortOld), string(models.CohortToxic))
	salesByKey := make(map[string]GroupStats, len(saleGroups))
	for _, g := range saleGroups {
		salesByKey[g.Key] = g
	}

	inventoryByKey := make(map[string]int)
	for _, g := range AggregateListings(listings, ByCohort) {
		inventoryByKey[g.Key] = g.Count
	}

	rows := make([]models.CohortRow, 0, len(order))
	for _, cohort := range order {
		g := salesByKey[string(cohort)]
		rows = append(rows, models.CohortRow{
			Cohort:        cohort,
			Label:         cohort.Label(),
			SoldCount:     g.SaleCount,
			SampleSize:    g.SampleSize,
			WinCount:      g.WinCount,
			WinRate:       g.WinRate,
			AvgTrueProfit: round2(g.AvgTrueProfit),
			AvgMarginPct:  round2(g.AvgMarginPct),
			AvgDaysHeld:   round2(g.AvgDaysHeld),
			Inventory:     inventoryByKey[string(cohort)],
		})
	}
	return rows
}

func (a *Assembler) buildInventory(listings []models.Listing) models.InventorySummary {
	var inv models.InventorySummary
	inv.Total = len(listings)

	var stressed int
	for _, l := range listings {
		switch l.Cohort {
		case models.CohortNew:
			inv.NewCount++
		case models.CohortMid:
			inv.MidCount++
		case models.CohortOld:
			inv.OldCount++
		case models.CohortToxic:
			inv.ToxicCount++
		}
		if l.IsUnderwater {
			inv.UnderwaterCount++
		}
		if l.PriceCuts > 0 {
			inv.WithCuts++
		}
		if l.PriceCuts >= 3 {
			stressed++
		}
		inv.AvgDOM += float64(l.DaysOnMarket)
		if l.ListPrice != nil && l.PurchasePrice != nil {
			inv.UnrealizedTotal += *l.ListPrice - *l.PurchasePrice
		}
	}

	if inv.Total > 0 {
		n := float64(inv.Total)
		inv.LegacyPct = round2(float64(inv.OldCount+inv.ToxicCount) / n * 100)
		inv.UnderwaterPct = round2(float64(inv.UnderwaterCount) / n * 100)
		inv.WithCutsPct = round2(float64(inv.WithCuts) / n * 100)
		inv.PriceCutStress = round2(float64(stressed) / n * 100)
		inv.AvgDOM = round2(inv.AvgDOM / n)
	}
	inv.UnrealizedTotal = round2(inv.UnrealizedTotal)
	return inv
}

func (a *Assembler) buildMarkets(sales []models.Sale, listings []models.Listing, prior *models.Snapshot) []models.MarketAggregate {
	saleGroups := Aggregate(sales, ByMarket)
	listingGroups := AggregateListings(listings, ByMarket)

	listingsByKey := make(map[string]ListingGroupStats, len(listingGroups))
	for _, g := range listingGroups {
		listingsByKey[g.Key] = g
	}

	seen := make(map[string]bool, len(saleGroups))
	out := make([]models.MarketAggregate, 0, len(saleGroups)+len(listingGroups))

	for _, g := range saleGroups {
		seen[g.Key] = true
		m := models.MarketAggregate{
			Market:        g.Key,
			SaleCount:     g.SaleCount,
			SampleSize:    g.SampleSize,
			WinCount:      g.WinCount,
			WinRate:       g.WinRate,
			AvgTrueProfit: round2(g.AvgTrueProfit),
			AvgMarginPct:  round2(g.AvgMarginPct),
			AvgDaysHeld:   round2(g.AvgDaysHeld),
			Trend:         MarketTrend(g.Key, g.WinRate, prior),
			Action:        RecommendAction(g.WinRate, a.cfg.ActionBands),
		}
		if lg, ok := listingsByKey[g.Key]; ok {
			m.InventoryCount = lg.Count
			m.ToxicCount = lg.ToxicCount
			m.UnderwaterPct = round2(lg.UnderwaterPct)
			m.AvgDOM = round2(lg.AvgDOM)
		}
		out = append(out, m)
	}

	// Markets that only carry inventory still show up in the matrix;
	// with no closed sales their action defaults to the lowest band.
	for _, lg := range listingGroups {
		if seen[lg.Key] {
			continue
		}
		out = append(out, models.MarketAggregate{
			Market:         lg.Key,
			InventoryCount: lg.Count,
			ToxicCount:     lg.ToxicCount,
			UnderwaterPct:  round2(lg.UnderwaterPct),
			AvgDOM:         round2(lg.AvgDOM),
			Trend:          MarketTrend(lg.Key, 0, prior),
			Action:         RecommendAction(0, a.cfg.ActionBands),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Market < out[j].Market })
	return out
}

func (a *Assembler) buildAlerts(current models.CurrentReport, prior *models.Snapshot) []string {
	var alerts []string
	t := a.cfg.Alerts

	for _, row := range current.Cohorts {
		if row.Cohort == models.CohortNew && row.SampleSize > 0 && row.WinRate < t.NewCohortWinRateMin {
			alerts = append(alerts, fmt.Sprintf(
				"New cohort win rate dropped to %.1f%% (target: >%.0f%%)", row.WinRate, t.NewCohortWinRateMin))
		}
	}

	if current.V3.KazEra.SampleSize > 0 && current.V3.KazEra.WinRate < t.KazWinRateMin {
		alerts = append(alerts, fmt.Sprintf(
			"Kaz-era win rate at %.1f%% (target: >%.0f%%)", current.V3.KazEra.WinRate, t.KazWinRateMin))
	}

	if current.Performance.SampleSize > 0 && current.Performance.AvgMarginPct < t.MarginPctMin {
		alerts = append(alerts, fmt.Sprintf(
			"Average margin at %.1f%% (target: %.0f%%+)", current.Performance.AvgMarginPct, t.MarginPctMin))
	}

	if current.Inventory.Total > 0 {
		toxicPct := float64(current.Inventory.ToxicCount) / float64(current.Inventory.Total) * 100
		if toxicPct > t.ToxicPctMax {
			alerts = append(alerts, fmt.Sprintf(
				"Toxic inventory at %.1f%% of portfolio (limit: %.0f%%)", toxicPct, t.ToxicPctMax))
		}
	}

	if prior != nil && current.Inventory.ToxicCount > prior.ToxicCount {
		alerts = append(alerts, fmt.Sprintf(
			"Toxic inventory increased: %d -> %d", prior.ToxicCount, current.Inventory.ToxicCount))
	}

	return alerts
}
