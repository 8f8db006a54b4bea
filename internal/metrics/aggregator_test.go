package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glasshouse/server/internal/models"
)

func winSale(market string, cohort models.Cohort, kaz bool, profit float64) models.Sale {
	return models.Sale{
		City:      market,
		Cohort:    cohort,
		IsKazEra:  kaz,
		IsWin:     profit > 0,
		DaysHeld:  100,
		Economics: &models.ProfitBreakdown{TrueProfit: profit, MarginPct: 5},
	}
}

func TestAggregate_ByEra(t *testing.T) {
	sales := []models.Sale{
		winSale("Phoenix", models.CohortNew, true, 10000),
		winSale("Phoenix", models.CohortNew, true, -2000),
		winSale("Tampa", models.CohortOld, false, -5000),
	}

	groups := Aggregate(sales, ByEra, KeyKazEra, KeyLegacy)
	require.Len(t, groups, 2)

	// Sorted keys: kaz_era before legacy.
	kaz := groups[0]
	assert.Equal(t, KeyKazEra, kaz.Key)
	assert.Equal(t, 2, kaz.SaleCount)
	assert.Equal(t, 2, kaz.SampleSize)
	assert.Equal(t, 1, kaz.WinCount)
	assert.Equal(t, 50.0, kaz.WinRate)
	assert.Equal(t, 4000.0, kaz.AvgTrueProfit)
	assert.Equal(t, 8000.0, kaz.TotalProfit)

	legacy := groups[1]
	assert.Equal(t, KeyLegacy, legacy.Key)
	assert.Equal(t, 0.0, legacy.WinRate)
	assert.Equal(t, 1, legacy.SampleSize)
}

func TestAggregate_EmptyGroupIsZeroNotNaN(t *testing.T) {
	groups := Aggregate(nil, ByEra, KeyKazEra, KeyLegacy)
	require.Len(t, groups, 2)

	for _, g := range groups {
		assert.Equal(t, 0, g.SampleSize)
		assert.Equal(t, 0.0, g.WinRate)
		assert.Equal(t, 0.0, g.AvgTrueProfit)
	}
}

func TestAggregate_IncompleteExcludedFromDenominator(t *testing.T) {
	sales := []models.Sale{
		winSale("Phoenix", models.CohortNew, true, 10000),
		{City: "Phoenix", Cohort: models.CohortNew, IsKazEra: true, Incomplete: true},
	}

	groups := Aggregate(sales, ByCohort)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, 2, g.SaleCount)
	assert.Equal(t, 1, g.SampleSize)
	assert.Equal(t, 100.0, g.WinRate)
}

func TestAggregate_Deterministic(t *testing.T) {
	sales := []models.Sale{
		winSale("Tampa", models.CohortNew, true, 1000),
		winSale("Atlanta", models.CohortNew, true, 1000),
		winSale("Phoenix", models.CohortNew, true, 1000),
	}

	first := Aggregate(sales, ByMarket)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Aggregate(sales, ByMarket))
	}
	assert.Equal(t, "Atlanta", first[0].Key)
	assert.Equal(t, "Phoenix", first[1].Key)
	assert.Equal(t, "Tampa", first[2].Key)
}

func TestAggregateListings(t *testing.T) {
	listings := []models.Listing{
		{City: "Phoenix", Cohort: models.CohortToxic, IsUnderwater: true, DaysOnMarket: 400, PriceCuts: 2},
		{City: "Phoenix", Cohort: models.CohortNew, DaysOnMarket: 20},
	}

	groups := AggregateListings(listings, ByMarket)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, 2, g.Count)
	assert.Equal(t, 1, g.ToxicCount)
	assert.Equal(t, 1, g.UnderwaterCount)
	assert.Equal(t, 50.0, g.UnderwaterPct)
	assert.Equal(t, 1, g.WithCuts)
	assert.Equal(t, 210.0, g.AvgDOM)
}
