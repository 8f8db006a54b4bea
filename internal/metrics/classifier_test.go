package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glasshouse/server/config"
	"glasshouse/server/internal/models"
)

func f64(v float64) *float64 { return &v }

func TestClassifyCohort_Boundaries(t *testing.T) {
	th := config.CohortThresholds{NewMax: 90, MidMax: 180, OldMax: 365}

	cases := []struct {
		days int
		want models.Cohort
	}{
		{0, models.CohortNew},
		{89, models.CohortNew},
		{90, models.CohortMid}, // boundary belongs to the higher band
		{179, models.CohortMid},
		{180, models.CohortOld},
		{364, models.CohortOld},
		{365, models.CohortToxic},
		{1200, models.CohortToxic},
	}
	for _, c := range cases {
		got, err := ClassifyCohort(c.days, th)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "days=%d", c.days)
	}
}

func TestClassifyCohort_NegativeDays(t *testing.T) {
	th := config.CohortThresholds{NewMax: 90, MidMax: 180, OldMax: 365}
	_, err := ClassifyCohort(-1, th)
	assert.Error(t, err)
}

func TestClassifyEra_CutoffIsInclusive(t *testing.T) {
	cutoff := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)

	assert.False(t, ClassifyEra(cutoff.AddDate(0, 0, -1), cutoff))
	assert.True(t, ClassifyEra(cutoff, cutoff))
	assert.True(t, ClassifyEra(cutoff.AddDate(0, 0, 1), cutoff))
}

func TestClassifySale_DerivesEverything(t *testing.T) {
	cfg := config.DefaultMetricsConfig()
	cfg.CostModel = testCostModel()

	s := models.Sale{
		PropertyID:    "GH-1001",
		City:          "Phoenix",
		State:         "AZ",
		PurchaseDate:  time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		SaleDate:      time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC),
		PurchasePrice: f64(300000),
		SalePrice:     f64(340000),
		DaysHeld:      999, // stale source value, must be recomputed
	}

	errs := ClassifySale(&s, cfg)
	require.Empty(t, errs)

	assert.Equal(t, 40, s.DaysHeld)
	assert.Equal(t, models.CohortNew, s.Cohort)
	assert.True(t, s.IsKazEra)
	assert.True(t, s.IsWin)
	require.NotNil(t, s.Economics)
	assert.Equal(t, 8600.0, s.Economics.TrueProfit)
}

func TestClassifySale_SaleBeforePurchase(t *testing.T) {
	cfg := config.DefaultMetricsConfig()

	s := models.Sale{
		PropertyID:    "GH-1002",
		PurchaseDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		SaleDate:      time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		PurchasePrice: f64(100000),
		SalePrice:     f64(120000),
	}

	errs := ClassifySale(&s, cfg)
	require.Len(t, errs, 1)
	assert.Equal(t, "GH-1002", errs[0].RecordID)
	assert.Equal(t, "sale_date", errs[0].Field)
	assert.True(t, s.Incomplete)
	assert.Nil(t, s.Economics)
}

func TestClassifySale_MissingPrices(t *testing.T) {
	cfg := config.DefaultMetricsConfig()

	s := models.Sale{
		PropertyID:   "GH-1003",
		PurchaseDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		SaleDate:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	errs := ClassifySale(&s, cfg)
	require.Len(t, errs, 2)
	assert.Equal(t, "purchase_price", errs[0].Field)
	assert.Equal(t, "sale_price", errs[1].Field)
	assert.True(t, s.Incomplete)
	// Cohort and era still classify so the record can be counted.
	assert.Equal(t, models.CohortNew, s.Cohort)
	assert.False(t, s.IsKazEra)
}

func TestClassifyListing(t *testing.T) {
	cfg := config.DefaultMetricsConfig()
	purchased := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	l := models.Listing{
		PropertyID:    "GH-2001",
		PurchaseDate:  &purchased,
		ListPrice:     f64(280000),
		PurchasePrice: f64(300000),
		DaysOnMarket:  400,
	}

	errs := ClassifyListing(&l, cfg)
	require.Empty(t, errs)
	assert.Equal(t, models.CohortToxic, l.Cohort)
	assert.True(t, l.IsKazEra)
	assert.True(t, l.IsUnderwater)
}

func TestClassifyListing_MissingPurchaseDate(t *testing.T) {
	cfg := config.DefaultMetricsConfig()

	l := models.Listing{
		PropertyID:    "GH-2002",
		ListPrice:     f64(280000),
		PurchasePrice: f64(300000),
		DaysOnMarket:  40,
	}

	errs := ClassifyListing(&l, cfg)
	require.Len(t, errs, 1)
	assert.Equal(t, "purchase_date", errs[0].Field)
	assert.Equal(t, "missing", errs[0].Reason)
	assert.False(t, l.IsKazEra)
}

func TestClassifyBatch_ExcludesBadRecordsWithoutAborting(t *testing.T) {
	cfg := config.DefaultMetricsConfig()
	cfg.CostModel = testCostModel()

	sales := []models.Sale{
		{
			PropertyID:    "GH-OK",
			PurchaseDate:  time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
			SaleDate:      time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC),
			PurchasePrice: f64(300000),
			SalePrice:     f64(340000),
		},
		{
			PropertyID:   "GH-BAD",
			PurchaseDate: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
			SaleDate:     time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC),
		},
	}
	purchased := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	listings := []models.Listing{
		{PropertyID: "GH-L1", PurchaseDate: &purchased, DaysOnMarket: 10},
		{PropertyID: "GH-L2", PurchaseDate: &purchased, DaysOnMarket: -5},
	}

	validSales, validListings, errs := ClassifyBatch(sales, listings, cfg)

	require.Len(t, validSales, 1)
	assert.Equal(t, "GH-OK", validSales[0].PropertyID)
	require.Len(t, validListings, 1)
	assert.Equal(t, "GH-L1", validListings[0].PropertyID)
	assert.Len(t, errs, 3)
}
