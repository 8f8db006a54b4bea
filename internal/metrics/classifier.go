package metrics

import (
	"fmt"
	"time"

	"glasshouse/server/config"
	"glasshouse/server/internal/models"
)

// cohortBand is one row of the ordered boundary table built from the
// configured thresholds.
type cohortBand struct {
	maxDays int
	cohort  models.Cohort
}

func cohortBands(t config.CohortThresholds) []cohortBand {
	return []cohortBand{
		{maxDays: t.NewMax, cohort: models.CohortNew},
		{maxDays: t.MidMax, cohort: models.CohortMid},
		{maxDays: t.OldMax, cohort: models.CohortOld},
	}
}

// ClassifyCohort assigns the age bucket for a number of days held or
// on market. Bands are lower-bound inclusive: days equal to a
// threshold fall into the higher band. Negative days are a
// data-integrity error, never a silent "new".
func ClassifyCohort(days int, t config.CohortThresholds) (models.Cohort, error) {
	if days < 0 {
		return "", fmt.Errorf("negative day count %d", days)
	}
	for _, band := range cohortBands(t) {
		if days < band.maxDays {
			return band.cohort, nil
		}
	}
	return models.CohortToxic, nil
}

// ClassifyEra reports whether a purchase date falls on or after the
// era cutoff. Dates are calendar dates; the comparison has no
// timezone component.
func ClassifyEra(date time.Time, cutoff time.Time) bool {
	return !date.Before(cutoff)
}

// ClassifySale recomputes days held from the record's dates, assigns
// cohort and era, and estimates true profit. Errors are collected per
// field so one malformed record never aborts the batch.
func ClassifySale(s *models.Sale, cfg config.MetricsConfig) []models.RecordError {
	var errs []models.RecordError

	// days_held is never trusted from the source; inconsistent feeds
	// have shipped stale values before.
	days := int(s.SaleDate.Sub(s.PurchaseDate).Hours() / 24)
	if s.SaleDate.Before(s.PurchaseDate) {
		errs = append(errs, models.RecordError{
			RecordID: s.RecordID(),
			Field:    "sale_date",
			Reason:   "sale date precedes purchase date",
		})
	} else {
		s.DaysHeld = days
		cohort, err := ClassifyCohort(days, cfg.Cohorts)
		if err != nil {
			errs = append(errs, models.RecordError{
				RecordID: s.RecordID(),
				Field:    "days_held",
				Reason:   err.Error(),
			})
		} else {
			s.Cohort = cohort
		}
	}

	s.IsKazEra = ClassifyEra(s.PurchaseDate, cfg.EraCutoff)

	if s.PurchasePrice == nil {
		errs = append(errs, models.RecordError{
			RecordID: s.RecordID(),
			Field:    "purchase_price",
			Reason:   "missing",
		})
	}
	if s.SalePrice == nil {
		errs = append(errs, models.RecordError{
			RecordID: s.RecordID(),
			Field:    "sale_price",
			Reason:   "missing",
		})
	}

	if len(errs) > 0 {
		s.Incomplete = true
		return errs
	}

	breakdown := EstimateTrueProfit(*s.PurchasePrice, *s.SalePrice, s.DaysHeld, cfg.CostModel)
	s.Economics = &breakdown
	s.IsWin = breakdown.TrueProfit > 0
	return nil
}

// ClassifyListing assigns cohort, era and underwater status to a
// listing.
func ClassifyListing(l *models.Listing, cfg config.MetricsConfig) []models.RecordError {
	var errs []models.RecordError

	if l.DaysOnMarket < 0 {
		errs = append(errs, models.RecordError{
			RecordID: l.RecordID(),
			Field:    "days_on_market",
			Reason:   "negative",
		})
	} else {
		cohort, err := ClassifyCohort(l.DaysOnMarket, cfg.Cohorts)
		if err != nil {
			errs = append(errs, models.RecordError{
				RecordID: l.RecordID(),
				Field:    "days_on_market",
				Reason:   err.Error(),
			})
		} else {
			l.Cohort = cohort
		}
	}

	if l.PriceCuts < 0 {
		errs = append(errs, models.RecordError{
			RecordID: l.RecordID(),
			Field:    "price_cuts",
			Reason:   "negative",
		})
	}

	// Era needs the acquisition date; without it the listing would
	// silently read as legacy.
	if l.PurchaseDate == nil {
		errs = append(errs, models.RecordError{
			RecordID: l.RecordID(),
			Field:    "purchase_date",
			Reason:   "missing",
		})
	} else {
		l.IsKazEra = ClassifyEra(*l.PurchaseDate, cfg.EraCutoff)
	}
	if l.ListPrice != nil && l.PurchasePrice != nil {
		l.IsUnderwater = *l.ListPrice < *l.PurchasePrice
	}

	return errs
}

// ClassifyBatch classifies every record in place and returns the valid
// subset alongside the collected per-record errors. Records with
// errors are excluded from aggregates but still reported.
func ClassifyBatch(sales []models.Sale, listings []models.Listing, cfg config.MetricsConfig) ([]models.Sale, []models.Listing, []models.RecordError) {
	var errs []models.RecordError

	validSales := make([]models.Sale, 0, len(sales))
	for i := range sales {
		if recErrs := ClassifySale(&sales[i], cfg); len(recErrs) > 0 {
			errs = append(errs, recErrs...)
			continue
		}
		validSales = append(validSales, sales[i])
	}

	validListings := make([]models.Listing, 0, len(listings))
	for i := range listings {
		if recErrs := ClassifyListing(&listings[i], cfg); len(recErrs) > 0 {
			errs = append(errs, recErrs...)
			continue
		}
		validListings = append(validListings, listings[i])
	}

	return validSales, validListings, errs
}
