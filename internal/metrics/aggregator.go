package metrics

import (
	"sort"

	"glasshouse/server/internal/models"
)

// Dimension selects the grouping key for sale aggregation.
type Dimension int

const (
	ByCohort Dimension = iota
	ByEra
	ByMarket
)

// eraKey values used when grouping by era.
const (
	KeyKazEra = "kaz_era"
	KeyLegacy = "legacy"
)

func saleKey(s models.Sale, dim Dimension) string {
	switch dim {
	case ByCohort:
		return string(s.Cohort)
	case ByEra:
		if s.IsKazEra {
			return KeyKazEra
		}
		return KeyLegacy
	default:
		return s.Market()
	}
}

// GroupStats is the rollup for one group of classified sales. WinRate
// is 0 for an empty group, never NaN; SampleSize lets consumers tell
// "0% on 50 sales" from "no data".
type GroupStats struct {
	Key           string  `json:"key"`
	SaleCount     int     `json:"sale_count"`
	SampleSize    int     `json:"sample_size"`
	WinCount      int     `json:"win_count"`
	WinRate       float64 `json:"win_rate"`
	TotalProfit   float64 `json:"total_profit"`
	AvgTrueProfit float64 `json:"avg_true_profit"`
	AvgMarginPct  float64 `json:"avg_margin_pct"`
	AvgDaysHeld   float64 `json:"avg_days_held"`
}

// Aggregate partitions classified sales by the requested dimension.
// The result is sorted by group key so repeated runs over the same
// records compare equal. Incomplete records never enter the win-rate
// denominator. Keys listed in ensureKeys appear in the output even
// when empty.
func Aggregate(sales []models.Sale, dim Dimension, ensureKeys ...string) []GroupStats {
	groups := make(map[string]*GroupStats)

	for _, key := range ensureKeys {
		groups[key] = &GroupStats{Key: key}
	}

	for _, s := range sales {
		key := saleKey(s, dim)
		g, ok := groups[key]
		if !ok {
			g = &GroupStats{Key: key}
			groups[key] = g
		}
		g.SaleCount++
		if s.Incomplete || s.Economics == nil {
			continue
		}
		g.SampleSize++
		if s.IsWin {
			g.WinCount++
		}
		g.TotalProfit += s.Economics.TrueProfit
		g.AvgTrueProfit += s.Economics.TrueProfit
		if !s.Economics.DegenerateMargin {
			g.AvgMarginPct += s.Economics.MarginPct
		}
		g.AvgDaysHeld += float64(s.DaysHeld)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]GroupStats, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		if g.SampleSize > 0 {
			n := float64(g.SampleSize)
			g.WinRate = float64(g.WinCount) / n * 100
			g.AvgTrueProfit /= n
			g.AvgMarginPct /= n
			g.AvgDaysHeld /= n
		}
		out = append(out, *g)
	}
	return out
}

// ListingGroupStats is the inventory-side rollup for one group.
type ListingGroupStats struct {
	Key             string  `json:"key"`
	Count           int     `json:"count"`
	ToxicCount      int     `json:"toxic_count"`
	UnderwaterCount int     `json:"underwater_count"`
	UnderwaterPct   float64 `json:"underwater_pct"`
	WithCuts        int     `json:"with_cuts"`
	AvgDOM          float64 `json:"avg_dom"`
	UnrealizedTotal float64 `json:"unrealized_total"`
}

func listingKey(l models.Listing, dim Dimension) string {
	switch dim {
	case ByCohort:
		return string(l.Cohort)
	case ByEra:
		if l.IsKazEra {
			return KeyKazEra
		}
		return KeyLegacy
	default:
		return l.Market()
	}
}

// AggregateListings partitions classified listings the same way,
// sorted by key.
func AggregateListings(listings []models.Listing, dim Dimension) []ListingGroupStats {
	groups := make(map[string]*ListingGroupStats)

	for _, l := range listings {
		key := listingKey(l, dim)
		g, ok := groups[key]
		if !ok {
			g = &ListingGroupStats{Key: key}
			groups[key] = g
		}
		g.Count++
		if l.Cohort == models.CohortToxic {
			g.ToxicCount++
		}
		if l.IsUnderwater {
			g.UnderwaterCount++
		}
		if l.PriceCuts > 0 {
			g.WithCuts++
		}
		g.AvgDOM += float64(l.DaysOnMarket)
		if l.ListPrice != nil && l.PurchasePrice != nil {
			g.UnrealizedTotal += *l.ListPrice - *l.PurchasePrice
		}
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]ListingGroupStats, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		if g.Count > 0 {
			g.AvgDOM /= float64(g.Count)
			g.UnderwaterPct = float64(g.UnderwaterCount) / float64(g.Count) * 100
		}
		out = append(out, *g)
	}
	return out
}
