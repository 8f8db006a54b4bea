package metrics

import (
	"math"
	"time"

	"glasshouse/server/internal/models"
)

// Markets whose win rate moves less than this (percentage points)
// between snapshots count as stable.
const trendBandPP = 2.0

// ComputeDelta compares one metric across two snapshots.
func ComputeDelta(current, previous float64) models.Delta {
	absolute := current - previous

	var percentage float64
	if previous != 0 {
		percentage = absolute / math.Abs(previous) * 100
	} else if current > 0 {
		percentage = 100
	}

	direction := "flat"
	if absolute > 0 {
		direction = "up"
	} else if absolute < 0 {
		direction = "down"
	}

	return models.Delta{
		Current:    round2(current),
		Previous:   round2(previous),
		Absolute:   round2(absolute),
		Percentage: round2(percentage),
		Direction:  direction,
	}
}

// WeekOverWeek computes deltas for the headline metrics between the
// current run and the prior snapshot.
func WeekOverWeek(current, prior *models.Snapshot) map[string]models.Delta {
	if current == nil {
		return map[string]models.Delta{}
	}
	if prior == nil {
		prior = &models.Snapshot{}
	}
	return map[string]models.Delta{
		"win_rate":        ComputeDelta(current.WinRate, prior.WinRate),
		"kaz_win_rate":    ComputeDelta(current.KazWinRate, prior.KazWinRate),
		"avg_true_profit": ComputeDelta(current.AvgTrueProfit, prior.AvgTrueProfit),
		"homes_sold":      ComputeDelta(float64(current.SaleCount), float64(prior.SaleCount)),
		"toxic_remaining": ComputeDelta(float64(current.ToxicCount), float64(prior.ToxicCount)),
		"underwater":      ComputeDelta(float64(current.Underwater), float64(prior.Underwater)),
	}
}

// ProjectToxicCountdown projects toxic inventory to zero at the trailing
// average weekly net decline. History must be ordered oldest first;
// the current count is appended as the latest point. The decline is
// normalized by the real span of the history so daily and weekly
// snapshot cadences project the same rate. A flat or rising trend
// leaves the projection undetermined instead of producing a nonsense
// date.
func ProjectToxicCountdown(history []models.Snapshot, currentCount int, now time.Time) models.ToxicCountdown {
	counts := make([]int, 0, len(history)+1)
	for _, snap := range history {
		counts = append(counts, snap.ToxicCount)
	}
	counts = append(counts, currentCount)

	out := models.ToxicCountdown{
		CurrentCount: currentCount,
		WeeklyCounts: counts,
	}

	if len(counts) < 2 {
		return out
	}

	start, err := time.Parse("2006-01-02", history[0].Date)
	if err != nil {
		return out
	}
	spanDays := int(now.Sub(start).Hours() / 24)
	if spanDays <= 0 {
		return out
	}

	decline := float64(counts[0]-currentCount) * 7 / float64(spanDays)
	out.AvgWeeklyDecline = round2(decline)

	if decline <= 0 {
		return out
	}

	weeks := float64(currentCount) / decline
	out.WeeksToClear = round2(weeks)
	out.ClearDate = now.AddDate(0, 0, int(math.Ceil(weeks*7))).Format("2006-01-02")
	out.Determined = true
	return out
}

// SelectComparison picks the week-over-week baseline from trailing
// snapshots ordered oldest first: the newest entry at least seven
// days older than today, falling back to the oldest entry when the
// whole history is younger than a week.
func SelectComparison(history []models.Snapshot, today time.Time) *models.Snapshot {
	for i := len(history) - 1; i >= 0; i-- {
		d, err := time.Parse("2006-01-02", history[i].Date)
		if err != nil {
			continue
		}
		if int(today.Sub(d).Hours()/24) >= 7 {
			return &history[i]
		}
	}
	if len(history) == 0 {
		return nil
	}
	return &history[0]
}

// MarketTrend compares a market's current win rate against the prior
// snapshot. Markets absent from the prior run read as flat.
func MarketTrend(market string, winRate float64, prior *models.Snapshot) string {
	if prior == nil {
		return "flat"
	}
	prev, ok := prior.MarketWinRates[market]
	if !ok {
		return "flat"
	}
	switch {
	case winRate-prev >= trendBandPP:
		return "improving"
	case prev-winRate >= trendBandPP:
		return "declining"
	default:
		return "stable"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
