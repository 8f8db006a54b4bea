package metrics

import (
	"glasshouse/server/config"
	"glasshouse/server/internal/models"
)

// RecommendAction maps a market's win rate (percent) onto the
// configured action bands. Bands are checked top down and ties at a
// boundary resolve upward: a win rate exactly on a band's minimum
// earns that band's action.
func RecommendAction(winRatePct float64, bands []config.ActionBand) models.Action {
	for _, band := range bands {
		if winRatePct >= band.MinWinRate {
			return band.Action
		}
	}
	// Validation guarantees a zero-floored table; a negative input
	// still lands in the last band.
	return bands[len(bands)-1].Action
}
