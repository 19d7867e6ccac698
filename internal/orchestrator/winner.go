package orchestrator

import (
	"math"

	"github.com/DanielBelovol/ThumbnailTester/internal/models"
)

// SelectWinner marks at most one variant as the winner under the given
// criterion and returns its index, or -1 when no winner exists. A variant
// without a measurement never wins. Ties keep the first variant in insertion
// order, so re-running selection on the same inputs is stable.
func SelectWinner(variants []models.Variant, criterion models.WinnerCriterion) int {
	for i := range variants {
		variants[i].IsWinner = false
	}

	if criterion == models.CriterionNone || len(variants) == 0 {
		return -1
	}

	winner := -1
	best := math.Inf(-1)
	for i := range variants {
		score := score(&variants[i], criterion)
		if score > best {
			best = score
			winner = i
		}
	}

	// A winner needs a strictly positive score: a session where every variant
	// measured zero (or was never measured) has no winner to report.
	if winner < 0 || best <= 0 {
		return -1
	}
	variants[winner].IsWinner = true
	return winner
}

func score(v *models.Variant, criterion models.WinnerCriterion) float64 {
	if v.Stats == nil {
		return math.Inf(-1)
	}
	switch criterion {
	case models.CriterionViews:
		return float64(v.Stats.Views)
	case models.CriterionAvgViewDuration:
		return v.Stats.AverageViewDuration
	case models.CriterionCTR:
		return v.Stats.CTR
	case models.CriterionWatchTime:
		return float64(v.Stats.TotalWatchTime)
	case models.CriterionCTRxAVD:
		return v.Stats.CTR * v.Stats.AverageViewDuration
	default:
		return math.Inf(-1)
	}
}
