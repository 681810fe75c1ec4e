package engine

import "github.com/trogers1052/paper-trader/internal/models"

const fallbackBuyQuantity int64 = 5

// Fallback is the momentum heuristic used when no oracle answer is available
func Fallback(changePercent float64) models.Recommendation {
	switch {
	case changePercent > 0.5:
		qty := fallbackBuyQuantity
		return models.Recommendation{
			Action:            models.ActionBuy,
			Confidence:        0.7,
			Reasoning:         "Positive momentum (fallback strategy)",
			SuggestedQuantity: &qty,
			Source:            models.SourceFallback,
		}
	case changePercent < -0.5:
		return models.Recommendation{
			Action:     models.ActionSell,
			Confidence: 0.6,
			Reasoning:  "Negative momentum (fallback strategy)",
			Source:     models.SourceFallback,
		}
	default:
		return models.Recommendation{
			Action:     models.ActionHold,
			Confidence: 0.5,
			Reasoning:  "Neutral market (fallback strategy)",
			Source:     models.SourceFallback,
		}
	}
}
