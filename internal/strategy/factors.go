package strategy

import (
	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/model"
)

// atMarketBandPct is the distance from the median still considered "at market".
const atMarketBandPct = 2.0

// ConfidenceFor grades the sample by its coefficient of variation.
// CV < 0.1 is high, < 0.3 medium, anything else low.
func ConfidenceFor(stats *model.PriceStatistics) model.Confidence {
	if stats == nil || stats.Mean <= 0 {
		return model.ConfidenceLow
	}
	cv := stats.CoefficientOfVariation()
	switch {
	case cv < 0.1:
		return model.ConfidenceHigh
	case cv < 0.3:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// SaleSpeedFor estimates the sale speed from where price sits in the sample range.
func SaleSpeedFor(price float64, stats *model.PriceStatistics) model.SaleSpeed {
	if stats == nil {
		return model.SaleSlow
	}
	pos := calculator.PositionInRange(price, stats.Min, stats.Max)
	switch {
	case pos < 0.25:
		return model.SaleVeryFast
	case pos < 0.5:
		return model.SaleFast
	case pos < 0.75:
		return model.SaleModerate
	default:
		return model.SaleSlow
	}
}
