package calculator

import (
	"math"
	"sort"

	"PriceSentinel/internal/model"
)

const (
	upThreshold   = 0.6
	downThreshold = 0.4
)

// AnalyzeTrend classifies the direction of a price history by counting rising
// and falling steps between adjacent observations. Flat steps are ignored.
// Fewer than two points, or a history without any move, is stable with strength 0.
func AnalyzeTrend(points []model.PricePoint) model.Trend {
	stable := model.Trend{Direction: model.TrendStable}
	if len(points) < 2 {
		return stable
	}

	prices := orderedPrices(points)
	var ups, downs int
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			ups++
		} else if change < 0 {
			downs++
		}
	}
	if ups+downs == 0 {
		return stable
	}

	upRatio := float64(ups) / float64(ups+downs)
	switch {
	case upRatio > upThreshold:
		return model.Trend{Direction: model.TrendUp, Strength: upRatio, Ups: ups, Downs: downs}
	case upRatio < downThreshold:
		return model.Trend{Direction: model.TrendDown, Strength: 1 - upRatio, Ups: ups, Downs: downs}
	default:
		return model.Trend{Direction: model.TrendStable, Strength: 0.5, Ups: ups, Downs: downs}
	}
}

// PriceVolatility is the population standard deviation of raw prices.
// Non-positive, NaN and infinite values are ignored.
func PriceVolatility(values []float64) float64 {
	return StdDev(FilterPrices(values))
}

// ChangeVolatility is the population standard deviation of the step-to-step price changes.
func ChangeVolatility(points []model.PricePoint) float64 {
	return StdDev(deltas(orderedPrices(points)))
}

// Project extrapolates the history linearly: last price plus the average step
// times daysAhead, floored at zero. Confidence decays with change volatility as
// max(0, 1 - volatility/100); it is a heuristic, not a statistical interval.
func Project(points []model.PricePoint, daysAhead int) model.Forecast {
	prices := orderedPrices(points)
	if len(prices) == 0 {
		return model.Forecast{DaysAhead: daysAhead}
	}
	last := prices[len(prices)-1]
	if len(prices) < 2 {
		return model.Forecast{Price: last, DaysAhead: daysAhead}
	}

	avgDelta := Mean(deltas(prices))
	price := math.Max(0, last+avgDelta*float64(daysAhead))
	confidence := math.Max(0, 1-ChangeVolatility(points)/100)

	return model.Forecast{Price: price, Confidence: confidence, DaysAhead: daysAhead}
}

// orderedPrices returns the valid prices ordered by timestamp, keeping input order for ties.
func orderedPrices(points []model.PricePoint) []float64 {
	sorted := make([]model.PricePoint, 0, len(points))
	for _, p := range points {
		if p.Price > 0 && !math.IsInf(p.Price, 0) && !math.IsNaN(p.Price) {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	prices := make([]float64, len(sorted))
	for i, p := range sorted {
		prices[i] = p.Price
	}
	return prices
}

func deltas(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = prices[i] - prices[i-1]
	}
	return out
}
