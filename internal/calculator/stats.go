package calculator

import (
	"math"
	"sort"

	"PriceSentinel/internal/model"
)

// FilterPrices drops non-positive, NaN and infinite values. The input is not modified.
func FilterPrices(prices []float64) []float64 {
	out := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p) {
			out = append(out, p)
		}
	}
	return out
}

// ComputeStatistics summarizes a competitor sample.
// Returns nil when no valid price remains after filtering.
func ComputeStatistics(prices []float64) *model.PriceStatistics {
	sorted := FilterPrices(prices)
	if len(sorted) == 0 {
		return nil
	}
	sort.Float64s(sorted)

	mean := Mean(sorted)
	return &model.PriceStatistics{
		Min:      sorted[0],
		Max:      sorted[len(sorted)-1],
		Mean:     mean,
		Median:   medianSorted(sorted),
		P25:      Percentile(sorted, 25),
		P75:      Percentile(sorted, 75),
		P90:      Percentile(sorted, 90),
		StdDev:   stdDev(sorted, mean),
		Count:    len(sorted),
		Outliers: countOutliers(sorted),
	}
}

// Percentile returns the p-th percentile of an ascending sample using linear
// interpolation between the closest ranks. p is clamped to [0, 100].
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if math.IsNaN(p) || p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	idx := p / 100 * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	weight := idx - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*weight
}

// Mean returns the arithmetic average, or 0 for an empty slice.
// The running mean is updated in scaled steps so large finite prices cannot overflow.
func Mean(values []float64) float64 {
	m := 0.0
	for i, v := range values {
		n := float64(i + 1)
		m += v/n - m/n
	}
	return m
}

// Median returns the middle value of the sample (average of the two middle values for even sizes).
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return medianSorted(sorted)
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stdDev(values, Mean(values))
}

// ComputeVolatility is the population standard deviation of the valid raw values.
func ComputeVolatility(values []float64) float64 {
	return PriceVolatility(values)
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	a, b := sorted[n/2-1], sorted[n/2]
	return a + (b-a)/2
}

// stdDev works on halved deviations scaled by the largest one, so squares stay finite.
func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	scale := 0.0
	for _, v := range values {
		scale = math.Max(scale, math.Abs(v/2-mean/2))
	}
	if scale == 0 {
		return 0
	}
	sq := 0.0
	for _, v := range values {
		d := (v/2 - mean/2) / scale
		sq += d * d
	}
	return 2 * scale * math.Sqrt(sq/float64(len(values)))
}

// countOutliers counts values outside the 1.5*IQR fences.
func countOutliers(sorted []float64) int {
	if len(sorted) < 4 {
		return 0
	}
	q1 := Percentile(sorted, 25)
	q3 := Percentile(sorted, 75)
	fence := 1.5 * (q3 - q1)
	lower, upper := q1-fence, q3+fence

	n := 0
	for _, v := range sorted {
		if v < lower || v > upper {
			n++
		}
	}
	return n
}
