package calculator

// PositionInRange returns where value sits within [min, max] (0.0~1.0).
// A degenerate range yields 0.5.
func PositionInRange(value, min, max float64) float64 {
	if max <= min {
		return 0.5
	}
	pos := (value - min) / (max - min)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}

// PercentileRank returns the share of the sample strictly below value plus half
// of the values equal to it, scaled to 0~100.
func PercentileRank(sorted []float64, value float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	below, equal := 0, 0
	for _, v := range sorted {
		switch {
		case v < value:
			below++
		case v == value:
			equal++
		}
	}
	return (float64(below) + float64(equal)/2) / float64(len(sorted)) * 100
}
