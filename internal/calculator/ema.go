package calculator

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
)

// SmoothPrices returns the exponential moving average of values over period.
// When there is not enough data for one full period the input is returned unchanged.
func SmoothPrices(values []float64, period int) []float64 {
	if period <= 1 || len(values) < period {
		return append([]float64(nil), values...)
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	out := ema.Compute(helper.SliceToChan(values))
	return helper.ChanToSlice(out)
}
