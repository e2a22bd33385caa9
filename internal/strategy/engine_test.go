package strategy

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/model"
)

var sample = []float64{100, 200, 300, 400}

func TestRecommend_AllStrategies(t *testing.T) {
	tests := []struct {
		strategy string
		want     model.Strategy
		price    float64
		basis    string
	}{
		{"aggressive", model.StrategyAggressive, 95, "min"},
		{"competitive", model.StrategyCompetitive, 175, "p25"},
		{"balanced", model.StrategyBalanced, 245, "median"},
		{"premium", model.StrategyBalanced, 245, "median"},
		{"average", model.StrategyAverage, 250, "mean"},
		{"SAFE", model.StrategyAverage, 250, "mean"},
	}
	for _, tt := range tests {
		rec, err := Recommend(sample, tt.strategy)
		require.NoError(t, err, tt.strategy)
		require.NotNil(t, rec, tt.strategy)
		assert.Equal(t, tt.want, rec.Strategy, tt.strategy)
		assert.InDelta(t, tt.price, rec.Price, 1e-9, tt.strategy)
		assert.Equal(t, tt.basis, rec.Basis, tt.strategy)
		assert.Equal(t, 4, rec.SampleSize)
	}
}

func TestRecommend_NoData(t *testing.T) {
	rec, err := Recommend(nil, "competitive")
	assert.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = Recommend([]float64{-1, 0}, "aggressive")
	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.Contains(t, Describe(rec), ReasonNoData)
}

func TestRecommend_UnknownStrategy(t *testing.T) {
	_, err := Recommend(sample, "yolo")
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestRecommend_AggressiveNeverAboveMin(t *testing.T) {
	samples := [][]float64{
		{0.01},
		{0.03, 0.05},
		{19.99, 21.5, 24},
		{1234.567, 1300, 1500.01},
		{7.77},
	}
	for _, prices := range samples {
		rec, err := Recommend(prices, "aggressive")
		require.NoError(t, err)
		require.NotNil(t, rec)
		stats := calculator.ComputeStatistics(prices)
		assert.LessOrEqual(t, rec.Price, stats.Min, "%v", prices)
		assert.Greater(t, rec.Price, 0.0, "%v", prices)
	}
}

func TestRecommend_TinyPricesStayPositive(t *testing.T) {
	rec, err := Recommend([]float64{0.01, 0.02}, "aggressive")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.InDelta(t, 0.0095, rec.Price, 1e-12)

	rec, err = Recommend([]float64{0.004}, "competitive")
	require.NoError(t, err)
	assert.InDelta(t, 0.004, rec.Price, 1e-12)
}

func TestRecommend_NeverCrossesBasis(t *testing.T) {
	samples := [][]float64{
		{10.005, 10.005, 20},
		{1.005, 1.005, 1.005},
		{2.675, 2.675, 3.999},
		{19.999, 20.001, 20.004},
	}
	for _, prices := range samples {
		stats := calculator.ComputeStatistics(prices)

		rec, err := Recommend(prices, "competitive")
		require.NoError(t, err)
		assert.LessOrEqual(t, rec.Price, stats.P25, "competitive %v", prices)

		rec, err = Recommend(prices, "balanced")
		require.NoError(t, err)
		assert.LessOrEqual(t, rec.Price, stats.Median*0.98, "balanced %v", prices)
	}
}

func TestRecommend_HugePricesDoNotPanic(t *testing.T) {
	prices := []float64{1e308, 1.5e308}
	for _, name := range []string{"aggressive", "competitive", "balanced", "average"} {
		var rec *model.Recommendation
		require.NotPanics(t, func() {
			var err error
			rec, err = Recommend(prices, name)
			require.NoError(t, err)
		}, name)
		require.NotNil(t, rec, name)
		assert.False(t, math.IsInf(rec.Price, 0) || math.IsNaN(rec.Price), name)
		assert.Greater(t, rec.Price, 0.0, name)
	}
}

func TestRecommendFromStats_NonFiniteBasis(t *testing.T) {
	stats := &model.PriceStatistics{Min: 1, Max: math.Inf(1), Mean: math.Inf(1), Median: math.NaN(), Count: 2}
	assert.Nil(t, RecommendFromStats(stats, model.StrategyAverage))
	assert.Nil(t, RecommendFromStats(stats, model.StrategyBalanced))
	assert.NotNil(t, RecommendFromStats(stats, model.StrategyAggressive))
}

func TestRecommend_AverageWithinQuartiles(t *testing.T) {
	unimodal := []float64{90, 95, 98, 100, 100, 101, 102, 105, 110}
	rec, err := Recommend(unimodal, "average")
	require.NoError(t, err)
	stats := calculator.ComputeStatistics(unimodal)
	assert.GreaterOrEqual(t, rec.Price, stats.P25)
	assert.LessOrEqual(t, rec.Price, stats.P75)

	// sub-cent samples where rounding to cents would leave the quartile band
	for _, prices := range [][]float64{
		{1.005, 1.005, 1.005},
		{10.005, 10.005, 10.005, 10.006},
		{0.125, 0.125, 0.125, 0.126},
	} {
		for _, name := range []string{"average", "safe"} {
			rec, err := Recommend(prices, name)
			require.NoError(t, err)
			stats := calculator.ComputeStatistics(prices)
			assert.GreaterOrEqual(t, rec.Price, stats.P25, "%s %v", name, prices)
			assert.LessOrEqual(t, rec.Price, stats.P75, "%s %v", name, prices)
		}
	}
}

func TestRecommend_RoundsToCents(t *testing.T) {
	rec, err := Recommend([]float64{10, 10, 11}, "average")
	require.NoError(t, err)
	assert.Equal(t, 10.33, rec.Price)
}

func TestRecommendAll(t *testing.T) {
	stats := calculator.ComputeStatistics(sample)
	recs := RecommendAll(stats)
	require.Len(t, recs, len(Policies))
	for i := 1; i < len(recs); i++ {
		assert.LessOrEqual(t, recs[i-1].Price, recs[i].Price)
	}
	assert.Nil(t, RecommendAll(nil))
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		prices []float64
		want   model.Confidence
	}{
		{[]float64{100, 101, 99, 100}, model.ConfidenceHigh},
		{[]float64{80, 100, 120}, model.ConfidenceMedium},
		{[]float64{10, 100, 300}, model.ConfidenceLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceFor(calculator.ComputeStatistics(tt.prices)), "%v", tt.prices)
	}
	assert.Equal(t, model.ConfidenceLow, ConfidenceFor(nil))
}

func TestSaleSpeedFor(t *testing.T) {
	stats := calculator.ComputeStatistics(sample)
	assert.Equal(t, model.SaleVeryFast, SaleSpeedFor(100, stats))
	assert.Equal(t, model.SaleFast, SaleSpeedFor(175, stats))
	assert.Equal(t, model.SaleModerate, SaleSpeedFor(250, stats))
	assert.Equal(t, model.SaleSlow, SaleSpeedFor(400, stats))
}

func TestComparePosition(t *testing.T) {
	pos := ComparePosition(200, sample)
	require.NotNil(t, pos)
	assert.Equal(t, model.PositionBelowMarket, pos.Label)
	assert.InDelta(t, -20.0, pos.GapToMedianPct, 1e-9)

	pos = ComparePosition(252, sample)
	require.NotNil(t, pos)
	assert.Equal(t, model.PositionAtMarket, pos.Label)

	pos = ComparePosition(390, sample)
	require.NotNil(t, pos)
	assert.Equal(t, model.PositionAboveMarket, pos.Label)

	assert.Nil(t, ComparePosition(100, nil))
	assert.Nil(t, ComparePosition(0, sample))
}
