package strategy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/model"
)

// ErrUnknownStrategy is returned for strategy names outside the policy table.
var ErrUnknownStrategy = errors.New("unknown pricing strategy")

// ReasonNoData explains a missing recommendation.
const ReasonNoData = "no data"

// Policy maps a strategy to the statistic it anchors on and the ratio applied to it.
type Policy struct {
	Strategy model.Strategy
	Basis    string
	Ratio    float64
	pick     func(*model.PriceStatistics) float64
}

// Policies is the single pricing policy shared by every caller.
var Policies = []Policy{
	{model.StrategyAggressive, "min", 0.95, func(s *model.PriceStatistics) float64 { return s.Min }},
	{model.StrategyCompetitive, "p25", 1.0, func(s *model.PriceStatistics) float64 { return s.P25 }},
	{model.StrategyBalanced, "median", 0.98, func(s *model.PriceStatistics) float64 { return s.Median }},
	{model.StrategyAverage, "mean", 1.0, func(s *model.PriceStatistics) float64 { return s.Mean }},
}

var aliases = map[string]model.Strategy{
	"premium": model.StrategyBalanced,
	"safe":    model.StrategyAverage,
}

// ParseStrategy resolves a strategy name, including the premium and safe aliases.
func ParseStrategy(name string) (model.Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if s, ok := aliases[name]; ok {
		return s, nil
	}
	for _, p := range Policies {
		if string(p.Strategy) == name {
			return p.Strategy, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownStrategy, "%q", name)
}

func lookup(s model.Strategy) (Policy, bool) {
	for _, p := range Policies {
		if p.Strategy == s {
			return p, true
		}
	}
	return Policy{}, false
}

// Recommend computes the recommended price for a competitor sample.
// An empty sample yields a nil recommendation and no error.
func Recommend(prices []float64, strategyName string) (*model.Recommendation, error) {
	s, err := ParseStrategy(strategyName)
	if err != nil {
		return nil, err
	}
	return RecommendFromStats(calculator.ComputeStatistics(prices), s), nil
}

// RecommendFromStats applies a strategy to precomputed statistics. Nil stats yield nil.
func RecommendFromStats(stats *model.PriceStatistics, s model.Strategy) *model.Recommendation {
	if stats == nil || stats.Count == 0 {
		return nil
	}
	p, ok := lookup(s)
	if !ok {
		return nil
	}

	base := p.pick(stats)
	if base <= 0 || math.IsInf(base, 0) || math.IsNaN(base) {
		return nil
	}
	price := roundPrice(s, decimal.NewFromFloat(base).Mul(decimal.NewFromFloat(p.Ratio)), stats)

	return &model.Recommendation{
		Price:      price,
		Strategy:   s,
		Basis:      p.Basis,
		Confidence: ConfidenceFor(stats),
		SaleSpeed:  SaleSpeedFor(price, stats),
		SampleSize: stats.Count,
	}
}

// roundPrice rounds to cents without crossing the statistic the price is based on.
// Average is kept inside [P25, P75]. A price that rounds to zero keeps its exact value.
func roundPrice(s model.Strategy, raw decimal.Decimal, stats *model.PriceStatistics) float64 {
	if s != model.StrategyAverage {
		if price := raw.RoundDown(2).InexactFloat64(); price > 0 {
			return price
		}
		return raw.InexactFloat64()
	}

	price := raw.Round(2).InexactFloat64()
	if price > stats.P75 {
		price = raw.RoundDown(2).InexactFloat64()
	}
	if price < stats.P25 {
		price = raw.RoundUp(2).InexactFloat64()
	}
	return math.Min(math.Max(price, stats.P25), stats.P75)
}

// RecommendAll returns one recommendation per strategy, in policy order.
func RecommendAll(stats *model.PriceStatistics) []model.Recommendation {
	if stats == nil {
		return nil
	}
	out := make([]model.Recommendation, 0, len(Policies))
	for _, p := range Policies {
		if r := RecommendFromStats(stats, p.Strategy); r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// ComparePosition places ownPrice within the competitor sample.
func ComparePosition(ownPrice float64, prices []float64) *model.MarketPosition {
	sorted := calculator.FilterPrices(prices)
	if len(sorted) == 0 || ownPrice <= 0 {
		return nil
	}
	sort.Float64s(sorted)

	median := calculator.Percentile(sorted, 50)
	gap := (ownPrice - median) / median * 100

	label := model.PositionAtMarket
	switch {
	case gap < -atMarketBandPct:
		label = model.PositionBelowMarket
	case gap > atMarketBandPct:
		label = model.PositionAboveMarket
	}

	return &model.MarketPosition{
		OwnPrice:       ownPrice,
		PercentileRank: calculator.PercentileRank(sorted, ownPrice),
		GapToMedianPct: gap,
		Label:          label,
	}
}

// Describe renders a one-line summary, used by the notifier and the CLI.
func Describe(r *model.Recommendation) string {
	if r == nil {
		return "no recommendation: " + ReasonNoData
	}
	return fmt.Sprintf("%s: %.2f (%s, confidence %s, sale speed %s)",
		r.Strategy, r.Price, r.Basis, r.Confidence, r.SaleSpeed)
}
