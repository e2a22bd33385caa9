package scheduler

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"PriceSentinel/internal/cache"
	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/config"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/notifier"
	"PriceSentinel/internal/pricing"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/strategy"
)

// ErrUnknownProduct is returned for product ids that are not configured.
var ErrUnknownProduct = errors.New("unknown product")

// Result is the outcome of one collection run for a product.
type Result struct {
	Snapshot   *model.Snapshot       `json:"snapshot"`
	Position   *model.MarketPosition `json:"position,omitempty"`
	Trend      model.Trend           `json:"trend"`
	Adjustment *pricing.Adjustment   `json:"adjustment,omitempty"`
	Listings   int                   `json:"listings"`
}

// TrendReport is the trend analysis over a product's recorded history.
type TrendReport struct {
	Points           []model.PricePoint `json:"points"`
	Trend            model.Trend        `json:"trend"`
	PriceVolatility  float64            `json:"price_volatility"`
	ChangeVolatility float64            `json:"change_volatility"`
	Forecast         model.Forecast     `json:"forecast"`
}

// Product returns the configured product by id.
func (s *Scheduler) Product(id string) (config.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return config.Product{}, false
}

// RunProduct collects competitor prices for one product, records the analysis and
// applies auto-pricing. An empty strategyName uses the product's configured strategy.
func (s *Scheduler) RunProduct(ctx context.Context, productID, strategyName string) (*Result, error) {
	p, ok := s.Product(productID)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProduct, "%q", productID)
	}
	if strategyName == "" {
		strategyName = p.Strategy
	}
	strat, err := strategy.ParseStrategy(strategyName)
	if err != nil {
		return nil, err
	}

	sample, err := s.collector.Collect(ctx, p.ID, p.Query)
	if err != nil {
		return nil, err
	}

	stats := calculator.ComputeStatistics(sample.Prices)
	snap := &model.Snapshot{
		ID:             s.newID(),
		ProductID:      p.ID,
		TakenAt:        sample.FetchedAt,
		Stats:          stats,
		Recommendation: strategy.RecommendFromStats(stats, strat),
	}
	res := &Result{Snapshot: snap, Listings: len(sample.Listings)}

	if stats == nil {
		s.logger.Warn("no valid competitor prices", zap.String("product", p.ID), zap.Int("listings", len(sample.Listings)))
		return res, nil
	}

	if err := s.recorder.RecordSnapshot(ctx, snap); err != nil {
		return nil, errors.Wrapf(err, "record %s", p.ID)
	}
	if err := s.cache.SetLatest(ctx, snap); err != nil {
		s.logger.Warn("cache latest snapshot", zap.String("product", p.ID), zap.Error(err))
	}

	res.Position = strategy.ComparePosition(s.ownPrice(p), sample.Prices)

	if report, err := s.TrendFor(ctx, p.ID, 0); err != nil {
		s.logger.Warn("trend analysis", zap.String("product", p.ID), zap.Error(err))
	} else {
		res.Trend = report.Trend
		s.checkTrendChange(ctx, p.ID, report.Trend)
	}

	if s.pricing != nil {
		adj, err := s.pricing.Apply(p.ID, snap.Recommendation)
		if err != nil {
			s.logger.Warn("auto-pricing", zap.String("product", p.ID), zap.Error(err))
		} else {
			res.Adjustment = &adj
			if adj.Changed {
				s.trySend(ctx, notifier.FormatAdjustment(adj))
			}
		}
	}

	s.logger.Info("product analysed",
		zap.String("product", p.ID),
		zap.Int("count", stats.Count),
		zap.Float64("median", stats.Median),
		zap.String("strategy", string(strat)),
		zap.Float64("recommended", snap.Recommendation.Price))
	return res, nil
}

// Latest returns the newest snapshot, preferring the cache over the recorder.
func (s *Scheduler) Latest(ctx context.Context, productID string) (*model.Snapshot, error) {
	snap, err := s.cache.GetLatest(ctx, productID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("cache read failed, falling back to recorder", zap.String("product", productID), zap.Error(err))
	}

	snap, err = s.recorder.Latest(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetLatest(ctx, snap); err != nil {
		s.logger.Warn("cache latest snapshot", zap.String("product", productID), zap.Error(err))
	}
	return snap, nil
}

// TrendFor analyses the recorded history of a product.
func (s *Scheduler) TrendFor(ctx context.Context, productID string, daysAhead int) (*TrendReport, error) {
	snaps, err := s.recorder.History(ctx, productID, s.historyLimit)
	if err != nil {
		return nil, errors.Wrapf(err, "history %s", productID)
	}
	points := recorder.Points(snaps)
	report := &TrendReport{
		Points:           points,
		Trend:            calculator.AnalyzeTrend(points),
		ChangeVolatility: calculator.ChangeVolatility(points),
	}
	prices := make([]float64, len(points))
	for i, pt := range points {
		prices[i] = pt.Price
	}
	report.PriceVolatility = calculator.PriceVolatility(prices)
	if daysAhead > 0 {
		report.Forecast = calculator.Project(points, daysAhead)
	}
	return report, nil
}

func (s *Scheduler) ownPrice(p config.Product) float64 {
	if s.pricing != nil {
		if st, ok := s.pricing.GetState(p.ID); ok && st.CurrentPrice > 0 {
			return st.CurrentPrice
		}
	}
	return p.OwnPrice
}

// checkTrendChange notifies when the direction differs from the previous run.
func (s *Scheduler) checkTrendChange(ctx context.Context, productID string, cur model.Trend) {
	s.mu.Lock()
	prev, seen := s.lastTrend[productID]
	s.lastTrend[productID] = cur
	s.mu.Unlock()

	if seen && prev.Direction != cur.Direction {
		s.trySend(ctx, notifier.FormatTrendChange(productID, prev, cur))
	}
}

func newSnapshotID() string {
	return uuid.NewString()
}

// PricingState returns the auto-pricing state of a product, if auto-pricing is enabled.
func (s *Scheduler) PricingState(productID string) (model.PricingState, bool) {
	if s.pricing == nil {
		return model.PricingState{}, false
	}
	return s.pricing.GetState(productID)
}
