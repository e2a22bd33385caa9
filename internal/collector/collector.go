package collector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/model"
)

// Collector fetches competitor listings and turns them into a clean price sample.
type Collector struct {
	Source Source
	logger *zap.Logger
	now    func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(source Source, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{Source: source, logger: logger, now: time.Now}
}

// Collect fetches listings for the product and filters invalid prices.
func (c *Collector) Collect(ctx context.Context, productID, query string) (*model.Sample, error) {
	listings, err := c.Source.FetchListings(ctx, productID, query)
	if err != nil {
		return nil, errors.Wrapf(err, "collect %s from %s", productID, c.Source.Name())
	}

	prices := make([]float64, 0, len(listings))
	for _, l := range listings {
		prices = append(prices, l.Price)
	}
	valid := calculator.FilterPrices(prices)
	if dropped := len(prices) - len(valid); dropped > 0 {
		c.logger.Warn("dropped invalid competitor prices",
			zap.String("product", productID),
			zap.Int("dropped", dropped),
			zap.Int("kept", len(valid)))
	}

	return &model.Sample{
		ProductID: productID,
		Source:    c.Source.Name(),
		Listings:  listings,
		Prices:    valid,
		FetchedAt: c.now(),
	}, nil
}
