package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"

	"PriceSentinel/internal/model"
)

// MockSource returns controllable listings for development and testing.
// With Listings unset it generates a deterministic spread around BasePrice per product.
type MockSource struct {
	BasePrice float64
	Count     int
	Listings  map[string][]model.Listing
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchListings(_ context.Context, productID, _ string) ([]model.Listing, error) {
	if l, ok := m.Listings[productID]; ok {
		return l, nil
	}
	return generateMockListings(productID, m.BasePrice, m.Count), nil
}

func generateMockListings(productID string, basePrice float64, count int) []model.Listing {
	if basePrice <= 0 {
		basePrice = 100
	}
	if count <= 0 {
		count = 12
	}
	h := fnv.New64a()
	h.Write([]byte(productID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	listings := make([]model.Listing, count)
	for i := range listings {
		// +/-25% around the base price
		p := basePrice * (0.75 + rng.Float64()*0.5)
		p = float64(int(p*100)) / 100
		listings[i] = model.Listing{
			Seller:   fmt.Sprintf("seller-%02d", i+1),
			Title:    productID,
			Price:    p,
			RawPrice: fmt.Sprintf("%.2f ₽", p),
		}
	}
	return listings
}
