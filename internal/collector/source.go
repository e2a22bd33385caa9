package collector

import (
	"context"

	"PriceSentinel/internal/model"
)

// Source fetches competitor listings for a product.
type Source interface {
	FetchListings(ctx context.Context, productID, query string) ([]model.Listing, error)
	Name() string
}
