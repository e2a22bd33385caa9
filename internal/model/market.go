package model

import "time"

// PricePoint is one observation in a price time series. Timestamp is Unix milliseconds.
type PricePoint struct {
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// Time returns the observation time.
func (p PricePoint) Time() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// Listing is a single competitor offer returned by a source.
type Listing struct {
	Seller   string  `json:"seller"`
	Title    string  `json:"title,omitempty"`
	Price    float64 `json:"price"`
	RawPrice string  `json:"raw_price,omitempty"`
	URL      string  `json:"url,omitempty"`
}

// Sample holds the competitor listings gathered for a product at one point in time.
type Sample struct {
	ProductID string
	Source    string
	Listings  []Listing
	Prices    []float64
	FetchedAt time.Time
}

// Snapshot is a recorded collection run.
type Snapshot struct {
	ID             string           `json:"id"`
	ProductID      string           `json:"product_id"`
	TakenAt        time.Time        `json:"taken_at"`
	Stats          *PriceStatistics `json:"stats"`
	Recommendation *Recommendation  `json:"recommendation"`
}

// Point converts the snapshot into a history point keyed on the sample median.
func (s *Snapshot) Point() (PricePoint, bool) {
	if s == nil || s.Stats == nil {
		return PricePoint{}, false
	}
	return PricePoint{Price: s.Stats.Median, Timestamp: s.TakenAt.UnixMilli()}, true
}
