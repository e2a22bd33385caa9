package model

// PriceStatistics is the descriptive summary of a competitor sample.
type PriceStatistics struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	P25      float64 `json:"p25"`
	P75      float64 `json:"p75"`
	P90      float64 `json:"p90"`
	StdDev   float64 `json:"std_dev"`
	Count    int     `json:"count"`
	Outliers int     `json:"outliers"`
}

// CoefficientOfVariation returns StdDev/Mean, or 0 when the mean is not positive.
func (s *PriceStatistics) CoefficientOfVariation() float64 {
	if s == nil || s.Mean <= 0 {
		return 0
	}
	return s.StdDev / s.Mean
}

// TrendDirection is the coarse direction of a price series.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// Trend describes the direction of a price history.
type Trend struct {
	Direction TrendDirection `json:"direction"`
	Strength  float64        `json:"strength"`
	Ups       int            `json:"ups"`
	Downs     int            `json:"downs"`
}

// Forecast is a linear extrapolation of a price history.
type Forecast struct {
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"`
	DaysAhead  int     `json:"days_ahead"`
}

// MarketPosition places an own price relative to a competitor sample.
type MarketPosition struct {
	OwnPrice       float64 `json:"own_price"`
	PercentileRank float64 `json:"percentile_rank"` // 0 ~ 100
	GapToMedianPct float64 `json:"gap_to_median_pct"`
	Label          string  `json:"label"`
}

const (
	PositionBelowMarket = "below_market"
	PositionAtMarket    = "at_market"
	PositionAboveMarket = "above_market"
)
