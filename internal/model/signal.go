package model

// Strategy is a named pricing policy.
type Strategy string

const (
	StrategyAggressive  Strategy = "aggressive"
	StrategyCompetitive Strategy = "competitive"
	StrategyBalanced    Strategy = "balanced"
	StrategyAverage     Strategy = "average"
)

// Confidence is a coarse label derived from the dispersion of the sample.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// SaleSpeed estimates how quickly a listing at the recommended price would sell.
type SaleSpeed string

const (
	SaleVeryFast SaleSpeed = "very_fast"
	SaleFast     SaleSpeed = "fast"
	SaleModerate SaleSpeed = "moderate"
	SaleSlow     SaleSpeed = "slow"
)

// Recommendation is the output of the recommendation engine.
type Recommendation struct {
	Price      float64    `json:"price"`
	Strategy   Strategy   `json:"strategy"`
	Basis      string     `json:"basis"`
	Confidence Confidence `json:"confidence"`
	SaleSpeed  SaleSpeed  `json:"sale_speed"`
	SampleSize int        `json:"sample_size"`
}
