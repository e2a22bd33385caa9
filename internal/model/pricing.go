package model

import "time"

// PricingState tracks the auto-pricing status of one own listing.
type PricingState struct {
	ProductID    string    `json:"product_id"`
	CurrentPrice float64   `json:"current_price"`
	Strategy     Strategy  `json:"strategy"`
	Floor        float64   `json:"floor"`
	Ceiling      float64   `json:"ceiling"`
	MaxStepPct   float64   `json:"max_step_pct"`
	LastTarget   float64   `json:"last_target"`
	Adjustments  int       `json:"adjustments"`
	UpdatedAt    time.Time `json:"updated_at"`
}
