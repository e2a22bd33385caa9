package pricing

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"PriceSentinel/internal/model"
)

// ErrUnknownProduct is returned for products without pricing state.
var ErrUnknownProduct = errors.New("unknown product")

// Adjustment describes the outcome of applying a recommendation.
type Adjustment struct {
	ProductID string
	OldPrice  float64
	NewPrice  float64
	Target    float64
	Changed   bool
	Reason    string
}

// Manager keeps per-product auto-pricing state with guard rails, safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	states   map[string]*model.PricingState
	filePath string
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager loads persisted state and registers seed products that are not known yet.
// Guard rails (floor, ceiling, step, strategy) of known products are refreshed from seeds.
func NewManager(filePath string, seeds []model.PricingState, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	states, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	for _, seed := range seeds {
		if seed.ProductID == "" {
			continue
		}
		if st, ok := states[seed.ProductID]; ok {
			st.Strategy = seed.Strategy
			st.Floor = seed.Floor
			st.Ceiling = seed.Ceiling
			st.MaxStepPct = seed.MaxStepPct
			continue
		}
		s := seed
		states[seed.ProductID] = &s
	}

	m := &Manager{states: states, filePath: filePath, logger: logger, now: time.Now}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// GetState returns a copy of a product's state.
func (m *Manager) GetState(productID string) (model.PricingState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[productID]
	if !ok {
		return model.PricingState{}, false
	}
	return *st, true
}

// States returns copies of all states ordered by product id.
func (m *Manager) States() []model.PricingState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.PricingState, 0, len(m.states))
	for _, st := range m.states {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Apply moves the own price toward the recommended price by at most the maximum
// step per adjustment. The result always lies within [floor, ceiling], even when
// that needs a larger move than the step allows.
func (m *Manager) Apply(productID string, rec *model.Recommendation) (Adjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[productID]
	if !ok {
		return Adjustment{}, errors.Wrapf(ErrUnknownProduct, "%q", productID)
	}
	adj := Adjustment{ProductID: productID, OldPrice: st.CurrentPrice, NewPrice: st.CurrentPrice}
	if rec == nil {
		adj.Reason = "no recommendation"
		return adj, nil
	}

	target := Clamp(rec.Price, st.Floor, st.Ceiling)
	adj.Target = target
	stepped := limitStep(st.CurrentPrice, target, st.MaxStepPct)
	if stepped != target {
		stepped = roundTowards(stepped, st.CurrentPrice)
	}
	// floor and ceiling take precedence over the step limit
	next := Clamp(stepped, st.Floor, st.Ceiling)

	st.LastTarget = target
	st.UpdatedAt = m.now()
	switch {
	case next == st.CurrentPrice:
		adj.Reason = "already at target"
	case next != stepped:
		adj.Reason = "clamped to guard rails"
	case next != target:
		adj.Reason = "step limited"
	case target != rec.Price:
		adj.Reason = "clamped to guard rails"
	default:
		adj.Reason = "applied"
	}
	if next != st.CurrentPrice {
		st.CurrentPrice = next
		st.Adjustments++
		adj.Changed = true
	}
	adj.NewPrice = next

	if err := m.save(); err != nil {
		m.logger.Error("failed to save pricing state", zap.Error(err))
	}
	return adj, nil
}

// SetPrice records a manual price change for a product.
func (m *Manager) SetPrice(productID string, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[productID]
	if !ok {
		return errors.Wrapf(ErrUnknownProduct, "%q", productID)
	}
	if price <= 0 {
		return errors.New("price must be positive")
	}
	st.CurrentPrice = price
	st.UpdatedAt = m.now()
	return m.save()
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.states)
}

// Clamp bounds price to [floor, ceiling]; a non-positive bound is ignored.
func Clamp(price, floor, ceiling float64) float64 {
	if ceiling > 0 && price > ceiling {
		price = ceiling
	}
	if floor > 0 && price < floor {
		price = floor
	}
	return price
}

// roundTowards rounds price to cents in the direction of ref so a rounded step never grows.
func roundTowards(price, ref float64) float64 {
	d := decimal.NewFromFloat(price)
	if price < ref {
		return d.RoundUp(2).InexactFloat64()
	}
	return d.RoundDown(2).InexactFloat64()
}

// limitStep moves from current toward target by at most maxStepPct percent of current.
// Without a current price or a step limit the target is taken as is.
func limitStep(current, target, maxStepPct float64) float64 {
	if current <= 0 || maxStepPct <= 0 {
		return target
	}
	maxStep := current * maxStepPct / 100
	if math.Abs(target-current) <= maxStep {
		return target
	}
	if target > current {
		return current + maxStep
	}
	return current - maxStep
}
