package pricing

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceSentinel/internal/model"
)

func newTestManager(t *testing.T, seeds ...model.PricingState) (*Manager, string) {
	path := filepath.Join(t.TempDir(), "state", "pricing.json")
	m, err := NewManager(path, seeds, nil)
	require.NoError(t, err)
	return m, path
}

func rec(price float64) *model.Recommendation {
	return &model.Recommendation{Price: price, Strategy: model.StrategyCompetitive}
}

func TestApply_WithinStep(t *testing.T) {
	m, _ := newTestManager(t, model.PricingState{ProductID: "gold", CurrentPrice: 100, MaxStepPct: 10})

	adj, err := m.Apply("gold", rec(95))
	require.NoError(t, err)
	assert.True(t, adj.Changed)
	assert.Equal(t, 95.0, adj.NewPrice)
	assert.Equal(t, "applied", adj.Reason)
}

func TestApply_StepLimited(t *testing.T) {
	m, _ := newTestManager(t, model.PricingState{ProductID: "gold", CurrentPrice: 100, MaxStepPct: 5})

	adj, err := m.Apply("gold", rec(80))
	require.NoError(t, err)
	assert.Equal(t, 95.0, adj.NewPrice)
	assert.Equal(t, "step limited", adj.Reason)

	adj, err = m.Apply("gold", rec(200))
	require.NoError(t, err)
	assert.Equal(t, 99.75, adj.NewPrice)
}

func TestApply_GuardRails(t *testing.T) {
	m, _ := newTestManager(t, model.PricingState{ProductID: "gold", CurrentPrice: 100, Floor: 90, Ceiling: 120})

	adj, err := m.Apply("gold", rec(50))
	require.NoError(t, err)
	assert.Equal(t, 90.0, adj.NewPrice)
	assert.Equal(t, "clamped to guard rails", adj.Reason)

	adj, err = m.Apply("gold", rec(500))
	require.NoError(t, err)
	assert.Equal(t, 120.0, adj.NewPrice)

	adj, err = m.Apply("gold", rec(120))
	require.NoError(t, err)
	assert.False(t, adj.Changed)
	assert.Equal(t, "already at target", adj.Reason)
}

func TestApply_NilAndUnknown(t *testing.T) {
	m, _ := newTestManager(t, model.PricingState{ProductID: "gold", CurrentPrice: 100})

	adj, err := m.Apply("gold", nil)
	require.NoError(t, err)
	assert.False(t, adj.Changed)
	assert.Equal(t, 100.0, adj.NewPrice)

	_, err = m.Apply("silver", rec(1))
	assert.True(t, errors.Is(err, ErrUnknownProduct))
}

func TestManager_Persists(t *testing.T) {
	m, path := newTestManager(t, model.PricingState{ProductID: "gold", CurrentPrice: 100, Floor: 10})
	_, err := m.Apply("gold", rec(80))
	require.NoError(t, err)

	// guard rails come from the new seed, price from disk
	m2, err := NewManager(path, []model.PricingState{{ProductID: "gold", CurrentPrice: 1, Floor: 20}}, nil)
	require.NoError(t, err)
	st, ok := m2.GetState("gold")
	require.True(t, ok)
	assert.Equal(t, 80.0, st.CurrentPrice)
	assert.Equal(t, 20.0, st.Floor)
	assert.Equal(t, 1, st.Adjustments)
}

func TestSetPrice(t *testing.T) {
	m, _ := newTestManager(t, model.PricingState{ProductID: "gold"})
	require.NoError(t, m.SetPrice("gold", 12.5))
	st, _ := m.GetState("gold")
	assert.Equal(t, 12.5, st.CurrentPrice)
	assert.Error(t, m.SetPrice("gold", 0))
	assert.Error(t, m.SetPrice("nope", 1))
	assert.Len(t, m.States(), 1)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5.0, Clamp(5, 0, 0))
	assert.Equal(t, 10.0, Clamp(5, 10, 0))
	assert.Equal(t, 8.0, Clamp(9, 0, 8))
}

func TestApply_BoundsBeatStepLimit(t *testing.T) {
	tests := []struct {
		name  string
		state model.PricingState
		rec   float64
		want  float64
	}{
		{"above ceiling", model.PricingState{CurrentPrice: 200, Ceiling: 100, MaxStepPct: 10}, 90, 100},
		{"above ceiling, recommendation higher", model.PricingState{CurrentPrice: 200, Ceiling: 100, MaxStepPct: 10}, 500, 100},
		{"below floor", model.PricingState{CurrentPrice: 50, Floor: 100, MaxStepPct: 10}, 80, 100},
		{"below floor, recommendation higher", model.PricingState{CurrentPrice: 50, Floor: 100, MaxStepPct: 10}, 300, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.state.ProductID = "gold"
			m, _ := newTestManager(t, tt.state)

			adj, err := m.Apply("gold", rec(tt.rec))
			require.NoError(t, err)
			assert.Equal(t, tt.want, adj.NewPrice)
			assert.Equal(t, "clamped to guard rails", adj.Reason)
			assert.True(t, adj.Changed)
		})
	}
}

func TestApply_StaysWithinRails(t *testing.T) {
	m, _ := newTestManager(t, model.PricingState{ProductID: "gold", CurrentPrice: 100, Floor: 90, Ceiling: 110, MaxStepPct: 3})

	for _, target := range []float64{10, 500, 95, 1000, 0.5, 105} {
		before, _ := m.GetState("gold")
		adj, err := m.Apply("gold", rec(target))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, adj.NewPrice, 90.0)
		assert.LessOrEqual(t, adj.NewPrice, 110.0)
		// inside the rails every move respects the step limit
		assert.LessOrEqual(t, math.Abs(adj.NewPrice-before.CurrentPrice), before.CurrentPrice*0.03+1e-9)
	}
}

func TestApply_KeepsExactSubCentTarget(t *testing.T) {
	m, _ := newTestManager(t, model.PricingState{ProductID: "gold", CurrentPrice: 0.01})
	adj, err := m.Apply("gold", rec(0.0095))
	require.NoError(t, err)
	assert.Equal(t, 0.0095, adj.NewPrice)
	assert.Equal(t, "applied", adj.Reason)
}
