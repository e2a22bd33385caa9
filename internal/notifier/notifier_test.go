package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceSentinel/internal/model"
	"PriceSentinel/internal/pricing"
)

func newTestNotifier(t *testing.T, handler http.HandlerFunc) *TelegramNotifier {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", "", nil)
	n.APIBase = srv.URL
	n.retryBase = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, n.Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry(t *testing.T) {
	var calls int32
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, n.SendWithRetry(context.Background(), "x", 3))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var calls int32
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusBadGateway)
	})

	err := n.SendWithRetry(context.Background(), "x", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replies := make(chan string, 1)
	var served int32
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if atomic.AddInt32(&served, 1) == 1 {
				_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /help "}}]}`))
				return
			}
			<-r.Context().Done()
		case "/botTOKEN/sendMessage":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"]
		}
	})

	done := make(chan error, 1)
	go func() {
		done <- n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			return "echo " + cmd
		})
	}()

	select {
	case reply := <-replies:
		assert.Equal(t, "echo /help", reply)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}

func TestFormatProductReport(t *testing.T) {
	snap := &model.Snapshot{
		ProductID: "gpu",
		TakenAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Stats:     &model.PriceStatistics{Min: 100, Max: 400, Mean: 250, Median: 250, P25: 175, P75: 325, StdDev: 111.8, Count: 4},
		Recommendation: &model.Recommendation{
			Price: 175, Strategy: model.StrategyCompetitive, Basis: "p25",
			Confidence: model.ConfidenceLow, SaleSpeed: model.SaleFast,
		},
	}
	pos := &model.MarketPosition{OwnPrice: 300, PercentileRank: 62.5, GapToMedianPct: 20, Label: model.PositionAboveMarket}

	out := FormatProductReport("gpu", snap, pos)
	assert.Contains(t, out, "Offers: 4")
	assert.Contains(t, out, "competitive: 175.00")
	assert.Contains(t, out, "above_market")

	assert.Contains(t, FormatProductReport("gpu", nil, nil), "No competitor data")
}

func TestFormatDigestAndTrend(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	out := FormatDigest(now, []DigestEntry{
		{ProductID: "a", Trend: model.Trend{Direction: model.TrendUp}, Snapshot: &model.Snapshot{
			Stats:          &model.PriceStatistics{Median: 10, Count: 3},
			Recommendation: &model.Recommendation{Strategy: model.StrategyAverage, Price: 9.5},
		}, State: &model.PricingState{CurrentPrice: 11}},
		{ProductID: "b"},
	})
	assert.Contains(t, out, "2026-03-02")
	assert.Contains(t, out, "median 10.00, 3 offers, average 9.50, own 11.00")
	assert.Contains(t, out, "<b>b</b>: no data")

	tr := FormatTrendReport("a", 5, model.Trend{Direction: model.TrendDown, Strength: 0.75, Ups: 1, Downs: 3}, 2.5,
		model.Forecast{Price: 90, Confidence: 0.97, DaysAhead: 7})
	assert.Contains(t, tr, "down (strength 0.75, 1 up / 3 down)")
	assert.Contains(t, tr, "Projection +7d: 90.00")

	assert.Contains(t, FormatAdjustment(pricing.Adjustment{ProductID: "a", OldPrice: 10, NewPrice: 9, Target: 8, Reason: "step limited"}), "10.00 → 9.00")
	assert.Contains(t, FormatTrendChange("a", model.Trend{Direction: model.TrendUp}, model.Trend{Direction: model.TrendDown}), "up → 🔻 down")
}
