package notifier

import (
	"fmt"
	"strings"
	"time"

	"PriceSentinel/internal/model"
	"PriceSentinel/internal/pricing"
	"PriceSentinel/internal/strategy"
)

// DigestEntry is one product line of the daily digest.
type DigestEntry struct {
	ProductID string
	Snapshot  *model.Snapshot
	Trend     model.Trend
	State     *model.PricingState
}

// FormatProductReport formats the latest analysis of one product.
func FormatProductReport(productID string, snap *model.Snapshot, position *model.MarketPosition) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b>", productID))
	if snap == nil || snap.Stats == nil {
		b.WriteString("\n\nNo competitor data yet.")
		return b.String()
	}
	b.WriteString(fmt.Sprintf(" | %s\n\n", snap.TakenAt.Format("2006-01-02 15:04")))

	s := snap.Stats
	b.WriteString(fmt.Sprintf("Offers: %d (outliers %d)\n", s.Count, s.Outliers))
	b.WriteString(fmt.Sprintf("Min / Max: %.2f / %.2f\n", s.Min, s.Max))
	b.WriteString(fmt.Sprintf("Median: %.2f | Mean: %.2f\n", s.Median, s.Mean))
	b.WriteString(fmt.Sprintf("P25 / P75: %.2f / %.2f\n", s.P25, s.P75))
	b.WriteString(fmt.Sprintf("Std dev: %.2f (CV %.1f%%)\n\n", s.StdDev, s.CoefficientOfVariation()*100))

	b.WriteString("💰 <b>Recommendation:</b>\n")
	b.WriteString("  " + strategy.Describe(snap.Recommendation) + "\n")

	if position != nil {
		b.WriteString(fmt.Sprintf("\n📍 Own price %.2f: %s (%+.1f%% vs median, rank %.0f%%)\n",
			position.OwnPrice, position.Label, position.GapToMedianPct, position.PercentileRank))
	}
	return b.String()
}

// FormatTrendReport formats trend, volatility and projection of a price history.
func FormatTrendReport(productID string, points int, trend model.Trend, volatility float64, forecast model.Forecast) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s trend</b> (%d points)\n\n", productID, points))
	b.WriteString(fmt.Sprintf("Direction: %s %s (strength %.2f, %d up / %d down)\n",
		trendIcon(trend.Direction), trend.Direction, trend.Strength, trend.Ups, trend.Downs))
	b.WriteString(fmt.Sprintf("Change volatility: %.2f\n", volatility))
	if forecast.DaysAhead > 0 {
		b.WriteString(fmt.Sprintf("Projection +%dd: %.2f (confidence %.0f%%)\n",
			forecast.DaysAhead, forecast.Price, forecast.Confidence*100))
	}
	return b.String()
}

// FormatTrendChange alerts about a direction change between two runs.
func FormatTrendChange(productID string, prev, cur model.Trend) string {
	return fmt.Sprintf("⚠️ <b>%s</b>: trend changed %s %s → %s %s (strength %.2f)",
		productID, trendIcon(prev.Direction), prev.Direction, trendIcon(cur.Direction), cur.Direction, cur.Strength)
}

// FormatAdjustment formats an applied auto-pricing change.
func FormatAdjustment(adj pricing.Adjustment) string {
	return fmt.Sprintf("🔧 <b>%s</b>: price %.2f → %.2f (target %.2f, %s)",
		adj.ProductID, adj.OldPrice, adj.NewPrice, adj.Target, adj.Reason)
}

// FormatPricingState formats the auto-pricing state of one product.
func FormatPricingState(st model.PricingState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>%s pricing</b>\n\n", st.ProductID))
	b.WriteString(fmt.Sprintf("Current price: %.2f\n", st.CurrentPrice))
	b.WriteString(fmt.Sprintf("Strategy: %s\n", st.Strategy))
	b.WriteString(fmt.Sprintf("Floor / Ceiling: %.2f / %.2f\n", st.Floor, st.Ceiling))
	b.WriteString(fmt.Sprintf("Max step: %.1f%%\n", st.MaxStepPct))
	b.WriteString(fmt.Sprintf("Last target: %.2f (%d adjustments)\n", st.LastTarget, st.Adjustments))
	if !st.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", st.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatDigest formats the daily summary over all tracked products.
func FormatDigest(now time.Time, entries []DigestEntry) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Daily digest</b> | %s\n\n", now.Format("2006-01-02")))
	if len(entries) == 0 {
		b.WriteString("No products configured.")
		return b.String()
	}
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%s <b>%s</b>", trendIcon(e.Trend.Direction), e.ProductID))
		if e.Snapshot == nil || e.Snapshot.Stats == nil {
			b.WriteString(": no data\n")
			continue
		}
		b.WriteString(fmt.Sprintf(": median %.2f, %d offers", e.Snapshot.Stats.Median, e.Snapshot.Stats.Count))
		if r := e.Snapshot.Recommendation; r != nil {
			b.WriteString(fmt.Sprintf(", %s %.2f", r.Strategy, r.Price))
		}
		if e.State != nil && e.State.CurrentPrice > 0 {
			b.WriteString(fmt.Sprintf(", own %.2f", e.State.CurrentPrice))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatHelp lists the supported bot commands.
func FormatHelp() string {
	return "🤖 <b>PriceSentinel commands</b>\n\n" +
		"/price &lt;id&gt; - latest statistics and recommendation\n" +
		"/trend &lt;id&gt; - price trend and projection\n" +
		"/pricing &lt;id&gt; - auto-pricing state\n" +
		"/collect &lt;id&gt; - collect competitor prices now\n" +
		"/products - tracked products\n" +
		"/help - this message"
}

func trendIcon(d model.TrendDirection) string {
	switch d {
	case model.TrendUp:
		return "🔺"
	case model.TrendDown:
		return "🔻"
	default:
		return "➖"
	}
}
