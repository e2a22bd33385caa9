package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/strategy"
)

var (
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	subtle    = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	labelStyle  = lipgloss.NewStyle().Foreground(subtle).Width(14)
	priceStyle  = lipgloss.NewStyle().Bold(true).Foreground(special)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(highlight).Padding(0, 1)
)

func main() {
	strategyName := flag.String("strategy", string(model.StrategyCompetitive), "pricing strategy: aggressive, competitive, balanced, average")
	own := flag.Float64("own", 0, "own listing price to place within the sample")
	all := flag.Bool("all", false, "show the recommendation of every strategy")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: pricecalc [flags] price...\n\nprices may be numbers or price text such as \"1 234,56 ₽\"\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(os.Stdout, flag.Args(), *strategyName, *own, *all); err != nil {
		fmt.Fprintln(os.Stderr, "pricecalc:", err)
		os.Exit(1)
	}
}

func run(w io.Writer, args []string, strategyName string, own float64, all bool) error {
	prices, err := parseArgs(args)
	if err != nil {
		return err
	}
	rec, err := strategy.Recommend(prices, strategyName)
	if err != nil {
		return err
	}
	stats := calculator.ComputeStatistics(prices)
	if stats == nil {
		fmt.Fprintln(w, headerStyle.Render("No valid prices")+" "+strategy.Describe(nil))
		return nil
	}
	fmt.Fprintln(w, render(stats, rec, strategy.ComparePosition(own, prices), all))
	return nil
}

func parseArgs(args []string) ([]float64, error) {
	if len(args) == 0 {
		return nil, errors.New("no prices given")
	}
	prices := make([]float64, 0, len(args))
	for _, a := range args {
		p, ok := collector.ParsePriceText(a)
		if !ok {
			return nil, errors.Errorf("cannot parse price %q", a)
		}
		prices = append(prices, p)
	}
	return prices, nil
}

func render(stats *model.PriceStatistics, rec *model.Recommendation, pos *model.MarketPosition, all bool) string {
	row := func(label, value string) string {
		return labelStyle.Render(label) + value
	}

	lines := []string{
		headerStyle.Render("Competitor sample"),
		row("offers", fmt.Sprintf("%d (outliers %d)", stats.Count, stats.Outliers)),
		row("min / max", fmt.Sprintf("%.2f / %.2f", stats.Min, stats.Max)),
		row("mean", fmt.Sprintf("%.2f", stats.Mean)),
		row("median", fmt.Sprintf("%.2f", stats.Median)),
		row("p25 / p75", fmt.Sprintf("%.2f / %.2f", stats.P25, stats.P75)),
		row("p90", fmt.Sprintf("%.2f", stats.P90)),
		row("std dev", fmt.Sprintf("%.2f (cv %.1f%%)", stats.StdDev, stats.CoefficientOfVariation()*100)),
		"",
		headerStyle.Render("Recommendation"),
		row(string(rec.Strategy), priceStyle.Render(fmt.Sprintf("%.2f", rec.Price))),
		row("basis", rec.Basis),
		row("confidence", string(rec.Confidence)),
		row("sale speed", string(rec.SaleSpeed)),
	}

	if all {
		lines = append(lines, "", headerStyle.Render("All strategies"))
		for _, r := range strategy.RecommendAll(stats) {
			lines = append(lines, row(string(r.Strategy), fmt.Sprintf("%.2f  %s", r.Price, r.SaleSpeed)))
		}
	}
	if pos != nil {
		lines = append(lines, "", headerStyle.Render("Own price"),
			row("price", fmt.Sprintf("%.2f", pos.OwnPrice)),
			row("position", pos.Label),
			row("vs median", fmt.Sprintf("%+.1f%%", pos.GapToMedianPct)),
			row("rank", fmt.Sprintf("%.0f%%", pos.PercentileRank)))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
