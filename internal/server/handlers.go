package server

import (
	"net/http"

	"github.com/pkg/errors"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/strategy"
)

type pricesRequest struct {
	Prices []float64 `json:"prices"`
}

type statisticsResponse struct {
	Statistics *model.PriceStatistics `json:"statistics"`
	Reason     string                 `json:"reason,omitempty"`
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	var req pricesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp := statisticsResponse{Statistics: calculator.ComputeStatistics(req.Prices)}
	if resp.Statistics == nil {
		resp.Reason = strategy.ReasonNoData
	}
	writeJSON(w, http.StatusOK, resp)
}

type recommendRequest struct {
	Prices   []float64 `json:"prices"`
	Strategy string    `json:"strategy"`
	OwnPrice float64   `json:"own_price"`
}

type recommendResponse struct {
	Recommendation *model.Recommendation  `json:"recommendation"`
	Reason         string                 `json:"reason,omitempty"`
	Position       *model.MarketPosition  `json:"position,omitempty"`
	Alternatives   []model.Recommendation `json:"alternatives,omitempty"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	req := recommendRequest{Strategy: string(model.StrategyCompetitive)}
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := strategy.Recommend(req.Prices, req.Strategy)
	if err != nil {
		if errors.Is(err, strategy.ErrUnknownStrategy) {
			writeError(w, http.StatusBadRequest, "unknown_strategy", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	resp := recommendResponse{Recommendation: rec}
	if rec == nil {
		resp.Reason = strategy.ReasonNoData
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Alternatives = strategy.RecommendAll(calculator.ComputeStatistics(req.Prices))
	if req.OwnPrice > 0 {
		resp.Position = strategy.ComparePosition(req.OwnPrice, req.Prices)
	}
	writeJSON(w, http.StatusOK, resp)
}

type trendRequest struct {
	Points    []model.PricePoint `json:"points"`
	DaysAhead int                `json:"days_ahead"`
}

type trendResponse struct {
	Trend            model.Trend     `json:"trend"`
	PriceVolatility  float64         `json:"price_volatility"`
	ChangeVolatility float64         `json:"change_volatility"`
	Forecast         *model.Forecast `json:"forecast,omitempty"`
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	var req trendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DaysAhead < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "days_ahead must not be negative")
		return
	}

	prices := make([]float64, len(req.Points))
	for i, p := range req.Points {
		prices[i] = p.Price
	}
	resp := trendResponse{
		Trend:            calculator.AnalyzeTrend(req.Points),
		PriceVolatility:  calculator.PriceVolatility(prices),
		ChangeVolatility: calculator.ChangeVolatility(req.Points),
	}
	if req.DaysAhead > 0 {
		f := calculator.Project(req.Points, req.DaysAhead)
		resp.Forecast = &f
	}
	writeJSON(w, http.StatusOK, resp)
}

type parseRequest struct {
	Text string `json:"text"`
}

type parseResponse struct {
	Price float64 `json:"price"`
	OK    bool    `json:"ok"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	price, ok := collector.ParsePriceText(req.Text)
	writeJSON(w, http.StatusOK, parseResponse{Price: price, OK: ok})
}
