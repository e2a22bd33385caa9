package server

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/scheduler"
	"PriceSentinel/internal/strategy"
)

const (
	defaultHistoryLimit = 100
	defaultEMAPeriod    = 5
)

// productID resolves the {id} path value or writes a 404.
func (s *Server) productID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, ok := s.products.Product(id); !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown product "+strconv.Quote(id))
		return "", false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errors.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

type historyResponse struct {
	ProductID string             `json:"product_id"`
	Points    []model.PricePoint `json:"points"`
	EMA       []float64          `json:"ema"`
	Trend     model.Trend        `json:"trend"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	period, err := queryInt(r, "period", defaultEMAPeriod)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	snaps, err := s.history.History(r.Context(), id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	points := recorder.Points(snaps)
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	writeJSON(w, http.StatusOK, historyResponse{
		ProductID: id,
		Points:    points,
		EMA:       calculator.SmoothPrices(prices, period),
		Trend:     calculator.AnalyzeTrend(points),
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}
	snap, err := s.products.Latest(r.Context(), id)
	if err != nil {
		if errors.Is(err, recorder.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no snapshot recorded for "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}
	st, ok := s.products.PricingState(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "auto-pricing is not enabled for "+id)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}
	res, err := s.products.RunProduct(r.Context(), id, r.URL.Query().Get("strategy"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, strategy.ErrUnknownStrategy):
		writeError(w, http.StatusBadRequest, "unknown_strategy", err.Error())
	case errors.Is(err, scheduler.ErrUnknownProduct):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
