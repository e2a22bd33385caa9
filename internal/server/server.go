package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"PriceSentinel/internal/config"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/scheduler"
)

const maxBodyBytes = 1 << 20

type productService interface {
	Product(id string) (config.Product, bool)
	RunProduct(ctx context.Context, productID, strategyName string) (*scheduler.Result, error)
	Latest(ctx context.Context, productID string) (*model.Snapshot, error)
	PricingState(productID string) (model.PricingState, bool)
}

type historyReader interface {
	History(ctx context.Context, productID string, limit int) ([]model.Snapshot, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the pricing engine and the tracked products over a JSON API.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration

	products productService
	history  historyReader
	health   pinger
	logger   *zap.Logger
}

// NewServer creates a new API server. health may be nil.
func NewServer(addr string, products productService, history historyReader, health pinger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Addr:            addr,
		ShutdownTimeout: 5 * time.Second,
		products:        products,
		history:         history,
		health:          health,
		logger:          logger,
	}
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/v1/statistics", s.handleStatistics)
	mux.HandleFunc("POST /api/v1/recommend", s.handleRecommend)
	mux.HandleFunc("POST /api/v1/trend", s.handleTrend)
	mux.HandleFunc("POST /api/v1/parse", s.handleParse)

	mux.HandleFunc("GET /api/v1/products/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /api/v1/products/{id}/latest", s.handleLatest)
	mux.HandleFunc("GET /api/v1/products/{id}/pricing", s.handlePricing)
	mux.HandleFunc("POST /api/v1/products/{id}/collect", s.handleCollect)

	return s.logRequests(mux)
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("http server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "cache": "ok"}
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["cache"] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, status)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
