// Package httpapi serves the refresh trigger, symbol lookups and metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tokenwise/internal/logger"
	"tokenwise/internal/observability"
	"tokenwise/internal/refresh"
)

// Banner is the body of GET /.
const Banner = "TokenWise API is running"

// SymbolResolver resolves a mint to its display symbol.
type SymbolResolver interface {
	Resolve(ctx context.Context, mint string) string
}

// Server holds the HTTP handlers.
type Server struct {
	refresher refresh.Refresher
	symbols   SymbolResolver
	metrics   *observability.Metrics
	log       *logger.Logger
}

// NewServer creates the handler set. metrics may be nil, in which case
// /metrics is not mounted.
func NewServer(refresher refresh.Refresher, symbols SymbolResolver, metrics *observability.Metrics, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		refresher: refresher,
		symbols:   symbols,
		metrics:   metrics,
		log:       log.Named("http"),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/symbols/{mint}", s.handleSymbol)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return s.instrument(mux)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(Banner))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleRefresh runs a refresh synchronously. The run is detached from the
// request so a disconnecting client does not abort it halfway.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.refresher.Refresh(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, refresh.ErrRefreshInProgress):
		writeJSON(w, http.StatusConflict, refresh.TriggerResponse{
			Success: false,
			Message: "Refresh already running",
		})
	case err != nil:
		s.log.Errorw("refresh request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, refresh.TriggerResponse{
			Success: false,
			Message: "Refresh failed",
			Error:   err.Error(),
		})
	default:
		writeJSON(w, http.StatusOK, refresh.TriggerResponse{
			Success:      true,
			Message:      "Top wallets refreshed",
			RunID:        res.RunID,
			Holders:      res.Holders,
			Transactions: res.Transactions,
		})
	}
}

// SymbolResponse is the JSON body of GET /api/symbols/{mint}.
type SymbolResponse struct {
	Mint   string `json:"mint"`
	Symbol string `json:"symbol"`
}

func (s *Server) handleSymbol(w http.ResponseWriter, r *http.Request) {
	mint := r.PathValue("mint")

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	writeJSON(w, http.StatusOK, SymbolResponse{
		Mint:   mint,
		Symbol: s.symbols.Resolve(ctx, mint),
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		// Patterns look like "POST /api/refresh"; label by path only.
		route := r.Pattern
		if _, path, ok := strings.Cut(route, " "); ok {
			route = path
		}
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RecordHTTPRequest(route, strconv.Itoa(rec.code))
		s.log.Debugw("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"code", rec.code,
			"duration", time.Since(start),
		)
	})
}
