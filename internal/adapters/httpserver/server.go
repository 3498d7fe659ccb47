// Package httpserver exposes the dashboard endpoints over net/http.
package httpserver

import (
	"RetailPulse/internal/core/ports"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	// recentSalesLimit is the size of the dashboard's "latest sales" panel.
	recentSalesLimit = 6
	requestTimeout   = 5 * time.Second
	shutdownTimeout  = 10 * time.Second
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// recentSaleResponse is one row of GET /recent_sales.
type recentSaleResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// Server serves /ws, /recent_sales, /healthz and /metrics.
type Server struct {
	addr   string
	ws     http.Handler
	feed   ports.SalesFeed
	pinger Pinger
	log    zerolog.Logger
}

// NewServer creates a new server instance
func NewServer(
	addr string,
	ws http.Handler,
	feed ports.SalesFeed,
	pinger Pinger,
	baseLogger *zerolog.Logger,
) *Server {
	return &Server{
		addr:   addr,
		ws:     ws,
		feed:   feed,
		pinger: pinger,
		log:    baseLogger.With().Str("component", "http_server").Logger(),
	}
}

// Routes builds the request multiplexer.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /ws", s.ws)
	mux.HandleFunc("GET /recent_sales", s.handleRecentSales)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.log.Error().Err(err).Msg("HTTP server failed")
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}
	s.log.Info().Msg("HTTP server stopped gracefully")
	return nil
}

func (s *Server) handleRecentSales(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sales, err := s.feed.RecentSales(ctx, recentSalesLimit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load recent sales")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "recent sales unavailable"})
		return
	}

	out := make([]recentSaleResponse, 0, len(sales))
	for _, sale := range sales {
		out = append(out, recentSaleResponse{
			ID:      sale.ID,
			Message: fmt.Sprintf("Sold %s for ₹%s", sale.ProductName, sale.TotalPrice),
			Time:    sale.SoldAt.Format("15:04"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := s.pinger.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
