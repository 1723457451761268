// Package web exposes the desk state over HTTP: the current quote, its
// inverse and the full rate snapshot as JSON.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fxdesk/fxdesk/internal/services/desk"
	"github.com/fxdesk/fxdesk/internal/services/pipvalue"
)

// Server exposes HTTP endpoints for the quoting desk.
type Server struct {
	Addr   string
	Desk   *desk.Desk
	logger *zap.Logger
}

// NewServer creates a web server bound to a desk.
func NewServer(addr string, d *desk.Desk, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, Desk: d, logger: logger}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/quote", s.handleQuote)
	mux.HandleFunc("/rates", s.handleRates)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type quoteResponse struct {
	Pair           string  `json:"pair"`
	Mid            float64 `json:"mid"`
	Bid            float64 `json:"bid"`
	Offer          float64 `json:"offer"`
	PipsBid        string  `json:"pips_bid"`
	PipsMid        string  `json:"pips_mid"`
	PipsOffer      string  `json:"pips_offer"`
	SpreadPips     float64 `json:"spread_pips"`
	BidDirection   string  `json:"bid_direction"`
	OfferDirection string  `json:"offer_direction"`
	High           float64 `json:"high,omitempty"`
	Low            float64 `json:"low,omitempty"`
	Synthetic      bool    `json:"synthetic"`
	LowConfidence  bool    `json:"low_confidence,omitempty"`

	InversePair  string `json:"inverse_pair,omitempty"`
	InverseBid   string `json:"inverse_pips_bid,omitempty"`
	InverseOffer string `json:"inverse_pips_offer,omitempty"`

	PipValue string `json:"pip_value,omitempty"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := s.Desk.CurrentQuote()
	if q.Pair.IsZero() {
		http.Error(w, "no active pair", http.StatusNotFound)
		return
	}

	resp := quoteResponse{
		Pair:           q.Pair.String(),
		Mid:            q.Mid,
		Bid:            q.Bid,
		Offer:          q.Offer,
		PipsBid:        q.PipsBid,
		PipsMid:        q.PipsMid,
		PipsOffer:      q.PipsOffer,
		SpreadPips:     q.SpreadPips,
		BidDirection:   string(q.BidDirection),
		OfferDirection: string(q.OfferDirection),
		High:           q.High,
		Low:            q.Low,
		Synthetic:      q.Synthetic,
		LowConfidence:  q.LowConfidence,
	}

	inv := s.Desk.CurrentInverse()
	if !inv.Pair.IsZero() {
		resp.InversePair = inv.Pair.String()
		resp.InverseBid = inv.PipsBid
		resp.InverseOffer = inv.PipsOffer
	}

	if pv, err := s.Desk.PipValue(); err == nil {
		resp.PipValue = pipvalue.FormatCompact(pv)
	}

	writeJSON(w, resp, s.logger)
}

type rateResponse struct {
	Bid   float64 `json:"bid"`
	Offer float64 `json:"offer"`
	High  float64 `json:"high,omitempty"`
	Low   float64 `json:"low,omitempty"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rates := s.Desk.Rates()
	resp := make(map[string]rateResponse, len(rates))
	for code, rate := range rates {
		resp[code] = rateResponse{Bid: rate.Bid, Offer: rate.Offer, High: rate.High, Low: rate.Low}
	}
	writeJSON(w, resp, s.logger)
}

func writeJSON(w http.ResponseWriter, v any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response", zap.Error(err))
	}
}
