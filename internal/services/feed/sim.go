// Package feed supplies market data to the desk: a random-walk simulator
// for running without an upstream feed, and a staleness watchdog.
package feed

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fxdesk/fxdesk/internal/domain"
)

// TickSink consumes market updates. The desk implements it.
type TickSink interface {
	OnTick(p domain.Pair, bid, offer, high, low float64)
}

// Tick is one simulated market update.
type Tick struct {
	Pair  domain.Pair
	Bid   float64
	Offer float64
	High  float64
	Low   float64
}

// SeedRates are the starting mids for the simulated feed.
func SeedRates() map[string]float64 {
	return map[string]float64{
		"AUDUSD": 0.6519, "AUDGBP": 0.4867, "EURUSD": 1.1618, "GBPUSD": 1.3395, "NZDUSD": 0.5949, "USDCAD": 1.3714,
		"USDJPY": 148.79, "USDSGD": 1.2849, "USDCHF": 0.8005, "AUDNZD": 1.0959, "USDCNH": 7.1743,
		"EURJPY": 172.86, "AUDJPY": 97.00, "EURGBP": 0.8673, "EURCHF": 0.9300,
		"USDNOK": 10.2292, "EURCAD": 1.5932, "USDHKD": 7.8500, "EURNZD": 1.9529, "EURSEK": 11.2853,
		"USDPLN": 3.6704, "EURAUD": 1.7821, "EURNOK": 11.8840, "EURDKK": 7.4635, "USDSEK": 9.7139,
	}
}

// typicalSpreads is the baseline spread per pair in pips.
var typicalSpreads = map[string]float64{
	"AUDUSD": 0.8, "AUDGBP": 2.0, "EURUSD": 0.6, "GBPUSD": 1.0, "NZDUSD": 1.2, "USDCAD": 1.0,
	"USDJPY": 0.8, "USDSGD": 1.5, "USDCHF": 1.0, "AUDNZD": 2.0, "USDCNH": 3.0,
	"EURJPY": 1.2, "AUDJPY": 1.5, "EURGBP": 1.0, "EURCHF": 1.2,
	"USDNOK": 4.0, "EURCAD": 1.5, "USDHKD": 2.0, "EURNZD": 3.0, "EURSEK": 4.0,
	"USDPLN": 3.0, "EURAUD": 2.0, "EURNOK": 5.0, "EURDKK": 2.0, "USDSEK": 4.0,
}

const (
	normalVolatility = 0.00001
	highVolatility   = 0.00005
	sessionLength    = time.Hour
)

type pairState struct {
	pair        domain.Pair
	rate        float64
	spreadPips  float64
	trend       float64
	highVol     bool
	sessionHigh float64
	sessionLow  float64
}

// Sim is a random-walk market simulator with trend persistence, mean
// reversion near the session extremes and occasional volatility bursts.
type Sim struct {
	states    []*pairState
	rng       *rand.Rand
	logger    *zap.Logger
	lastReset time.Time
	now       func() time.Time
}

// NewSim creates a simulator over the seed pairs. A fixed seed produces a
// deterministic tick stream.
func NewSim(seed int64, logger *zap.Logger) *Sim {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sim{
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
		now:    time.Now,
	}
	seeds := SeedRates()
	codes := make([]string, 0, len(seeds))
	for code := range seeds {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		st := &pairState{
			pair:       domain.MustPair(code),
			rate:       seeds[code],
			spreadPips: spreadFor(code),
		}
		st.resetSession()
		s.states = append(s.states, st)
	}
	s.lastReset = s.now()
	return s
}

func spreadFor(code string) float64 {
	if sp, ok := typicalSpreads[code]; ok {
		return sp
	}
	return 1.0
}

func (st *pairState) resetSession() {
	initialSpread := st.spreadPips * domain.PipSize(st.pair)
	st.sessionHigh = st.rate + initialSpread
	st.sessionLow = st.rate - initialSpread
}

// Step advances every pair one tick. Exported for deterministic tests;
// Run drives it on a timer.
func (s *Sim) Step() []Tick {
	if now := s.now(); now.Sub(s.lastReset) > sessionLength {
		for _, st := range s.states {
			st.resetSession()
		}
		s.lastReset = now
		s.logger.Info("session highs and lows reset")
	}

	ticks := make([]Tick, 0, len(s.states))
	for _, st := range s.states {
		ticks = append(ticks, s.stepPair(st))
	}
	return ticks
}

func (s *Sim) stepPair(st *pairState) Tick {
	// trend persistence with occasional regime change
	if s.rng.Float64() < 0.05 {
		st.trend = s.uniform(-0.00002, 0.00002)
	}
	if s.rng.Float64() < 0.001 {
		st.highVol = true
		st.trend = s.uniform(-0.0001, 0.0001)
	}

	// mean reversion pulls harder near the session extremes
	meanReversion := 0.0
	if st.sessionHigh > st.sessionLow {
		pos := (st.rate - st.sessionLow) / (st.sessionHigh - st.sessionLow)
		switch {
		case pos > 0.8:
			meanReversion = -0.00001 * (pos - 0.5)
		case pos < 0.2:
			meanReversion = 0.00001 * (0.5 - pos)
		}
	}

	vol := normalVolatility
	if st.highVol {
		vol = highVolatility
		if s.rng.Float64() < 0.1 {
			st.highVol = false
		}
	}

	change := st.trend + meanReversion + s.uniform(-vol, vol)
	st.rate *= 1 + change
	if st.rate < 0.0001 {
		st.rate = 0.0001
	}

	// spreads breathe with activity
	spread := st.spreadPips * domain.PipSize(st.pair) * s.uniform(0.8, 1.5)
	bid := st.rate - spread/2
	offer := st.rate + spread/2

	if offer > st.sessionHigh {
		st.sessionHigh = offer
	}
	if bid < st.sessionLow {
		st.sessionLow = bid
	}

	return Tick{
		Pair:  st.pair,
		Bid:   bid,
		Offer: offer,
		High:  st.sessionHigh,
		Low:   st.sessionLow,
	}
}

func (s *Sim) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// Run feeds the sink until the context is cancelled.
func (s *Sim) Run(ctx context.Context, sink TickSink, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, tk := range s.Step() {
				sink.OnTick(tk.Pair, tk.Bid, tk.Offer, tk.High, tk.Low)
			}
		}
	}
}
