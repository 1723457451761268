package domain

import "sync"

// Convention holds the display and rounding rules for one pair.
//
// DecimalPlaces is the pip-size denominator (100 for JPY-quote pairs,
// 10000 otherwise). PipsPlaces is the number of fractional digits skipped
// when slicing the pip string. SkewRoundValue is the half-pip grid the mid
// is snapped to before skew and spread are applied. RoundDP is the number
// of decimal digits quotes are rounded to.
type Convention struct {
	DecimalPlaces  float64
	PipsPlaces     int
	SkewRoundValue float64
	RoundDP        int
}

func standardConvention() Convention {
	return Convention{DecimalPlaces: 10000, PipsPlaces: 2, SkewRoundValue: 0.00005, RoundDP: 5}
}

func jpyQuoteConvention() Convention {
	return Convention{DecimalPlaces: 100, PipsPlaces: 0, SkewRoundValue: 0.005, RoundDP: 3}
}

// ConventionTable resolves the quote convention for any pair: an explicit
// per-pair entry when present, otherwise a deterministic derivation from
// the quote currency. Runtime decimal-place overrides (user settings) are
// applied on top. Safe for concurrent use.
type ConventionTable struct {
	mu          sync.RWMutex
	explicit    map[Pair]Convention
	dpOverrides map[Pair]int
}

// NewConventionTable builds a table seeded with the explicit entries for
// the directly quoted pairs.
func NewConventionTable() *ConventionTable {
	std := standardConvention()
	jpy := jpyQuoteConvention()

	explicit := map[Pair]Convention{}
	for _, code := range []string{
		"AUDUSD", "EURUSD", "GBPUSD", "NZDUSD", "USDCAD", "EURGBP", "EURCHF",
		"USDCHF", "AUDNZD", "GBPAUD", "USDNOK", "USDSGD", "USDCNH", "EURCAD",
		"EURNZD", "EURSEK", "USDPLN", "EURAUD", "EURNOK", "EURDKK", "USDHKD",
	} {
		explicit[MustPair(code)] = std
	}
	for _, code := range []string{"USDJPY", "EURJPY", "AUDJPY"} {
		explicit[MustPair(code)] = jpy
	}

	return &ConventionTable{
		explicit:    explicit,
		dpOverrides: map[Pair]int{},
	}
}

// Get returns the convention for a pair. JPY-quote pairs derive the 3dp
// convention, everything else (JPY base included) the standard 5dp one.
func (t *ConventionTable) Get(p Pair) Convention {
	t.mu.RLock()
	defer t.mu.RUnlock()

	conv, ok := t.explicit[p]
	if !ok {
		conv = deriveConvention(p)
	}
	if dp, ok := t.dpOverrides[p]; ok {
		conv.RoundDP = dp
	}
	return conv
}

// Inverse returns the convention for the inverse of an active pair.
// inverseBid is the already computed inverse bid; very small magnitudes
// (below 0.1) gain one extra decimal so pip significance stays visible.
func (t *ConventionTable) Inverse(inv Pair, inverseBid float64) Convention {
	t.mu.RLock()
	if conv, ok := t.explicit[inv]; ok {
		t.mu.RUnlock()
		return conv
	}
	t.mu.RUnlock()

	dp := 5
	if inv.Quote == "JPY" {
		dp = 3
	}
	if inverseBid > 0 && inverseBid < 0.1 {
		dp++
	}

	switch {
	case inv.Quote == "JPY":
		return Convention{DecimalPlaces: 100, PipsPlaces: 0, SkewRoundValue: 0.005, RoundDP: dp}
	case inv.Base == "JPY":
		// JPY-base inverses carry tiny magnitudes; the pip sits one digit
		// earlier than on a standard pair.
		return Convention{DecimalPlaces: 10000, PipsPlaces: 1, SkewRoundValue: 0.00005, RoundDP: dp}
	default:
		return Convention{DecimalPlaces: 10000, PipsPlaces: 2, SkewRoundValue: 0.00005, RoundDP: dp}
	}
}

// SetRoundDPOverride installs a user decimal-place override for a pair.
func (t *ConventionTable) SetRoundDPOverride(p Pair, dp int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dpOverrides[p] = dp
}

// ClearRoundDPOverride removes a user decimal-place override.
func (t *ConventionTable) ClearRoundDPOverride(p Pair) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.dpOverrides, p)
}

func deriveConvention(p Pair) Convention {
	if p.Quote == "JPY" {
		return jpyQuoteConvention()
	}
	return standardConvention()
}

// PipMultiplier converts a price distance into pips for display:
// 100 for JPY-quote pairs, 10000 otherwise.
func PipMultiplier(p Pair) float64 {
	if p.Quote == "JPY" {
		return 100
	}
	return 10000
}

// PipSize is the conventional price increment of one pip for the pair.
func PipSize(p Pair) float64 {
	if p.Quote == "JPY" {
		return 0.01
	}
	return 0.0001
}
