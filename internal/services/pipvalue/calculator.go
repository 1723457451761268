package pipvalue

import (
	"fmt"

	"github.com/fxdesk/fxdesk/internal/domain"
)

// notional is the reference amount pip values are quoted against.
const notional = 1_000_000

// Path records how the USD conversion was obtained.
type Path string

const (
	// PathDirect means the quote currency converted straight to USD,
	// either through a USD pair or a graph walk.
	PathDirect Path = "direct"
	// PathViaBase means no quote-to-USD conversion existed and the value
	// was routed through the base currency at the current rate.
	PathViaBase Path = "via_base"
	// PathUnavailable means no route to USD exists; only PipInBase is set.
	PathUnavailable Path = "unavailable"
)

// Result is one pip-value calculation.
type Result struct {
	Pair       domain.Pair
	PipSize    float64
	PipInQuote float64
	PipInUSD   float64
	PipInBase  float64
	QuoteToUSD float64
	BaseToUSD  float64
	Path       Path
}

// Available reports whether a USD pip value was produced.
func (r Result) Available() bool {
	return r.Path != PathUnavailable
}

// Calculator derives USD pip values from a mid-rate snapshot.
type Calculator struct {
	converter *Converter
}

// NewCalculator creates a calculator with its own conversion cache.
func NewCalculator() *Calculator {
	return &Calculator{converter: NewConverter()}
}

// Calculate computes the value of one pip per million of the pair's base
// currency. The quote currency is converted to USD through, in order: the
// direct XXXUSD pair, the inverted USDXXX pair, then a graph walk. When no
// quote conversion exists the value is routed via the base currency, and
// when that fails too the result carries only the base-currency pip value
// rather than a silent zero.
func (c *Calculator) Calculate(pair domain.Pair, currentRate float64, mids map[string]float64) Result {
	r := Result{
		Pair:       pair,
		PipSize:    domain.PipSize(pair),
		PipInQuote: notional * domain.PipSize(pair),
	}

	quoteToUSD, ok := c.quoteToUSD(pair.Quote, mids)
	if ok {
		r.QuoteToUSD = quoteToUSD
		r.PipInUSD = r.PipInQuote * quoteToUSD
		r.Path = PathDirect
		return r
	}

	if baseToUSD, ok := c.converter.Find(pair.Base, "USD", mids); ok && currentRate > 0 {
		r.PipInBase = r.PipInQuote / currentRate
		r.BaseToUSD = baseToUSD
		r.PipInUSD = r.PipInBase * baseToUSD
		r.Path = PathViaBase
		return r
	}

	if currentRate > 0 {
		r.PipInBase = r.PipInQuote / currentRate
	}
	r.Path = PathUnavailable
	return r
}

func (c *Calculator) quoteToUSD(quote string, mids map[string]float64) (float64, bool) {
	if quote == "USD" {
		return 1, true
	}
	if rate, ok := mids[quote+"USD"]; ok && rate > 0 {
		return rate, true
	}
	if rate, ok := mids["USD"+quote]; ok {
		if rate <= 0 {
			return 0, false
		}
		return 1 / rate, true
	}
	return c.converter.Find(quote, "USD", mids)
}

// FormatDisplay renders the full pip-value line for the status area.
func FormatDisplay(r Result) string {
	if !r.Available() {
		if r.PipInBase > 0 {
			return fmt.Sprintf("Pip: %.6f %s/pip/1M", r.PipInBase, r.Pair.Base)
		}
		return "Pip: N/A"
	}
	switch {
	case r.PipInUSD >= 1000:
		return fmt.Sprintf("Pip: %.0f USD/1M %s", r.PipInUSD, r.Pair.Base)
	case r.PipInUSD >= 10:
		return fmt.Sprintf("Pip: %.2f USD/1M %s", r.PipInUSD, r.Pair.Base)
	default:
		return fmt.Sprintf("Pip: %.4f USD/1M %s", r.PipInUSD, r.Pair.Base)
	}
}

// FormatCompact renders the per-million pip value for the quote board.
func FormatCompact(r Result) string {
	if !r.Available() {
		return "--"
	}
	return compactUSD(r.PipInUSD)
}

// FormatCompactScaled renders the pip value scaled by the order size in
// millions.
func FormatCompactScaled(r Result, orderSize float64) string {
	if !r.Available() {
		return "--"
	}
	scaled := r.PipInUSD * orderSize
	if scaled >= 1_000_000 {
		s := fmt.Sprintf("$%.1fM", scaled/1_000_000)
		if len(s) > 3 && s[len(s)-3:] == ".0M" {
			return fmt.Sprintf("$%.0fM", scaled/1_000_000)
		}
		return s
	}
	if scaled >= 10000 {
		return fmt.Sprintf("$%.0fk", scaled/1000)
	}
	return compactUSD(scaled)
}

func compactUSD(v float64) string {
	switch {
	case v >= 1000:
		return fmt.Sprintf("$%.1fk", v/1000)
	case v >= 100:
		return fmt.Sprintf("$%.0f", v)
	case v >= 10:
		return fmt.Sprintf("$%.1f", v)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}
