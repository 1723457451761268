// Package desk orchestrates the quoting terminal: it owns the rate book,
// the active pair and its pricing context, and serializes every tick and
// settings change through one lock so quotes never mix two states.
package desk

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fxdesk/fxdesk/internal/domain"
	"github.com/fxdesk/fxdesk/internal/services/pipvalue"
	"github.com/fxdesk/fxdesk/internal/services/quoter"
	"github.com/fxdesk/fxdesk/internal/services/spreads"
	"github.com/fxdesk/fxdesk/internal/services/synth"
	"github.com/fxdesk/fxdesk/pkg/fxmath"
)

// ErrInvalidInput is returned when a user-entered value cannot be parsed;
// the previous value stays in effect.
var ErrInvalidInput = errors.New("invalid input")

// ErrNoActivePair is returned by operations that need an active pair.
var ErrNoActivePair = errors.New("no active pair")

// PrecisionStore persists per-pair decimal-place overrides across sessions.
type PrecisionStore interface {
	Put(pair string, dp int) error
}

// Desk is the quoting terminal's single point of state mutation.
type Desk struct {
	mu sync.Mutex

	book        *domain.RateBook
	engine      *quoter.Engine
	synthesizer *synth.Synthesizer
	conventions *domain.ConventionTable
	spreads     *spreads.Set
	pips        *pipvalue.Calculator
	precision   PrecisionStore
	logger      *zap.Logger

	ctx       *quoter.Context
	active    domain.Pair
	synthetic bool
	plan      synth.Cross
	quote     domain.Quote
	inverse   domain.InverseQuote
}

// New creates a desk. precision may be nil when overrides are not persisted.
func New(
	book *domain.RateBook,
	engine *quoter.Engine,
	synthesizer *synth.Synthesizer,
	conventions *domain.ConventionTable,
	spreadSet *spreads.Set,
	orderSize float64,
	variant spreads.Variant,
	precision PrecisionStore,
	logger *zap.Logger,
) *Desk {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Desk{
		book:        book,
		engine:      engine,
		synthesizer: synthesizer,
		conventions: conventions,
		spreads:     spreadSet,
		pips:        pipvalue.NewCalculator(),
		precision:   precision,
		logger:      logger,
		ctx:         quoter.NewContext(orderSize, variant),
	}
}

// SetActivePair switches the displayed pair. Per-pair skew and manual
// spread reset, a previous synthetic cross is torn down, and a pair
// outside the configured direct-market set is synthesized from its legs.
// Direct pairs activate before their first tick and show a zero quote
// until the feed arrives; only a failed synthesis keeps the previous pair
// active and returns the error.
//
// Direct-vs-synthetic is decided against the Default spread matrix, not
// the rate book: the book fills as ticks arrive, and a direct pair
// activated before its first tick must never be mistaken for a cross.
func (d *Desk) SetActivePair(p domain.Pair) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	plan, synthetic := synth.Cross{}, false
	if !d.spreads.Matrix(spreads.VariantDefault).Has(p) {
		var err error
		plan, err = d.synthesizer.Plan(p, d.ctx.OrderSize, d.book)
		if err != nil {
			return errors.Wrapf(err, "activate %s", p)
		}
		synthetic = true
	}

	if d.synthetic {
		d.book.Remove(d.active)
	}

	d.active = p
	d.synthetic = synthetic
	d.plan = plan
	d.ctx.Reset()
	d.quote = domain.Quote{}
	d.inverse = domain.InverseQuote{}
	d.reprice()
	return nil
}

// ActivePair returns the currently displayed pair.
func (d *Desk) ActivePair() domain.Pair {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// OnTick records a market update and reprices when the tick touches the
// active pair or one of its synthetic legs.
func (d *Desk) OnTick(p domain.Pair, bid, offer, high, low float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.book.Apply(p, bid, offer, high, low)

	if d.active.IsZero() {
		return
	}
	switch {
	case !d.synthetic && p == d.active:
		d.reprice()
	case d.synthetic && (p == d.plan.Leg1 || p == d.plan.Leg2):
		d.reprice()
	}
}

// reprice recomputes the cached quote and inverse. Callers hold d.mu.
func (d *Desk) reprice() {
	if d.active.IsZero() {
		return
	}

	if d.synthetic {
		q, err := d.synthesizer.Quote(d.ctx, d.plan, d.book, d.quote)
		if err != nil {
			d.logger.Warn("synthetic repricing failed",
				zap.String("pair", d.active.String()), zap.Error(err))
			return
		}
		d.quote = q
	} else {
		rate, _ := d.book.Get(d.active)
		d.quote = d.engine.Price(d.active, rate, d.ctx, d.quote)
	}
	d.inverse = d.engine.Inverse(d.quote, d.inverse)
}

// CurrentQuote returns the cached quote for the active pair.
func (d *Desk) CurrentQuote() domain.Quote {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quote
}

// CurrentInverse returns the cached inverse quote for the active pair.
func (d *Desk) CurrentInverse() domain.InverseQuote {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inverse
}

// SetOrderSize parses and applies a new order size in millions. A value
// that fails to parse or is not positive keeps the previous size.
func (d *Desk) SetOrderSize(input string) error {
	size, err := decimal.NewFromString(input)
	if err != nil {
		return errors.Wrapf(ErrInvalidInput, "order size %q", input)
	}
	if !size.IsPositive() {
		return errors.Wrapf(ErrInvalidInput, "order size %q: must be positive", input)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.ctx.OrderSize, _ = size.Float64()
	if d.synthetic {
		plan, err := d.synthesizer.Plan(d.active, d.ctx.OrderSize, d.book)
		if err != nil {
			d.logger.Warn("replanning after size change failed",
				zap.String("pair", d.active.String()), zap.Error(err))
		} else {
			d.plan = plan
		}
	}
	d.reprice()
	return nil
}

// OrderSize returns the current order size in millions.
func (d *Desk) OrderSize() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctx.OrderSize
}

// Widen adds half a pip of manual spread and reprices.
func (d *Desk) Widen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx.Widen()
	d.reprice()
}

// Tighten removes half a pip of manual spread and reprices.
func (d *Desk) Tighten() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx.Tighten()
	d.reprice()
}

// SkewUp shifts both sides of the quote up by half a pip of the active
// pair's convention.
func (d *Desk) SkewUp() {
	d.adjustSkew(1)
}

// SkewDown shifts both sides of the quote down by half a pip.
func (d *Desk) SkewDown() {
	d.adjustSkew(-1)
}

func (d *Desk) adjustSkew(steps float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active.IsZero() {
		return
	}
	conv := d.conventions.Get(d.active)
	d.ctx.Skew += steps * conv.SkewRoundValue
	d.reprice()
}

// SetVariant switches the spread table and reprices.
func (d *Desk) SetVariant(v spreads.Variant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx.Variant = v
	d.reprice()
}

// Variant returns the active spread table.
func (d *Desk) Variant() spreads.Variant {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctx.Variant
}

// SetPrecision overrides the active decimal places for a pair, persists
// the override when a store is configured, and reprices.
func (d *Desk) SetPrecision(p domain.Pair, dp int) error {
	if dp < 1 || dp > 8 {
		return errors.Wrapf(ErrInvalidInput, "decimal places %d", dp)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.conventions.SetRoundDPOverride(p, dp)
	if d.precision != nil {
		if err := d.precision.Put(p.String(), dp); err != nil {
			return errors.Wrap(err, "persist precision override")
		}
	}
	d.reprice()
	return nil
}

// ReverseOrderSize converts a USD notional into the base currency of the
// active pair at the current mid, rounded to thousandths of a million.
func (d *Desk) ReverseOrderSize(usd float64) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active.IsZero() {
		return 0, ErrNoActivePair
	}
	if d.quote.Mid <= 0 {
		return 0, errors.Wrapf(ErrNoActivePair, "%s has no live quote", d.active)
	}
	return fxmath.RoundDP(usd/d.quote.Mid, 3), nil
}

// PipValue computes the USD pip value for the active pair. The graph walk
// runs on a snapshot taken under the lock, so long conversions never block
// the tick path.
func (d *Desk) PipValue() (pipvalue.Result, error) {
	d.mu.Lock()
	if d.active.IsZero() {
		d.mu.Unlock()
		return pipvalue.Result{}, ErrNoActivePair
	}
	pair := d.active
	mid := d.quote.Mid
	mids := d.book.Mids()
	d.mu.Unlock()

	return d.pips.Calculate(pair, mid, mids), nil
}

// Rates returns a copy of every tracked rate for external surfaces.
func (d *Desk) Rates() map[string]domain.MarketRate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.book.Snapshot()
}
