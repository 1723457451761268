// Package synth derives two-way quotes for cross pairs that have no
// direct market feed by combining two USD-referenced legs.
package synth

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fxdesk/fxdesk/internal/domain"
	"github.com/fxdesk/fxdesk/internal/services/quoter"
	"github.com/fxdesk/fxdesk/internal/services/spreads"
	"github.com/fxdesk/fxdesk/pkg/fxmath"
)

// ErrMissingLeg is returned when a cross cannot be synthesized because a
// required leg has no live market rate.
var ErrMissingLeg = errors.New("missing leg rate")

// majors maps a currency to the directly quoted pair used as its leg.
// Currencies without an entry fall back to the USD-base pair.
var majors = map[string]domain.Pair{
	"AUD": domain.MustPair("AUDUSD"),
	"EUR": domain.MustPair("EURUSD"),
	"GBP": domain.MustPair("GBPUSD"),
	"JPY": domain.MustPair("USDJPY"),
	"NZD": domain.MustPair("NZDUSD"),
	"CAD": domain.MustPair("USDCAD"),
	"CHF": domain.MustPair("USDCHF"),
	"SGD": domain.MustPair("USDSGD"),
	"NOK": domain.MustPair("USDNOK"),
	"SEK": domain.MustPair("EURSEK"),
	"CNH": domain.MustPair("USDCNH"),
	"HKD": domain.MustPair("USDHKD"),
	"PLN": domain.MustPair("USDPLN"),
	"DKK": domain.MustPair("EURDKK"),
}

// LegFor returns the directly quoted pair carrying a currency's USD
// reference. USD itself has no leg.
func LegFor(ccy string) (domain.Pair, error) {
	if ccy == "USD" {
		return domain.Pair{}, errors.Wrap(ErrMissingLeg, "USD has no leg pair")
	}
	if leg, ok := majors[ccy]; ok {
		return leg, nil
	}
	return domain.Pair{Base: "USD", Quote: ccy}, nil
}

// Cross is the resolved synthesis plan for one cross pair.
type Cross struct {
	Pair     domain.Pair
	Leg1     domain.Pair
	Leg2     domain.Pair
	Calc     domain.CalcType
	Leg1Size float64
	Leg2Size float64

	// LowConfidence marks a cross whose leg orientation matched no known
	// algebraic rule and fell back to multiplication.
	LowConfidence bool
}

// Synthesizer builds and prices synthesis plans. It shares the engine's
// conventions and spread tables so leg quotes match direct quotes exactly.
type Synthesizer struct {
	conventions *domain.ConventionTable
	spreads     *spreads.Set
	logger      *zap.Logger
}

// NewSynthesizer creates a cross synthesizer.
func NewSynthesizer(conventions *domain.ConventionTable, spreadSet *spreads.Set, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{conventions: conventions, spreads: spreadSet, logger: logger}
}

// Plan resolves the legs, calculation rule and per-leg order sizes for a
// cross pair. Both legs must have a live positive mid; a missing or
// zero-rated leg yields ErrMissingLeg rather than a quote built on zeros.
func (s *Synthesizer) Plan(pair domain.Pair, orderSize float64, book *domain.RateBook) (Cross, error) {
	leg1, err := LegFor(pair.Base)
	if err != nil {
		return Cross{}, errors.Wrapf(err, "cross %s", pair)
	}
	leg2, err := LegFor(pair.Quote)
	if err != nil {
		return Cross{}, errors.Wrapf(err, "cross %s", pair)
	}

	mid1, err := liveMid(book, leg1)
	if err != nil {
		return Cross{}, errors.Wrapf(err, "cross %s", pair)
	}
	mid2, err := liveMid(book, leg2)
	if err != nil {
		return Cross{}, errors.Wrapf(err, "cross %s", pair)
	}

	calc, lowConfidence := selectCalc(pair, leg1, leg2)
	if lowConfidence {
		s.logger.Warn("unexpected leg orientation, falling back to multiply",
			zap.String("cross", pair.String()),
			zap.String("leg1", leg1.String()),
			zap.String("leg2", leg2.String()))
	}

	return Cross{
		Pair:          pair,
		Leg1:          leg1,
		Leg2:          leg2,
		Calc:          calc,
		Leg1Size:      orderSize,
		Leg2Size:      leg2Size(calc, leg1, leg2, orderSize, mid1, mid2),
		LowConfidence: lowConfidence,
	}, nil
}

func liveMid(book *domain.RateBook, leg domain.Pair) (float64, error) {
	rate, ok := book.Get(leg)
	if !ok {
		return 0, errors.Wrapf(ErrMissingLeg, "%s not in rate book", leg)
	}
	mid := rate.Mid()
	if mid <= 0 {
		return 0, errors.Wrapf(ErrMissingLeg, "%s has no live price", leg)
	}
	return mid, nil
}

// selectCalc picks the algebraic rule for combining the legs. Pinned
// orientations come first, then the generic common-currency checks in
// fixed order. An orientation matching nothing multiplies the legs and is
// flagged low confidence.
func selectCalc(cross, leg1, leg2 domain.Pair) (domain.CalcType, bool) {
	switch {
	case cross.Base == "JPY" && (cross.Quote == "CNH" || cross.Quote == "HKD"):
		return domain.CalcDivideSameBase, false
	case cross.Base == "HKD" && cross.Quote == "JPY":
		return domain.CalcDivideSameBase, false
	case cross.Base == "NOK" && cross.Quote == "HKD":
		return domain.CalcDivideSameBase, false
	}

	switch {
	case leg1.Quote == leg2.Base:
		return domain.CalcMultiply, false
	case leg1.Quote == leg2.Quote:
		return domain.CalcDivideSameQuote, false
	case leg1.Base == leg2.Base:
		return domain.CalcDivideSameBase, false
	case leg1.Base == leg2.Quote:
		return domain.CalcInvertFirstMultiply, false
	}

	if leg1.Base == cross.Base && leg1.Quote == "USD" && leg2.Base == "USD" && leg2.Quote == cross.Quote {
		return domain.CalcSpecialUSDDivide, false
	}
	return domain.CalcFallbackMultiply, true
}

// leg2Size converts the leg-1 notional into the leg-2 notional. Rules
// that multiply the legs route the size through the common currency;
// divisions deal the same notional on both legs.
func leg2Size(calc domain.CalcType, leg1, leg2 domain.Pair, size, mid1, mid2 float64) float64 {
	if calc != domain.CalcMultiply && calc != domain.CalcInvertFirstMultiply {
		return size
	}
	if containsUSD(leg1) && containsUSD(leg2) {
		if leg1.Quote == "USD" {
			return size * mid1
		}
		return size
	}
	return fxmath.RoundDP(size*mid2, 2)
}

func containsUSD(p domain.Pair) bool {
	return p.Base == "USD" || p.Quote == "USD"
}

// Quote prices a cross: each leg is quoted with zero skew and half the
// manual spread, the two-way legs are recombined by the calculation rule,
// and the result is rounded at the cross pair's own convention. The
// combined price is stored in the rate book so downstream consumers (pip
// value, inverse) see the cross like any other pair.
func (s *Synthesizer) Quote(ctx *quoter.Context, plan Cross, book *domain.RateBook, prev domain.Quote) (domain.Quote, error) {
	l1Bid, l1Ask, err := s.priceLeg(plan.Leg1, plan.Leg1Size, ctx, book)
	if err != nil {
		return domain.Quote{}, errors.Wrapf(err, "cross %s", plan.Pair)
	}
	l2Bid, l2Ask, err := s.priceLeg(plan.Leg2, plan.Leg2Size, ctx, book)
	if err != nil {
		return domain.Quote{}, errors.Wrapf(err, "cross %s", plan.Pair)
	}

	bid, offer := domain.Combine(l1Bid, l1Ask, l2Bid, l2Ask, plan.Calc.CombineMode())

	conv := s.conventions.Get(plan.Pair)
	bid = fxmath.RoundDP(bid, conv.RoundDP)
	offer = fxmath.RoundDP(offer, conv.RoundDP)
	mid := (bid + offer) / 2

	book.SetSynthetic(plan.Pair, bid, offer)

	q := domain.Quote{
		Pair:          plan.Pair,
		Mid:           mid,
		Bid:           bid,
		Offer:         offer,
		SpreadPips:    fxmath.RoundDP((offer-bid)*domain.PipMultiplier(plan.Pair), 1),
		RoundDP:       conv.RoundDP,
		PipsBid:       quoter.PipString(bid, conv.PipsPlaces, conv.RoundDP),
		PipsMid:       quoter.PipString(fxmath.RoundDP(mid+ctx.Skew, conv.RoundDP), conv.PipsPlaces, conv.RoundDP),
		PipsOffer:     quoter.PipString(offer, conv.PipsPlaces, conv.RoundDP),
		Synthetic:     true,
		LowConfidence: plan.LowConfidence,
	}
	return quoter.TrackDirections(q, prev, conv.RoundDP), nil
}

// priceLeg quotes one leg the way a direct pair is quoted, except skew is
// never applied and only half the manual spread lands on each leg.
func (s *Synthesizer) priceLeg(leg domain.Pair, size float64, ctx *quoter.Context, book *domain.RateBook) (bid, offer float64, err error) {
	rate, ok := book.Get(leg)
	if !ok || rate.Mid() <= 0 {
		return 0, 0, errors.Wrapf(ErrMissingLeg, "%s has no live price", leg)
	}

	conv := s.conventions.Get(leg)
	mid := fxmath.RoundDP(fxmath.SnapToGrid(rate.Mid(), conv.SkewRoundValue), conv.RoundDP)

	table := s.spreads.Matrix(ctx.Variant).Lookup(leg, size)
	total := spreads.EffectiveSpread(table, ctx.ManualSpread, true)
	split := spreads.SplitSpread(total, conv.DecimalPlaces)

	bid = fxmath.RoundDP(mid+split.Bid, conv.RoundDP)
	offer = fxmath.RoundDP(mid+split.Offer, conv.RoundDP)
	if bid <= 0 || offer <= 0 {
		return 0, 0, errors.Wrapf(ErrMissingLeg, "%s collapsed to a non-positive price", leg)
	}
	return bid, offer, nil
}

// MidOnly combines just the leg mids, without spreads. Used for sizing
// and for sanity checks against the full two-way synthesis.
func MidOnly(calc domain.CalcType, mid1, mid2 float64) float64 {
	return calc.MidCross(mid1, mid2)
}
