package quoter

import (
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/fxdesk/fxdesk/internal/domain"
	"github.com/fxdesk/fxdesk/internal/services/spreads"
	"github.com/fxdesk/fxdesk/pkg/fxmath"
)

// zeroEpsilon guards divisions by session high/low values that have never
// been populated.
const zeroEpsilon = 1e-6

// Engine prices a single pair from its MarketRate and the session
// PricingContext. It holds only its collaborators; every Price call is a
// pure computation returning an immutable Quote.
type Engine struct {
	conventions *domain.ConventionTable
	spreads     *spreads.Set
	logger      *zap.Logger
}

// NewEngine creates a quote engine.
func NewEngine(conventions *domain.ConventionTable, spreadSet *spreads.Set, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{conventions: conventions, spreads: spreadSet, logger: logger}
}

// Price computes mid, bid and offer for a directly quoted pair.
//
// The raw mid is snapped to the skew grid before skew and spread are
// applied, so every adjustment is measured from a canonical grid value.
// A pair that has never ticked yields a zero-valued quote; callers treat
// zero mid as "no data".
func (e *Engine) Price(pair domain.Pair, rate domain.MarketRate, ctx *Context, prev domain.Quote) domain.Quote {
	conv := e.conventions.Get(pair)

	if rate.Empty() {
		return domain.Quote{
			Pair:           pair,
			RoundDP:        conv.RoundDP,
			BidDirection:   domain.DirectionSame,
			OfferDirection: domain.DirectionSame,
		}
	}

	mid := fxmath.RoundDP(fxmath.SnapToGrid(rate.Mid(), conv.SkewRoundValue), conv.RoundDP)

	table := e.spreads.Matrix(ctx.Variant).Lookup(pair, ctx.OrderSize)
	total := spreads.EffectiveSpread(table, ctx.ManualSpread, false)
	split := spreads.SplitSpread(total, conv.DecimalPlaces)

	bid := fxmath.RoundDP(mid+split.Bid+ctx.Skew, conv.RoundDP)
	offer := fxmath.RoundDP(mid+split.Offer+ctx.Skew, conv.RoundDP)

	q := domain.Quote{
		Pair:       pair,
		Mid:        mid,
		Bid:        bid,
		Offer:      offer,
		SpreadPips: total,
		RoundDP:    conv.RoundDP,
		PipsBid:    PipString(fxmath.RoundToHalfPip(bid, conv.DecimalPlaces), conv.PipsPlaces, conv.RoundDP),
		PipsMid:    PipString(fxmath.RoundToHalfPip(mid+ctx.Skew, conv.DecimalPlaces), conv.PipsPlaces, conv.RoundDP),
		PipsOffer:  PipString(fxmath.RoundToHalfPip(offer, conv.DecimalPlaces), conv.PipsPlaces, conv.RoundDP),
	}

	q.High, q.Low = rate.High, rate.Low
	if math.Abs(rate.High) > zeroEpsilon {
		q.HighPercent = math.Abs(mid-rate.High) / rate.High * 100
	}
	if math.Abs(rate.Low) > zeroEpsilon {
		q.LowPercent = math.Abs(mid-rate.Low) / rate.Low * 100
	}
	q.NearHighs = q.HighPercent < q.LowPercent

	return TrackDirections(q, prev, conv.RoundDP)
}

// TrackDirections classifies bid/offer movement against the previous
// quote using an epsilon one decimal finer than the rounding convention.
// Directions only update once a valid previous quote exists.
func TrackDirections(cur, prev domain.Quote, roundDP int) domain.Quote {
	cur.BidDirection = prevOrSame(prev.BidDirection)
	cur.OfferDirection = prevOrSame(prev.OfferDirection)

	if prev.Bid <= 0 || prev.Offer <= 0 {
		return cur
	}

	eps := math.Pow(10, float64(-(roundDP + 1)))
	cur.BidDirection = classify(cur.Bid, prev.Bid, eps)
	cur.OfferDirection = classify(cur.Offer, prev.Offer, eps)
	return cur
}

func classify(cur, prev, eps float64) domain.Direction {
	switch {
	case math.Abs(cur-prev) < eps:
		return domain.DirectionSame
	case cur > prev:
		return domain.DirectionUp
	default:
		return domain.DirectionDown
	}
}

func prevOrSame(d domain.Direction) domain.Direction {
	if d == "" {
		return domain.DirectionSame
	}
	return d
}

// Inverse derives the inverted view of an active quote: the inverse bid
// buys at the direct offer and the inverse offer sells at the direct bid.
// Direction state is independent of the direct quote. A quote without a
// live two-way price leaves the previous inverse untouched.
func (e *Engine) Inverse(q domain.Quote, prev domain.InverseQuote) domain.InverseQuote {
	if q.Bid <= 0 || q.Offer <= 0 {
		return prev
	}

	inv := q.Pair.Inverse()
	bid := 1 / q.Offer
	offer := 1 / q.Bid

	conv := e.conventions.Inverse(inv, bid)
	jpyBase := inv.Base == "JPY"

	out := domain.InverseQuote{
		Pair:      inv,
		Bid:       bid,
		Offer:     offer,
		Mid:       (bid + offer) / 2,
		PipsBid:   InversePipString(bid, conv, jpyBase),
		PipsMid:   InversePipString((bid+offer)/2, conv, jpyBase),
		PipsOffer: InversePipString(offer, conv, jpyBase),
	}

	out.BidDirection = prevOrSame(prev.BidDirection)
	out.OfferDirection = prevOrSame(prev.OfferDirection)
	if prev.Bid > 0 {
		out.BidDirection = strictClassify(bid, prev.Bid)
	}
	if prev.Offer > 0 {
		out.OfferDirection = strictClassify(offer, prev.Offer)
	}
	return out
}

func strictClassify(cur, prev float64) domain.Direction {
	switch {
	case cur > prev:
		return domain.DirectionUp
	case cur < prev:
		return domain.DirectionDown
	default:
		return domain.DirectionSame
	}
}

// FormatPrice renders a price at the pair's convention after half-pip
// rounding, the way the quote board displays it.
func (e *Engine) FormatPrice(pair domain.Pair, price float64) string {
	conv := e.conventions.Get(pair)
	rounded := fxmath.RoundToHalfPip(price, conv.DecimalPlaces)
	return strconv.FormatFloat(rounded, 'f', conv.RoundDP, 64)
}
