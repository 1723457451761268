package domain

import "fmt"

// CalcType identifies the algebraic rule used to derive a cross rate from
// its two USD-referenced legs.
type CalcType int

const (
	CalcMultiply CalcType = iota
	CalcDivideSameQuote
	CalcDivideSameBase
	CalcInvertFirstMultiply
	CalcSpecialUSDDivide
	CalcFallbackMultiply
)

// String returns the calculation-type name.
func (c CalcType) String() string {
	switch c {
	case CalcMultiply:
		return "multiply"
	case CalcDivideSameQuote:
		return "divide_same_quote"
	case CalcDivideSameBase:
		return "divide_same_base"
	case CalcInvertFirstMultiply:
		return "invert_first_multiply"
	case CalcSpecialUSDDivide:
		return "special_usd_divide"
	case CalcFallbackMultiply:
		return "fallback_multiply"
	default:
		return fmt.Sprintf("calctype(%d)", int(c))
	}
}

// MidCross applies the calculation rule to two leg mids.
func (c CalcType) MidCross(mid1, mid2 float64) float64 {
	switch c {
	case CalcMultiply, CalcFallbackMultiply:
		return mid1 * mid2
	case CalcDivideSameQuote, CalcSpecialUSDDivide:
		return mid1 / mid2
	case CalcDivideSameBase:
		return mid2 / mid1
	case CalcInvertFirstMultiply:
		return (1 / mid1) * mid2
	default:
		return mid1 * mid2
	}
}

// CombineMode selects the two-way recombination recipe for a CalcType.
type CombineMode int

const (
	CombineMult CombineMode = iota
	CombineDivLeg2
	CombineDivLeg1
	CombineFlipFirstMult
)

// CombineMode maps the calculation type to its bid/offer recombination
// recipe. The mapping is exhaustive over CalcType.
func (c CalcType) CombineMode() CombineMode {
	switch c {
	case CalcMultiply, CalcFallbackMultiply:
		return CombineMult
	case CalcDivideSameQuote, CalcSpecialUSDDivide:
		return CombineDivLeg2
	case CalcDivideSameBase:
		return CombineDivLeg1
	case CalcInvertFirstMultiply:
		return CombineFlipFirstMult
	default:
		return CombineMult
	}
}

// Combine recombines two legs' two-way prices into the cross bid and offer.
// The recipes keep the cross bid on the "pay both spreads" side: a divide
// crosses bid against the other leg's offer.
func Combine(leg1Bid, leg1Ask, leg2Bid, leg2Ask float64, mode CombineMode) (bid, offer float64) {
	switch mode {
	case CombineMult:
		return leg1Bid * leg2Bid, leg1Ask * leg2Ask
	case CombineDivLeg2:
		return leg1Bid / leg2Ask, leg1Ask / leg2Bid
	case CombineDivLeg1:
		return leg2Bid / leg1Ask, leg2Ask / leg1Bid
	case CombineFlipFirstMult:
		return (1 / leg1Ask) * leg2Bid, (1 / leg1Bid) * leg2Ask
	default:
		return leg1Bid * leg2Bid, leg1Ask * leg2Ask
	}
}
