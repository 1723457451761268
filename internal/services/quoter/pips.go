package quoter

import (
	"strconv"
	"strings"

	"github.com/fxdesk/fxdesk/internal/domain"
	"github.com/fxdesk/fxdesk/pkg/fxmath"
)

// PipString extracts the pip figure of a price for display. The price is
// formatted to at least six decimals, the first pipsPlaces fractional
// digits are dropped, the next two digits form the pip figure with the
// remainder as its decimal tail, and the figure is rounded to the nearest
// 0.5 and rendered with one decimal ("18.5"). Callers wanting half-pip
// display snap the price with fxmath.RoundToHalfPip first.
func PipString(price float64, pipsPlaces, roundDP int) string {
	decimals := roundDP + 1
	if decimals < 6 {
		decimals = 6
	}
	frac := fractionalDigits(price, decimals)
	if len(frac) <= pipsPlaces {
		return "00"
	}
	digits := frac[pipsPlaces:]
	if len(digits) < 2 {
		return (digits + "00")[:2]
	}
	v, err := strconv.ParseFloat(digits[:2]+"."+digits[2:], 64)
	if err != nil {
		return "00"
	}
	return strconv.FormatFloat(fxmath.RoundToNearestHalf(v), 'f', 1, 64)
}

// InversePipString extracts the pip figure of an inverse price. JPY-base
// inverse pairs show three digits with two decimals; all others show the
// two-digit figure with its third digit as a one-decimal tail. Inverse
// figures are shown exact, not rounded to 0.5.
func InversePipString(value float64, conv domain.Convention, jpyBase bool) string {
	digitsWanted, decimals := 2, 1
	if jpyBase {
		digitsWanted, decimals = 3, 2
	}

	frac := fractionalDigits(value, conv.RoundDP)
	if len(frac) <= conv.PipsPlaces {
		return "0.00"
	}
	part := frac[conv.PipsPlaces:]

	var figure string
	if len(part) >= digitsWanted {
		if digitsWanted == 2 && len(part) > 2 {
			figure = part[:2] + "." + part[2:3]
		} else {
			figure = part[:digitsWanted]
		}
	} else {
		figure = part + strings.Repeat("0", digitsWanted-len(part))
	}

	v, err := strconv.ParseFloat(figure, 64)
	if err != nil {
		return "0.00"
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func fractionalDigits(x float64, decimals int) string {
	s := strconv.FormatFloat(x, 'f', decimals, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return ""
	}
	return s[dot+1:]
}
