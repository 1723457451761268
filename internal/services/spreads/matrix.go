// Package spreads holds the spread-by-size matrices and the spread
// composition rules: bucket interpolation, manual spread, and the
// asymmetric half-pip bid/offer split.
package spreads

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/fxdesk/fxdesk/internal/domain"
	"github.com/fxdesk/fxdesk/pkg/fxmath"
)

// FallbackSpreadPips is used for pairs absent from the matrix
// (synthetic or otherwise unknown crosses).
const FallbackSpreadPips = 2.0

// Matrix is one spread-by-notional table: spread in pips per pair per
// size bucket (millions).
type Matrix struct {
	buckets []int
	rows    map[domain.Pair][]float64
}

// ParseMatrixCSV reads a table whose header row is "CCY" followed by the
// size buckets in millions, and whose data rows map a currency pair to a
// spread in pips per bucket. Buckets must be strictly increasing.
func ParseMatrixCSV(r io.Reader) (*Matrix, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read spread csv")
	}
	if len(records) < 2 {
		return nil, errors.New("spread csv needs a header and at least one row")
	}

	header := records[0]
	if len(header) < 2 || header[0] != "CCY" {
		return nil, errors.New("spread csv header must start with CCY")
	}

	buckets := make([]int, 0, len(header)-1)
	for _, col := range header[1:] {
		size, err := strconv.Atoi(col)
		if err != nil {
			return nil, errors.Wrapf(err, "bad size bucket %q", col)
		}
		if len(buckets) > 0 && size <= buckets[len(buckets)-1] {
			return nil, errors.Errorf("size buckets must be strictly increasing, got %d after %d", size, buckets[len(buckets)-1])
		}
		buckets = append(buckets, size)
	}

	rows := make(map[domain.Pair][]float64, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(buckets)+1 {
			return nil, errors.Errorf("row %q has %d columns, want %d", rec[0], len(rec), len(buckets)+1)
		}
		pair, err := domain.ParsePair(rec[0])
		if err != nil {
			return nil, errors.Wrapf(err, "bad pair in spread csv")
		}
		row := make([]float64, len(buckets))
		for i, cell := range rec[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "bad spread value %q for %s", cell, pair)
			}
			row[i] = v
		}
		rows[pair] = row
	}

	return &Matrix{buckets: buckets, rows: rows}, nil
}

// NewMatrix builds a matrix from already parsed data. For tests and
// programmatic construction.
func NewMatrix(buckets []int, rows map[domain.Pair][]float64) (*Matrix, error) {
	if !sort.IntsAreSorted(buckets) {
		return nil, errors.New("size buckets must be increasing")
	}
	for p, row := range rows {
		if len(row) != len(buckets) {
			return nil, errors.Errorf("row %s has %d values, want %d", p, len(row), len(buckets))
		}
	}
	return &Matrix{buckets: buckets, rows: rows}, nil
}

// Has reports whether the pair has a configured row.
func (m *Matrix) Has(p domain.Pair) bool {
	_, ok := m.rows[p]
	return ok
}

// Pairs returns the configured pairs, sorted by code.
func (m *Matrix) Pairs() []domain.Pair {
	out := make([]domain.Pair, 0, len(m.rows))
	for p := range m.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Lookup returns the spread in pips for the pair at the given order size
// in millions. Sizes below the smallest bucket clamp to it; sizes at a
// configured bucket read the table directly; anything else interpolates
// linearly between the bracketing buckets (flat beyond the last) and
// rounds to the nearest whole pip. Unknown pairs fall back to
// FallbackSpreadPips.
func (m *Matrix) Lookup(p domain.Pair, sizeMillions float64) float64 {
	row, ok := m.rows[p]
	if !ok {
		return FallbackSpreadPips
	}

	if sizeMillions < float64(m.buckets[0]) {
		sizeMillions = float64(m.buckets[0])
	}
	for i, b := range m.buckets {
		if sizeMillions == float64(b) {
			return row[i]
		}
	}
	return math.Round(interp(sizeMillions, m.buckets, row))
}

func interp(x float64, xs []int, ys []float64) float64 {
	if x >= float64(xs[len(xs)-1]) {
		return ys[len(ys)-1]
	}
	for i := 1; i < len(xs); i++ {
		lo, hi := float64(xs[i-1]), float64(xs[i])
		if x < hi {
			t := (x - lo) / (hi - lo)
			return ys[i-1] + t*(ys[i]-ys[i-1])
		}
	}
	return ys[len(ys)-1]
}

// Split holds the signed price offsets applied around the snapped mid.
type Split struct {
	Bid   float64
	Offer float64
}

// EffectiveSpread composes the table spread with the trader's manual
// spread. Synthetic legs each take half the manual spread. The total is
// rounded to the nearest half pip.
func EffectiveSpread(tableSpread, manualSpread float64, syntheticLeg bool) float64 {
	if syntheticLeg {
		manualSpread /= 2
	}
	return fxmath.RoundToNearestHalf(tableSpread + manualSpread)
}

// SplitSpread converts a total spread in pips into bid/offer price
// offsets. Whole-pip spreads split evenly around mid. Spreads carrying a
// half-pip remainder split unevenly: the bid side takes (spread-0.5)/2,
// the offer side (spread+0.5)/2, so the quote sits the remainder wider
// on the offer side rather than half a pip wider on both.
func SplitSpread(totalPips, decimalPlaces float64) Split {
	if isWhole(totalPips) {
		half := (totalPips / decimalPlaces) / 2
		return Split{Bid: -half, Offer: +half}
	}
	return Split{
		Bid:   -((totalPips - 0.5) / decimalPlaces) / 2,
		Offer: +((totalPips + 0.5) / decimalPlaces) / 2,
	}
}

func isWhole(x float64) bool {
	_, frac := math.Modf(x)
	return math.Abs(frac) < 1e-9 || math.Abs(frac-1) < 1e-9 || math.Abs(frac+1) < 1e-9
}
