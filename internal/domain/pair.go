// Package domain defines the core pricing data structures: currency pairs,
// quote conventions, market rates and quotes.
package domain

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidPair is returned when a pair code cannot be parsed.
var ErrInvalidPair = errors.New("invalid currency pair")

// Pair is a 6-letter currency pair split into its base and quote currencies.
type Pair struct {
	Base  string
	Quote string
}

// ParsePair parses a 6-letter code such as "EURUSD". An optional underscore
// separator ("EUR_USD") is accepted. The base and quote must differ.
func ParsePair(s string) (Pair, error) {
	code := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	if len(code) != 6 {
		return Pair{}, errors.Wrapf(ErrInvalidPair, "%q: want 6 letters", s)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return Pair{}, errors.Wrapf(ErrInvalidPair, "%q: non-letter character", s)
		}
	}
	p := Pair{Base: code[:3], Quote: code[3:]}
	if p.Base == p.Quote {
		return Pair{}, errors.Wrapf(ErrInvalidPair, "%q: base equals quote", s)
	}
	return p, nil
}

// MustPair parses a pair code and panics on failure. For tables and tests.
func MustPair(s string) Pair {
	p, err := ParsePair(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the concatenated 6-letter code.
func (p Pair) String() string {
	return p.Base + p.Quote
}

// Inverse returns the pair with base and quote swapped.
func (p Pair) Inverse() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

// IsZero reports whether the pair is unset.
func (p Pair) IsZero() bool {
	return p.Base == "" && p.Quote == ""
}
