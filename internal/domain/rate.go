package domain

// MarketRate is the latest two-way price and session range for one pair.
// Entries are created lazily on the first tick and mutated in place; no
// history is kept beyond the session high and low.
type MarketRate struct {
	Bid   float64
	Offer float64
	High  float64
	Low   float64
}

// Mid returns the midpoint of the two-way price.
func (r MarketRate) Mid() float64 {
	return (r.Bid + r.Offer) / 2
}

// Empty reports whether the pair has never ticked.
func (r MarketRate) Empty() bool {
	return r.Bid == 0 && r.Offer == 0
}

// RateBook holds the current MarketRate per pair, including entries
// synthesized for active cross pairs. It is not internally locked: the
// desk serializes all writes, and readers off the tick path work on
// snapshots taken via Mids.
type RateBook struct {
	rates map[Pair]*MarketRate
}

// NewRateBook creates an empty book.
func NewRateBook() *RateBook {
	return &RateBook{rates: map[Pair]*MarketRate{}}
}

// Apply records a tick. Non-positive high/low values are treated as absent;
// after the update the session range always contains the two-way price.
func (b *RateBook) Apply(p Pair, bid, offer, high, low float64) {
	r, ok := b.rates[p]
	if !ok {
		r = &MarketRate{}
		b.rates[p] = r
	}
	if bid > 0 {
		r.Bid = bid
	}
	if offer > 0 {
		r.Offer = offer
	}
	if high > 0 {
		r.High = high
	}
	if low > 0 {
		r.Low = low
	}

	top := r.Bid
	if r.Offer > top {
		top = r.Offer
	}
	bottom := r.Offer
	if r.Bid > 0 && r.Bid < bottom {
		bottom = r.Bid
	}
	if r.High < top {
		r.High = top
	}
	if bottom > 0 && (r.Low == 0 || r.Low > bottom) {
		r.Low = bottom
	}
}

// SetSynthetic stores the combined two-way price of an active cross pair.
func (b *RateBook) SetSynthetic(p Pair, bid, offer float64) {
	r, ok := b.rates[p]
	if !ok {
		r = &MarketRate{}
		b.rates[p] = r
	}
	r.Bid = bid
	r.Offer = offer
}

// Remove discards a pair's rate. Used when a synthetic cross is torn down.
func (b *RateBook) Remove(p Pair) {
	delete(b.rates, p)
}

// Get returns a copy of the pair's rate.
func (b *RateBook) Get(p Pair) (MarketRate, bool) {
	r, ok := b.rates[p]
	if !ok {
		return MarketRate{}, false
	}
	return *r, true
}

// Mids returns a snapshot of positive mid rates keyed by 6-letter code,
// suitable for graph traversal off the tick path.
func (b *RateBook) Mids() map[string]float64 {
	out := make(map[string]float64, len(b.rates))
	for p, r := range b.rates {
		if mid := r.Mid(); mid > 0 {
			out[p.String()] = mid
		}
	}
	return out
}

// Snapshot returns a copy of every tracked rate keyed by 6-letter code.
func (b *RateBook) Snapshot() map[string]MarketRate {
	out := make(map[string]MarketRate, len(b.rates))
	for p, r := range b.rates {
		out[p.String()] = *r
	}
	return out
}

// Len returns the number of tracked pairs.
func (b *RateBook) Len() int {
	return len(b.rates)
}
