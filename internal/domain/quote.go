package domain

// Direction classifies the movement of a price against its previous value.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionSame Direction = "same"
)

// Arrow returns the terminal glyph for the direction.
func (d Direction) Arrow() string {
	switch d {
	case DirectionUp:
		return "▲"
	case DirectionDown:
		return "▼"
	default:
		return "▶"
	}
}

// Quote is the immutable result of one repricing. A zero Mid means the
// pair has no market data yet; callers must treat such a quote as "no
// data", never as a tradable zero price.
type Quote struct {
	Pair       Pair
	Mid        float64
	Bid        float64
	Offer      float64
	PipsBid    string
	PipsMid    string
	PipsOffer  string
	SpreadPips float64

	// RoundDP is the decimal precision the prices were rounded at, kept
	// so renderers format at the pair's convention.
	RoundDP int

	BidDirection   Direction
	OfferDirection Direction

	High        float64
	Low         float64
	HighPercent float64
	LowPercent  float64
	NearHighs   bool

	Synthetic     bool
	LowConfidence bool
}

// HasData reports whether the quote carries a live price.
func (q Quote) HasData() bool {
	return q.Mid != 0
}

// InverseQuote is the inverted view of an active quote. Direction state is
// independent of the direct quote because it is measured on the inverted
// quantity.
type InverseQuote struct {
	Pair      Pair
	Bid       float64
	Offer     float64
	Mid       float64
	PipsBid   string
	PipsMid   string
	PipsOffer string

	BidDirection   Direction
	OfferDirection Direction
}
