package desk

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/fxdesk/fxdesk/internal/domain"
	"github.com/fxdesk/fxdesk/internal/services/quoter"
	"github.com/fxdesk/fxdesk/internal/services/spreads"
	"github.com/fxdesk/fxdesk/internal/services/synth"
)

type memPrecision struct {
	puts map[string]int
}

func (m *memPrecision) Put(pair string, dp int) error {
	if m.puts == nil {
		m.puts = map[string]int{}
	}
	m.puts[pair] = dp
	return nil
}

// untickedDesk builds a desk whose rate book has seen no ticks at all.
func untickedDesk(t *testing.T) *Desk {
	t.Helper()
	matrix, err := spreads.NewMatrix(
		[]int{1, 5, 10, 20, 30},
		map[domain.Pair][]float64{
			domain.MustPair("EURUSD"): {1, 1, 2, 3, 4},
			domain.MustPair("USDJPY"): {1, 2, 2, 3, 5},
			domain.MustPair("EURJPY"): {1, 2, 2, 4, 5},
			domain.MustPair("USDCNH"): {3, 4, 5, 7, 10},
		},
	)
	require.NoError(t, err)
	set, err := spreads.NewSet(map[spreads.Variant]*spreads.Matrix{spreads.VariantDefault: matrix}, nil)
	require.NoError(t, err)

	conventions := domain.NewConventionTable()
	book := domain.NewRateBook()
	engine := quoter.NewEngine(conventions, set, nil)
	synthesizer := synth.NewSynthesizer(conventions, set, nil)

	return New(book, engine, synthesizer, conventions, set, 10, spreads.VariantDefault, nil, nil)
}

func testDesk(t *testing.T) *Desk {
	t.Helper()
	d := untickedDesk(t)
	d.OnTick(domain.MustPair("EURUSD"), 1.16150, 1.16210, 1.1650, 1.1550)
	d.OnTick(domain.MustPair("USDJPY"), 148.78, 148.80, 149.20, 148.10)
	d.OnTick(domain.MustPair("USDCNH"), 7.17230, 7.17630, 7.1900, 7.1500)
	return d
}

func TestSetActivePair_Direct(t *testing.T) {
	d := testDesk(t)

	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))

	q := d.CurrentQuote()
	require.True(t, q.HasData())
	require.False(t, q.Synthetic)
	require.InDelta(t, 1.1618, q.Mid, 1e-9)

	inv := d.CurrentInverse()
	require.Equal(t, "USDEUR", inv.Pair.String())
	require.Greater(t, inv.Bid, 0.0)
}

func TestSetActivePair_DirectBeforeFirstTick(t *testing.T) {
	d := untickedDesk(t)

	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))

	q := d.CurrentQuote()
	require.False(t, q.Synthetic)
	require.False(t, q.HasData())
	require.Equal(t, domain.DirectionSame, q.BidDirection)

	d.OnTick(domain.MustPair("EURUSD"), 1.16150, 1.16210, 0, 0)
	q = d.CurrentQuote()
	require.False(t, q.Synthetic)
	require.InDelta(t, 1.1618, q.Mid, 1e-9)
}

func TestSetActivePair_DirectPairNotSynthesized(t *testing.T) {
	// both legs of EURJPY are live but EURJPY itself has a configured
	// direct market, so it must wait for its own feed, not synthesize
	d := testDesk(t)

	require.NoError(t, d.SetActivePair(domain.MustPair("EURJPY")))
	require.False(t, d.CurrentQuote().Synthetic)
	require.False(t, d.CurrentQuote().HasData())

	d.OnTick(domain.MustPair("EURJPY"), 170.00, 170.04, 0, 0)
	q := d.CurrentQuote()
	require.False(t, q.Synthetic)
	require.InDelta(t, 170.02, q.Mid, 1e-9)
}

func TestSetActivePair_Synthetic(t *testing.T) {
	d := testDesk(t)

	require.NoError(t, d.SetActivePair(domain.MustPair("EURCNH")))

	q := d.CurrentQuote()
	require.True(t, q.Synthetic)
	require.InDelta(t, 1.1618*7.1743, q.Mid, 0.01)

	// the synthesized rate is visible in the book
	rates := d.Rates()
	require.Contains(t, rates, "EURCNH")
}

func TestSetActivePair_SyntheticTornDownOnSwitch(t *testing.T) {
	d := testDesk(t)

	require.NoError(t, d.SetActivePair(domain.MustPair("EURCNH")))
	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))

	require.NotContains(t, d.Rates(), "EURCNH")
}

func TestSetActivePair_MissingLegKeepsPrevious(t *testing.T) {
	d := testDesk(t)
	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))

	err := d.SetActivePair(domain.MustPair("SGDCHF"))
	require.True(t, errors.Is(err, synth.ErrMissingLeg))
	require.Equal(t, "EURUSD", d.ActivePair().String())
	require.True(t, d.CurrentQuote().HasData())
}

func TestSetActivePair_ResetsAdjustments(t *testing.T) {
	d := testDesk(t)
	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))

	d.Widen()
	d.SkewUp()
	widened := d.CurrentQuote()
	require.Greater(t, widened.SpreadPips, 2.0)

	require.NoError(t, d.SetActivePair(domain.MustPair("USDJPY")))
	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))

	q := d.CurrentQuote()
	require.Equal(t, 2.0, q.SpreadPips)
	require.InDelta(t, 1.1618, q.Mid, 1e-9)
}

func TestOnTick_RepricesActiveOnly(t *testing.T) {
	d := testDesk(t)
	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))
	before := d.CurrentQuote()

	// tick on another pair leaves the cached quote alone
	d.OnTick(domain.MustPair("USDJPY"), 148.90, 148.92, 0, 0)
	require.Equal(t, before, d.CurrentQuote())

	d.OnTick(domain.MustPair("EURUSD"), 1.16250, 1.16310, 0, 0)
	after := d.CurrentQuote()
	require.InDelta(t, 1.1628, after.Mid, 1e-9)
	require.Equal(t, domain.DirectionUp, after.BidDirection)
}

func TestOnTick_LegRepricesSynthetic(t *testing.T) {
	d := testDesk(t)
	require.NoError(t, d.SetActivePair(domain.MustPair("EURCNH")))
	before := d.CurrentQuote()

	d.OnTick(domain.MustPair("EURUSD"), 1.16350, 1.16410, 0, 0)
	after := d.CurrentQuote()
	require.Greater(t, after.Mid, before.Mid)
}

func TestSetOrderSize(t *testing.T) {
	d := testDesk(t)
	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))

	require.NoError(t, d.SetOrderSize("25"))
	require.Equal(t, 25.0, d.OrderSize())
	// 25m interpolates the 20-30 bucket to 3.5, rounded to a whole pip
	require.Equal(t, 4.0, d.CurrentQuote().SpreadPips)

	err := d.SetOrderSize("abc")
	require.True(t, errors.Is(err, ErrInvalidInput))
	require.Equal(t, 25.0, d.OrderSize())

	err = d.SetOrderSize("-5")
	require.True(t, errors.Is(err, ErrInvalidInput))
	require.Equal(t, 25.0, d.OrderSize())
}

func TestWidenTighten(t *testing.T) {
	d := testDesk(t)
	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))

	d.Widen()
	require.Equal(t, 2.5, d.CurrentQuote().SpreadPips)
	d.Tighten()
	require.Equal(t, 2.0, d.CurrentQuote().SpreadPips)
}

func TestSkew(t *testing.T) {
	d := testDesk(t)
	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))
	before := d.CurrentQuote()

	d.SkewUp()
	d.SkewUp()
	after := d.CurrentQuote()
	require.InDelta(t, before.Bid+0.0001, after.Bid, 1e-9)
	require.InDelta(t, before.Offer+0.0001, after.Offer, 1e-9)

	d.SkewDown()
	d.SkewDown()
	require.InDelta(t, before.Bid, d.CurrentQuote().Bid, 1e-9)
}

func TestSetPrecision(t *testing.T) {
	store := &memPrecision{}
	d := testDesk(t)
	d.precision = store
	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))

	require.NoError(t, d.SetPrecision(domain.MustPair("EURUSD"), 4))
	require.Equal(t, 4, store.puts["EURUSD"])

	err := d.SetPrecision(domain.MustPair("EURUSD"), 0)
	require.True(t, errors.Is(err, ErrInvalidInput))
}

func TestReverseOrderSize(t *testing.T) {
	d := testDesk(t)

	_, err := d.ReverseOrderSize(10)
	require.True(t, errors.Is(err, ErrNoActivePair))

	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))
	size, err := d.ReverseOrderSize(10)
	require.NoError(t, err)
	require.InDelta(t, 8.607, size, 1e-9)
}

func TestPipValue(t *testing.T) {
	d := testDesk(t)

	_, err := d.PipValue()
	require.True(t, errors.Is(err, ErrNoActivePair))

	require.NoError(t, d.SetActivePair(domain.MustPair("EURUSD")))
	r, err := d.PipValue()
	require.NoError(t, err)
	require.Equal(t, 100.0, r.PipInUSD)
}
