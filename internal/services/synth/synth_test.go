package synth

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/fxdesk/fxdesk/internal/domain"
	"github.com/fxdesk/fxdesk/internal/services/quoter"
	"github.com/fxdesk/fxdesk/internal/services/spreads"
)

func testBook(t *testing.T) *domain.RateBook {
	t.Helper()
	book := domain.NewRateBook()
	book.Apply(domain.MustPair("EURUSD"), 1.16150, 1.16210, 0, 0)
	book.Apply(domain.MustPair("GBPUSD"), 1.33930, 1.33970, 0, 0)
	book.Apply(domain.MustPair("USDCAD"), 1.37120, 1.37160, 0, 0)
	book.Apply(domain.MustPair("USDCHF"), 0.80040, 0.80060, 0, 0)
	book.Apply(domain.MustPair("USDJPY"), 148.78, 148.80, 0, 0)
	book.Apply(domain.MustPair("NZDUSD"), 0.59480, 0.59500, 0, 0)
	book.Apply(domain.MustPair("USDCNH"), 7.17230, 7.17630, 0, 0)
	book.Apply(domain.MustPair("USDHKD"), 7.84950, 7.85050, 0, 0)
	book.Apply(domain.MustPair("USDNOK"), 10.22820, 10.23020, 0, 0)
	book.Apply(domain.MustPair("EURSEK"), 11.28430, 11.28630, 0, 0)
	return book
}

func testSynthesizer(t *testing.T) *Synthesizer {
	t.Helper()
	matrix, err := spreads.NewMatrix(
		[]int{1, 5, 10, 20, 30},
		map[domain.Pair][]float64{
			domain.MustPair("EURUSD"): {1, 1, 2, 3, 4},
			domain.MustPair("USDJPY"): {1, 2, 2, 3, 5},
			domain.MustPair("NZDUSD"): {1, 2, 2, 3, 4},
		},
	)
	require.NoError(t, err)
	set, err := spreads.NewSet(map[spreads.Variant]*spreads.Matrix{spreads.VariantDefault: matrix}, nil)
	require.NoError(t, err)
	return NewSynthesizer(domain.NewConventionTable(), set, nil)
}

func TestLegFor(t *testing.T) {
	leg, err := LegFor("EUR")
	require.NoError(t, err)
	require.Equal(t, "EURUSD", leg.String())

	leg, err = LegFor("JPY")
	require.NoError(t, err)
	require.Equal(t, "USDJPY", leg.String())

	leg, err = LegFor("SEK")
	require.NoError(t, err)
	require.Equal(t, "EURSEK", leg.String())

	// unmapped currency constructs the USD-base pair
	leg, err = LegFor("THB")
	require.NoError(t, err)
	require.Equal(t, "USDTHB", leg.String())

	_, err = LegFor("USD")
	require.True(t, errors.Is(err, ErrMissingLeg))
}

func TestPlan_CalcSelection(t *testing.T) {
	s := testSynthesizer(t)
	book := testBook(t)

	cases := []struct {
		cross string
		want  domain.CalcType
	}{
		{"EURCNH", domain.CalcMultiply},        // EURUSD x USDCNH
		{"GBPCAD", domain.CalcMultiply},        // GBPUSD x USDCAD
		{"NZDJPY", domain.CalcMultiply},        // NZDUSD x USDJPY
		{"EURGBP", domain.CalcDivideSameQuote}, // EURUSD / GBPUSD
		{"CHFJPY", domain.CalcDivideSameBase},  // USDJPY / USDCHF
		{"CADCHF", domain.CalcDivideSameBase},  // USDCHF / USDCAD
		{"CADEUR", domain.CalcInvertFirstMultiply},
		{"JPYCNH", domain.CalcDivideSameBase}, // pinned orientation
		{"HKDJPY", domain.CalcDivideSameBase}, // pinned orientation
		{"NOKHKD", domain.CalcDivideSameBase}, // pinned orientation
	}
	for _, tc := range cases {
		plan, err := s.Plan(domain.MustPair(tc.cross), 10, book)
		require.NoError(t, err, tc.cross)
		require.Equal(t, tc.want, plan.Calc, tc.cross)
		require.False(t, plan.LowConfidence, tc.cross)
	}
}

func TestPlan_FallbackIsLowConfidence(t *testing.T) {
	s := testSynthesizer(t)
	book := testBook(t)

	// EURSEK and USDCAD share no currency
	plan, err := s.Plan(domain.MustPair("SEKCAD"), 10, book)
	require.NoError(t, err)
	require.Equal(t, domain.CalcFallbackMultiply, plan.Calc)
	require.True(t, plan.LowConfidence)
}

func TestPlan_Leg2Size(t *testing.T) {
	s := testSynthesizer(t)
	book := testBook(t)

	// multiply through USD: leg 1 quoted in USD, so the USD amount feeds leg 2
	plan, err := s.Plan(domain.MustPair("EURCNH"), 10, book)
	require.NoError(t, err)
	require.InDelta(t, 10*1.1618, plan.Leg2Size, 1e-9)

	// leg 1 already USD-based keeps the notional
	plan, err = s.Plan(domain.MustPair("CADEUR"), 10, book)
	require.NoError(t, err)
	require.Equal(t, 10.0, plan.Leg2Size)

	// divisions deal the same notional on both legs
	plan, err = s.Plan(domain.MustPair("CHFJPY"), 10, book)
	require.NoError(t, err)
	require.Equal(t, 10.0, plan.Leg2Size)

	// the fallback rule is not a multiplication, so the notional is kept
	plan, err = s.Plan(domain.MustPair("SEKCAD"), 10, book)
	require.NoError(t, err)
	require.Equal(t, 10.0, plan.Leg2Size)
}

func TestPlan_MissingLeg(t *testing.T) {
	s := testSynthesizer(t)
	book := testBook(t)

	// USDSGD never ticked
	_, err := s.Plan(domain.MustPair("SGDCHF"), 10, book)
	require.True(t, errors.Is(err, ErrMissingLeg))

	// a leg present in the book but without a live price is just as missing
	book.SetSynthetic(domain.MustPair("USDSGD"), 0, 0)
	_, err = s.Plan(domain.MustPair("SGDCHF"), 10, book)
	require.True(t, errors.Is(err, ErrMissingLeg))

	_, err = s.Plan(domain.MustPair("USDEUR"), 10, book)
	require.True(t, errors.Is(err, ErrMissingLeg))
}

func TestQuote_Multiply(t *testing.T) {
	s := testSynthesizer(t)
	book := testBook(t)
	ctx := quoter.NewContext(10, spreads.VariantDefault)
	pair := domain.MustPair("EURCNH")

	plan, err := s.Plan(pair, 10, book)
	require.NoError(t, err)
	q, err := s.Quote(ctx, plan, book, domain.Quote{})
	require.NoError(t, err)

	require.True(t, q.Synthetic)
	require.False(t, q.LowConfidence)
	require.InDelta(t, 1.1618*7.1743, q.Mid, 0.01)
	require.Less(t, q.Bid, q.Offer)
	require.Greater(t, q.SpreadPips, 0.0)

	// the combined two-way is stored for downstream consumers
	rate, ok := book.Get(pair)
	require.True(t, ok)
	require.Equal(t, q.Bid, rate.Bid)
	require.Equal(t, q.Offer, rate.Offer)
}

func TestQuote_DivideSameBase(t *testing.T) {
	s := testSynthesizer(t)
	book := testBook(t)
	ctx := quoter.NewContext(10, spreads.VariantDefault)

	plan, err := s.Plan(domain.MustPair("CHFJPY"), 10, book)
	require.NoError(t, err)
	q, err := s.Quote(ctx, plan, book, domain.Quote{})
	require.NoError(t, err)

	require.InDelta(t, 148.79/0.8005, q.Mid, 0.05)
	require.Less(t, q.Bid, q.Offer)
	// JPY-quote cross rounds at three decimals
	require.InDelta(t, q.Bid*1000, math.Round(q.Bid*1000), 1e-6)
	require.InDelta(t, q.Offer*1000, math.Round(q.Offer*1000), 1e-6)
}

func TestQuote_NZDJPY(t *testing.T) {
	s := testSynthesizer(t)
	book := testBook(t)
	ctx := quoter.NewContext(10, spreads.VariantDefault)

	plan, err := s.Plan(domain.MustPair("NZDJPY"), 10, book)
	require.NoError(t, err)
	q, err := s.Quote(ctx, plan, book, domain.Quote{})
	require.NoError(t, err)

	require.InDelta(t, 0.5949*148.79, q.Mid, 0.05)
}

func TestQuote_ManualSpreadHalfPerLeg(t *testing.T) {
	s := testSynthesizer(t)
	book := testBook(t)
	pair := domain.MustPair("EURCNH")

	plan, err := s.Plan(pair, 10, book)
	require.NoError(t, err)

	base := quoter.NewContext(10, spreads.VariantDefault)
	tight, err := s.Quote(base, plan, book, domain.Quote{})
	require.NoError(t, err)

	widened := quoter.NewContext(10, spreads.VariantDefault)
	widened.ManualSpread = 1.0
	wide, err := s.Quote(widened, plan, book, domain.Quote{})
	require.NoError(t, err)

	require.Greater(t, wide.Offer-wide.Bid, tight.Offer-tight.Bid)
}

func TestQuote_Directions(t *testing.T) {
	s := testSynthesizer(t)
	book := testBook(t)
	ctx := quoter.NewContext(10, spreads.VariantDefault)
	pair := domain.MustPair("EURCNH")

	plan, err := s.Plan(pair, 10, book)
	require.NoError(t, err)
	first, err := s.Quote(ctx, plan, book, domain.Quote{})
	require.NoError(t, err)
	require.Equal(t, domain.DirectionSame, first.BidDirection)

	book.Apply(domain.MustPair("EURUSD"), 1.16350, 1.16410, 0, 0)
	plan, err = s.Plan(pair, 10, book)
	require.NoError(t, err)
	second, err := s.Quote(ctx, plan, book, first)
	require.NoError(t, err)
	require.Equal(t, domain.DirectionUp, second.BidDirection)
}
