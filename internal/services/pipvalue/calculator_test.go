package pipvalue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fxdesk/fxdesk/internal/domain"
)

func testMids() map[string]float64 {
	return map[string]float64{
		"EURUSD": 1.1618,
		"GBPUSD": 1.3395,
		"USDJPY": 148.79,
		"USDCAD": 1.3714,
		"EURSEK": 11.2853,
	}
}

func TestCalculate_USDQuote(t *testing.T) {
	c := NewCalculator()

	r := c.Calculate(domain.MustPair("EURUSD"), 1.1618, testMids())

	require.Equal(t, PathDirect, r.Path)
	require.Equal(t, 0.0001, r.PipSize)
	require.Equal(t, 100.0, r.PipInQuote)
	require.Equal(t, 100.0, r.PipInUSD)
}

func TestCalculate_JPYQuoteViaInversePair(t *testing.T) {
	c := NewCalculator()

	r := c.Calculate(domain.MustPair("USDJPY"), 148.79, testMids())

	require.Equal(t, PathDirect, r.Path)
	require.Equal(t, 0.01, r.PipSize)
	require.Equal(t, 10000.0, r.PipInQuote)
	require.InDelta(t, 10000.0/148.79, r.PipInUSD, 1e-9)
}

func TestCalculate_GraphWalk(t *testing.T) {
	c := NewCalculator()

	// SEK reaches USD only through EURSEK then EURUSD
	r := c.Calculate(domain.MustPair("NOKSEK"), 1.103, testMids())

	require.Equal(t, PathDirect, r.Path)
	require.InDelta(t, 100.0*(1.1618/11.2853), r.PipInUSD, 1e-9)
}

func TestCalculate_ViaBase(t *testing.T) {
	c := NewCalculator()

	// THB has no route to USD, EUR does
	r := c.Calculate(domain.MustPair("EURTHB"), 41.0, testMids())

	require.Equal(t, PathViaBase, r.Path)
	require.InDelta(t, 100.0/41.0, r.PipInBase, 1e-9)
	require.InDelta(t, (100.0/41.0)*1.1618, r.PipInUSD, 1e-9)
}

func TestCalculate_Unavailable(t *testing.T) {
	c := NewCalculator()

	r := c.Calculate(domain.MustPair("THBKRW"), 0.91, map[string]float64{})

	require.Equal(t, PathUnavailable, r.Path)
	require.False(t, r.Available())
	require.Zero(t, r.PipInUSD)
	require.InDelta(t, 100.0/0.91, r.PipInBase, 1e-9)
}

func TestConverter_CacheTTL(t *testing.T) {
	c := NewConverter()
	now := time.Now()
	c.now = func() time.Time { return now }

	mids := testMids()
	rate, ok := c.Find("SEK", "USD", mids)
	require.True(t, ok)
	require.InDelta(t, 1.1618/11.2853, rate, 1e-9)

	// a fresher snapshot is ignored while the cache entry is live
	mids["EURSEK"] = 12.0
	rate, ok = c.Find("SEK", "USD", mids)
	require.True(t, ok)
	require.InDelta(t, 1.1618/11.2853, rate, 1e-9)

	// and picked up once the entry expires
	now = now.Add(cacheTTL + time.Second)
	rate, ok = c.Find("SEK", "USD", mids)
	require.True(t, ok)
	require.InDelta(t, 1.1618/12.0, rate, 1e-9)
}

func TestConverter_NoRoute(t *testing.T) {
	c := NewConverter()

	_, ok := c.Find("THB", "USD", testMids())
	require.False(t, ok)

	rate, ok := c.Find("USD", "USD", nil)
	require.True(t, ok)
	require.Equal(t, 1.0, rate)
}

func TestFormatCompact(t *testing.T) {
	r := Result{Path: PathDirect, PipInUSD: 100}
	require.Equal(t, "$100", FormatCompact(r))

	r.PipInUSD = 67.2
	require.Equal(t, "$67.2", FormatCompact(r))

	r.PipInUSD = 9.456
	require.Equal(t, "$9.46", FormatCompact(r))

	r.PipInUSD = 1500
	require.Equal(t, "$1.5k", FormatCompact(r))

	require.Equal(t, "--", FormatCompact(Result{Path: PathUnavailable}))
}

func TestFormatCompactScaled(t *testing.T) {
	r := Result{Path: PathDirect, PipInUSD: 100}

	require.Equal(t, "$1.0k", FormatCompactScaled(r, 10))
	require.Equal(t, "$50k", FormatCompactScaled(r, 500))
	require.Equal(t, "$2M", FormatCompactScaled(r, 20000))
	require.Equal(t, "$2.5M", FormatCompactScaled(r, 25000))
}

func TestFormatDisplay(t *testing.T) {
	r := Result{Pair: domain.MustPair("EURUSD"), Path: PathDirect, PipInUSD: 100}
	require.Equal(t, "Pip: 100.00 USD/1M EUR", FormatDisplay(r))

	r = Result{Pair: domain.MustPair("EURTHB"), Path: PathUnavailable, PipInBase: 2.439024}
	require.Equal(t, "Pip: 2.439024 EUR/pip/1M", FormatDisplay(r))
}
