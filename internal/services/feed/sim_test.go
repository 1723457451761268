package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fxdesk/fxdesk/internal/domain"
)

func TestSim_StepInvariants(t *testing.T) {
	sim := NewSim(1, zap.NewNop())

	for i := 0; i < 100; i++ {
		for _, tk := range sim.Step() {
			require.Greater(t, tk.Bid, 0.0, tk.Pair)
			require.Greater(t, tk.Offer, tk.Bid, tk.Pair)
			require.GreaterOrEqual(t, tk.High, tk.Offer, tk.Pair)
			require.LessOrEqual(t, tk.Low, tk.Bid, tk.Pair)
		}
	}
}

func TestSim_Deterministic(t *testing.T) {
	a := NewSim(42, nil)
	b := NewSim(42, nil)

	for i := 0; i < 10; i++ {
		ta, tb := a.Step(), b.Step()
		require.Equal(t, ta, tb)
	}
}

func TestSim_CoversSeedPairs(t *testing.T) {
	sim := NewSim(7, nil)

	seen := map[string]bool{}
	for _, tk := range sim.Step() {
		seen[tk.Pair.String()] = true
	}
	for code := range SeedRates() {
		require.True(t, seen[code], code)
	}
}

func TestSeedRates_IncludesAudGbp(t *testing.T) {
	require.InDelta(t, 0.4867, SeedRates()["AUDGBP"], 1e-9)
	require.Equal(t, 2.0, typicalSpreads["AUDGBP"])
}

func TestSim_SessionReset(t *testing.T) {
	sim := NewSim(3, nil)
	now := time.Now()
	sim.now = func() time.Time { return now }

	// drift the range away from the seed
	for i := 0; i < 50; i++ {
		sim.Step()
	}

	now = now.Add(sessionLength + time.Minute)
	ticks := sim.Step()

	for _, tk := range ticks {
		// after a reset the range hugs the current rate again
		require.Less(t, tk.High-tk.Low, tk.Offer*0.01, tk.Pair)
	}
}

func TestStaleWatcher(t *testing.T) {
	w := NewStaleWatcher(5*time.Second, nil)
	now := time.Now()
	w.now = func() time.Time { return now }
	w.Touch()

	require.False(t, w.Stale())

	now = now.Add(6 * time.Second)
	require.True(t, w.Stale())

	w.Touch()
	require.False(t, w.Stale())
}

type recordingSink struct {
	ticks int
}

func (r *recordingSink) OnTick(domain.Pair, float64, float64, float64, float64) {
	r.ticks++
}

func TestWatchedSink(t *testing.T) {
	w := NewStaleWatcher(time.Second, nil)
	now := time.Now().Add(-time.Hour)
	w.now = func() time.Time { return now }
	w.last = now.Add(-time.Hour)

	rec := &recordingSink{}
	sink := Watched(rec, w)

	now = now.Add(time.Hour)
	sink.OnTick(domain.MustPair("EURUSD"), 1.1, 1.2, 0, 0)

	require.Equal(t, 1, rec.ticks)
	require.False(t, w.Stale())
}
