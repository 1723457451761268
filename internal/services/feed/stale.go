package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fxdesk/fxdesk/internal/domain"
)

// StaleWatcher logs when the feed goes quiet. Touch records activity;
// Run checks the age of the last touch on an interval and warns once per
// stale episode.
type StaleWatcher struct {
	mu        sync.Mutex
	last      time.Time
	threshold time.Duration
	logger    *zap.Logger
	warned    bool
	now       func() time.Time
}

// NewStaleWatcher creates a watcher that considers the feed stale after
// threshold without a tick.
func NewStaleWatcher(threshold time.Duration, logger *zap.Logger) *StaleWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &StaleWatcher{
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
	w.last = w.now()
	return w
}

// Touch records feed activity.
func (w *StaleWatcher) Touch() {
	w.mu.Lock()
	w.last = w.now()
	w.warned = false
	w.mu.Unlock()
}

// Stale reports whether the feed has been quiet past the threshold.
func (w *StaleWatcher) Stale() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now().Sub(w.last) > w.threshold
}

// Run checks staleness until the context is cancelled.
func (w *StaleWatcher) Run(ctx context.Context, checkEvery time.Duration) error {
	ticker := time.NewTicker(checkEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *StaleWatcher) check() {
	w.mu.Lock()
	defer w.mu.Unlock()

	age := w.now().Sub(w.last)
	if age > w.threshold && !w.warned {
		w.logger.Warn("market feed is stale", zap.Duration("age", age))
		w.warned = true
	}
}

// Watched wraps a sink so every tick refreshes the watcher.
func Watched(sink TickSink, w *StaleWatcher) TickSink {
	return watchedSink{sink: sink, watcher: w}
}

type watchedSink struct {
	sink    TickSink
	watcher *StaleWatcher
}

func (s watchedSink) OnTick(p domain.Pair, bid, offer, high, low float64) {
	s.watcher.Touch()
	s.sink.OnTick(p, bid, offer, high, low)
}
