// Package pipvalue computes the USD value of one pip per million base
// currency for any pair, using the live rate book as a conversion graph.
package pipvalue

import (
	"sync"
	"time"
)

const cacheTTL = 60 * time.Second

type cachedRate struct {
	rate float64
	at   time.Time
}

// Converter finds a conversion rate between two currencies by breadth-first
// search over the pairs in the rate book. Found rates are cached briefly so
// repeated lookups during a render pass do not re-walk the graph.
type Converter struct {
	mu    sync.Mutex
	cache map[string]cachedRate
	now   func() time.Time
}

// NewConverter creates a converter with an empty cache.
func NewConverter() *Converter {
	return &Converter{
		cache: map[string]cachedRate{},
		now:   time.Now,
	}
}

// buildGraph turns the mid-rate snapshot into a bidirectional conversion
// graph keyed by currency.
func buildGraph(mids map[string]float64) map[string]map[string]float64 {
	graph := map[string]map[string]float64{}
	add := func(from, to string, rate float64) {
		if graph[from] == nil {
			graph[from] = map[string]float64{}
		}
		graph[from][to] = rate
	}
	for code, rate := range mids {
		if len(code) != 6 || rate <= 0 {
			continue
		}
		base, quote := code[:3], code[3:]
		add(base, quote, rate)
		add(quote, base, 1/rate)
	}
	return graph
}

// Find returns the conversion rate from one currency to another, walking
// the rate graph breadth-first so the shortest chain of pairs wins.
func (c *Converter) Find(from, to string, mids map[string]float64) (float64, bool) {
	if from == to {
		return 1, true
	}

	key := from + "_" + to
	now := c.now()

	c.mu.Lock()
	if hit, ok := c.cache[key]; ok && now.Sub(hit.at) < cacheTTL {
		c.mu.Unlock()
		return hit.rate, true
	}
	c.mu.Unlock()

	rate, ok := bfs(from, to, buildGraph(mids))
	if !ok {
		return 0, false
	}

	c.mu.Lock()
	c.cache[key] = cachedRate{rate: rate, at: now}
	c.mu.Unlock()
	return rate, true
}

type hop struct {
	ccy  string
	rate float64
}

func bfs(from, to string, graph map[string]map[string]float64) (float64, bool) {
	if graph[from] == nil {
		return 0, false
	}

	queue := []hop{{ccy: from, rate: 1}}
	visited := map[string]bool{from: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for next, rate := range graph[cur.ccy] {
			if visited[next] {
				continue
			}
			combined := cur.rate * rate
			if next == to {
				return combined, true
			}
			visited[next] = true
			queue = append(queue, hop{ccy: next, rate: combined})
		}
	}
	return 0, false
}
