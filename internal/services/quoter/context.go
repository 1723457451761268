// Package quoter computes the two-way quote for a single pair: mid grid
// snapping, spread and skew application, direction tracking, pip display
// strings and inverse quotes.
package quoter

import (
	"math"

	"github.com/fxdesk/fxdesk/internal/services/spreads"
)

// ManualSpreadStep is the half-pip increment the widen/tighten controls
// move the manual spread by.
const ManualSpreadStep = 0.5

// Context is the mutable session state for the currently displayed pair.
// Skew and ManualSpread persist across re-quotes of the same pair and are
// reset when the active pair changes.
type Context struct {
	OrderSize    float64
	Skew         float64
	ManualSpread float64
	Variant      spreads.Variant
}

// NewContext creates a context with zero skew and manual spread.
func NewContext(orderSize float64, variant spreads.Variant) *Context {
	return &Context{OrderSize: orderSize, Variant: variant}
}

// Reset clears the per-pair adjustments. Order size and variant are
// desk-level settings and survive a pair change.
func (c *Context) Reset() {
	c.Skew = 0
	c.ManualSpread = 0
}

// Widen increases the manual spread by half a pip.
func (c *Context) Widen() {
	c.ManualSpread += ManualSpreadStep
	c.snapManualSpread()
}

// Tighten decreases the manual spread by half a pip.
func (c *Context) Tighten() {
	c.ManualSpread -= ManualSpreadStep
	c.snapManualSpread()
}

func (c *Context) snapManualSpread() {
	if math.Abs(c.ManualSpread) < 1e-6 {
		c.ManualSpread = 0
	}
}
