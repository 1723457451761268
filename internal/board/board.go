// Package board renders the desk state as a terminal quote board.
package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fxdesk/fxdesk/internal/domain"
	"github.com/fxdesk/fxdesk/internal/services/pipvalue"
	"github.com/fxdesk/fxdesk/internal/services/spreads"
)

var (
	pairStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	pipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}).
			Bold(true).
			Padding(0, 2)

	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"})
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#626262"})

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2)
)

// View is everything the board needs for one frame.
type View struct {
	Quote     domain.Quote
	Inverse   domain.InverseQuote
	PipValue  pipvalue.Result
	OrderSize float64
	Variant   spreads.Variant
}

// Render draws one frame of the quote board.
func Render(v View) string {
	q := v.Quote
	if q.Pair.IsZero() {
		return frameStyle.Render(labelStyle.Render("no active pair"))
	}
	if !q.HasData() {
		return frameStyle.Render(pairStyle.Render(q.Pair.String()) + "\n" + labelStyle.Render("waiting for data"))
	}

	title := pairStyle.Render(q.Pair.String())
	if q.Synthetic {
		title += labelStyle.Render("  synthetic")
	}
	if q.LowConfidence {
		title += downStyle.Render("  low confidence")
	}

	bid := directionStyle(q.BidDirection).Render(q.BidDirection.Arrow()) + pipStyle.Render(q.PipsBid)
	offer := pipStyle.Render(q.PipsOffer) + directionStyle(q.OfferDirection).Render(q.OfferDirection.Arrow())
	ladder := lipgloss.JoinHorizontal(lipgloss.Center, bid, labelStyle.Render(q.PipsMid), offer)

	dp := q.RoundDP
	if dp <= 0 {
		dp = 5
	}

	var b strings.Builder
	b.WriteString(title + "\n\n")
	b.WriteString(ladder + "\n\n")
	b.WriteString(fmt.Sprintf("%s %.*f / %.*f\n", labelStyle.Render("two-way"), dp, q.Bid, dp, q.Offer))
	b.WriteString(fmt.Sprintf("%s %.1f pips   %s %.0fm %s\n",
		labelStyle.Render("spread"), q.SpreadPips,
		labelStyle.Render("size"), v.OrderSize, labelStyle.Render(string(v.Variant))))

	if q.High > 0 && q.Low > 0 {
		rangeLabel := "near lows"
		if q.NearHighs {
			rangeLabel = "near highs"
		}
		b.WriteString(fmt.Sprintf("%s %.*f - %.*f (%s)\n",
			labelStyle.Render("range"), dp, q.Low, dp, q.High, rangeLabel))
	}

	if !v.Inverse.Pair.IsZero() {
		b.WriteString(fmt.Sprintf("%s %s %s / %s\n",
			labelStyle.Render("inverse"), v.Inverse.Pair.String(),
			v.Inverse.PipsBid, v.Inverse.PipsOffer))
	}

	if v.PipValue.Available() {
		b.WriteString(fmt.Sprintf("%s %s per 1m, %s at size\n",
			labelStyle.Render("pip"),
			pipvalue.FormatCompact(v.PipValue),
			pipvalue.FormatCompactScaled(v.PipValue, v.OrderSize)))
	}

	return frameStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func directionStyle(d domain.Direction) lipgloss.Style {
	switch d {
	case domain.DirectionUp:
		return upStyle
	case domain.DirectionDown:
		return downStyle
	default:
		return labelStyle
	}
}
