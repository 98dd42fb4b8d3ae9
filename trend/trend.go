// Package trend fits least-squares trend lines to time series.
package trend

import (
	"fmt"
	"math"

	"git.sr.ht/~whereswaldon/guideplot/series"
)

// millisPerMinute converts a per-millisecond slope into a per-minute one.
const millisPerMinute = 60_000

// Point is a coordinate of a trend line. X is in epoch milliseconds.
type Point struct {
	X float64
	Y float64
}

// Result describes the trend line of one series.
type Result struct {
	// Endpoints are the fitted line evaluated at the first and last usable
	// samples.
	Endpoints     [2]Point
	EquationLabel string
	RSquared      float64
	// SlopePerMinute is the rate of change in value units per minute.
	SlopePerMinute float64
	// Intercept is the fitted value at the first usable sample.
	Intercept         float64
	StandardDeviation float64
	// Variance is the population variance of the values.
	Variance float64

	origin float64
	slope  float64
}

// ValueAt evaluates the trend line at the given epoch millisecond.
func (r *Result) ValueAt(ms float64) float64 {
	return r.Intercept + r.slope*(ms-r.origin)
}

// Compute fits a line to the usable points by ordinary least squares. It
// returns nil when fewer than two usable points remain or when every usable
// point shares one timestamp.
func Compute(points []series.Point) *Result {
	usable := series.Usable(points)
	if len(usable) < 2 {
		return nil
	}
	// Epoch milliseconds and totalizer values are large enough that their
	// squares lose precision, so both axes are measured from the first sample
	// and centred on their means before any products are summed.
	origin, base := usable[0].Millis(), usable[0].Value
	n := float64(len(usable))
	var meanX, meanY float64
	for _, p := range usable {
		meanX += p.Millis() - origin
		meanY += p.Value - base
	}
	meanX /= n
	meanY /= n

	var sxx, sxy, syy float64
	for _, p := range usable {
		dx := p.Millis() - origin - meanX
		dy := p.Value - base - meanY
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return nil
	}
	slope := sxy / sxx
	intercept := base + meanY - slope*meanX

	var rSquared float64
	if syy > 0 {
		rSquared = min(sxy*sxy/(sxx*syy), 1)
	}
	variance := syy / n

	last := usable[len(usable)-1].Millis()
	perMinute := slope * millisPerMinute
	return &Result{
		Endpoints: [2]Point{
			{X: origin, Y: intercept},
			{X: last, Y: intercept + slope*(last-origin)},
		},
		EquationLabel:     Label(perMinute),
		RSquared:          rSquared,
		SlopePerMinute:    perMinute,
		Intercept:         intercept,
		StandardDeviation: math.Sqrt(variance),
		Variance:          variance,
		origin:            origin,
		slope:             slope,
	}
}

// Label formats a per-minute rate of change with an explicit sign.
func Label(perMinute float64) string {
	s := fmt.Sprintf("%+.3f/min", perMinute)
	if s == "-0.000/min" {
		// Rates that round to zero are shown unsigned-positive.
		return "+0.000/min"
	}
	return s
}

// ComputeAll computes the trend of every series in m. Series without a trend
// map to nil.
func ComputeAll(m series.Map) map[string]*Result {
	out := make(map[string]*Result, len(m))
	for id, points := range m {
		out[id] = Compute(points)
	}
	return out
}
