package plot

import (
	"math"
	"time"

	"git.sr.ht/~whereswaldon/guideplot/series"
)

const (
	// DefaultWindow is the time span shown when no series has a usable
	// timestamp.
	DefaultWindow = time.Hour
	// timeMargin pads a time range that collapsed to a single instant.
	timeMargin = 30 * time.Minute
	// DefaultYMin and DefaultYMax bound the value range shown when no series
	// has a usable value.
	DefaultYMin = 0
	DefaultYMax = 100
)

// CalculateScale derives the data-space window covering every usable sample
// in m. It always returns a non-degenerate scale.
func CalculateScale(m series.Map) Scale {
	return CalculateScaleAt(m, time.Now())
}

// CalculateScaleAt is CalculateScale with an explicit clock, used for the
// default time window when no sample is usable.
func CalculateScaleAt(m series.Map, now time.Time) Scale {
	var (
		s     Scale
		found bool
	)
	for _, points := range m {
		for _, p := range points {
			if !p.Usable() {
				continue
			}
			x := p.Millis()
			if !found {
				s = Scale{XMin: x, XMax: x, YMin: p.Value, YMax: p.Value}
				found = true
				continue
			}
			s.XMin = min(s.XMin, x)
			s.XMax = max(s.XMax, x)
			s.YMin = min(s.YMin, p.Value)
			s.YMax = max(s.YMax, p.Value)
		}
	}
	if !found {
		s.XMax = series.Millis(now)
		s.XMin = s.XMax - float64(DefaultWindow/time.Millisecond)
		s.YMin, s.YMax = DefaultYMin, DefaultYMax
		return s
	}
	if s.XMin == s.XMax {
		margin := float64(timeMargin / time.Millisecond)
		s.XMin -= margin
		s.XMax += margin
	}
	if s.YMin == s.YMax {
		margin := max(math.Abs(s.YMin)*0.1, 1)
		s.YMin -= margin
		s.YMax += margin
	}
	return s
}

// Padding is the space reserved around the plotting rectangle, in pixels.
type Padding struct {
	Left, Right, Top, Bottom float64
}

// AxisPadding returns the padding used when axis labels are shown or hidden.
func AxisPadding(labels bool) Padding {
	if labels {
		return Padding{Left: 60, Right: 20, Top: 20, Bottom: 40}
	}
	return Padding{Left: 10, Right: 10, Top: 10, Bottom: 10}
}

// Scaled multiplies every side of p by factor, converting a padding expressed
// in device-independent units into pixels.
func (p Padding) Scaled(factor float64) Padding {
	return Padding{
		Left:   p.Left * factor,
		Right:  p.Right * factor,
		Top:    p.Top * factor,
		Bottom: p.Bottom * factor,
	}
}

// CalculateBounds computes the plotting rectangle of a widget of the given
// pixel size.
func CalculateBounds(width, height float64, pad Padding) Bounds {
	b := Bounds{
		LeftPad:   max(pad.Left, 0),
		RightPad:  max(pad.Right, 0),
		TopPad:    max(pad.Top, 0),
		BottomPad: max(pad.Bottom, 0),
		Width:     max(width, 0),
		Height:    max(height, 0),
	}
	b.GraphWidth = max(0, b.Width-b.LeftPad-b.RightPad)
	b.GraphHeight = max(0, b.Height-b.TopPad-b.BottomPad)
	return b
}
