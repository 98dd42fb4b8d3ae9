// Package plot maps between pixel offsets inside a chart's plotting
// rectangle and the data space of the plotted series.
//
// Every pixel coordinate accepted or produced by this package is relative to
// the origin of the plotting rectangle; callers subtract the padding first
// (see [Bounds.Local]).
package plot

import (
	"math"

	"gioui.org/f32"
	"golang.org/x/exp/constraints"
)

// Bounds describes the pixel geometry of a chart widget and its plotting
// rectangle.
type Bounds struct {
	LeftPad, RightPad, TopPad, BottomPad float64
	Width, Height                        float64
	GraphWidth, GraphHeight              float64
}

// Scale is the data-space window shown by a chart. X is in epoch
// milliseconds, Y in measurement units.
type Scale struct {
	XMin, XMax float64
	YMin, YMax float64
}

// PixelToDataY converts a vertical pixel offset into a data value. The
// vertical axis is inverted: offset zero is the top of the plotting rectangle
// and maps to YMax.
func PixelToDataY(pixelY float64, b Bounds, s Scale) float64 {
	if b.GraphHeight == 0 || s.YMax == s.YMin {
		return s.YMin
	}
	ratio := 1 - pixelY/b.GraphHeight
	return s.YMin + ratio*(s.YMax-s.YMin)
}

// PixelToDataX converts a horizontal pixel offset into epoch milliseconds.
func PixelToDataX(pixelX float64, b Bounds, s Scale) float64 {
	if b.GraphWidth == 0 || s.XMax == s.XMin {
		return s.XMin
	}
	ratio := pixelX / b.GraphWidth
	return s.XMin + ratio*(s.XMax-s.XMin)
}

// DataToPixelY converts a data value into a vertical pixel offset.
func DataToPixelY(dataY float64, b Bounds, s Scale) float64 {
	if s.YMax == s.YMin {
		return b.GraphHeight
	}
	ratio := (dataY - s.YMin) / (s.YMax - s.YMin)
	return (1 - ratio) * b.GraphHeight
}

// DataToPixelX converts epoch milliseconds into a horizontal pixel offset.
func DataToPixelX(dataX float64, b Bounds, s Scale) float64 {
	if s.XMax == s.XMin {
		return 0
	}
	ratio := (dataX - s.XMin) / (s.XMax - s.XMin)
	return ratio * b.GraphWidth
}

// DataToPixel converts a data-space coordinate into a pixel position inside
// the plotting rectangle.
func DataToPixel(dataX, dataY float64, b Bounds, s Scale) f32.Point {
	return f32.Pt(float32(DataToPixelX(dataX, b, s)), float32(DataToPixelY(dataY, b, s)))
}

// Local converts a widget-relative position into a position relative to the
// plotting rectangle.
func (b Bounds) Local(p f32.Point) f32.Point {
	return f32.Pt(p.X-float32(b.LeftPad), p.Y-float32(b.TopPad))
}

// Contains reports whether the plotting-rectangle-relative point lies inside
// the plotting rectangle.
func (b Bounds) Contains(local f32.Point) bool {
	x, y := float64(local.X), float64(local.Y)
	return x >= 0 && y >= 0 && x <= b.GraphWidth && y <= b.GraphHeight
}

// Clamp limits v to the closed interval [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// Valid reports whether s can be used for conversions without a fallback.
func (s Scale) Valid() bool {
	for _, v := range []float64{s.XMin, s.XMax, s.YMin, s.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return s.XMin < s.XMax && s.YMin < s.YMax
}
