package main

import (
	"image/color"
	"math"
)

// seriesColors spreads hues around the wheel by the golden angle so that
// neighbouring series never look alike.
var seriesColors = func() []color.NRGBA {
	const target = 20
	out := make([]color.NRGBA, 0, target)
	for i := 0; i < target; i++ {
		hue := math.Mod(float64(i)*math.Phi, 1)
		out = append(out, hsl(hue, 0.55, 0.42))
	}
	return out
}()

func seriesColor(i int) color.NRGBA {
	if i < 0 {
		return color.NRGBA{A: 0xff}
	}
	return seriesColors[i%len(seriesColors)]
}

// hsl converts an opaque color from hue, saturation and lightness, each in
// [0, 1].
func hsl(h, s, l float64) color.NRGBA {
	chroma := (1 - math.Abs(2*l-1)) * s
	sector := h * 6
	x := chroma * (1 - math.Abs(math.Mod(sector, 2)-1))
	var r, g, b float64
	switch {
	case sector < 1:
		r, g = chroma, x
	case sector < 2:
		r, g = x, chroma
	case sector < 3:
		g, b = chroma, x
	case sector < 4:
		g, b = x, chroma
	case sector < 5:
		r, b = x, chroma
	default:
		r, b = chroma, x
	}
	m := l - chroma/2
	channel := func(v float64) uint8 {
		return uint8(math.Round((v + m) * 255))
	}
	return color.NRGBA{R: channel(r), G: channel(g), B: channel(b), A: 0xff}
}
