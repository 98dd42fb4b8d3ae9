package main

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"time"

	"git.sr.ht/~whereswaldon/guideplot/series"
)

// Shape is the waveform of a synthetic series.
type Shape uint8

const (
	Sine Shape = iota
	Ramp
	Square
	shapeCount
)

func (s Shape) String() string {
	switch s {
	case Sine:
		return "sine"
	case Ramp:
		return "ramp"
	case Square:
		return "square"
	default:
		return "unknown"
	}
}

const (
	sinePeriod   = time.Minute
	rampPeriod   = 2 * time.Minute
	squarePeriod = time.Minute
	amplitude    = 40.0
	midline      = 50.0
)

// value evaluates the waveform elapsed after the generator started. The
// offset shifts each series so that series of the same shape stay apart.
func (s Shape) value(elapsed time.Duration, offset float64) float64 {
	switch s {
	case Sine:
		phase := 2 * math.Pi * elapsed.Seconds() / sinePeriod.Seconds()
		return midline + offset + amplitude*math.Sin(phase)
	case Ramp:
		frac := math.Mod(elapsed.Seconds(), rampPeriod.Seconds()) / rampPeriod.Seconds()
		return midline + offset - amplitude + 2*amplitude*frac
	case Square:
		if math.Mod(elapsed.Seconds(), squarePeriod.Seconds()) < squarePeriod.Seconds()/2 {
			return midline + offset + amplitude/2
		}
		return midline + offset - amplitude/2
	}
	return midline + offset
}

type waveform struct {
	name  string
	shape Shape
	// offset separates series sharing a shape.
	offset float64
}

// generator produces rows of a long-format trace.
type generator struct {
	waveforms []waveform
	noise     float64
	nullEvery int
	// uncertainRate is the probability that a sample is marked uncertain.
	uncertainRate float64
	rng           *rand.Rand
	start         time.Time
	tick          int
}

func newGenerator(count int, noise float64, nullEvery int, start time.Time, rng *rand.Rand) *generator {
	g := &generator{
		noise:         noise,
		nullEvery:     nullEvery,
		uncertainRate: 0.02,
		rng:           rng,
		start:         start,
	}
	for i := 0; i < count; i++ {
		shape := Shape(i % int(shapeCount))
		g.waveforms = append(g.waveforms, waveform{
			name:   fmt.Sprintf("%s-%d", shape, i+1),
			shape:  shape,
			offset: float64(i/int(shapeCount)) * 10,
		})
	}
	return g
}

func (g *generator) writeHeadings(w io.Writer) error {
	_, err := fmt.Fprintln(w, "series,timestamp,value,quality")
	return err
}

// writeSample emits one row per signal for the instant now.
func (g *generator) writeSample(w io.Writer, now time.Time) error {
	g.tick++
	elapsed := now.Sub(g.start)
	for i, sig := range g.waveforms {
		value := ""
		if g.nullEvery <= 0 || (g.tick+i)%g.nullEvery != 0 {
			v := sig.shape.value(elapsed, sig.offset)
			if g.noise > 0 {
				v += g.rng.NormFloat64() * g.noise * amplitude
			}
			value = strconv.FormatFloat(v, 'f', 3, 64)
		}
		quality := series.CodeGood
		if g.rng.Float64() < g.uncertainRate {
			quality = series.CodeUncertain
		}
		if _, err := fmt.Fprintf(w, "%s,%d,%s,%d\n", sig.name, now.UnixMilli(), value, quality); err != nil {
			return err
		}
	}
	return nil
}
