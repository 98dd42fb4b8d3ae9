package series

import (
	"math"
	"slices"
	"sort"
	"time"
)

// Point is a single sample of one series. Points are immutable once they
// have been handed to the engine.
type Point struct {
	// Timestamp of the sample. The zero time marks a timestamp that could not
	// be parsed.
	Timestamp time.Time
	Value     float64
	// Null marks a sample without a value.
	Null     bool
	Quality  Quality
	SeriesID string
}

// At builds a good-quality point at the given epoch millisecond.
func At(ms int64, value float64) Point {
	return Point{
		Timestamp: time.UnixMilli(ms),
		Value:     value,
		Quality:   GoodQuality,
	}
}

// HasTime reports whether the point's timestamp was parsed.
func (p Point) HasTime() bool {
	return !p.Timestamp.IsZero()
}

// HasValue reports whether the point carries a finite value.
func (p Point) HasValue() bool {
	return !p.Null && !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)
}

// Usable reports whether the point can take part in geometry or regression.
func (p Point) Usable() bool {
	return p.HasTime() && p.HasValue()
}

// Millis returns the point's timestamp in epoch milliseconds.
func (p Point) Millis() float64 {
	return Millis(p.Timestamp)
}

// Millis converts t into fractional epoch milliseconds.
func Millis(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Millisecond)
}

// FromMillis converts fractional epoch milliseconds into a time.
func FromMillis(ms float64) time.Time {
	return time.Unix(0, int64(math.Round(ms*float64(time.Millisecond))))
}

// Sorted returns a copy of points ordered by timestamp. Points without a
// parsed timestamp are dropped; points without a value are kept so that
// callers can treat them as gaps.
func Sorted(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.HasTime() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Usable returns a copy of the usable points ordered by timestamp.
func Usable(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Usable() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Map holds the points of every series keyed by series identifier.
type Map map[string][]Point

// IDs returns the series identifiers in lexical order.
func (m Map) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Only returns the subset of m whose identifiers are in ids. Identifiers
// not present in m are ignored.
func (m Map) Only(ids ...string) Map {
	out := make(Map, len(ids))
	for _, id := range ids {
		if points, ok := m[id]; ok {
			out[id] = points
		}
	}
	return out
}

// Clone returns a copy of m whose point slices do not alias m's.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for id, points := range m {
		out[id] = slices.Clone(points)
	}
	return out
}

// Len returns the total number of points across all series.
func (m Map) Len() int {
	n := 0
	for _, points := range m {
		n += len(points)
	}
	return n
}
