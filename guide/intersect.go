package guide

import (
	"sort"
	"time"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/guideplot/plot"
	"git.sr.ht/~whereswaldon/guideplot/series"
)

// DefaultEdgeTolerance is how far from a vertical line the first or last
// sample of a series may be and still be reported as its intersection.
const DefaultEdgeTolerance = time.Second

// Intersection is a point where a guide line crosses a series.
type Intersection struct {
	LineID   string
	SeriesID string
	// Pixel is relative to the plotting rectangle.
	Pixel f32.Point
	DataX time.Time
	DataY float64
}

// Detector finds guide line intersections.
type Detector struct {
	// EdgeTolerance bounds the distance between a vertical line and a
	// series' first or last sample when the line lies outside the
	// series' time span. Values are never extrapolated.
	EdgeTolerance time.Duration
}

// Compute finds the intersections of every line with every series using
// DefaultEdgeTolerance.
func Compute(lines []Line, m series.Map, b plot.Bounds, s plot.Scale) []Intersection {
	return Detector{EdgeTolerance: DefaultEdgeTolerance}.Compute(lines, m, b, s)
}

// Compute finds the intersections of every line with every series. Results
// are ordered by line, then by series identifier, then by time.
func (d Detector) Compute(lines []Line, m series.Map, b plot.Bounds, s plot.Scale) []Intersection {
	if len(lines) == 0 || len(m) == 0 {
		return nil
	}
	ids := m.IDs()
	sorted := make([][]series.Point, len(ids))
	for i, id := range ids {
		sorted[i] = series.Sorted(m[id])
	}
	var out []Intersection
	for _, l := range lines {
		for i, id := range ids {
			switch l.Kind {
			case Horizontal:
				out = d.horizontal(out, l, id, sorted[i], b, s)
			case Vertical:
				out = d.vertical(out, l, id, sorted[i], b, s)
			}
		}
	}
	return out
}

func (d Detector) horizontal(out []Intersection, l Line, id string, points []series.Point, b plot.Bounds, s plot.Scale) []Intersection {
	y := l.Position
	// onLine is set while the previous segment ended exactly on the line.
	// A segment starting there continues a vertex hit or a flat run that has
	// already been reported.
	onLine := false
	for i := 1; i < len(points); i++ {
		p1, p2 := points[i-1], points[i]
		if !p1.HasValue() || !p2.HasValue() {
			onLine = false
			continue
		}
		continues := onLine && p1.Value == y
		onLine = p2.Value == y
		if continues || y < min(p1.Value, p2.Value) || y > max(p1.Value, p2.Value) {
			continue
		}
		t1, t2 := p1.Millis(), p2.Millis()
		x := t1
		if p1.Value != p2.Value {
			ratio := (y - p1.Value) / (p2.Value - p1.Value)
			x = t1 + ratio*(t2-t1)
		}
		out = append(out, intersection(l.ID, id, x, y, b, s))
	}
	return out
}

func (d Detector) vertical(out []Intersection, l Line, id string, points []series.Point, b plot.Bounds, s plot.Scale) []Intersection {
	usable := points[:0:0]
	for _, p := range points {
		if p.HasValue() {
			usable = append(usable, p)
		}
	}
	if len(usable) == 0 {
		return out
	}
	x := l.Position
	// after is the first sample at or past the line.
	after := sort.Search(len(usable), func(i int) bool {
		return usable[i].Millis() >= x
	})
	if after < len(usable) && usable[after].Millis() == x {
		return append(out, intersection(l.ID, id, x, usable[after].Value, b, s))
	}
	before := after - 1
	switch {
	case before >= 0 && after < len(usable):
		p1, p2 := usable[before], usable[after]
		t1, t2 := p1.Millis(), p2.Millis()
		ratio := (x - t1) / (t2 - t1)
		y := p1.Value + ratio*(p2.Value-p1.Value)
		return append(out, intersection(l.ID, id, x, y, b, s))
	case before >= 0:
		return d.edge(out, l, id, usable[before], b, s)
	case after < len(usable):
		return d.edge(out, l, id, usable[after], b, s)
	}
	return out
}

func (d Detector) edge(out []Intersection, l Line, id string, p series.Point, b plot.Bounds, s plot.Scale) []Intersection {
	tolerance := float64(d.EdgeTolerance) / float64(time.Millisecond)
	if dist := p.Millis() - l.Position; dist > tolerance || -dist > tolerance {
		return out
	}
	return append(out, intersection(l.ID, id, l.Position, p.Value, b, s))
}

func intersection(lineID, seriesID string, x, y float64, b plot.Bounds, s plot.Scale) Intersection {
	return Intersection{
		LineID:   lineID,
		SeriesID: seriesID,
		Pixel:    plot.DataToPixel(x, y, b, s),
		DataX:    series.FromMillis(x),
		DataY:    y,
	}
}

// Cache memoizes the intersections of a chart. Results are recomputed in
// full whenever the store revision, the data revision or the geometry
// changes.
type Cache struct {
	Detector Detector

	valid   bool
	lineRev uint64
	dataRev uint64
	bounds  plot.Bounds
	scale   plot.Scale
	visible string
	results []Intersection
}

// Get returns the intersections of the store's lines with m. dataRev must
// change whenever the contents of m change; visible identifies the subset of
// series in m (for instance a joined list of ids) so that toggling series
// invalidates the cache.
func (c *Cache) Get(store *Store, m series.Map, dataRev uint64, visible string, b plot.Bounds, s plot.Scale) []Intersection {
	if c.valid &&
		c.lineRev == store.Revision() &&
		c.dataRev == dataRev &&
		c.visible == visible &&
		c.bounds == b &&
		c.scale == s {
		return c.results
	}
	c.results = c.Detector.Compute(store.Lines(), m, b, s)
	c.lineRev = store.Revision()
	c.dataRev = dataRev
	c.visible = visible
	c.bounds = b
	c.scale = s
	c.valid = true
	return c.results
}

// Invalidate forces the next Get to recompute.
func (c *Cache) Invalidate() {
	c.valid = false
}
