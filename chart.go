package main

import (
	"fmt"
	"image"
	"image/color"
	"slices"
	"strconv"
	"strings"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"git.sr.ht/~whereswaldon/guideplot/backend"
	"git.sr.ht/~whereswaldon/guideplot/guide"
	"git.sr.ht/~whereswaldon/guideplot/plot"
	"git.sr.ht/~whereswaldon/guideplot/series"
	"git.sr.ht/~whereswaldon/guideplot/trend"
)

const (
	yTicks     = 5
	xTicks     = 4
	timeLayout = "15:04:05"
)

// Chart draws the enabled series of a snapshot together with the guide lines
// the user has placed over them.
type Chart struct {
	store   *guide.Store
	drag    guide.Controller
	cache   guide.Cache
	hitSlop unit.Dp

	AxisLabels widget.Bool
	ShowTrend  widget.Bool

	snapshot backend.Snapshot
	ids      []string
	Enabled  map[string]*widget.Bool
	trends   map[string]*trend.Result

	// Per-frame geometry, kept so that the toolbar and the stats table can
	// act on what was last drawn.
	bounds        plot.Bounds
	scale         plot.Scale
	visible       series.Map
	intersections []guide.Intersection

	pos       f32.Point
	isHovered bool
}

func NewChart(store *guide.Store, detector guide.Detector, hitSlop unit.Dp, axisLabels, showTrend bool) *Chart {
	c := &Chart{
		store:   store,
		hitSlop: hitSlop,
		Enabled: map[string]*widget.Bool{},
	}
	c.cache.Detector = detector
	c.AxisLabels.Value = axisLabels
	c.ShowTrend.Value = showTrend
	return c
}

// SetSnapshot replaces the plotted data.
func (c *Chart) SetSnapshot(s backend.Snapshot) {
	if s.Revision == c.snapshot.Revision {
		return
	}
	c.snapshot = s
	c.ids = s.Series.IDs()
	for _, id := range c.ids {
		if _, ok := c.Enabled[id]; !ok {
			c.Enabled[id] = &widget.Bool{Value: true}
		}
	}
	c.trends = trend.ComputeAll(s.Series)
}

// IDs returns the series of the current snapshot in display order.
func (c *Chart) IDs() []string {
	return c.ids
}

func (c *Chart) visibleIDs() []string {
	out := make([]string, 0, len(c.ids))
	for _, id := range c.ids {
		if c.Enabled[id].Value {
			out = append(out, id)
		}
	}
	return out
}

// Scale returns the data window of the last frame.
func (c *Chart) Scale() plot.Scale {
	return c.scale
}

// Trend returns the trend of a series, or nil when none can be fitted.
func (c *Chart) Trend(id string) *trend.Result {
	return c.trends[id]
}

// Crossings counts the guide line intersections of a series in the last
// frame.
func (c *Chart) Crossings(id string) int {
	n := 0
	for _, in := range c.intersections {
		if in.SeriesID == id {
			n++
		}
	}
	return n
}

func (c *Chart) Update(gtx C) {
	c.AxisLabels.Update(gtx)
	c.ShowTrend.Update(gtx)
	for _, id := range c.ids {
		c.Enabled[id].Update(gtx)
	}
	view := guide.View{
		Bounds: c.bounds,
		Scale:  c.scale,
		Slop:   float32(gtx.Dp(c.hitSlop)),
	}
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: c,
			Kinds:  pointer.Press | pointer.Release | pointer.Drag | pointer.Move | pointer.Enter | pointer.Leave | pointer.Cancel,
		})
		if !ok {
			break
		}
		e, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch e.Kind {
		case pointer.Enter, pointer.Move, pointer.Drag:
			c.isHovered = true
			c.pos = e.Position
		case pointer.Leave, pointer.Cancel:
			c.isHovered = false
		}
		if e.Kind == pointer.Press && e.Buttons.Contain(pointer.ButtonSecondary) {
			local := view.Bounds.Local(e.Position)
			if l, ok := guide.HitTest(c.store.Lines(), local, view.Bounds, view.Scale, view.Slop); ok {
				c.store.Remove(l.ID)
			}
			continue
		}
		for _, cmd := range c.drag.Update(c.store, e, view) {
			c.store.Apply(cmd)
		}
	}
}

// AddLine places a new guide line in the middle of the visible window.
func (c *Chart) AddLine(kind guide.Kind) error {
	pos := (c.scale.YMin + c.scale.YMax) / 2
	if kind == guide.Vertical {
		pos = (c.scale.XMin + c.scale.XMax) / 2
	}
	_, err := c.store.Add(kind, pos)
	return err
}

// ClearLines removes every guide line and abandons any drag in progress.
func (c *Chart) ClearLines() {
	c.drag.End(c.store)
	c.store.Clear()
}

func (c *Chart) Layout(gtx C, th *material.Theme) D {
	size := gtx.Constraints.Max
	pad := plot.AxisPadding(c.AxisLabels.Value).Scaled(float64(gtx.Metric.PxPerDp))
	c.bounds = plot.CalculateBounds(float64(size.X), float64(size.Y), pad)
	visibleIDs := c.visibleIDs()
	c.visible = c.snapshot.Series.Only(visibleIDs...)
	c.scale = plot.CalculateScale(c.visible)
	c.Update(gtx)
	c.intersections = c.cache.Get(c.store, c.visible, c.snapshot.Revision, strings.Join(visibleIDs, "\x00"), c.bounds, c.scale)

	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, c)
	c.layoutCursor(gtx)

	if c.AxisLabels.Value {
		c.layoutAxes(gtx, th)
	}

	origin := image.Pt(int(c.bounds.LeftPad), int(c.bounds.TopPad))
	graph := image.Pt(int(c.bounds.GraphWidth), int(c.bounds.GraphHeight))
	defer op.Offset(origin).Push(gtx.Ops).Pop()
	paint.FillShape(gtx.Ops, color.NRGBA{A: 80}, clip.Stroke{
		Path:  clip.Rect{Max: graph}.Path(),
		Width: float32(gtx.Dp(1)),
	}.Op())
	area := clip.Rect{Max: graph}.Push(gtx.Ops)
	for i, id := range c.ids {
		if !c.Enabled[id].Value {
			continue
		}
		c.layoutSeries(gtx, c.visible[id], seriesColor(i))
		if c.ShowTrend.Value {
			c.layoutTrend(gtx, c.trends[id], seriesColor(i))
		}
	}
	lines := c.store.Lines()
	for _, l := range lines {
		c.layoutGuide(gtx, l)
	}
	area.Pop()

	for _, l := range lines {
		c.layoutGuideLabel(gtx, th, l)
	}
	for _, in := range c.intersections {
		c.layoutIntersection(gtx, th, in)
	}
	return D{Size: size}
}

// layoutCursor shows a resize cursor over a line that a press would grab.
func (c *Chart) layoutCursor(gtx C) {
	if _, dragging := c.drag.Drag(); !dragging && !c.isHovered {
		return
	}
	if d, dragging := c.drag.Drag(); dragging {
		if l, ok := c.store.Line(d.LineID); ok {
			cursorFor(l.Kind).Add(gtx.Ops)
		}
		return
	}
	local := c.bounds.Local(c.pos)
	if l, ok := guide.HitTest(c.store.Lines(), local, c.bounds, c.scale, float32(gtx.Dp(c.hitSlop))); ok {
		cursorFor(l.Kind).Add(gtx.Ops)
	}
}

func cursorFor(kind guide.Kind) pointer.Cursor {
	if kind == guide.Horizontal {
		return pointer.CursorRowResize
	}
	return pointer.CursorColResize
}

func rec(gtx C, w layout.Widget) (D, op.CallOp) {
	macro := op.Record(gtx.Ops)
	dims := w(gtx)
	call := macro.Stop()
	return dims, call
}

// drawAt lays out w with its top-left corner at p.
func drawAt(gtx C, p image.Point, call op.CallOp) {
	defer op.Offset(p).Push(gtx.Ops).Pop()
	call.Add(gtx.Ops)
}

func (c *Chart) layoutAxes(gtx C, th *material.Theme) {
	gtx.Constraints.Min = image.Point{}
	left, top := int(c.bounds.LeftPad), int(c.bounds.TopPad)
	gap := gtx.Dp(4)
	grid := color.NRGBA{A: 30}
	for i := 0; i <= yTicks; i++ {
		v := c.scale.YMin + (c.scale.YMax-c.scale.YMin)*float64(i)/yTicks
		y := top + int(plot.DataToPixelY(v, c.bounds, c.scale))
		paint.FillShape(gtx.Ops, grid, clip.Rect{
			Min: image.Pt(left, y),
			Max: image.Pt(left+int(c.bounds.GraphWidth), y+gtx.Dp(1)),
		}.Op())
		dims, call := rec(gtx, material.Caption(th, strconv.FormatFloat(v, 'f', 2, 64)).Layout)
		drawAt(gtx, image.Pt(left-gap-dims.Size.X, y-dims.Size.Y/2), call)
	}
	bottom := top + int(c.bounds.GraphHeight)
	for i := 0; i <= xTicks; i++ {
		ms := c.scale.XMin + (c.scale.XMax-c.scale.XMin)*float64(i)/xTicks
		x := left + int(plot.DataToPixelX(ms, c.bounds, c.scale))
		paint.FillShape(gtx.Ops, grid, clip.Rect{
			Min: image.Pt(x, top),
			Max: image.Pt(x+gtx.Dp(1), bottom),
		}.Op())
		dims, call := rec(gtx, material.Caption(th, series.FromMillis(ms).Format(timeLayout)).Layout)
		drawAt(gtx, image.Pt(x-dims.Size.X/2, bottom+gap), call)
	}
}

// layoutSeries strokes a series as a polyline, leaving gaps at null values.
func (c *Chart) layoutSeries(gtx C, points []series.Point, col color.NRGBA) {
	var p clip.Path
	p.Begin(gtx.Ops)
	pen := false
	for _, pt := range series.Sorted(points) {
		if !pt.Usable() {
			pen = false
			continue
		}
		px := plot.DataToPixel(pt.Millis(), pt.Value, c.bounds, c.scale)
		if pen {
			p.LineTo(px)
		} else {
			p.MoveTo(px)
			pen = true
		}
	}
	paint.FillShape(gtx.Ops, col, clip.Stroke{
		Path:  p.End(),
		Width: float32(gtx.Dp(1.5)),
	}.Op())
}

func (c *Chart) layoutTrend(gtx C, r *trend.Result, col color.NRGBA) {
	if r == nil {
		return
	}
	col.A = 140
	var p clip.Path
	p.Begin(gtx.Ops)
	p.MoveTo(plot.DataToPixel(r.Endpoints[0].X, r.Endpoints[0].Y, c.bounds, c.scale))
	p.LineTo(plot.DataToPixel(r.Endpoints[1].X, r.Endpoints[1].Y, c.bounds, c.scale))
	paint.FillShape(gtx.Ops, col, clip.Stroke{
		Path:  p.End(),
		Width: float32(gtx.Dp(1)),
	}.Op())
}

func (c *Chart) guideEnds(l guide.Line) (f32.Point, f32.Point) {
	if l.Kind == guide.Horizontal {
		y := float32(plot.DataToPixelY(l.Position, c.bounds, c.scale))
		return f32.Pt(0, y), f32.Pt(float32(c.bounds.GraphWidth), y)
	}
	x := float32(plot.DataToPixelX(l.Position, c.bounds, c.scale))
	return f32.Pt(x, 0), f32.Pt(x, float32(c.bounds.GraphHeight))
}

func (c *Chart) layoutGuide(gtx C, l guide.Line) {
	width := unit.Dp(1.5)
	if l.Dragging {
		width = 3
	}
	from, to := c.guideEnds(l)
	var p clip.Path
	p.Begin(gtx.Ops)
	p.MoveTo(from)
	p.LineTo(to)
	paint.FillShape(gtx.Ops, l.Color, clip.Stroke{
		Path:  p.End(),
		Width: float32(gtx.Dp(width)),
	}.Op())
}

// positionLabel formats a guide line's position on its own axis.
func positionLabel(l guide.Line) string {
	if l.Kind == guide.Vertical {
		return series.FromMillis(l.Position).Format(timeLayout)
	}
	return strconv.FormatFloat(l.Position, 'f', 2, 64)
}

func (c *Chart) layoutGuideLabel(gtx C, th *material.Theme, l guide.Line) {
	gtx.Constraints.Min = image.Point{}
	label := material.Caption(th, positionLabel(l))
	label.Color = l.Color
	dims, call := rec(gtx, label.Layout)
	from, to := c.guideEnds(l)
	var at image.Point
	if l.Kind == guide.Horizontal {
		at = image.Pt(int(to.X)-dims.Size.X, int(from.Y)-dims.Size.Y)
	} else {
		at = image.Pt(int(from.X)+gtx.Dp(2), 0)
	}
	drawAt(gtx, at, call)
}

func (c *Chart) layoutIntersection(gtx C, th *material.Theme, in guide.Intersection) {
	col := seriesColor(slices.Index(c.ids, in.SeriesID))
	r := gtx.Dp(4)
	center := image.Pt(int(in.Pixel.X), int(in.Pixel.Y))
	paint.FillShape(gtx.Ops, col, clip.Ellipse{
		Min: center.Sub(image.Pt(r, r)),
		Max: center.Add(image.Pt(r, r)),
	}.Op(gtx.Ops))

	var text string
	if l, ok := c.store.Line(in.LineID); ok && l.Kind == guide.Horizontal {
		text = in.DataX.Format(timeLayout)
	} else {
		text = fmt.Sprintf("%.2f", in.DataY)
	}
	gtx.Constraints.Min = image.Point{}
	label := material.Caption(th, text)
	label.Color = col
	_, call := rec(gtx, label.Layout)
	drawAt(gtx, center.Add(image.Pt(r+gtx.Dp(2), r)), call)
}
