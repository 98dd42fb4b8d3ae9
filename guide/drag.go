package guide

import (
	"math"

	"gioui.org/f32"
	"gioui.org/io/pointer"

	"git.sr.ht/~whereswaldon/guideplot/plot"
)

// CommandOp identifies the change a Command makes to a line.
type CommandOp uint8

const (
	// BeginDrag marks the line as being dragged.
	BeginDrag CommandOp = iota
	// Move sets the line's position.
	Move
	// EndDrag clears the line's dragging mark.
	EndDrag
)

func (o CommandOp) String() string {
	switch o {
	case BeginDrag:
		return "begin"
	case Move:
		return "move"
	case EndDrag:
		return "end"
	default:
		return "?"
	}
}

// Command is a change to one guide line, produced by the Controller and
// consumed by Store.Apply.
type Command struct {
	Op       CommandOp
	LineID   string
	Position float64
}

// DragState tracks the line being dragged. StartPosition is retained but not
// used to roll the line back.
type DragState struct {
	LineID          string
	StartPosition   float64
	CurrentPosition float64
}

// State is the state of a Controller.
type State uint8

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Controller turns pointer input into guide line commands. At most one line
// is dragged at a time.
type Controller struct {
	drag   DragState
	active bool
}

// State returns the controller's current state.
func (c *Controller) State() State {
	if c.active {
		return Dragging
	}
	return Idle
}

// Drag returns the active drag, if any.
func (c *Controller) Drag() (DragState, bool) {
	return c.drag, c.active
}

// Begin starts dragging the line with the given identifier. It does nothing
// while another drag is active or when the line does not exist.
func (c *Controller) Begin(lines Lines, id string) (Command, bool) {
	if c.active {
		return Command{}, false
	}
	l, ok := lines.Line(id)
	if !ok {
		return Command{}, false
	}
	c.drag = DragState{
		LineID:          id,
		StartPosition:   l.Position,
		CurrentPosition: l.Position,
	}
	c.active = true
	return Command{Op: BeginDrag, LineID: id, Position: l.Position}, true
}

// Move drags the active line to the data-space position under pixel, which
// must be relative to the plotting rectangle. The position is clamped to the
// scale of the line's axis.
func (c *Controller) Move(lines Lines, pixel f32.Point, b plot.Bounds, s plot.Scale) (Command, bool) {
	if !c.active {
		return Command{}, false
	}
	l, ok := lines.Line(c.drag.LineID)
	if !ok {
		return Command{}, false
	}
	var pos float64
	switch l.Kind {
	case Horizontal:
		pos = plot.Clamp(plot.PixelToDataY(float64(pixel.Y), b, s), s.YMin, s.YMax)
	case Vertical:
		pos = plot.Clamp(plot.PixelToDataX(float64(pixel.X), b, s), s.XMin, s.XMax)
	default:
		return Command{}, false
	}
	c.drag.CurrentPosition = pos
	return Command{Op: Move, LineID: l.ID, Position: pos}, true
}

// End finishes the active drag. The controller always returns to Idle; a
// command is produced only if the dragged line still exists.
func (c *Controller) End(lines Lines) (Command, bool) {
	if !c.active {
		return Command{}, false
	}
	id := c.drag.LineID
	c.active = false
	c.drag = DragState{}
	if _, ok := lines.Line(id); !ok {
		return Command{}, false
	}
	return Command{Op: EndDrag, LineID: id}, true
}

// HitTest returns the line closest to local, a plotting-rectangle-relative
// position, if one lies within slop pixels.
func HitTest(lines []Line, local f32.Point, b plot.Bounds, s plot.Scale, slop float32) (Line, bool) {
	var (
		best  Line
		found bool
		bestD = float32(math.MaxFloat32)
	)
	for _, l := range lines {
		var d float32
		switch l.Kind {
		case Horizontal:
			d = abs(float32(plot.DataToPixelY(l.Position, b, s)) - local.Y)
		case Vertical:
			d = abs(float32(plot.DataToPixelX(l.Position, b, s)) - local.X)
		default:
			continue
		}
		if d <= slop && d < bestD {
			best, bestD, found = l, d, true
		}
	}
	return best, found
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// View is the geometry a pointer event is interpreted against.
type View struct {
	Bounds plot.Bounds
	Scale  plot.Scale
	// Slop is the distance in pixels within which a press grabs a line.
	Slop float32
}

// LineSource is a Lines that can also enumerate its lines for hit testing.
type LineSource interface {
	Lines
	Lines() []Line
}

// Update translates a pointer event, whose position is relative to the chart
// widget, into commands. A primary-button press on a line starts a drag;
// moves while dragging update the line; release, leave and cancel end the
// drag.
func (c *Controller) Update(lines LineSource, ev pointer.Event, v View) []Command {
	local := v.Bounds.Local(ev.Position)
	switch ev.Kind {
	case pointer.Press:
		if c.active || (ev.Buttons != 0 && !ev.Buttons.Contain(pointer.ButtonPrimary)) {
			return nil
		}
		l, ok := HitTest(lines.Lines(), local, v.Bounds, v.Scale, v.Slop)
		if !ok {
			return nil
		}
		if cmd, ok := c.Begin(lines, l.ID); ok {
			return []Command{cmd}
		}
	case pointer.Drag, pointer.Move:
		if cmd, ok := c.Move(lines, local, v.Bounds, v.Scale); ok {
			return []Command{cmd}
		}
	case pointer.Release, pointer.Leave, pointer.Cancel:
		if cmd, ok := c.End(lines); ok {
			return []Command{cmd}
		}
	}
	return nil
}
