package guide

import (
	"testing"

	"gioui.org/f32"
	"gioui.org/io/pointer"

	"git.sr.ht/~whereswaldon/guideplot/plot"
)

var (
	testBounds = plot.Bounds{Width: 100, Height: 100, GraphWidth: 100, GraphHeight: 100}
	testScale  = plot.Scale{XMin: 0, XMax: 1000, YMin: 0, YMax: 100}
)

func apply(s *Store, cmd Command, ok bool) {
	if ok {
		s.Apply(cmd)
	}
}

// applyTo adapts apply to take a controller method's results directly.
func applyTo(s *Store) func(Command, bool) {
	return func(cmd Command, ok bool) {
		apply(s, cmd, ok)
	}
}

func TestDragLifecycle(t *testing.T) {
	s := NewStore(5, testPalette)
	h, _ := s.Add(Horizontal, 50)
	var c Controller
	if c.State() != Idle {
		t.Fatalf("expected a new controller to be idle")
	}
	cmd, ok := c.Begin(s, h.ID)
	if !ok || cmd.Op != BeginDrag {
		t.Fatalf("expected begin command, got %v %v", cmd, ok)
	}
	apply(s, cmd, ok)
	if l, _ := s.Line(h.ID); !l.Dragging {
		t.Errorf("expected line to be marked as dragging")
	}
	drag, active := c.Drag()
	if !active || drag.StartPosition != 50 || drag.CurrentPosition != 50 {
		t.Errorf("expected drag state starting at 50, got %+v", drag)
	}
	if _, ok := c.Begin(s, h.ID); ok {
		t.Errorf("expected a second begin to be rejected while dragging")
	}

	applyTo(s)(mustMove(t, &c, s, f32.Pt(10, 25)))
	if l, _ := s.Line(h.ID); l.Position != 75 {
		t.Errorf("expected position 75, got %v", l.Position)
	}
	applyTo(s)(mustMove(t, &c, s, f32.Pt(10, 40)))
	if l, _ := s.Line(h.ID); l.Position != 60 {
		t.Errorf("expected the last move to win with position 60, got %v", l.Position)
	}
	drag, _ = c.Drag()
	if drag.CurrentPosition != 60 || drag.StartPosition != 50 {
		t.Errorf("expected drag state 50 -> 60, got %+v", drag)
	}

	cmd, ok = c.End(s)
	if !ok || cmd.Op != EndDrag {
		t.Fatalf("expected end command, got %v %v", cmd, ok)
	}
	apply(s, cmd, ok)
	if l, _ := s.Line(h.ID); l.Dragging || l.Position != 60 {
		t.Errorf("expected line released at 60, got %+v", l)
	}
	if c.State() != Idle {
		t.Errorf("expected controller to be idle after end")
	}
	if _, ok := c.Move(s, f32.Pt(0, 0), testBounds, testScale); ok {
		t.Errorf("expected moves while idle to be ignored")
	}
	if _, ok := c.End(s); ok {
		t.Errorf("expected end while idle to be ignored")
	}
}

func mustMove(t *testing.T, c *Controller, s *Store, p f32.Point) (Command, bool) {
	t.Helper()
	cmd, ok := c.Move(s, p, testBounds, testScale)
	if !ok || cmd.Op != Move {
		t.Fatalf("expected move command, got %v %v", cmd, ok)
	}
	return cmd, ok
}

func TestDragClamp(t *testing.T) {
	type testcase struct {
		name   string
		kind   Kind
		pixel  f32.Point
		expect float64
	}
	for _, tc := range []testcase{
		{name: "below bottom edge", kind: Horizontal, pixel: f32.Pt(50, 150), expect: testScale.YMin},
		{name: "above top edge", kind: Horizontal, pixel: f32.Pt(50, -30), expect: testScale.YMax},
		{name: "left of plot", kind: Vertical, pixel: f32.Pt(-20, 50), expect: testScale.XMin},
		{name: "right of plot", kind: Vertical, pixel: f32.Pt(250, 50), expect: testScale.XMax},
		{name: "inside", kind: Vertical, pixel: f32.Pt(25, 50), expect: 250},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore(5, testPalette)
			l, _ := s.Add(tc.kind, 1)
			var c Controller
			applyTo(s)(c.Begin(s, l.ID))
			applyTo(s)(c.Move(s, tc.pixel, testBounds, testScale))
			got, _ := s.Line(l.ID)
			if got.Position != tc.expect {
				t.Errorf("expected position %v, got %v", tc.expect, got.Position)
			}
		})
	}
}

func TestDragRemovedLine(t *testing.T) {
	s := NewStore(5, testPalette)
	l, _ := s.Add(Vertical, 100)
	var c Controller
	applyTo(s)(c.Begin(s, l.ID))
	s.Clear()
	if _, ok := c.Move(s, f32.Pt(10, 10), testBounds, testScale); ok {
		t.Errorf("expected move of a removed line to be a no-op")
	}
	if _, ok := c.End(s); ok {
		t.Errorf("expected no end command for a removed line")
	}
	if c.State() != Idle {
		t.Errorf("expected release to return to idle even for a removed line")
	}
	if _, ok := c.Begin(s, l.ID); ok {
		t.Errorf("expected begin on a removed line to fail")
	}
}

func TestHitTest(t *testing.T) {
	lines := []Line{
		{ID: "h", Kind: Horizontal, Position: 50},
		{ID: "v", Kind: Vertical, Position: 200},
	}
	type testcase struct {
		name  string
		pos   f32.Point
		id    string
		found bool
	}
	for _, tc := range []testcase{
		{name: "on horizontal", pos: f32.Pt(80, 52), id: "h", found: true},
		{name: "on vertical", pos: f32.Pt(19, 90), id: "v", found: true},
		{name: "closest wins", pos: f32.Pt(22, 51), id: "h", found: true},
		{name: "miss", pos: f32.Pt(80, 90), found: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			l, ok := HitTest(lines, tc.pos, testBounds, testScale, 4)
			if ok != tc.found {
				t.Fatalf("expected found %v, got %v", tc.found, ok)
			}
			if ok && l.ID != tc.id {
				t.Errorf("expected line %q, got %q", tc.id, l.ID)
			}
		})
	}
}

func TestUpdatePointerEvents(t *testing.T) {
	s := NewStore(5, testPalette)
	l, _ := s.Add(Horizontal, 50)
	v := View{
		Bounds: plot.CalculateBounds(120, 110, plot.Padding{Left: 20, Top: 10}),
		Scale:  testScale,
		Slop:   5,
	}
	var c Controller
	run := func(ev pointer.Event) []Command {
		cmds := c.Update(s, ev, v)
		for _, cmd := range cmds {
			s.Apply(cmd)
		}
		return cmds
	}
	if cmds := run(pointer.Event{Kind: pointer.Press, Position: f32.Pt(60, 90), Buttons: pointer.ButtonPrimary}); len(cmds) != 0 {
		t.Errorf("expected a press away from lines to do nothing, got %v", cmds)
	}
	// The line sits at y=50 inside the plot, y=60 in widget space.
	if cmds := run(pointer.Event{Kind: pointer.Press, Position: f32.Pt(60, 62), Buttons: pointer.ButtonSecondary}); len(cmds) != 0 {
		t.Errorf("expected a secondary press not to start a drag, got %v", cmds)
	}
	if cmds := run(pointer.Event{Kind: pointer.Press, Position: f32.Pt(60, 62), Buttons: pointer.ButtonPrimary}); len(cmds) != 1 || cmds[0].Op != BeginDrag {
		t.Fatalf("expected begin drag, got %v", cmds)
	}
	run(pointer.Event{Kind: pointer.Drag, Position: f32.Pt(60, 30)})
	if got, _ := s.Line(l.ID); got.Position != 80 || !got.Dragging {
		t.Errorf("expected dragging line at 80, got %+v", got)
	}
	if cmds := run(pointer.Event{Kind: pointer.Leave, Position: f32.Pt(200, 200)}); len(cmds) != 1 || cmds[0].Op != EndDrag {
		t.Fatalf("expected leaving the chart to end the drag, got %v", cmds)
	}
	if got, _ := s.Line(l.ID); got.Dragging || got.Position != 80 {
		t.Errorf("expected released line at 80, got %+v", got)
	}
	if cmds := run(pointer.Event{Kind: pointer.Move, Position: f32.Pt(60, 90)}); len(cmds) != 0 {
		t.Errorf("expected hover moves to do nothing while idle, got %v", cmds)
	}
}
