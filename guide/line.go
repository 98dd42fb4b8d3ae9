// Package guide holds the user-positioned guide lines of a chart, the drag
// state machine that moves them, and the detector that finds where they
// cross plotted series.
package guide

import (
	"errors"
	"image/color"
	"slices"

	"github.com/google/uuid"
)

// Kind is the orientation of a guide line.
type Kind uint8

const (
	// Horizontal lines sit at a fixed value.
	Horizontal Kind = iota
	// Vertical lines sit at a fixed instant.
	Vertical
)

func (k Kind) String() string {
	switch k {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "?"
	}
}

// DefaultMaxPerKind is the number of lines of each kind a Store accepts when
// no other limit is configured.
const DefaultMaxPerKind = 5

// ErrTooManyLines is returned by Store.Add when the per-kind limit is
// reached.
var ErrTooManyLines = errors.New("guide line limit reached")

// Line is a horizontal or vertical reference line. Position is a data value
// for horizontal lines and epoch milliseconds for vertical ones.
type Line struct {
	ID       string
	Kind     Kind
	Position float64
	Color    color.NRGBA
	Dragging bool
}

// Lines provides read access to guide lines by identifier.
type Lines interface {
	Line(id string) (Line, bool)
}

// Store is the ordered collection of guide lines shown on one chart. Line
// positions change only through Apply.
type Store struct {
	lines      []Line
	maxPerKind int
	palette    []color.NRGBA
	// added counts the lines ever added per kind, selecting palette entries.
	added    [2]int
	revision uint64
}

var _ Lines = (*Store)(nil)

// NewStore creates an empty store. Colors of new lines are taken from palette
// in order, separately for each kind.
func NewStore(maxPerKind int, palette []color.NRGBA) *Store {
	if maxPerKind <= 0 {
		maxPerKind = DefaultMaxPerKind
	}
	if len(palette) == 0 {
		palette = []color.NRGBA{{A: 0xff}}
	}
	return &Store{
		maxPerKind: maxPerKind,
		palette:    slices.Clone(palette),
	}
}

// Revision changes whenever the set of lines or any line changes. It can
// be used as a memoization key.
func (s *Store) Revision() uint64 {
	return s.revision
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	return slices.Clone(s.lines)
}

// Line returns the line with the given identifier.
func (s *Store) Line(id string) (Line, bool) {
	idx := s.index(id)
	if idx < 0 {
		return Line{}, false
	}
	return s.lines[idx], true
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.lines, func(l Line) bool {
		return l.ID == id
	})
}

// Count returns the number of lines of the given kind.
func (s *Store) Count(kind Kind) int {
	n := 0
	for _, l := range s.lines {
		if l.Kind == kind {
			n++
		}
	}
	return n
}

// Max returns the per-kind line limit.
func (s *Store) Max() int {
	return s.maxPerKind
}

// Add creates a line of the given kind at position.
func (s *Store) Add(kind Kind, position float64) (Line, error) {
	if s.Count(kind) >= s.maxPerKind {
		return Line{}, ErrTooManyLines
	}
	idx := int(kind) % len(s.added)
	l := Line{
		ID:       uuid.NewString(),
		Kind:     kind,
		Position: position,
		Color:    s.palette[s.added[idx]%len(s.palette)],
	}
	s.added[idx]++
	s.lines = append(s.lines, l)
	s.revision++
	return l, nil
}

// Remove deletes the line with the given identifier, reporting whether it
// existed.
func (s *Store) Remove(id string) bool {
	idx := s.index(id)
	if idx < 0 {
		return false
	}
	s.lines = slices.Delete(s.lines, idx, idx+1)
	s.revision++
	return true
}

// Clear removes every line.
func (s *Store) Clear() {
	if len(s.lines) == 0 {
		return
	}
	s.lines = s.lines[:0]
	s.revision++
}

// Apply executes cmd against the store. Commands naming a line that no
// longer exists are ignored and Apply returns false.
func (s *Store) Apply(cmd Command) bool {
	idx := s.index(cmd.LineID)
	if idx < 0 {
		return false
	}
	l := &s.lines[idx]
	switch cmd.Op {
	case BeginDrag:
		l.Dragging = true
	case Move:
		l.Position = cmd.Position
	case EndDrag:
		l.Dragging = false
	default:
		return false
	}
	s.revision++
	return true
}
