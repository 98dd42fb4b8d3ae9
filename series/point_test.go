package series

import (
	"math"
	"testing"
	"time"
)

func TestQualityFromCode(t *testing.T) {
	type testcase struct {
		code   int
		status Status
	}
	for _, tc := range []testcase{
		{code: 192, status: Good},
		{code: 216, status: Good},
		{code: 64, status: Uncertain},
		{code: 68, status: Uncertain},
		{code: 0, status: Bad},
		{code: 24, status: Bad},
		{code: 128, status: Unknown},
		{code: -1, status: Unknown},
	} {
		q := QualityFromCode(tc.code)
		if q.Status != tc.status {
			t.Errorf("[%d] expected status %v, got %v", tc.code, tc.status, q.Status)
		}
		if q.Code != tc.code {
			t.Errorf("[%d] expected raw code to be kept, got %d", tc.code, q.Code)
		}
	}
}

func TestUsable(t *testing.T) {
	points := []Point{
		At(3000, 3),
		{Timestamp: time.UnixMilli(2000), Null: true},
		At(1000, 1),
		{Value: 5},
		At(4000, math.NaN()),
		At(5000, math.Inf(1)),
	}
	usable := Usable(points)
	if len(usable) != 2 {
		t.Fatalf("expected 2 usable points, got %d", len(usable))
	}
	if usable[0].Value != 1 || usable[1].Value != 3 {
		t.Errorf("expected usable points ordered by time, got %v then %v", usable[0].Value, usable[1].Value)
	}
	sorted := Sorted(points)
	if len(sorted) != 5 {
		t.Fatalf("expected only the point without a timestamp to be dropped, got %d points", len(sorted))
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Timestamp.Before(sorted[i-1].Timestamp) {
			t.Errorf("expected sorted output, point %d precedes point %d", i, i-1)
		}
	}
	if points[0].Value != 3 {
		t.Errorf("sorting must not reorder the caller's slice")
	}
}

func TestMillisRoundTrip(t *testing.T) {
	for _, ms := range []float64{0, 1, 1.5, 1_700_000_000_000, -250} {
		if got := Millis(FromMillis(ms)); got != ms {
			t.Errorf("expected %v, got %v", ms, got)
		}
	}
}

func TestMapHelpers(t *testing.T) {
	m := Map{
		"b": {At(0, 1)},
		"a": {At(0, 2), At(1, 3)},
		"c": nil,
	}
	ids := m.IDs()
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("expected sorted ids, got %v", ids)
	}
	only := m.Only("a", "missing")
	if len(only) != 1 || len(only["a"]) != 2 {
		t.Errorf("expected only series a, got %v", only)
	}
	if m.Len() != 3 {
		t.Errorf("expected 3 points, got %d", m.Len())
	}
	clone := m.Clone()
	clone["a"][0].Value = 99
	if m["a"][0].Value == 99 {
		t.Errorf("clone must not alias the original points")
	}
}
