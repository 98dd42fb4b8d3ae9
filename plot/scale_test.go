package plot

import (
	"math"
	"testing"
	"time"

	"git.sr.ht/~whereswaldon/guideplot/series"
)

func TestCalculateScale(t *testing.T) {
	now := time.UnixMilli(10_000_000)
	hour := float64(time.Hour / time.Millisecond)
	halfHour := hour / 2
	type testcase struct {
		name   string
		data   series.Map
		expect Scale
	}
	for _, tc := range []testcase{
		{
			name:   "empty",
			data:   series.Map{},
			expect: Scale{XMin: 10_000_000 - hour, XMax: 10_000_000, YMin: 0, YMax: 100},
		},
		{
			name: "only unusable samples",
			data: series.Map{
				"a": {
					{Timestamp: time.UnixMilli(5), Null: true},
					series.At(6, math.NaN()),
					{Value: 3},
				},
			},
			expect: Scale{XMin: 10_000_000 - hour, XMax: 10_000_000, YMin: 0, YMax: 100},
		},
		{
			name: "multiple series",
			data: series.Map{
				"a": {series.At(3000, 4), series.At(1000, -2)},
				"b": {series.At(2000, 10), {Timestamp: time.UnixMilli(9000), Null: true}},
			},
			expect: Scale{XMin: 1000, XMax: 3000, YMin: -2, YMax: 10},
		},
		{
			name: "single sample",
			data: series.Map{
				"a": {series.At(1_000_000, 50)},
			},
			expect: Scale{XMin: 1_000_000 - halfHour, XMax: 1_000_000 + halfHour, YMin: 45, YMax: 55},
		},
		{
			name: "constant small value",
			data: series.Map{
				"a": {series.At(0, 0.5), series.At(1000, 0.5)},
			},
			expect: Scale{XMin: 0, XMax: 1000, YMin: -0.5, YMax: 1.5},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateScaleAt(tc.data, now)
			if got != tc.expect {
				t.Errorf("expected %+v, got %+v", tc.expect, got)
			}
			if !got.Valid() {
				t.Errorf("expected a usable scale, got %+v", got)
			}
		})
	}
}

func TestCalculateBounds(t *testing.T) {
	b := CalculateBounds(800, 600, AxisPadding(true))
	if b.GraphWidth != 720 || b.GraphHeight != 540 {
		t.Errorf("expected 720x540 plotting rectangle, got %vx%v", b.GraphWidth, b.GraphHeight)
	}
	b = CalculateBounds(50, 30, AxisPadding(true))
	if b.GraphWidth != 0 || b.GraphHeight != 0 {
		t.Errorf("expected plotting rectangle clamped to zero, got %vx%v", b.GraphWidth, b.GraphHeight)
	}
	b = CalculateBounds(-10, 20, Padding{Left: -5})
	if b.Width != 0 || b.LeftPad != 0 || b.GraphHeight != 20 {
		t.Errorf("expected negative inputs clamped, got %+v", b)
	}
	scaled := AxisPadding(false).Scaled(2)
	if scaled.Left != 20 || scaled.Bottom != 20 {
		t.Errorf("expected doubled padding, got %+v", scaled)
	}
}
