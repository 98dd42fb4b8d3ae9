package main

import (
	"fmt"
	"image"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget/material"
	"gioui.org/x/component"
	"git.sr.ht/~whereswaldon/guideplot/trend"
)

// StatsTable lists the trend statistics of every series next to the toggle
// that shows or hides it.
type StatsTable struct {
	chart *Chart
	grid  component.GridState
}

const (
	colorCol = iota
	seriesNameCol
	equationCol
	slopeCol
	interceptCol
	rSquaredCol
	stdDevCol
	varianceCol
	crossingsCol
	numCols
)

var statsHeadings = [numCols]string{
	colorCol:      "Show",
	seriesNameCol: "Series",
	equationCol:   "Trend",
	slopeCol:      "Slope/min",
	interceptCol:  "Intercept",
	rSquaredCol:   "R²",
	stdDevCol:     "Std Dev",
	varianceCol:   "Variance",
	crossingsCol:  "Crossings",
}

// statCell formats one statistic of a trend. Series without a trend show a
// dash.
func statCell(r *trend.Result, col int) string {
	if r == nil {
		return "-"
	}
	switch col {
	case equationCol:
		return r.EquationLabel
	case slopeCol:
		return fmt.Sprintf("%.4f", r.SlopePerMinute)
	case interceptCol:
		return fmt.Sprintf("%.3f", r.Intercept)
	case rSquaredCol:
		return fmt.Sprintf("%.3f", r.RSquared)
	case stdDevCol:
		return fmt.Sprintf("%.3f", r.StandardDeviation)
	case varianceCol:
		return fmt.Sprintf("%.3f", r.Variance)
	}
	return ""
}

func (s *StatsTable) Layout(gtx C, th *material.Theme) D {
	ids := s.chart.IDs()
	table := component.Table(th, &s.grid)
	table.HScrollbarStyle.Indicator.MinorWidth = 0
	table.HScrollbarStyle.Track.MinorPadding = 0
	colorColWidth := gtx.Dp(50)
	statColWidth := gtx.Dp(90)
	nameColWidth := max(gtx.Dp(120), gtx.Constraints.Max.X-colorColWidth-(numCols-2)*statColWidth-gtx.Dp(table.VScrollbarStyle.Width()))
	rowHeight := gtx.Sp(20)
	return table.Layout(gtx, len(ids), numCols,
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			switch index {
			case colorCol:
				return min(colorColWidth, constraint)
			case seriesNameCol:
				return min(nameColWidth, constraint)
			default:
				return min(statColWidth, constraint)
			}
		},
		func(gtx C, index int) D {
			l := material.Body1(th, statsHeadings[index])
			if index > seriesNameCol {
				l.Alignment = text.End
			}
			l.Color = th.ContrastFg
			return layout.Background{}.Layout(gtx,
				func(gtx C) D {
					paint.FillShape(gtx.Ops, th.ContrastBg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return D{Size: gtx.Constraints.Min}
				}, l.Layout,
			)
		},
		func(gtx C, row, col int) (dims D) {
			defer func() {
				dims.Size = gtx.Constraints.Constrain(dims.Size)
			}()
			id := ids[row]
			enabled := s.chart.Enabled[id]
			const disabledAlpha = 100
			dims = layout.UniformInset(2).Layout(gtx, func(gtx C) D {
				var l material.LabelStyle
				switch col {
				case colorCol:
					return enabled.Layout(gtx, func(gtx C) D {
						return layout.Center.Layout(gtx, func(gtx C) D {
							side := gtx.Dp(10)
							sz := image.Pt(side, side)
							c := seriesColor(row)
							if !enabled.Value {
								c.A = disabledAlpha
							}
							paint.FillShape(gtx.Ops, c, clip.Rect{Max: sz}.Op())
							return D{Size: sz}
						})
					})
				case seriesNameCol:
					l = material.Body2(th, id)
				case crossingsCol:
					l = material.Body2(th, fmt.Sprint(s.chart.Crossings(id)))
				default:
					l = material.Body2(th, statCell(s.chart.Trend(id), col))
				}
				if col != seriesNameCol {
					l.Alignment = text.End
				}
				if !enabled.Value {
					l.Color.A = disabledAlpha
				}
				l.MaxLines = 1
				return l.Layout(gtx)
			})
			if row&1 != 0 {
				c := seriesColor(row)
				c.A = 30
				paint.FillShape(gtx.Ops, c, clip.Rect{Max: gtx.Constraints.Max}.Op())
			}
			return dims
		})
}
