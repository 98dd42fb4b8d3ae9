package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"git.sr.ht/~whereswaldon/guideplot/backend"
	"git.sr.ht/~whereswaldon/guideplot/config"
	"git.sr.ht/~whereswaldon/guideplot/guide"
	"golang.org/x/exp/shiny/materialdesign/icons"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

func mustIcon(data []byte) *widget.Icon {
	icon, err := widget.NewIcon(data)
	if err != nil {
		panic(err)
	}
	return icon
}

var (
	horizontalIcon = mustIcon(icons.EditorBorderHorizontal)
	verticalIcon   = mustIcon(icons.EditorBorderVertical)
	clearIcon      = mustIcon(icons.ContentClear)
	openIcon       = mustIcon(icons.FileFolderOpen)
	generateIcon   = mustIcon(icons.AVPlayArrow)
)

// UI is responsible for holding the state of and drawing the top-level UI.
type UI struct {
	ws         backend.WindowState
	expl       *explorer.Explorer
	cfg        *config.Config
	invalidate func()

	chart *Chart
	stats *StatsTable

	launchBtn   widget.Clickable
	explorerBtn widget.Clickable
	addHBtn     widget.Clickable
	addVBtn     widget.Clickable
	clearBtn    widget.Clickable
	launching   bool
	// errs carries failures of background requests back to the UI.
	errs    chan error
	errText string
	list    widget.List

	th             *material.Theme
	snapshotStream *stream.Stream[backend.Snapshot]
	snapshot       backend.Snapshot
}

func NewUI(ws backend.WindowState, expl *explorer.Explorer, cfg *config.Config, invalidate func()) (*UI, error) {
	palette, err := cfg.Colors()
	if err != nil {
		return nil, err
	}
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	store := guide.NewStore(cfg.MaxLinesPerKind, palette)
	chart := NewChart(store, guide.Detector{EdgeTolerance: cfg.EdgeTolerance}, unit.Dp(cfg.HitSlop), *cfg.AxisLabels, *cfg.Trend)
	ui := &UI{
		ws:             ws,
		expl:           expl,
		cfg:            cfg,
		invalidate:     invalidate,
		th:             th,
		chart:          chart,
		stats:          &StatsTable{chart: chart},
		errs:           make(chan error, 1),
		snapshotStream: stream.New(ws.Controller, ws.Datasource.Snapshots),
	}
	ui.list.Axis = layout.Horizontal
	return ui, nil
}

// report hands an error from a background goroutine to the UI.
func (ui *UI) report(err error) {
	select {
	case ui.errs <- err:
	default:
	}
	ui.invalidate()
}

// generatorArgs passes the configured generator settings on to the
// generator's command line.
func generatorArgs(g config.Generator) []string {
	return []string{
		"-interval", g.Interval.String(),
		"-series", strconv.Itoa(g.Series),
		"-noise", strconv.FormatFloat(g.Noise, 'g', -1, 64),
		"-null-every", strconv.Itoa(g.NullEvery),
	}
}

// Update the state of the UI in response to input.
func (ui *UI) Update(gtx C) {
	ui.snapshotStream.ReadInto(gtx, &ui.snapshot, backend.Snapshot{})
	ui.chart.SetSnapshot(ui.snapshot)
	select {
	case err := <-ui.errs:
		ui.errText = err.Error()
	default:
	}
	if ui.snapshot.Err != nil {
		ui.errText = ui.snapshot.Err.Error()
	}
	if ui.snapshot.Loaded() {
		ui.launching = false
	}
	if !ui.launching && ui.launchBtn.Clicked(gtx) {
		ui.launching = true
		ui.errText = ""
		if _, err := ui.ws.Datasource.LaunchGenerator(generatorArgs(ui.cfg.Generator)...); err != nil {
			ui.launching = false
			ui.errText = err.Error()
		}
	}
	if ui.explorerBtn.Clicked(gtx) {
		ui.errText = ""
		// Choosing a file waits on the window's event loop, so it cannot
		// happen on this goroutine.
		go func() {
			if _, err := ui.ws.Datasource.LoadFromFile(ui.expl); err != nil && !errors.Is(err, explorer.ErrUserDecline) {
				ui.report(fmt.Errorf("failed opening trace: %w", err))
			}
		}()
	}
	if ui.addHBtn.Clicked(gtx) {
		ui.addLine(guide.Horizontal)
	}
	if ui.addVBtn.Clicked(gtx) {
		ui.addLine(guide.Vertical)
	}
	if ui.clearBtn.Clicked(gtx) {
		ui.chart.ClearLines()
		ui.errText = ""
	}
}

func (ui *UI) addLine(kind guide.Kind) {
	if err := ui.chart.AddLine(kind); err != nil {
		ui.errText = fmt.Sprintf("cannot add %s line: %v", kind, err)
		return
	}
	ui.errText = ""
}

func (ui *UI) layoutToolbar(gtx C) D {
	store := ui.chart.store
	iconBtn := func(btn *widget.Clickable, icon *widget.Icon, desc string) layout.FlexChild {
		return layout.Rigid(func(gtx C) D {
			b := material.IconButton(ui.th, btn, icon, desc)
			b.Size = 20
			b.Inset = layout.UniformInset(6)
			return layout.UniformInset(2).Layout(gtx, b.Layout)
		})
	}
	check := func(state *widget.Bool, label string) layout.FlexChild {
		return layout.Rigid(func(gtx C) D {
			return layout.UniformInset(4).Layout(gtx, material.CheckBox(ui.th, state, label).Layout)
		})
	}
	status := ui.snapshot.Source
	if ui.snapshot.Live {
		status += " (live)"
	}
	status += fmt.Sprintf("  H %d/%d  V %d/%d",
		store.Count(guide.Horizontal), store.Max(),
		store.Count(guide.Vertical), store.Max())
	children := []layout.FlexChild{
		iconBtn(&ui.explorerBtn, openIcon, "Open trace"),
		iconBtn(&ui.launchBtn, generateIcon, "Launch generator"),
		iconBtn(&ui.addHBtn, horizontalIcon, "Add horizontal line"),
		iconBtn(&ui.addVBtn, verticalIcon, "Add vertical line"),
		iconBtn(&ui.clearBtn, clearIcon, "Clear guide lines"),
		check(&ui.chart.AxisLabels, "Axis labels"),
		check(&ui.chart.ShowTrend, "Trend"),
	}
	for i, id := range ui.chart.IDs() {
		enabled := ui.chart.Enabled[id]
		cb := material.CheckBox(ui.th, enabled, id)
		cb.IconColor = seriesColor(i)
		children = append(children, layout.Rigid(func(gtx C) D {
			return layout.UniformInset(4).Layout(gtx, cb.Layout)
		}))
	}
	children = append(children, layout.Rigid(func(gtx C) D {
		return layout.UniformInset(8).Layout(gtx, material.Body2(ui.th, status).Layout)
	}))
	return material.List(ui.th, &ui.list).Layout(gtx, 1, func(gtx C, _ int) D {
		return layout.Flex{Alignment: layout.Middle}.Layout(gtx, children...)
	})
}

func (ui *UI) layoutMainArea(gtx C) D {
	return layout.Flex{
		Axis: layout.Vertical,
	}.Layout(gtx,
		layout.Rigid(ui.layoutToolbar),
		layout.Rigid(func(gtx C) D {
			if len(ui.errText) == 0 {
				return D{}
			}
			l := material.Body1(ui.th, ui.errText)
			l.Color = color.NRGBA{R: 150, A: 255}
			return layout.UniformInset(4).Layout(gtx, l.Layout)
		}),
		layout.Flexed(1, func(gtx C) D {
			return ui.chart.Layout(gtx, ui.th)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y, gtx.Dp(160))
			return ui.stats.Layout(gtx, ui.th)
		}),
	)
}

func (ui *UI) layoutStartScreen(gtx C) D {
	l := material.Body1(ui.th, "No data yet.")
	return layout.Flex{
		Axis:      layout.Vertical,
		Alignment: layout.Middle,
		Spacing:   layout.SpaceAround,
	}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return l.Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			if ui.launching {
				gtx = gtx.Disabled()
			}
			return material.Button(ui.th, &ui.launchBtn, "Launch Generator").Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Button(ui.th, &ui.explorerBtn, "Open Existing Trace").Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Body2(ui.th, ui.errText).Layout(gtx)
		}),
	)
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	if ui.snapshot.Loaded() {
		return ui.layoutMainArea(gtx)
	}
	return ui.layoutStartScreen(gtx)
}
