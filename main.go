package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/x/explorer"
	"git.sr.ht/~whereswaldon/guideplot/backend"
	"git.sr.ht/~whereswaldon/guideplot/config"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `%[1]s: place guide lines over historian traces and fit trends to them
Usage:

 %[1]s [-config file.yaml] [-follow trace.csv | -generate]

Traces are CSV files with the columns series, timestamp, value and an optional
quality. Without flags the window offers to open a trace or start the
generator.

`, os.Args[0])
	flag.PrintDefaults()
}

// loadConfig reads the configuration at path. A missing file is only an
// error when the user named one explicitly.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return config.Default(), nil
	}
	return cfg, err
}

func main() {
	flag.Usage = usage
	configPath := flag.String("config", "guideplot.yaml", "YAML configuration file")
	follow := flag.String("follow", "", "CSV trace to load and keep reading as it grows")
	generate := flag.Bool("generate", false, "Start the synthetic trace generator immediately")
	flag.Parse()
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	cfg, err := loadConfig(*configPath, explicit)
	if err != nil {
		log.Fatalf("failed loading config: %v", err)
	}

	go func() {
		w := app.NewWindow(app.Title("guideplot"), app.Size(unit.Dp(1024), unit.Dp(768)))
		if err := loop(w, cfg, *follow, *generate); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}

func loop(w *app.Window, cfg *config.Config, follow string, generate bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ds, err := backend.NewDatasource(ctx)
	if err != nil {
		return err
	}
	expl := explorer.NewExplorer(w)
	ws := backend.NewWindowState(ctx, ds, w)
	ui, err := NewUI(ws, expl, cfg, w.Invalidate)
	if err != nil {
		return err
	}
	switch {
	case follow != "":
		if err := ds.Follow(follow); err != nil {
			return err
		}
	case generate:
		if _, err := ds.LaunchGenerator(generatorArgs(cfg.Generator)...); err != nil {
			return err
		}
	}

	var ops op.Ops
	for {
		ev := w.NextEvent()
		expl.ListenEvents(ev)
		switch ev := ev.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, ev)
			ui.Layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}
