package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"git.sr.ht/~whereswaldon/guideplot/config"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `%[1]s: emit a synthetic csv historian trace
Usage:

 %[1]s > file

OR

 %[1]s -output trace.csv & guideplot -follow trace.csv

Each tick writes one row per series in the long format guideplot reads:

 series,timestamp,value,quality

`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	defaults := config.Default().Generator
	configPath := flag.String("config", "", "YAML configuration file supplying generator defaults")
	interval := flag.Duration("interval", defaults.Interval, "Interval between samples")
	count := flag.Int("series", defaults.Series, "Number of series to generate")
	noise := flag.Float64("noise", defaults.Noise, "Gaussian noise as a fraction of the signal amplitude")
	nullEvery := flag.Int("null-every", defaults.NullEvery, "Emit a null value every N samples of a series (negative disables)")
	outputName := flag.String("output", "-", "Output file for the CSV trace")
	flag.Parse()

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed loading config: %v", err)
		}
		set := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if !set["interval"] {
			*interval = cfg.Generator.Interval
		}
		if !set["series"] {
			*count = cfg.Generator.Series
		}
		if !set["noise"] {
			*noise = cfg.Generator.Noise
		}
		if !set["null-every"] {
			*nullEvery = cfg.Generator.NullEvery
		}
	}
	if *interval <= 0 {
		log.Fatalf("interval must be positive, got %v", *interval)
	}
	if *count < 1 {
		log.Fatalf("need at least one series, got %d", *count)
	}

	var output io.WriteCloser
	if *outputName == "-" {
		output = os.Stdout
	} else {
		f, err := os.Create(*outputName)
		if err != nil {
			log.Fatalf("failed opening output file %q: %v", *outputName, err)
		}
		output = f
	}
	buffered := bufio.NewWriter(output)
	closeOutput := func() {
		if err := errors.Join(buffered.Flush(), output.Close()); err != nil {
			log.Printf("failed closing output: %v", err)
		}
	}

	start := time.Now()
	gen := newGenerator(*count, *noise, *nullEvery, start, rand.New(rand.NewSource(start.UnixNano())))
	if err := gen.writeHeadings(buffered); err != nil {
		log.Fatalf("failed writing headings: %v", err)
	}
	ticker := time.NewTicker(*interval)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer ticker.Stop()
	for {
		select {
		case <-sigChan:
			closeOutput()
			return
		case now := <-ticker.C:
			err := gen.writeSample(buffered, now)
			if err == nil {
				// Readers follow the trace, so every tick must reach them whole.
				err = buffered.Flush()
			}
			if err != nil {
				// The reader went away.
				log.Printf("failed writing sample: %v", err)
				closeOutput()
				return
			}
		}
	}
}
