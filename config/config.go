// Package config loads guideplot's YAML configuration.
package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of the chart and the trace generator.
type Config struct {
	MaxLinesPerKind int           `yaml:"max_lines_per_kind"`
	EdgeTolerance   time.Duration `yaml:"edge_tolerance"` // vertical line reach past a series' ends
	HitSlop         float32       `yaml:"hit_slop"`       // Dp within which a press grabs a guide line
	AxisLabels      *bool         `yaml:"axis_labels"`
	Trend           *bool         `yaml:"trend"`
	Palette         []string      `yaml:"palette"` // "#rrggbb" or "#rrggbbaa"
	Generator       Generator     `yaml:"generator"`
}

// Generator configures cmd/guideplot-gen.
type Generator struct {
	Interval time.Duration `yaml:"interval"`
	Series   int           `yaml:"series"`
	Noise    float64       `yaml:"noise"`
	// NullEvery emits a null value every NullEvery samples; negative disables it.
	NullEvery int `yaml:"null_every"`
}

var defaultPalette = []string{
	"#a4633a",
	"#857625",
	"#51854d",
	"#2b7fa8",
	"#726cae",
	"#975f91",
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads the configuration at path, filling unset fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if _, err := cfg.Colors(); err != nil {
		return nil, fmt.Errorf("invalid palette in %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.MaxLinesPerKind <= 0 {
		c.MaxLinesPerKind = 5
	}
	if c.EdgeTolerance == 0 {
		c.EdgeTolerance = time.Second
	}
	if c.HitSlop == 0 {
		c.HitSlop = 6
	}
	if c.AxisLabels == nil {
		c.AxisLabels = ptr(true)
	}
	if c.Trend == nil {
		c.Trend = ptr(true)
	}
	if len(c.Palette) == 0 {
		c.Palette = append([]string(nil), defaultPalette...)
	}
	if c.Generator.Interval == 0 {
		c.Generator.Interval = 250 * time.Millisecond
	}
	if c.Generator.Series == 0 {
		c.Generator.Series = 3
	}
	if c.Generator.Noise == 0 {
		c.Generator.Noise = 0.05
	}
	if c.Generator.NullEvery == 0 {
		c.Generator.NullEvery = 50
	}
}

func ptr[T any](v T) *T {
	return &v
}

// Colors parses the palette.
func (c *Config) Colors() ([]color.NRGBA, error) {
	out := make([]color.NRGBA, 0, len(c.Palette))
	for _, s := range c.Palette {
		col, err := ParseColor(s)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, nil
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("color %q: expected #rrggbb or #rrggbbaa", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
