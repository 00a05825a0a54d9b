// Package visualization renders the per-target box plots of the study as PNG
// figures and as an interactive HTML report.
package visualization

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Sample is one observation: a value of some group at a target
type Sample struct {
	Target int
	Group  string
	Value  float64
}

// BoxFigure is a box plot per target, with one box per group (the hue)
type BoxFigure struct {
	// Name is the output file stem
	Name   string
	Title  string
	XLabel string
	YLabel string

	YMin, YMax float64

	// Width and Height are in inches
	Width, Height float64

	// Groups fixes the hue order; samples of other groups are dropped
	Groups     []string
	Palette    []color.Color
	HideXTicks bool

	Samples []Sample
}

// FiveNumber is the min, quartiles and max of a sample
type FiveNumber struct {
	Min, Q1, Median, Q3, Max float64
}

// Summarize returns the five number summary of the finite values in x, and
// false when there are none
func Summarize(x []float64) (FiveNumber, bool) {
	sorted := finite(x)
	if len(sorted) == 0 {
		return FiveNumber{}, false
	}
	sort.Float64s(sorted)
	return FiveNumber{
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}, true
}

func finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Targets returns the sorted target ids present in the figure
func (f BoxFigure) Targets() []int {
	seen := make(map[int]bool)
	var out []int
	for _, s := range f.Samples {
		if !seen[s.Target] {
			seen[s.Target] = true
			out = append(out, s.Target)
		}
	}
	sort.Ints(out)
	return out
}

// Values returns the samples of one group at one target
func (f BoxFigure) Values(target int, group string) []float64 {
	var out []float64
	for _, s := range f.Samples {
		if s.Target == target && s.Group == group {
			out = append(out, s.Value)
		}
	}
	return out
}

// swatch is a filled legend entry
type swatch struct {
	color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.Color, c.ClipPolygonY(pts))
}

// Plot builds the gonum plot. Boxes of one target are spread over 80% of the
// unit slot around the target id.
func (f BoxFigure) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	p.Y.Label.Text = f.YLabel
	p.Add(plotter.NewGrid())

	targets := f.Targets()
	n := len(f.Groups)
	if n == 0 {
		return nil, fmt.Errorf("figure %s has no groups", f.Name)
	}
	slot := 0.8 / float64(n)
	width := vg.Length(f.Width) * vg.Inch * 0.6 / vg.Length(max(1, len(targets)*n))

	for k, group := range f.Groups {
		fill := f.color(k)
		present := false
		for _, target := range targets {
			values := finite(f.Values(target, group))
			if len(values) == 0 {
				continue
			}
			loc := float64(target) + (float64(k)-float64(n-1)/2)*slot
			box, err := plotter.NewBoxPlot(width, loc, plotter.Values(values))
			if err != nil {
				return nil, fmt.Errorf("figure %s: %w", f.Name, err)
			}
			box.FillColor = fill
			p.Add(box)
			present = true
		}
		if present && n > 1 {
			p.Legend.Add(group, swatch{fill})
		}
	}
	p.Legend.Top = true

	p.Y.Min, p.Y.Max = f.YMin, f.YMax
	if len(targets) > 0 {
		p.X.Min = float64(targets[0]) - 0.5
		p.X.Max = float64(targets[len(targets)-1]) + 0.5
	} else {
		p.X.Min, p.X.Max = 0, 1
	}

	var ticks []plot.Tick
	if !f.HideXTicks {
		for _, t := range targets {
			ticks = append(ticks, plot.Tick{Value: float64(t), Label: strconv.Itoa(t)})
		}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	return p, nil
}

func (f BoxFigure) color(k int) color.Color {
	if len(f.Palette) == 0 {
		return Set3[k%len(Set3)]
	}
	return f.Palette[k%len(f.Palette)]
}

// SavePNG writes <dir>/<Name>.png
func (f BoxFigure) SavePNG(dir string) (string, error) {
	p, err := f.Plot()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create plot directory: %w", err)
	}
	path := filepath.Join(dir, f.Name+".png")
	if err := p.Save(vg.Length(f.Width)*vg.Inch, vg.Length(f.Height)*vg.Inch, path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	return path, nil
}

func hex(s string) color.Color {
	v, _ := strconv.ParseUint(s[1:], 16, 32)
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// Qualitative palettes from ColorBrewer
var (
	Set1  = []color.Color{hex("#e41a1c"), hex("#377eb8"), hex("#4daf4a"), hex("#984ea3")}
	Set3  = []color.Color{hex("#8dd3c7"), hex("#ffffb3"), hex("#bebada"), hex("#fb8072"), hex("#80b1d3"), hex("#fdb462")}
	Blues = []color.Color{hex("#6baed6")}
)
