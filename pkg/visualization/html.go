package visualization

import (
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func cssColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// Chart converts the figure into an echarts box plot. Whiskers span the
// full range of the finite values.
func (f BoxFigure) Chart() *charts.BoxPlot {
	targets := f.Targets()
	x := make([]string, len(targets))
	for i, t := range targets {
		x[i] = strconv.Itoa(t)
	}

	colors := make([]string, len(f.Groups))
	for k := range f.Groups {
		colors[k] = cssColor(f.color(k))
	}

	bp := charts.NewBoxPlot()
	bp.SetGlobalOptions(
		// A fixed chart id keeps the rendered page identical across runs
		charts.WithInitializationOpts(opts.Initialization{ChartID: f.Name, Width: "720px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: f.Title, Subtitle: f.Name}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(f.Groups) > 1)}),
		charts.WithXAxisOpts(opts.XAxis{Name: f.XLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: f.YLabel, Min: f.YMin, Max: f.YMax}),
		charts.WithColorsOpts(opts.Colors(colors)),
	)
	bp.SetXAxis(x)

	for _, group := range f.Groups {
		data := make([]opts.BoxPlotData, len(targets))
		for i, t := range targets {
			data[i] = opts.BoxPlotData{Name: x[i]}
			if s, ok := Summarize(f.Values(t, group)); ok {
				data[i].Value = []float64{s.Min, s.Q1, s.Median, s.Q3, s.Max}
			}
		}
		bp.AddSeries(group, data)
	}
	return bp
}

// RenderHTML writes one page holding every figure
func RenderHTML(w io.Writer, title string, figures []BoxFigure) error {
	page := components.NewPage()
	page.PageTitle = title
	for _, f := range figures {
		page.AddCharts(f.Chart())
	}
	return page.Render(w)
}
