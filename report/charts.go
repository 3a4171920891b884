package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/weiihann/scalebench/harness"
)

// Chart file names, without extension.
const (
	SpeedupChartName    = "speedup"
	EfficiencyChartName = "efficiency"
)

var (
	speedupColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	idealColor   = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	barColor     = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// SpeedupChart plots speedup against parallelism level, with the ideal
// linear speedup for reference.
func SpeedupChart(series harness.Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, errEmpty
	}

	p := plot.New()
	p.Title.Text = "Speed-up Factor as a function of Number of Processors"
	p.X.Label.Text = "Number of Processors"
	p.Y.Label.Text = "Speed-up Factor"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(series))
	ideal := make(plotter.XYs, len(series))

	for i, s := range series {
		pts[i].X = float64(s.Parallelism)
		pts[i].Y = s.Speedup
		ideal[i].X = float64(s.Parallelism)
		ideal[i].Y = float64(s.Parallelism)
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("speedup line: %w", err)
	}

	line.Color = speedupColor
	line.Width = vg.Points(2)
	points.Color = speedupColor
	points.Shape = draw.CircleGlyph{}

	idealLine, err := plotter.NewLine(ideal)
	if err != nil {
		return nil, fmt.Errorf("ideal line: %w", err)
	}

	idealLine.Color = idealColor
	idealLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(idealLine, line, points)
	p.Legend.Add("measured", line, points)
	p.Legend.Add("ideal", idealLine)
	p.Legend.Top = true
	p.Legend.Left = true

	p.X.Tick.Marker = levelTicks(series)
	p.Y.Min = 0

	return p, nil
}

// EfficiencyChart draws one bar per trial with its efficiency in percent.
func EfficiencyChart(series harness.Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, errEmpty
	}

	p := plot.New()
	p.Title.Text = "Efficiency by Number of Processors"
	p.X.Label.Text = "Number of Processors"
	p.Y.Label.Text = "Efficiency (%)"
	p.Add(plotter.NewGrid())

	values := make(plotter.Values, len(series))
	names := make([]string, len(series))

	for i, s := range series {
		values[i] = s.Efficiency
		names[i] = strconv.Itoa(s.Parallelism)
	}

	bar, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("efficiency bars: %w", err)
	}

	bar.Color = barColor
	bar.LineStyle.Color = color.Black
	bar.LineStyle.Width = vg.Points(1)

	p.Add(bar)
	p.NominalX(names...)

	p.Y.Min = 0
	p.Y.Max = max(100, floats.Max([]float64(values))) * 1.1

	return p, nil
}

// SaveCharts writes the speedup and efficiency charts into dir using the
// given image format (png, svg, pdf, ...) and returns the written paths.
func SaveCharts(dir, format string, series harness.Series) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir %s: %w", dir, err)
	}

	speedup, err := SpeedupChart(series)
	if err != nil {
		return nil, err
	}

	efficiency, err := EfficiencyChart(series)
	if err != nil {
		return nil, err
	}

	charts := []struct {
		name string
		plot *plot.Plot
	}{
		{SpeedupChartName, speedup},
		{EfficiencyChartName, efficiency},
	}

	paths := make([]string, 0, len(charts))

	for _, c := range charts {
		path := filepath.Join(dir, c.name+"."+format)
		if err := c.plot.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("save %s chart: %w", c.name, err)
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func levelTicks(series harness.Series) plot.Ticker {
	ticks := make([]plot.Tick, len(series))
	for i, s := range series {
		ticks[i] = plot.Tick{Value: float64(s.Parallelism), Label: strconv.Itoa(s.Parallelism)}
	}

	return plot.ConstantTicks(ticks)
}
