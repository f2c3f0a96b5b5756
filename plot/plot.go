// Package plot renders planning diagnostics as HTML charts: the policy
// evaluation delta curve and the per-iteration policy change counts.
package plot

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cavecrawl/go-cavecrawl/policy"
)

// Convergence renders a two-chart page from one planning result.
func Convergence(w io.Writer, res *policy.Result) error {
	page := components.NewPage()
	page.AddCharts(
		deltaChart(res.Deltas),
		changesChart(res.PolicyChanges),
	)
	return page.Render(w)
}

// ConvergenceFile renders the convergence page to an HTML file.
func ConvergenceFile(filename string, res *policy.Result) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return Convergence(f, res)
}

// deltaChart plots max |dV| per evaluation sweep on a log-friendly line.
func deltaChart(deltas []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Policy evaluation convergence",
			Subtitle: "max |dV| per sweep",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	var sweeps []string
	items := make([]opts.LineData, 0, len(deltas))
	for i, d := range deltas {
		sweeps = append(sweeps, fmt.Sprintf("%d", i+1))
		items = append(items, opts.LineData{Value: d})
	}

	line.SetXAxis(sweeps)
	line.AddSeries("max |dV|", items)
	return line
}

// changesChart plots the number of policy actions changed per improvement
// pass; reaching zero is the stability fixed point.
func changesChart(changes []int) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Policy improvement",
			Subtitle: "actions changed per iteration",
		}),
	)

	var iters []string
	items := make([]opts.BarData, 0, len(changes))
	for i, c := range changes {
		iters = append(iters, fmt.Sprintf("%d", i+1))
		items = append(items, opts.BarData{Value: c})
	}

	bar.SetXAxis(iters)
	bar.AddSeries("changes", items)
	return bar
}
