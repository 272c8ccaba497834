// Package chart renders an HTML preview of a delay table: the sampled
// frequency curve and the halt counts the firmware will load.
package chart

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"stepper-delay-table/pkg/errors"
	"stepper-delay-table/pkg/table"
)

const (
	chartWidth  = "960px"
	chartHeight = "420px"
)

// Render writes an HTML page with two line charts to w.
func Render(w io.Writer, tbl *table.Table) error {
	page := components.NewPage()
	page.PageTitle = "Delay table"
	page.AddCharts(frequencyChart(tbl), delayChart(tbl))

	if err := page.Render(w); err != nil {
		return errors.OutputError("chart", err)
	}
	return nil
}

func indexAxis() []string {
	xs := make([]string, table.Size)
	for i := range xs {
		xs[i] = strconv.Itoa(i)
	}
	return xs
}

func newLine(title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "index"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	return line
}

func frequencyChart(tbl *table.Table) *charts.Line {
	b := tbl.Bounds
	line := newLine("Frequency",
		fmt.Sprintf("%.2f Hz .. %.2f Hz, logarithmic", b.FMin, b.FMax), "Hz")

	sampled := make([]opts.LineData, 0, table.Size)
	actual := make([]opts.LineData, 0, table.Size)
	for i, e := range tbl.Entries() {
		f, _ := tbl.ActualFrequency(i)
		sampled = append(sampled, opts.LineData{Value: e.Frequency})
		actual = append(actual, opts.LineData{Value: f})
	}

	line.SetXAxis(indexAxis()).
		AddSeries("sampled", sampled).
		AddSeries("firmware", actual)
	return line
}

func delayChart(tbl *table.Table) *charts.Line {
	line := newLine("Delay",
		fmt.Sprintf("%d-bit register, %s encoding", tbl.Options.Width, tbl.Options.Encoding), "halts")

	delays := make([]opts.LineData, 0, table.Size)
	values := make([]opts.LineData, 0, table.Size)
	for _, e := range tbl.Entries() {
		delays = append(delays, opts.LineData{Value: e.Delay})
		values = append(values, opts.LineData{Value: tbl.Encode(e.Delay)})
	}

	line.SetXAxis(indexAxis()).AddSeries("delay", delays)
	if tbl.Options.Encoding == table.Inverted {
		line.AddSeries("stored", values)
	}
	return line
}
