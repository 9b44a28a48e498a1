package report

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/chameleon/internal/analysis"
)

// ErrNoPoints is returned when there is nothing to chart.
var ErrNoPoints = errors.New("no rtt points to chart")

const (
	chartWidth  = "100%"
	chartHeight = "500px"
	lineWidth   = 2
	bandOpacity = 0.4

	colorRTT  = "#5470c6"
	colorAvg  = "#91cc75"
	colorEMA  = "#ee6666"
	colorBand = "#bbbbbb"
)

// RTTChart builds a line chart of raw, rolling and smoothed RTT per event.
func RTTChart(points []analysis.RollingPoint) *charts.Line {
	labels := make([]string, len(points))
	raw := make([]opts.LineData, len(points))
	avg := make([]opts.LineData, len(points))
	ema := make([]opts.LineData, len(points))
	lo := make([]opts.LineData, len(points))
	hi := make([]opts.LineData, len(points))

	for i, p := range points {
		labels[i] = p.EventID
		raw[i] = opts.LineData{Value: p.RTT}
		avg[i] = opts.LineData{Value: p.Avg}
		ema[i] = opts.LineData{Value: p.EMA}
		lo[i] = opts.LineData{Value: p.Min}
		hi[i] = opts.LineData{Value: p.Max}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "RTT",
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Round-trip time", Subtitle: "rolling window and EMA"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}, opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "event"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "rtt (ms)"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("RTT", raw,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorRTT}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	line.AddSeries("Window avg", avg,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorAvg}),
	)
	line.AddSeries("EMA", ema,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorEMA}),
	)
	line.AddSeries("Window min", lo,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBand}),
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Opacity: opts.Float(bandOpacity)}),
	)
	line.AddSeries("Window max", hi,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBand}),
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Opacity: opts.Float(bandOpacity)}),
	)

	return line
}

// WriteRTTChart renders the RTT chart as a standalone HTML page.
func WriteRTTChart(w io.Writer, points []analysis.RollingPoint) error {
	if len(points) == 0 {
		return ErrNoPoints
	}

	if err := RTTChart(points).Render(w); err != nil {
		return fmt.Errorf("render rtt chart: %w", err)
	}

	return nil
}

// WriteRTTChartFile renders the RTT chart to path.
func WriteRTTChartFile(path string, points []analysis.RollingPoint) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close chart file: %w", cerr)
		}
	}()

	return WriteRTTChart(f, points)
}
