package dashboard

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrEmptyChart is returned when a chart has no labels to draw against.
var ErrEmptyChart = errors.New("chart has no labels")

const (
	chartWidth  = 960
	chartHeight = 420
)

// Render draws c as a PNG line chart to w.
func Render(c Chart, title string, w io.Writer) error {
	if len(c.Labels) == 0 {
		return ErrEmptyChart
	}

	xs := make([]float64, len(c.Labels))
	for i, gw := range c.Labels {
		xs[i] = float64(gw)
	}

	series := make([]chart.Series, 0, len(c.Datasets))
	lo, hi := 0.0, 0.0
	for _, ds := range c.Datasets {
		ys := make([]float64, len(ds.Data))
		for i, v := range ds.Data {
			ys[i] = float64(v)
			lo = min(lo, ys[i])
			hi = max(hi, ys[i])
		}
		color := drawing.ColorFromHex(strings.TrimPrefix(ds.BorderColor, "#"))
		series = append(series, chart.ContinuousSeries{
			Name:    ds.Label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}
	if len(series) == 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    "No scores yet",
			XValues: xs,
			YValues: make([]float64, len(xs)),
			Style:   chart.Style{StrokeColor: drawing.ColorFromHex("C9CBCF"), StrokeWidth: 1},
		})
	}

	// go-chart refuses zero-width ranges, which a single gameweek or an all
	// zero season would produce.
	xMin, xMax := xs[0], xs[len(xs)-1]
	if xMax <= xMin {
		xMax = xMin + 1
	}
	if hi <= lo {
		hi = lo + 1
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:           "Gameweek",
			Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
			ValueFormatter: gameweekFormatter,
		},
		YAxis: chart.YAxis{
			Name:  "Points",
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %q: %w", title, err)
	}
	return nil
}

func gameweekFormatter(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("GW%d", int(f))
	}
	return ""
}
