// Package plot renders forecast charts to PNG.
package plot

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/theirongolddev/salescast/internal/model"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to plot")

// Palette holds the colors used for one chart.
type Palette struct {
	Background drawing.Color
	Forecast   drawing.Color
	Band       drawing.Color
	Actual     drawing.Color
	Text       drawing.Color
}

// Light is the default palette for exported PNGs.
var Light = Palette{
	Background: drawing.ColorWhite,
	Forecast:   drawing.ColorFromHex("205EA6"),
	Band:       drawing.ColorFromHex("205EA6").WithAlpha(48),
	Actual:     drawing.ColorFromHex("100F0F"),
	Text:       drawing.ColorFromHex("403E3C"),
}

// Dark mirrors the dashboard's dark theme.
var Dark = Palette{
	Background: drawing.ColorFromHex("100F0F"),
	Forecast:   drawing.ColorFromHex("4385BE"),
	Band:       drawing.ColorFromHex("4385BE").WithAlpha(56),
	Actual:     drawing.ColorFromHex("CECDC3"),
	Text:       drawing.ColorFromHex("B7B5AC"),
}

// Options sizes and labels a chart.
type Options struct {
	Title   string
	Width   int
	Height  int
	Palette Palette
}

// DefaultOptions returns a wide chart suited to a multi-year daily series.
func DefaultOptions(title string) Options {
	return Options{Title: title, Width: 1400, Height: 560, Palette: Light}
}

// Forecast draws observed points, the forecast line and its uncertainty band.
func Forecast(w io.Writer, history []model.SeriesPoint, fc []model.ForecastPoint, opts Options) error {
	if len(fc) < 2 {
		return ErrNoData
	}

	fx := make([]time.Time, len(fc))
	yhat := make([]float64, len(fc))
	lower := make([]float64, len(fc))
	upper := make([]float64, len(fc))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, p := range fc {
		fx[i] = p.DS
		yhat[i] = p.Yhat
		lower[i] = p.YhatLower
		upper[i] = p.YhatUpper
		lo = math.Min(lo, p.YhatLower)
		hi = math.Max(hi, p.YhatUpper)
	}

	hx := make([]time.Time, 0, len(history))
	hy := make([]float64, 0, len(history))
	for _, p := range history {
		hx = append(hx, p.DS)
		hy = append(hy, p.Y)
		lo = math.Min(lo, p.Y)
		hi = math.Max(hi, p.Y)
	}

	pal := opts.Palette
	series := []chart.Series{
		// The band is drawn as a filled upper curve with the lower curve
		// filled in background color on top of it.
		chart.TimeSeries{
			Name:    "upper",
			Style:   chart.Style{StrokeWidth: chart.Disabled, FillColor: pal.Band},
			XValues: fx,
			YValues: upper,
		},
		chart.TimeSeries{
			Name:    "lower",
			Style:   chart.Style{StrokeWidth: chart.Disabled, FillColor: pal.Background},
			XValues: fx,
			YValues: lower,
		},
		chart.TimeSeries{
			Name:    "yhat",
			Style:   chart.Style{StrokeColor: pal.Forecast, StrokeWidth: 1.5},
			XValues: fx,
			YValues: yhat,
		},
	}
	if len(hx) >= 2 {
		series = append(series, chart.TimeSeries{
			Name: "actual",
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    1.5,
				DotColor:    pal.Actual,
			},
			XValues: hx,
			YValues: hy,
		})
	}

	return render(w, opts, series, lo, hi)
}

// Merged draws a dashboard selection: forecast, band and any joined actuals.
func Merged(w io.Writer, rows []model.MergedRow, opts Options) error {
	fc := make([]model.ForecastPoint, len(rows))
	var hist []model.SeriesPoint
	for i, r := range rows {
		fc[i] = r.ForecastPoint
		if r.Actual != nil {
			hist = append(hist, model.SeriesPoint{Store: r.Store, DS: r.DS, Y: *r.Actual})
		}
	}
	return Forecast(w, hist, fc, opts)
}

// SaveForecast renders Forecast into path, creating its directory.
func SaveForecast(path string, history []model.SeriesPoint, fc []model.ForecastPoint, opts Options) error {
	return save(path, func(w io.Writer) error { return Forecast(w, history, fc, opts) })
}

// SaveMerged renders Merged into path, creating its directory.
func SaveMerged(path string, rows []model.MergedRow, opts Options) error {
	return save(path, func(w io.Writer) error { return Merged(w, rows, opts) })
}

func save(path string, draw func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := draw(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return f.Close()
}

func render(w io.Writer, opts Options, series []chart.Series, lo, hi float64) error {
	if hi <= lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	pal := opts.Palette
	text := chart.Style{FontColor: pal.Text, StrokeColor: pal.Text}

	graph := chart.Chart{
		Title:      opts.Title,
		TitleStyle: chart.Style{FontColor: pal.Text},
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{
			FillColor: pal.Background,
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: pal.Background},
		XAxis: chart.XAxis{
			Name:           "ds",
			NameStyle:      text,
			Style:          text,
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:      "y",
			NameStyle: text,
			Style:     text,
			Range:     &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}
