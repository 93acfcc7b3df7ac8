package dashboard

// Input names a control whose change triggers a refresh.
type Input string

const (
	InputStore    Input = "store"
	InputStart    Input = "start"
	InputEnd      Input = "end"
	InputTheme    Input = "theme"
	InputDownload Input = "download"
)

// Output names a region of the dashboard.
type Output string

const (
	OutputInsights Output = "insights"
	OutputForecast Output = "forecast"
	OutputMetrics  Output = "metrics"
	OutputMonthly  Output = "monthly"
	OutputYearly   Output = "yearly"
	OutputDownload Output = "download"
)

// Bindings maps every input to the outputs that must be recomputed when it
// changes. Download is an action: its output is a file, not a view.
var Bindings = map[Input][]Output{
	InputStore:    {OutputInsights, OutputForecast, OutputMetrics, OutputMonthly, OutputYearly},
	InputStart:    {OutputForecast, OutputMetrics, OutputMonthly, OutputYearly},
	InputEnd:      {OutputForecast, OutputMetrics, OutputMonthly, OutputYearly},
	InputTheme:    {OutputForecast, OutputMonthly, OutputYearly},
	InputDownload: {OutputDownload},
}

// View is the computed content of every dashboard region.
type View struct {
	Inputs      Inputs
	Insights    InsightsView
	Forecast    ForecastView
	Comparisons ComparisonsView
}

// Affected returns the distinct outputs bound to any of the changed inputs.
func Affected(changed ...Input) map[Output]bool {
	out := make(map[Output]bool)
	for _, in := range changed {
		for _, o := range Bindings[in] {
			out[o] = true
		}
	}
	return out
}

// Refresh recomputes the regions bound to the changed inputs and leaves the
// rest of v untouched. With no changed inputs every view region is computed.
// It never writes files; InputDownload is handled by Export.
func Refresh(d *Data, in Inputs, v View, changed ...Input) View {
	if len(changed) == 0 {
		changed = []Input{InputStore}
	}
	outs := Affected(changed...)
	v.Inputs = in

	if outs[OutputInsights] {
		v.Insights = RenderInsights(d, in)
	}
	if outs[OutputForecast] || outs[OutputMetrics] {
		v.Forecast = RenderForecast(d, in)
	}
	if outs[OutputMonthly] || outs[OutputYearly] {
		v.Comparisons = RenderComparisons(d, in)
	}
	return v
}

// Diff lists the inputs that differ between two selections.
func Diff(prev, next Inputs) []Input {
	var changed []Input
	if prev.Store != next.Store {
		changed = append(changed, InputStore)
	}
	if !prev.Start.Equal(next.Start) {
		changed = append(changed, InputStart)
	}
	if !prev.End.Equal(next.End) {
		changed = append(changed, InputEnd)
	}
	if prev.Theme != next.Theme {
		changed = append(changed, InputTheme)
	}
	return changed
}
