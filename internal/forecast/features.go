package forecast

import (
	"math"
	"sort"
	"time"
)

const slopePrior = 5.0

// term groups share a prior.
type term int

const (
	termIntercept term = iota
	termSlope
	termChangepoint
	termWeekly
	termYearly
)

// design describes the columns of the regression matrix.
type design struct {
	start        time.Time
	tScale       float64   // days spanned by the history
	changepoints []float64 // scaled positions in [0, 1)
	opts         Options
	terms        []term
}

func newDesign(start time.Time, tScale float64, changepoints []float64, opts Options) *design {
	d := &design{start: start, tScale: tScale, changepoints: changepoints, opts: opts}
	d.terms = append(d.terms, termIntercept, termSlope)
	for range changepoints {
		d.terms = append(d.terms, termChangepoint)
	}
	if opts.Weekly {
		for i := 0; i < 2*opts.WeeklyOrder; i++ {
			d.terms = append(d.terms, termWeekly)
		}
	}
	if opts.Yearly {
		for i := 0; i < 2*opts.YearlyOrder; i++ {
			d.terms = append(d.terms, termYearly)
		}
	}
	return d
}

func (d *design) width() int { return len(d.terms) }

// scaledTime maps a date onto the history's [0, 1] axis; future dates exceed 1.
func (d *design) scaledTime(ds time.Time) float64 {
	return daysBetween(d.start, ds) / d.tScale
}

// row fills dst with the feature values for ds.
func (d *design) row(ds time.Time, dst []float64) {
	t := d.scaledTime(ds)
	dst[0] = 1
	dst[1] = t
	col := 2
	for _, c := range d.changepoints {
		dst[col] = math.Max(0, t-c)
		col++
	}

	// Seasonal terms run on absolute days so phases don't depend on where the history starts.
	epochDays := float64(ds.Unix()) / 86400
	if d.opts.Weekly {
		col = fourier(epochDays, weeklyPeriod, d.opts.WeeklyOrder, dst, col)
	}
	if d.opts.Yearly {
		fourier(epochDays, yearlyPeriod, d.opts.YearlyOrder, dst, col)
	}
}

func fourier(days, period float64, order int, dst []float64, col int) int {
	for k := 1; k <= order; k++ {
		x := 2 * math.Pi * float64(k) * days / period
		dst[col] = math.Sin(x)
		dst[col+1] = math.Cos(x)
		col += 2
	}
	return col
}

// penalty returns the ridge weight for a column given the noise variance.
func (d *design) penalty(col int, noiseVar float64) float64 {
	switch d.terms[col] {
	case termIntercept:
		return 0
	case termSlope:
		return noiseVar / (slopePrior * slopePrior)
	case termChangepoint:
		return noiseVar / (d.opts.ChangepointPrior * d.opts.ChangepointPrior)
	default:
		return noiseVar / (d.opts.SeasonalityPrior * d.opts.SeasonalityPrior)
	}
}

// placeChangepoints spreads n changepoints over the first share of the sorted
// scaled times, skipping the first observation.
func placeChangepoints(sortedT []float64, n int, share float64) []float64 {
	histSize := int(math.Floor(float64(len(sortedT)) * share))
	if n > histSize-1 {
		n = histSize - 1
	}
	if n <= 0 {
		return nil
	}

	out := make([]float64, 0, n)
	step := float64(histSize-1) / float64(n)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(float64(i) * step))
		c := sortedT[idx]
		if len(out) > 0 && c <= out[len(out)-1] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}

// uniqueSortedDays truncates to whole days and removes duplicates.
func uniqueSortedDays(ds []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(ds))
	out := make([]time.Time, 0, len(ds))
	for _, d := range ds {
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
