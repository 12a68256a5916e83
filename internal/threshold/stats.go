package threshold

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// channel picks one nullable field out of a sample
type channel func(Sample) *float64

func hrOf(s Sample) *float64       { return s.HR }
func powerOf(s Sample) *float64    { return s.Power }
func velocityOf(s Sample) *float64 { return s.Velocity }

// values collects the usable readings of a channel. Heart rate, power and
// velocity readings must be positive and finite to count.
func values(samples []Sample, ch channel) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if v := ch(s); usable(v) {
			out = append(out, *v)
		}
	}
	return out
}

func usable(v *float64) bool {
	return v != nil && *v > 0 && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// popStdDev is the biased (population) standard deviation
func popStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	_, sd := stat.PopMeanStdDev(xs, nil)
	return sd
}

// coefficientOfVariation returns SD/mean, or +Inf when the mean is not positive
func coefficientOfVariation(xs []float64) float64 {
	m := mean(xs)
	if m <= 0 {
		return math.Inf(1)
	}
	return popStdDev(xs) / m
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// percentile returns the p-th quantile (0..1) using linear interpolation
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// olsFit fits y = intercept + slope*x. ok is false when x has no spread.
func olsFit(x, y []float64) (intercept, slope float64, ok bool) {
	if len(x) < 2 || len(x) != len(y) {
		return 0, 0, false
	}
	if popStdDev(x) == 0 {
		return 0, 0, false
	}
	intercept, slope = stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(slope) || math.IsNaN(intercept) {
		return 0, 0, false
	}
	return intercept, slope, true
}

// rollingMeanHR returns the trailing mean heart rate over window samples for
// every position where the window is full and holds at least one reading
func rollingMeanHR(samples []Sample, window int) []float64 {
	if window <= 0 || len(samples) < window {
		return nil
	}
	out := make([]float64, 0, len(samples)-window+1)
	for end := window; end <= len(samples); end++ {
		hr := values(samples[end-window:end], hrOf)
		if len(hr) == 0 {
			continue
		}
		out = append(out, mean(hr))
	}
	return out
}

func maxOf(xs []float64) float64 {
	best := math.Inf(-1)
	for _, x := range xs {
		if x > best {
			best = x
		}
	}
	return best
}

func minOf(xs []float64) float64 {
	best := math.Inf(1)
	for _, x := range xs {
		if x < best {
			best = x
		}
	}
	return best
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// distinctDays counts calendar days (UTC) among the evidence
func distinctDays(ev []Evidence) int {
	days := make(map[string]struct{}, len(ev))
	for _, e := range ev {
		days[e.Date.UTC().Format("2006-01-02")] = struct{}{}
	}
	return len(days)
}

// bounded returns an estimate with min <= value <= max enforced
func bounded(value, lo, hi int, conf Confidence, ev []Evidence) Estimate {
	if lo > value {
		lo = value
	}
	if hi < value {
		hi = value
	}
	if len(ev) > maxEvidence {
		ev = ev[:maxEvidence]
	}
	return Estimate{
		Value:      intPtr(value),
		Min:        intPtr(lo),
		Max:        intPtr(hi),
		Confidence: conf,
		Evidence:   ev,
	}
}

const maxEvidence = 5
