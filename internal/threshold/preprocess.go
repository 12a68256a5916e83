package threshold

import (
	"math"
	"sort"
)

const (
	// DefaultIntervalSeconds is the resampling grid spacing
	DefaultIntervalSeconds = 5.0

	medianWindow   = 3    // samples, ~15 s
	maxHRStepDelta = 15.0 // bpm between consecutive samples
	maxSpanSeconds = 24 * 60 * 60
)

// Preprocess resamples a raw stream onto a fixed grid using the nearest
// original reading, median-smooths heart rate and clamps heart rate spikes.
// It returns nil when the stream has no usable time axis or spans more than a day.
func Preprocess(s Streams, interval float64) []Sample {
	if interval <= 0 {
		interval = DefaultIntervalSeconds
	}

	order := timeOrder(s.Time)
	if len(order) == 0 {
		return nil
	}

	first := s.Time[order[0]]
	last := s.Time[order[len(order)-1]]
	if last-first > maxSpanSeconds {
		return nil
	}
	n := int(math.Ceil((last-first)/interval)) + 1

	samples := make([]Sample, n)
	j := 0
	for k := 0; k < n; k++ {
		t := first + float64(k)*interval
		// advance while the next original reading is strictly closer
		for j+1 < len(order) && math.Abs(s.Time[order[j+1]]-t) < math.Abs(s.Time[order[j]]-t) {
			j++
		}
		idx := order[j]
		samples[k] = Sample{
			Time:     float64(k) * interval,
			HR:       at(s.HeartRate, idx),
			Power:    at(s.Power, idx),
			Velocity: at(s.Velocity, idx),
			Distance: at(s.Distance, idx),
		}
	}

	smoothHR(samples)
	clampHRSpikes(samples)
	return samples
}

// timeOrder returns the indices of finite time readings sorted by time.
// Equal times keep their original order.
func timeOrder(times []float64) []int {
	order := make([]int, 0, len(times))
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			continue
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return times[order[a]] < times[order[b]]
	})
	return order
}

func at(series []*float64, i int) *float64 {
	if i >= len(series) || series[i] == nil {
		return nil
	}
	v := *series[i]
	return &v
}

// smoothHR applies a centered rolling median, ignoring missing and
// non-positive readings
func smoothHR(samples []Sample) {
	half := medianWindow / 2
	smoothed := make([]*float64, len(samples))
	window := make([]float64, 0, medianWindow)

	for i := range samples {
		window = window[:0]
		for k := i - half; k <= i+half; k++ {
			if k < 0 || k >= len(samples) {
				continue
			}
			if usable(samples[k].HR) {
				window = append(window, *samples[k].HR)
			}
		}
		if len(window) > 0 {
			smoothed[i] = floatPtr(median(window))
		}
	}

	for i := range samples {
		samples[i].HR = smoothed[i]
	}
}

// clampHRSpikes limits the change between consecutive heart rate readings
// instead of dropping samples, so the sequence keeps its length
func clampHRSpikes(samples []Sample) {
	var prev *float64
	for i := range samples {
		hr := samples[i].HR
		if hr == nil {
			continue
		}
		if prev != nil {
			switch delta := *hr - *prev; {
			case delta > maxHRStepDelta:
				*hr = *prev + maxHRStepDelta
			case delta < -maxHRStepDelta:
				*hr = *prev - maxHRStepDelta
			}
		}
		prev = hr
	}
}
