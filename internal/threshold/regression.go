package threshold

import (
	"math"
	"sort"
)

const (
	modelWindowMinutes = 5.0
	modelMaxHRStdDev   = 5.0
	modelMinWindows    = 5
	modelNeighbourhood = 5
)

// hrPoint is one steady window's mean heart rate and intensity
type hrPoint struct {
	hr        float64
	intensity float64
}

// IntensityModel predicts pace or power for a target heart rate from a local
// linear fit over the steady windows closest to that heart rate
type IntensityModel struct {
	kind   intensityKind
	points []hrPoint // ordered by heart rate
}

// BuildIntensityModel fits the model for a sport from recent activities.
// It returns nil when the sport has no intensity channel or fewer than five
// usable windows exist.
func BuildIntensityModel(activities []ActivityRecord, sport Sport, opts Options) *IntensityModel {
	opts = opts.withDefaults()
	return buildIntensityModel(prepare(activities, opts), sport, opts)
}

func buildIntensityModel(all []prepared, sport Sport, opts Options) *IntensityModel {
	profile := profileFor(sport)
	var ch channel
	switch profile.intensity {
	case intensityPower:
		ch = powerOf
	case intensityVelocity:
		ch = velocityOf
	default:
		return nil
	}

	window := int(math.Round(modelWindowMinutes * samplesPerMinute(opts.IntervalSeconds)))
	acts := ofSport(since(all, opts.cutoff(opts.LookbackDays)), sport)

	var points []hrPoint
	for _, a := range acts {
		for start := 0; start+window <= len(a.samples); start += window {
			seg := a.samples[start : start+window]
			hr := values(seg, hrOf)
			if len(hr) == 0 || popStdDev(hr) > modelMaxHRStdDev {
				continue
			}
			intensity := values(seg, ch)
			if len(intensity) == 0 {
				continue
			}
			points = append(points, hrPoint{hr: mean(hr), intensity: mean(intensity)})
		}
	}
	if len(points) < modelMinWindows {
		return nil
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].hr < points[j].hr
	})
	return &IntensityModel{kind: profile.intensity, points: points}
}

// Predict returns the intensity (watts or m/s) expected at targetHR
func (m *IntensityModel) Predict(targetHR float64) (float64, bool) {
	if m == nil || len(m.points) == 0 {
		return 0, false
	}

	closest := 0
	for i, p := range m.points {
		if math.Abs(p.hr-targetHR) < math.Abs(m.points[closest].hr-targetHR) {
			closest = i
		}
	}

	size := min(modelNeighbourhood, len(m.points))
	lo := closest - size/2
	lo = max(0, min(lo, len(m.points)-size))
	local := m.points[lo : lo+size]

	x := make([]float64, len(local))
	y := make([]float64, len(local))
	for i, p := range local {
		x[i], y[i] = p.hr, p.intensity
	}

	var predicted float64
	if intercept, slope, ok := olsFit(x, y); ok {
		predicted = slope*targetHR + intercept
	} else {
		predicted = mean(y)
	}
	if predicted <= 0 || math.IsNaN(predicted) || math.IsInf(predicted, 0) {
		return 0, false
	}
	return predicted, true
}
