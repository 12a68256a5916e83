package threshold

import (
	"math"
	"sort"
)

const (
	hardEffortPercentile = 0.80
	rollingWindowSeconds = 30.0
	hrCeiling            = 220.0
)

// hrmaxContribution is one activity's share of the hard-effort pool
type hrmaxContribution struct {
	evidence   Evidence
	pool       []float64
	maxRolling float64
}

// EstimateHRMax derives maximum heart rate from the hard portions of recent
// activities. The lookback widens to the expanded window when fewer than three
// activities contribute.
func EstimateHRMax(activities []ActivityRecord, opts Options) Estimate {
	opts = opts.withDefaults()
	return estimateHRMax(prepare(activities, opts), opts)
}

func estimateHRMax(all []prepared, opts Options) Estimate {
	window := int(math.Round(rollingWindowSeconds / opts.IntervalSeconds))

	contribs := hrmaxContributions(since(all, opts.cutoff(opts.LookbackDays)), window)
	if len(contribs) < minHRMaxActivities && opts.ExpandedLookbackDays > opts.LookbackDays {
		contribs = hrmaxContributions(since(all, opts.cutoff(opts.ExpandedLookbackDays)), window)
	}

	var pool []float64
	maxRolling := math.Inf(-1)
	for _, c := range contribs {
		pool = append(pool, c.pool...)
		maxRolling = math.Max(maxRolling, c.maxRolling)
	}
	if len(pool) == 0 {
		return emptyEstimate()
	}

	p99 := percentile(pool, 0.99)
	p98 := percentile(pool, 0.98)

	value := roundInt(math.Max(maxRolling, p99))
	lo := roundInt(math.Max(p98-2, minOf(pool)))
	hi := roundInt(math.Min(maxRolling+2, hrCeiling))

	evidence := make([]Evidence, 0, len(contribs))
	for _, c := range contribs {
		evidence = append(evidence, c.evidence)
	}
	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].MaxRolling30s > evidence[j].MaxRolling30s
	})

	return bounded(value, lo, hi, hrmaxConfidence(len(contribs), len(pool)), evidence)
}

// hrmaxContributions pools the rolling 30 s averages that reach each
// activity's own hard-effort threshold
func hrmaxContributions(acts []prepared, window int) []hrmaxContribution {
	var out []hrmaxContribution
	for _, a := range acts {
		hr := values(a.samples, hrOf)
		if len(hr) == 0 {
			continue
		}
		hard := percentile(hr, hardEffortPercentile)

		rolling := rollingMeanHR(a.samples, window)
		var pool []float64
		for _, v := range rolling {
			if v >= hard {
				pool = append(pool, v)
			}
		}
		if len(pool) == 0 {
			continue
		}

		peak := maxOf(rolling)
		out = append(out, hrmaxContribution{
			evidence: Evidence{
				ActivityID:    a.id,
				Date:          a.date,
				MaxRolling30s: math.Round(peak*10) / 10,
				SampleCount:   len(pool),
			},
			pool:       pool,
			maxRolling: peak,
		})
	}
	return out
}

func hrmaxConfidence(activities, samples int) Confidence {
	switch {
	case activities >= 4 && samples >= 50:
		return ConfidenceHigh
	case activities >= 2 && samples >= 20:
		return ConfidenceMed
	default:
		return ConfidenceLow
	}
}
