package threshold

import (
	"math"
	"sort"
)

const (
	lt1WindowMinutes  = 20.0
	lt1StepMinutes    = 5.0
	lt1WarmInMinutes  = 2.0
	lt1MinActivities  = 2
	steadyMaxCV       = 0.05
	steadyMaxHRStdDev = 6.0
)

// EstimateLT1 finds the highest heart rate held through a steady 20 minute
// effort without meaningful cardiac drift. Activities are filtered by sport
// and the configured lookback; the window is not widened automatically.
func EstimateLT1(activities []ActivityRecord, sport Sport, opts Options) ThresholdResult {
	opts = opts.withDefaults()
	return wrap(estimateLT1(prepare(activities, opts), sport, opts))
}

func estimateLT1(all []prepared, sport Sport, opts Options) Estimate {
	profile := profileFor(sport)
	acts := ofSport(since(all, opts.cutoff(opts.LookbackDays)), sport)

	perMin := samplesPerMinute(opts.IntervalSeconds)
	window := int(math.Round(lt1WindowMinutes * perMin))

	var qualifying []prepared
	for _, a := range acts {
		if len(a.samples) >= window {
			qualifying = append(qualifying, a)
		}
	}
	if len(qualifying) < lt1MinActivities {
		return emptyEstimate()
	}

	var candidates []Evidence
	for _, a := range qualifying {
		candidates = append(candidates, lt1Candidates(a, profile, opts.IntervalSeconds)...)
	}
	if len(candidates) == 0 {
		return emptyEstimate()
	}

	sortByMeanHR(candidates)
	top := candidates[:min(3, len(candidates))]
	hrs := make([]float64, len(top))
	for i, c := range top {
		hrs[i] = c.MeanHR
	}

	value := roundInt(candidates[0].MeanHR)
	lo := roundInt(minOf(hrs) - 3)
	hi := roundInt(maxOf(hrs) + 3)

	return bounded(value, lo, hi, lt1Confidence(candidates), candidates)
}

// lt1Candidates slides the analysis window over one activity and keeps the
// steady windows whose drift stays within the sport's limit
func lt1Candidates(a prepared, profile sportProfile, interval float64) []Evidence {
	perMin := samplesPerMinute(interval)
	window := int(math.Round(lt1WindowMinutes * perMin))
	step := int(math.Round(lt1StepMinutes * perMin))
	warmIn := int(math.Round(lt1WarmInMinutes * perMin))

	var out []Evidence
	for start := 0; start+window <= len(a.samples); start += step {
		seg := a.samples[start : start+window]
		if !isSteady(seg) {
			continue
		}

		body := seg[warmIn:]
		half := len(body) / 2
		first := values(body[:half], hrOf)
		second := values(body[half:], hrOf)
		if len(first) == 0 || len(second) == 0 {
			continue
		}
		m1, m2 := mean(first), mean(second)
		drift := (m2 - m1) / m1 * 100
		if drift > profile.lt1DriftLimit {
			continue
		}

		out = append(out, Evidence{
			ActivityID:      a.id,
			Date:            a.date,
			MeanHR:          math.Round(mean(values(body, hrOf))*10) / 10,
			DriftPct:        floatPtr(math.Round(drift*100) / 100),
			DurationMinutes: lt1WindowMinutes,
		})
	}
	return out
}

// isSteady judges effort variability using power, then velocity, then heart
// rate, whichever is present first
func isSteady(seg []Sample) bool {
	if power := values(seg, powerOf); len(power) > 0 {
		return coefficientOfVariation(power) <= steadyMaxCV
	}
	if vel := values(seg, velocityOf); len(vel) > 0 {
		return coefficientOfVariation(vel) <= steadyMaxCV
	}
	hr := values(seg, hrOf)
	if len(hr) == 0 {
		return false
	}
	return popStdDev(hr) <= steadyMaxHRStdDev
}

func lt1Confidence(candidates []Evidence) Confidence {
	switch {
	case len(candidates) >= 4 && distinctDays(candidates) >= 3:
		return ConfidenceHigh
	case len(candidates) >= 2:
		return ConfidenceMed
	default:
		return ConfidenceLow
	}
}

// sortByMeanHR orders candidates by heart rate, highest first; ties keep list order
func sortByMeanHR(c []Evidence) {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].MeanHR > c[j].MeanHR
	})
}
