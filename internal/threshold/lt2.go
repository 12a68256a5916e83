package threshold

import "math"

const (
	lt2WarmUpMinutes  = 10.0
	lt2StepMinutes    = 5.0
	lt2TailMinutes    = 15.0
	lt2MinHRCoverage  = 0.80
	lt2MaxSlopePerMin = 0.25 // bpm/min
	lt2TightSpread    = 5.0  // bpm
)

// EstimateLT2 finds the highest heart rate held over a sustained effort while
// the heart rate trend stays flat
func EstimateLT2(activities []ActivityRecord, sport Sport, opts Options) ThresholdResult {
	opts = opts.withDefaults()
	return wrap(estimateLT2(prepare(activities, opts), sport, opts))
}

func estimateLT2(all []prepared, sport Sport, opts Options) Estimate {
	profile := profileFor(sport)
	acts := ofSport(since(all, opts.cutoff(opts.LookbackDays)), sport)

	var candidates []Evidence
	for _, a := range acts {
		candidates = append(candidates, lt2Candidates(a, profile, opts.IntervalSeconds)...)
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

	margin := 6
	if maxOf(hrs)-minOf(hrs) < lt2TightSpread {
		margin = 3
	}
	value := roundInt(candidates[0].MeanHR)

	return bounded(value, value-margin, value+margin, lt2Confidence(candidates), candidates)
}

// lt2Candidates scans one activity after the warm-up for sustained segments
// with a flat heart rate trend
func lt2Candidates(a prepared, profile sportProfile, interval float64) []Evidence {
	perMin := samplesPerMinute(interval)
	segment := int(math.Round(profile.lt2Minutes * perMin))
	step := int(math.Round(lt2StepMinutes * perMin))
	warmUp := int(math.Round(lt2WarmUpMinutes * perMin))
	tail := int(math.Round(lt2TailMinutes * perMin))

	var out []Evidence
	for start := warmUp; start+segment <= len(a.samples); start += step {
		seg := a.samples[start : start+segment]

		elapsed, hr := hrTrendPoints(seg, interval)
		if float64(len(hr))/float64(len(seg)) < lt2MinHRCoverage {
			continue
		}
		_, slope, ok := olsFit(elapsed, hr)
		if !ok || slope > lt2MaxSlopePerMin {
			continue
		}

		lthr := values(seg[len(seg)-min(tail, len(seg)):], hrOf)
		if len(lthr) == 0 {
			continue
		}

		out = append(out, Evidence{
			ActivityID:      a.id,
			Date:            a.date,
			MeanHR:          math.Round(mean(lthr)*10) / 10,
			Slope:           floatPtr(math.Round(slope*1000) / 1000),
			DurationMinutes: profile.lt2Minutes,
			Intensity:       segmentIntensity(seg, profile.intensity),
		})
	}
	return out
}

// hrTrendPoints pairs elapsed minutes with each valid heart rate reading
func hrTrendPoints(seg []Sample, interval float64) (elapsed, hr []float64) {
	for i, s := range seg {
		if usable(s.HR) {
			elapsed = append(elapsed, float64(i)*interval/60)
			hr = append(hr, *s.HR)
		}
	}
	return elapsed, hr
}

// segmentIntensity is the mean power or velocity over the segment, preferring
// the sport's own channel and falling back to whichever is recorded
func segmentIntensity(seg []Sample, kind intensityKind) *float64 {
	order := []channel{powerOf, velocityOf}
	if kind == intensityVelocity {
		order = []channel{velocityOf, powerOf}
	}
	for _, ch := range order {
		if v := values(seg, ch); len(v) > 0 {
			return floatPtr(math.Round(mean(v)*100) / 100)
		}
	}
	return nil
}

func lt2Confidence(candidates []Evidence) Confidence {
	switch {
	case len(candidates) >= 3 && distinctDays(candidates) >= 2:
		return ConfidenceHigh
	case len(candidates) >= 1:
		return ConfidenceMed
	default:
		return ConfidenceLow
	}
}
