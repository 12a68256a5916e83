package threshold

// EmptyPlan is the result when no activity carries heart rate
func EmptyPlan() Plan {
	return Plan{
		HRMax: emptyEstimate(),
		LT1:   wrap(emptyEstimate()),
		LT2:   wrap(emptyEstimate()),
	}
}

// BuildPlan runs every estimator over the same activity snapshot and composes
// the protocol. Activities are preprocessed once and shared by the estimators.
// It never fails; missing data shows up as nil values with low confidence.
func BuildPlan(activities []ActivityRecord, sport Sport, opts Options) Plan {
	opts = opts.withDefaults()

	all := prepare(activities, opts)
	if len(all) == 0 {
		return EmptyPlan()
	}

	hrMax := estimateHRMax(all, opts)
	lt1 := estimateLT1(all, sport, opts)
	lt2 := estimateLT2(all, sport, opts)
	model := buildIntensityModel(all, sport, opts)

	return Plan{
		HRMax:    hrMax,
		LT1:      wrap(lt1),
		LT2:      wrap(lt2),
		Protocol: GenerateProtocol(sport, hrMax, lt1, lt2, model),
	}
}
