package threshold

import (
	"fmt"
	"math"
)

const (
	stageDurationMinutes = 4
	stageStepBPM         = 6
	maxStages            = 10
	nearThresholdStages  = 2
)

// Stage labels
const (
	NoteBelowLT1 = "Below LT1"
	NoteNearLT1  = "Near LT1"
	NoteNearLT2  = "Near LT2"
	NoteAboveLT2 = "Above LT2"
)

// GenerateProtocol builds a staged incremental test from the three estimates.
// It returns nil unless all three carry a value. model may be nil, in which
// case stages have no pace or power suggestion.
func GenerateProtocol(sport Sport, hrMax, lt1, lt2 Estimate, model *IntensityModel) *Protocol {
	if hrMax.Value == nil || lt1.Value == nil || lt2.Value == nil {
		return nil
	}
	profile := profileFor(sport)
	peak := *hrMax.Value
	t1 := *lt1.Value
	t2 := *lt2.Value

	start := max(t1-profile.protocolOffset, roundInt(0.55*float64(peak)))
	end := min(t2+10, roundInt(0.95*float64(peak)))

	p := &Protocol{
		Sport:                sport,
		StageDurationMinutes: stageDurationMinutes,
		Stages:               []Stage{},
		StopRules: []string{
			fmt.Sprintf("Stop when heart rate reaches %d bpm or higher", end),
			"Stop when perceived exertion reaches RPE 8/10 or higher",
			"Stop on significant performance deterioration (target pace or power can no longer be held)",
		},
	}

	hr := start
	add := func(note string) {
		p.Stages = append(p.Stages, newStage(len(p.Stages)+1, hr, note, profile.intensity, model))
		hr += stageStepBPM
	}
	room := func() bool { return len(p.Stages) < maxStages && hr <= end }

	for room() && hr < t1-5 {
		add(NoteBelowLT1)
	}
	for n := 0; n < nearThresholdStages && room() && hr < t2-5; n++ {
		add(NoteNearLT1)
	}
	for n := 0; n < nearThresholdStages && room(); n++ {
		add(NoteNearLT2)
	}
	for room() {
		add(NoteAboveLT2)
	}

	return p
}

func newStage(n, targetHR int, note string, kind intensityKind, model *IntensityModel) Stage {
	s := Stage{Stage: n, TargetHR: targetHR, Notes: note}
	intensity, ok := model.Predict(float64(targetHR))
	if !ok {
		return s
	}
	switch kind {
	case intensityVelocity:
		pace := FormatPace(1000 / intensity)
		s.SuggestedPace = &pace
	case intensityPower:
		s.SuggestedPower = intPtr(roundInt(intensity))
	}
	return s
}

// FormatPace formats seconds per kilometre as M:SS
func FormatPace(secondsPerKm float64) string {
	total := int(math.Round(secondsPerKm))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
