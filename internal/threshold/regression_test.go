package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepRide climbs through five 5 minute steps, 10 bpm and 50 W apart
func stepRide(id string) ActivityRecord {
	level := func(t int) float64 { return float64(t / 300) }
	return ActivityRecord{
		ID:    id,
		Date:  daysAgo(1),
		Sport: "Ride",
		Streams: synth(1500,
			func(t int) float64 { return 120 + 10*level(t) },
			func(t int) float64 { return 100 + 50*level(t) },
			nil),
	}
}

func TestBuildIntensityModel_LinearSteps(t *testing.T) {
	m := BuildIntensityModel([]ActivityRecord{stepRide("steps")}, SportBike, testOptions())
	require.NotNil(t, m)
	assert.Len(t, m.points, 5)

	got, ok := m.Predict(145)
	require.True(t, ok)
	assert.InDelta(t, 225, got, 1e-6)

	got, ok = m.Predict(120)
	require.True(t, ok)
	assert.InDelta(t, 100, got, 1e-6)
}

func TestBuildIntensityModel_Unavailable(t *testing.T) {
	short := stepRide("short")
	short.Streams = synth(1200, constant(150), constant(200), nil)

	tests := []struct {
		name  string
		acts  []ActivityRecord
		sport Sport
	}{
		{"too few windows", []ActivityRecord{short}, SportBike},
		{"no intensity channel for sport", []ActivityRecord{stepRide("steps")}, SportSwim},
		{"no velocity recorded", []ActivityRecord{{
			ID: "run", Date: daysAgo(1), Sport: "Run",
			Streams: synth(1800, constant(150), nil, nil),
		}}, SportRun},
		{"wrong sport", []ActivityRecord{stepRide("steps")}, SportRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, BuildIntensityModel(tt.acts, tt.sport, testOptions()))
		})
	}
}

func TestBuildIntensityModel_SkipsUnsteadyWindows(t *testing.T) {
	ride := stepRide("mixed")
	ride.Streams = synth(3000, func(t int) float64 {
		// the second half alternates 20 bpm apart every 10 seconds
		if t >= 1500 && (t/10)%2 == 1 {
			return 170
		}
		if t >= 1500 {
			return 150
		}
		return 120 + 10*float64(t/300)
	}, constant(200), nil)

	m := BuildIntensityModel([]ActivityRecord{ride}, SportBike, testOptions())
	require.NotNil(t, m)
	assert.Len(t, m.points, 5)
}

func TestIntensityModel_LocalNeighbourhood(t *testing.T) {
	m := &IntensityModel{kind: intensityPower, points: []hrPoint{
		{120, 100}, {130, 150}, {140, 200}, {150, 250}, {160, 300},
		{170, 400}, {180, 500},
	}}

	got, ok := m.Predict(118)
	require.True(t, ok)
	assert.InDelta(t, 90, got, 1e-6)

	got, ok = m.Predict(182)
	require.True(t, ok)
	assert.InDelta(t, 495, got, 1e-6)
}

func TestIntensityModel_Fallbacks(t *testing.T) {
	var nilModel *IntensityModel
	_, ok := nilModel.Predict(150)
	assert.False(t, ok)

	flat := &IntensityModel{kind: intensityPower, points: []hrPoint{
		{150, 200}, {150, 210}, {150, 220}, {150, 230}, {150, 240},
	}}
	got, ok := flat.Predict(170)
	require.True(t, ok)
	assert.InDelta(t, 220, got, 1e-9)

	falling := &IntensityModel{kind: intensityPower, points: []hrPoint{
		{120, 100}, {130, 80}, {140, 60}, {150, 40}, {160, 20},
	}}
	_, ok = falling.Predict(200)
	assert.False(t, ok, "non-positive prediction")
}
