package threshold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tempoRun warms up for ten minutes at 130 bpm then holds 170 bpm for thirty
func tempoRun(id string, date time.Time) ActivityRecord {
	return ActivityRecord{
		ID:    id,
		Date:  date,
		Sport: "Run",
		Streams: synth(2400, func(t int) float64 {
			if t < 600 {
				return 130
			}
			return 170
		}, nil, constant(3.5)),
	}
}

func TestEstimateLT2_SustainedEffort(t *testing.T) {
	acts := []ActivityRecord{tempoRun("tempo", daysAgo(2))}

	got := EstimateLT2(acts, SportRun, testOptions())

	require.NotNil(t, got.HR.Value)
	assert.Equal(t, 170, *got.HR.Value)
	assert.Equal(t, 167, *got.HR.Min)
	assert.Equal(t, 173, *got.HR.Max)
	assert.Equal(t, ConfidenceMed, got.Confidence)

	require.Len(t, got.Evidence, 3)
	for _, e := range got.Evidence {
		assert.Equal(t, 170.0, e.MeanHR)
		require.NotNil(t, e.Slope)
		assert.LessOrEqual(t, *e.Slope, lt2MaxSlopePerMin)
		require.NotNil(t, e.Intensity)
		assert.InDelta(t, 3.5, *e.Intensity, 1e-9)
		assert.Equal(t, 20.0, e.DurationMinutes)
	}
}

func TestEstimateLT2_RisingHeartRateRejected(t *testing.T) {
	acts := []ActivityRecord{{
		ID:    "climb",
		Date:  daysAgo(1),
		Sport: "Run",
		Streams: synth(2400, func(t int) float64 {
			return 130 + float64(t)/60
		}, nil, constant(3.5)),
	}}

	got := EstimateLT2(acts, SportRun, testOptions())
	assert.Nil(t, got.HR.Value)
	assert.Equal(t, ConfidenceLow, got.Confidence)
}

func TestEstimateLT2_CyclingNeedsLongerSegments(t *testing.T) {
	ride := ActivityRecord{
		ID:      "ride",
		Date:    daysAgo(1),
		Sport:   "Ride",
		Streams: synth(2400, constant(165), constant(240), nil),
	}

	got := EstimateLT2([]ActivityRecord{ride}, SportBike, testOptions())
	require.NotNil(t, got.HR.Value)
	assert.Len(t, got.Evidence, 1)
	assert.Equal(t, 30.0, got.Evidence[0].DurationMinutes)

	ride.Streams = synth(2100, constant(165), constant(240), nil)
	got = EstimateLT2([]ActivityRecord{ride}, SportBike, testOptions())
	assert.Nil(t, got.HR.Value)
}

func TestEstimateLT2_LowHeartRateCoverage(t *testing.T) {
	s := synth(2400, constant(170), nil, constant(3.5))
	for i := range s.HeartRate {
		if i%50 != 0 {
			s.HeartRate[i] = nil
		}
	}
	acts := []ActivityRecord{{ID: "gappy", Date: daysAgo(1), Sport: "Run", Streams: s}}

	got := EstimateLT2(acts, SportRun, testOptions())
	assert.Nil(t, got.HR.Value)
}

func TestEstimateLT2_WideSpreadWidensRange(t *testing.T) {
	easy := tempoRun("easy", daysAgo(3))
	easy.Streams = synth(2400, constant(150), nil, constant(3.0))

	acts := []ActivityRecord{
		{ID: "short", Date: daysAgo(1), Sport: "Run", Streams: synth(1800, constant(170), nil, nil)},
		easy,
	}

	got := EstimateLT2(acts, SportRun, testOptions())

	require.NotNil(t, got.HR.Value)
	assert.Equal(t, 170, *got.HR.Value)
	assert.Equal(t, 164, *got.HR.Min)
	assert.Equal(t, 176, *got.HR.Max)
}

func TestEstimateLT2_HighConfidenceAcrossDays(t *testing.T) {
	acts := []ActivityRecord{
		tempoRun("a", daysAgo(1)),
		tempoRun("b", daysAgo(4)),
	}

	got := EstimateLT2(acts, SportRun, testOptions())
	assert.Equal(t, ConfidenceHigh, got.Confidence)
}
