package threshold

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// planActivities covers every estimator for cycling: two steady rides for LT1,
// a hard interval-paced ride for LT2 and a run with a maximal finish for HRmax
func planActivities() []ActivityRecord {
	threshold := ActivityRecord{
		ID:    "threshold",
		Date:  daysAgo(3),
		Sport: "VirtualRide",
		Streams: synth(2700, constant(168), func(t int) float64 {
			if (t/5)%2 == 0 {
				return 200
			}
			return 260
		}, nil),
	}
	return []ActivityRecord{
		steadyRide("endurance-1", daysAgo(1), 2700, 180),
		steadyRide("endurance-2", daysAgo(2), 2700, 180),
		threshold,
		hardRun("max", daysAgo(10), 140, 190),
	}
}

func TestBuildPlan_Cycling(t *testing.T) {
	plan := BuildPlan(planActivities(), SportBike, testOptions())

	require.NotNil(t, plan.HRMax.Value)
	assert.Equal(t, 190, *plan.HRMax.Value)
	assert.Equal(t, ConfidenceMed, plan.HRMax.Confidence)

	require.NotNil(t, plan.LT1.HR.Value)
	assert.Equal(t, 150, *plan.LT1.HR.Value)
	assert.Equal(t, ConfidenceMed, plan.LT1.Confidence)

	require.NotNil(t, plan.LT2.HR.Value)
	assert.Equal(t, 168, *plan.LT2.HR.Value)
	assert.Equal(t, 162, *plan.LT2.HR.Min)
	assert.Equal(t, 174, *plan.LT2.HR.Max)
	assert.Equal(t, ConfidenceHigh, plan.LT2.Confidence)

	require.NotNil(t, plan.Protocol)
	assert.Equal(t, []int{138, 144, 150, 156, 162, 168, 174}, targets(plan.Protocol))
	for _, s := range plan.Protocol.Stages {
		require.NotNil(t, s.SuggestedPower, "stage %d", s.Stage)
		assert.Positive(t, *s.SuggestedPower)
		assert.Nil(t, s.SuggestedPace)
	}
}

func TestBuildPlan_Deterministic(t *testing.T) {
	acts := planActivities()

	serial := testOptions()
	serial.Workers = 1
	parallel := testOptions()
	parallel.Workers = 8

	first := BuildPlan(acts, SportBike, serial)
	for i := 0; i < 3; i++ {
		if diff := cmp.Diff(first, BuildPlan(acts, SportBike, parallel)); diff != "" {
			t.Fatalf("plan changed between runs (-first +again):\n%s", diff)
		}
	}
}

func TestBuildPlan_DoesNotMutateActivities(t *testing.T) {
	acts := planActivities()
	before := planActivities()

	BuildPlan(acts, SportBike, testOptions())

	if diff := cmp.Diff(before, acts); diff != "" {
		t.Errorf("activities mutated (-before +after):\n%s", diff)
	}
}

func TestBuildPlan_NoHeartRate(t *testing.T) {
	tests := []struct {
		name string
		acts []ActivityRecord
	}{
		{"nil input", nil},
		{"power only", []ActivityRecord{{
			ID: "p", Date: daysAgo(1), Sport: "Ride",
			Streams: synth(3600, nil, constant(200), nil),
		}}},
		{"heart rate without time axis", []ActivityRecord{{
			ID: "broken", Date: daysAgo(1), Sport: "Ride",
			Streams: Streams{HeartRate: series(10, constant(150))},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := BuildPlan(tt.acts, SportBike, testOptions())

			if diff := cmp.Diff(EmptyPlan(), plan); diff != "" {
				t.Errorf("unexpected plan (-want +got):\n%s", diff)
			}
			assert.Nil(t, plan.HRMax.Value)
			assert.Nil(t, plan.LT1.HR.Value)
			assert.Nil(t, plan.LT2.HR.Value)
			assert.Nil(t, plan.Protocol)
			assert.Equal(t, ConfidenceLow, plan.LT1.Confidence)
		})
	}
}

func TestBuildPlan_MalformedActivitySkipped(t *testing.T) {
	acts := append(planActivities(), ActivityRecord{
		ID: "broken", Date: daysAgo(1), Sport: "Ride",
		Streams: Streams{HeartRate: series(10, constant(200))},
	})

	got := BuildPlan(acts, SportBike, testOptions())
	want := BuildPlan(planActivities(), SportBike, testOptions())

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("malformed activity changed the plan (-want +got):\n%s", diff)
	}
}

func TestBuildPlan_UnsupportedSportFallsBack(t *testing.T) {
	swim := func(id string, days int) ActivityRecord {
		return ActivityRecord{
			ID: id, Date: daysAgo(days), Sport: "Swim",
			Streams: synth(2700, alternating(139, 141), nil, constant(1.2)),
		}
	}
	acts := []ActivityRecord{swim("s1", 1), swim("s2", 2), hardRun("max", daysAgo(4), 130, 185)}

	plan := BuildPlan(acts, SportSwim, testOptions())

	require.NotNil(t, plan.LT1.HR.Value)
	assert.Equal(t, 140, *plan.LT1.HR.Value)
	require.NotNil(t, plan.Protocol)
	for _, s := range plan.Protocol.Stages {
		assert.Nil(t, s.SuggestedPace)
		assert.Nil(t, s.SuggestedPower)
	}
}

func TestBuildPlan_RangeContainment(t *testing.T) {
	plan := BuildPlan(planActivities(), SportBike, testOptions())

	for name, e := range map[string]Estimate{
		"hrMax": plan.HRMax,
		"lt1":   plan.LT1.HR,
		"lt2":   plan.LT2.HR,
	} {
		if e.Value == nil {
			continue
		}
		assert.LessOrEqual(t, *e.Min, *e.Value, name)
		assert.GreaterOrEqual(t, *e.Max, *e.Value, name)
		assert.LessOrEqual(t, len(e.Evidence), maxEvidence, name)
	}
}

func TestPlan_JSONShape(t *testing.T) {
	raw, err := json.Marshal(EmptyPlan())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Nil(t, got["protocol"])
	hrMax := got["hrMax"].(map[string]any)
	assert.Nil(t, hrMax["value"])
	assert.Equal(t, "low", hrMax["confidence"])
	assert.Equal(t, []any{}, hrMax["evidence"])

	lt1 := got["lt1"].(map[string]any)
	assert.Contains(t, lt1, "hr")
	assert.Equal(t, "low", lt1["confidence"])
}
