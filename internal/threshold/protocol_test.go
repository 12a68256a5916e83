package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func est(v int) Estimate {
	return Estimate{Value: intPtr(v), Min: intPtr(v - 3), Max: intPtr(v + 3), Confidence: ConfidenceMed}
}

func targets(p *Protocol) []int {
	out := make([]int, len(p.Stages))
	for i, s := range p.Stages {
		out[i] = s.TargetHR
	}
	return out
}

func notes(p *Protocol) []string {
	out := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		out[i] = s.Notes
	}
	return out
}

func TestGenerateProtocol_Phases(t *testing.T) {
	p := GenerateProtocol(SportRun, est(190), est(150), est(170), nil)
	require.NotNil(t, p)

	assert.Equal(t, SportRun, p.Sport)
	assert.Equal(t, 4, p.StageDurationMinutes)
	assert.Equal(t, []int{135, 141, 147, 153, 159, 165, 171, 177}, targets(p))
	assert.Equal(t, []string{
		NoteBelowLT1, NoteBelowLT1,
		NoteNearLT1, NoteNearLT1,
		NoteNearLT2, NoteNearLT2,
		NoteAboveLT2, NoteAboveLT2,
	}, notes(p))

	for i, s := range p.Stages {
		assert.Equal(t, i+1, s.Stage)
		assert.Nil(t, s.SuggestedPace)
		assert.Nil(t, s.SuggestedPower)
	}

	require.Len(t, p.StopRules, 3)
	assert.Contains(t, p.StopRules[0], "180 bpm")
	assert.Contains(t, p.StopRules[1], "RPE 8/10")
	assert.Contains(t, p.StopRules[2], "deterioration")
}

func TestGenerateProtocol_StartRespectsHRMaxFloor(t *testing.T) {
	p := GenerateProtocol(SportRun, est(200), est(115), est(160), nil)
	require.NotNil(t, p)
	require.NotEmpty(t, p.Stages)
	assert.Equal(t, 110, p.Stages[0].TargetHR)
}

func TestGenerateProtocol_CappedAtTenStages(t *testing.T) {
	p := GenerateProtocol(SportBike, est(200), est(120), est(185), nil)
	require.NotNil(t, p)
	assert.Len(t, p.Stages, 10)
}

func TestGenerateProtocol_Ordering(t *testing.T) {
	triples := [][3]int{
		{190, 150, 170},
		{200, 120, 185},
		{185, 140, 140},
		{175, 160, 150},
		{210, 100, 200},
	}

	for _, sport := range []Sport{SportRun, SportBike, SportSwim} {
		for _, tr := range triples {
			p := GenerateProtocol(sport, est(tr[0]), est(tr[1]), est(tr[2]), nil)
			require.NotNil(t, p)

			end := min(tr[2]+10, roundInt(0.95*float64(tr[0])))
			for i, s := range p.Stages {
				assert.GreaterOrEqual(t, s.TargetHR, roundInt(0.55*float64(tr[0])))
				assert.LessOrEqual(t, s.TargetHR, end)
				if i > 0 {
					assert.Equal(t, p.Stages[i-1].TargetHR+6, s.TargetHR)
				}
			}
			assert.LessOrEqual(t, len(p.Stages), 10)
		}
	}
}

func TestGenerateProtocol_MissingEstimate(t *testing.T) {
	empty := emptyEstimate()

	assert.Nil(t, GenerateProtocol(SportRun, empty, est(150), est(170), nil))
	assert.Nil(t, GenerateProtocol(SportRun, est(190), empty, est(170), nil))
	assert.Nil(t, GenerateProtocol(SportRun, est(190), est(150), empty, nil))
}

func TestGenerateProtocol_SuggestedPower(t *testing.T) {
	m := BuildIntensityModel([]ActivityRecord{stepRide("steps")}, SportBike, testOptions())
	require.NotNil(t, m)

	p := GenerateProtocol(SportBike, est(190), est(150), est(170), m)
	require.NotNil(t, p)
	require.NotEmpty(t, p.Stages)

	first := p.Stages[0]
	assert.Equal(t, 138, first.TargetHR)
	require.NotNil(t, first.SuggestedPower)
	assert.Equal(t, 190, *first.SuggestedPower)
	assert.Nil(t, first.SuggestedPace)
}

func TestGenerateProtocol_SuggestedPace(t *testing.T) {
	m := &IntensityModel{kind: intensityVelocity, points: []hrPoint{
		{120, 2.5}, {130, 3.0}, {140, 3.5}, {150, 4.0}, {160, 4.5},
	}}

	p := GenerateProtocol(SportRun, est(190), est(150), est(170), m)
	require.NotNil(t, p)

	first := p.Stages[0]
	assert.Equal(t, 135, first.TargetHR)
	require.NotNil(t, first.SuggestedPace)
	assert.Equal(t, "5:08", *first.SuggestedPace)
	assert.Nil(t, first.SuggestedPower)
}

func TestFormatPace(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{250, "4:10"},
		{300, "5:00"},
		{299.6, "5:00"},
		{59.6, "1:00"},
		{605, "10:05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPace(tt.seconds))
	}
}
