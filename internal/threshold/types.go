// Package threshold estimates HRmax, aerobic threshold (LT1) and lactate
// threshold (LT2) from recorded training streams, and turns the estimates into a
// heart-rate guided incremental test protocol.
//
// Everything in this package is a pure function of its inputs. Activities are
// never mutated and no state is kept between calls.
package threshold

import "time"

// Sport is a normalized sport family
type Sport string

const (
	SportRun   Sport = "run"
	SportBike  Sport = "bike"
	SportSwim  Sport = "swim"
	SportOther Sport = "other"
)

// Confidence labels how much evidence backs an estimate
type Confidence string

const (
	ConfidenceLow  Confidence = "low"
	ConfidenceMed  Confidence = "med"
	ConfidenceHigh Confidence = "high"
)

// Streams holds the parallel per-second series recorded during an activity.
// Value series may be shorter than Time; nil entries are missing readings.
type Streams struct {
	Time      []float64  // seconds
	HeartRate []*float64 // bpm
	Power     []*float64 // watts
	Velocity  []*float64 // m/s
	Distance  []*float64 // cumulative meters
}

// HasHeartRate reports whether at least one heart rate reading exists
func (s Streams) HasHeartRate() bool {
	for _, v := range s.HeartRate {
		if v != nil {
			return true
		}
	}
	return false
}

// ActivityRecord is one past training session
type ActivityRecord struct {
	ID      string
	Date    time.Time
	Sport   string // free text, normalized with ParseSport
	Streams Streams
}

// Sample is one instant on the resampling grid
type Sample struct {
	Time     float64  // seconds from activity start
	HR       *float64 // smoothed, spike-clamped bpm
	Power    *float64
	Velocity *float64
	Distance *float64
}

// Evidence is a retained segment or activity backing an estimate.
// Only the fields relevant to the producing estimator are set.
type Evidence struct {
	ActivityID      string    `json:"activityId"`
	Date            time.Time `json:"date"`
	MeanHR          float64   `json:"meanHR,omitempty"`
	DriftPct        *float64  `json:"driftPct,omitempty"`
	Slope           *float64  `json:"slope,omitempty"`
	DurationMinutes float64   `json:"durationMinutes,omitempty"`
	MaxRolling30s   float64   `json:"maxRolling30s,omitempty"`
	SampleCount     int       `json:"sampleCount,omitempty"`
	Intensity       *float64  `json:"intensity,omitempty"`
}

// Estimate is a confidence-scored threshold value in bpm.
// Value, Min and Max are either all set with Min <= Value <= Max, or all nil.
type Estimate struct {
	Value      *int       `json:"value"`
	Min        *int       `json:"min"`
	Max        *int       `json:"max"`
	Confidence Confidence `json:"confidence"`
	Evidence   []Evidence `json:"evidence"`
}

// ThresholdResult wraps an LT1 or LT2 estimate the way consumers expect it
type ThresholdResult struct {
	HR         Estimate   `json:"hr"`
	Confidence Confidence `json:"confidence"`
	Evidence   []Evidence `json:"evidence"`
}

// Stage is one step of the incremental protocol
type Stage struct {
	Stage          int     `json:"stage"`
	TargetHR       int     `json:"targetHR"`
	SuggestedPace  *string `json:"suggestedPace"`  // M:SS per km
	SuggestedPower *int    `json:"suggestedPower"` // watts
	Notes          string  `json:"notes"`
}

// Protocol is a heart-rate guided incremental test
type Protocol struct {
	Sport                Sport    `json:"sport"`
	StageDurationMinutes int      `json:"stageDurationMinutes"`
	Stages               []Stage  `json:"stages"`
	StopRules            []string `json:"stopRules"`
}

// Plan is the composed engine output
type Plan struct {
	HRMax    Estimate        `json:"hrMax"`
	LT1      ThresholdResult `json:"lt1"`
	LT2      ThresholdResult `json:"lt2"`
	Protocol *Protocol       `json:"protocol"`
}

func emptyEstimate() Estimate {
	return Estimate{Confidence: ConfidenceLow, Evidence: []Evidence{}}
}

func wrap(e Estimate) ThresholdResult {
	return ThresholdResult{HR: e, Confidence: e.Confidence, Evidence: e.Evidence}
}
