// Package streams converts the stream encodings seen at the ingestion boundary
// into threshold.Streams. Field naming differences are resolved here and
// nowhere else.
package streams

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"strava-thresholds/internal/store"
	"strava-thresholds/internal/threshold"
)

// Accepted key synonyms, in lookup order
var (
	timeKeys      = []string{"time", "seconds", "elapsed"}
	heartRateKeys = []string{"heartrate", "hr", "heart_rate", "heartRate"}
	powerKeys     = []string{"watts", "power"}
	velocityKeys  = []string{"velocity_smooth", "velocity", "speed"}
	distanceKeys  = []string{"distance"}
)

// Decode parses a JSON object of streams keyed by type. Each value is either a
// bare array or an object with a "data" array; null elements become missing
// readings and unknown keys are ignored.
func Decode(data []byte) (threshold.Streams, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return threshold.Streams{}, fmt.Errorf("decoding streams: %w", err)
	}
	if raw == nil {
		return threshold.Streams{}, fmt.Errorf("decoding streams: expected an object")
	}
	return fromRaw(raw)
}

func fromRaw(raw map[string]json.RawMessage) (threshold.Streams, error) {
	var s threshold.Streams

	times, err := series(raw, timeKeys)
	if err != nil {
		return s, err
	}
	for _, t := range times {
		if t == nil {
			s.Time = append(s.Time, math.NaN())
			continue
		}
		s.Time = append(s.Time, *t)
	}

	if s.HeartRate, err = series(raw, heartRateKeys); err != nil {
		return s, err
	}
	if s.Power, err = series(raw, powerKeys); err != nil {
		return s, err
	}
	if s.Velocity, err = series(raw, velocityKeys); err != nil {
		return s, err
	}
	if s.Distance, err = series(raw, distanceKeys); err != nil {
		return s, err
	}
	return s, nil
}

// series decodes the first present key. Missing keys yield nil.
func series(raw map[string]json.RawMessage, keys []string) ([]*float64, error) {
	for _, k := range keys {
		msg, ok := raw[k]
		if !ok || isNull(msg) {
			continue
		}
		values, err := decodeSeries(msg)
		if err != nil {
			return nil, fmt.Errorf("decoding %q stream: %w", k, err)
		}
		return values, nil
	}
	return nil, nil
}

func decodeSeries(msg json.RawMessage) ([]*float64, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		if isNull(wrapped.Data) {
			return nil, nil
		}
		trimmed = wrapped.Data
	}

	var values []*float64
	if err := json.Unmarshal(trimmed, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func isNull(msg json.RawMessage) bool {
	t := bytes.TrimSpace(msg)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// FromPoints converts stored per-second points
func FromPoints(points []store.StreamPoint) threshold.Streams {
	s := threshold.Streams{
		Time:      make([]float64, len(points)),
		HeartRate: make([]*float64, len(points)),
		Power:     make([]*float64, len(points)),
		Velocity:  make([]*float64, len(points)),
		Distance:  make([]*float64, len(points)),
	}
	for i, p := range points {
		s.Time[i] = float64(p.TimeOffset)
		s.HeartRate[i] = fromInt(p.Heartrate)
		s.Power[i] = fromInt(p.Watts)
		s.Velocity[i] = copyFloat(p.VelocitySmooth)
		s.Distance[i] = copyFloat(p.Distance)
	}
	return s
}

// ToPoints flattens streams into storable points. Readings without a finite
// time are dropped; heart rate and power are rounded to whole numbers.
func ToPoints(activityID string, s threshold.Streams) []store.StreamPoint {
	points := make([]store.StreamPoint, 0, len(s.Time))
	for i, t := range s.Time {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			continue
		}
		points = append(points, store.StreamPoint{
			ActivityID:     activityID,
			TimeOffset:     int(math.Round(t)),
			Heartrate:      toInt(at(s.HeartRate, i)),
			Watts:          toInt(at(s.Power, i)),
			VelocitySmooth: at(s.Velocity, i),
			Distance:       at(s.Distance, i),
		})
	}
	return points
}

func at(xs []*float64, i int) *float64 {
	if i >= len(xs) {
		return nil
	}
	return copyFloat(xs[i])
}

func fromInt(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func toInt(v *float64) *int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
