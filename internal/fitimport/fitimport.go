// Package fitimport reads Garmin FIT activity files into engine activities.
package fitimport

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tormoder/fit"

	"strava-thresholds/internal/store"
	"strava-thresholds/internal/threshold"
)

// ErrNoRecords is returned for files without any timestamped record message
var ErrNoRecords = errors.New("FIT file has no timestamped records")

// Activity is a decoded FIT activity together with its summary
type Activity struct {
	threshold.ActivityRecord
	Name        string
	ElapsedTime int     // seconds
	Distance    float64 // meters
}

// ReadFile decodes the FIT activity at path. The activity is named after the file.
func ReadFile(path string) (*Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading FIT file: %w", err)
	}

	a, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	a.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return a, nil
}

// Decode parses an encoded FIT activity. The ID is derived from the file
// contents, so importing the same file twice yields the same activity.
func Decode(data []byte) (*Activity, error) {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding FIT file: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	records := make([]*fit.RecordMsg, 0, len(activity.Records))
	for _, rec := range activity.Records {
		if rec != nil && validTime(rec.Timestamp) {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	start := records[0].Timestamp
	streams := threshold.Streams{
		Time:      make([]float64, len(records)),
		HeartRate: make([]*float64, len(records)),
		Power:     make([]*float64, len(records)),
		Velocity:  make([]*float64, len(records)),
		Distance:  make([]*float64, len(records)),
	}
	for i, rec := range records {
		streams.Time[i] = rec.Timestamp.Sub(start).Seconds()
		streams.HeartRate[i] = heartRate(rec)
		streams.Power[i] = power(rec)
		streams.Velocity[i] = speed(rec)
		streams.Distance[i] = finite(rec.GetDistanceScaled())
	}

	sport := "other"
	if len(activity.Sessions) > 0 && activity.Sessions[0] != nil {
		session := activity.Sessions[0]
		sport = fmt.Sprint(session.Sport)
		if validTime(session.StartTime) {
			start = session.StartTime
		}
	}

	a := &Activity{
		ActivityRecord: threshold.ActivityRecord{
			ID:      store.FITActivityID(uuid.NewSHA1(uuid.NameSpaceOID, data).String()),
			Date:    start.UTC(),
			Sport:   sport,
			Streams: streams,
		},
		Name:        "FIT activity " + start.UTC().Format(time.DateOnly),
		ElapsedTime: int(math.Round(streams.Time[len(records)-1])),
	}
	for i := len(streams.Distance) - 1; i >= 0; i-- {
		if d := streams.Distance[i]; d != nil {
			a.Distance = *d
			break
		}
	}
	return a, nil
}

func validTime(t time.Time) bool {
	return !t.IsZero() && !fit.IsBaseTime(t)
}

func heartRate(rec *fit.RecordMsg) *float64 {
	if rec.HeartRate == math.MaxUint8 || rec.HeartRate == 0 {
		return nil
	}
	v := float64(rec.HeartRate)
	return &v
}

func power(rec *fit.RecordMsg) *float64 {
	if rec.Power == math.MaxUint16 {
		return nil
	}
	v := float64(rec.Power)
	return &v
}

// speed prefers the enhanced field and falls back to the legacy one
func speed(rec *fit.RecordMsg) *float64 {
	if v := finite(rec.GetEnhancedSpeedScaled()); v != nil {
		return v
	}
	return finite(rec.GetSpeedScaled())
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}
