package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"strava-thresholds/internal/monitoring"
	"strava-thresholds/internal/store"
	"strava-thresholds/internal/streams"
	"strava-thresholds/internal/threshold"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) time.Time {
	return testNow.AddDate(0, 0, -d)
}

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()

	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	db, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// stream1Hz builds a 1 Hz stream; nil generators leave the channel out
func stream1Hz(seconds int, hr, power, velocity func(t int) float64) threshold.Streams {
	s := threshold.Streams{Time: make([]float64, seconds)}
	for t := range s.Time {
		s.Time[t] = float64(t)
	}
	gen := func(f func(int) float64) []*float64 {
		if f == nil {
			return nil
		}
		out := make([]*float64, seconds)
		for t := range out {
			v := f(t)
			out[t] = &v
		}
		return out
	}
	s.HeartRate = gen(hr)
	s.Power = gen(power)
	s.Velocity = gen(velocity)
	return s
}

func constant(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

// storeActivity saves a synced Strava activity with its streams
func storeActivity(t *testing.T, db *store.DB, id int64, name, stravaType string, date time.Time, s threshold.Streams) {
	t.Helper()
	ctx := context.Background()

	a := &store.Activity{
		ID:           store.StravaActivityID(id),
		Source:       store.SourceStrava,
		Name:         name,
		Type:         stravaType,
		Sport:        string(threshold.ParseSport(stravaType)),
		StartDate:    date,
		ElapsedTime:  len(s.Time),
		HasHeartrate: s.HasHeartRate(),
	}
	require.NoError(t, db.UpsertActivity(ctx, a))
	require.NoError(t, db.SaveStreams(ctx, a.ID, streams.ToPoints(a.ID, s)))
	require.NoError(t, db.MarkStreamsSynced(ctx, a.ID))
}

// storeTrainingBlock stores two steady endurance rides, a threshold ride and
// a hard run, enough for every estimate on the bike
func storeTrainingBlock(t *testing.T, db *store.DB) {
	t.Helper()

	steady := func(t int) float64 {
		if t%2 == 0 {
			return 149
		}
		return 151
	}
	storeActivity(t, db, 1, "Endurance 1", "Ride", daysAgo(1), stream1Hz(2700, steady, constant(180), nil))
	storeActivity(t, db, 2, "Endurance 2", "Ride", daysAgo(2), stream1Hz(2700, steady, constant(180), nil))
	storeActivity(t, db, 3, "Threshold", "VirtualRide", daysAgo(3), stream1Hz(2700, constant(168), func(t int) float64 {
		if (t/5)%2 == 0 {
			return 200
		}
		return 260
	}, nil))
	storeActivity(t, db, 4, "Hill repeats", "Run", daysAgo(10), stream1Hz(1800, func(t int) float64 {
		if t < 1500 {
			return 140
		}
		return 190
	}, nil, constant(3.0)))
}
