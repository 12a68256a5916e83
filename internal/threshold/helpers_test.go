package threshold

import "time"

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{Now: testNow, Workers: 2}
}

func daysAgo(d int) time.Time {
	return testNow.AddDate(0, 0, -d)
}

// synth builds a 1 Hz stream lasting the given number of seconds.
// Channel generators may be nil.
func synth(seconds int, hr, power, velocity func(t int) float64) Streams {
	s := Streams{Time: make([]float64, seconds)}
	for t := range s.Time {
		s.Time[t] = float64(t)
	}
	s.HeartRate = series(seconds, hr)
	s.Power = series(seconds, power)
	s.Velocity = series(seconds, velocity)
	return s
}

func series(n int, f func(t int) float64) []*float64 {
	if f == nil {
		return nil
	}
	out := make([]*float64, n)
	for t := range out {
		v := f(t)
		out[t] = &v
	}
	return out
}

func constant(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

// alternating flips between lo and hi every second
func alternating(lo, hi float64) func(int) float64 {
	return func(t int) float64 {
		if t%2 == 0 {
			return lo
		}
		return hi
	}
}

// hardRun is a 30 minute run at base heart rate finishing with five minutes at peak
func hardRun(id string, date time.Time, base, peak float64) ActivityRecord {
	return ActivityRecord{
		ID:    id,
		Date:  date,
		Sport: "Run",
		Streams: synth(1800, func(t int) float64 {
			if t < 1500 {
				return base
			}
			return peak
		}, nil, constant(3.0)),
	}
}

// steadyRide is a ride at constant power with heart rate flat around 150
func steadyRide(id string, date time.Time, seconds int, watts float64) ActivityRecord {
	return ActivityRecord{
		ID:      id,
		Date:    date,
		Sport:   "Ride",
		Streams: synth(seconds, alternating(149, 151), constant(watts), nil),
	}
}

// driftingRide is a ride at constant power with heart rate climbing 1 bpm/min
func driftingRide(id string, date time.Time) ActivityRecord {
	return ActivityRecord{
		ID:    id,
		Date:  date,
		Sport: "Ride",
		Streams: synth(1800, func(t int) float64 {
			return 140 + float64(t)/60
		}, constant(200), nil),
	}
}

// gentleDriftRide is a 30 minute ride at 200 W with heart rate rising 140 to 150
func gentleDriftRide(id string, date time.Time) ActivityRecord {
	return ActivityRecord{
		ID:    id,
		Date:  date,
		Sport: "Ride",
		Streams: synth(1800, func(t int) float64 {
			return 140 + 10*float64(t)/1800
		}, constant(200), nil),
	}
}

func hrSeries(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		if s.HR != nil {
			out[i] = *s.HR
		}
	}
	return out
}
