package threshold

import (
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultLookbackDays         = 42
	DefaultExpandedLookbackDays = 90
	minHRMaxActivities          = 3
)

// Options tunes an engine call. The zero value uses the defaults.
type Options struct {
	Now                  time.Time // zero means time.Now()
	LookbackDays         int
	ExpandedLookbackDays int
	IntervalSeconds      float64
	Workers              int // parallel preprocessing, <= 0 means GOMAXPROCS
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.LookbackDays <= 0 {
		o.LookbackDays = DefaultLookbackDays
	}
	if o.ExpandedLookbackDays < o.LookbackDays {
		o.ExpandedLookbackDays = DefaultExpandedLookbackDays
		if o.ExpandedLookbackDays < o.LookbackDays {
			o.ExpandedLookbackDays = o.LookbackDays
		}
	}
	if o.IntervalSeconds <= 0 {
		o.IntervalSeconds = DefaultIntervalSeconds
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// cutoff returns the earliest activity date inside a lookback of days
func (o Options) cutoff(days int) time.Time {
	return o.Now.AddDate(0, 0, -days)
}

// prepared is an activity together with its resampled stream
type prepared struct {
	id      string
	date    time.Time
	sport   Sport
	samples []Sample
}

// samplesPerMinute on the configured grid
func samplesPerMinute(interval float64) float64 {
	return 60 / interval
}

// prepare preprocesses every activity with a heart rate stream. Activities
// without a usable time axis are dropped. Output order follows input order
// regardless of how the work is scheduled.
func prepare(activities []ActivityRecord, opts Options) []prepared {
	results := make([]*prepared, len(activities))

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i := range activities {
		a := &activities[i]
		if !a.Streams.HasHeartRate() {
			continue
		}
		g.Go(func() error {
			samples := Preprocess(a.Streams, opts.IntervalSeconds)
			if samples == nil {
				return nil
			}
			results[i] = &prepared{
				id:      a.ID,
				date:    a.Date,
				sport:   ParseSport(a.Sport),
				samples: samples,
			}
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	out := make([]prepared, 0, len(results))
	for _, p := range results {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// since keeps activities dated at or after the cutoff
func since(acts []prepared, cutoff time.Time) []prepared {
	var out []prepared
	for _, a := range acts {
		if !a.date.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

// ofSport keeps activities of one sport family
func ofSport(acts []prepared, sport Sport) []prepared {
	var out []prepared
	for _, a := range acts {
		if a.sport == sport {
			out = append(out, a)
		}
	}
	return out
}
