package strava

import "time"

// Activity is the summary returned by /athlete/activities
type Activity struct {
	ID               int64     `json:"id"`
	Athlete          Athlete   `json:"athlete"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	SportType        string    `json:"sport_type"`
	StartDate        time.Time `json:"start_date"`
	Distance         float64   `json:"distance"`     // meters
	MovingTime       int       `json:"moving_time"`  // seconds
	ElapsedTime      int       `json:"elapsed_time"` // seconds
	AverageHeartrate float64   `json:"average_heartrate"`
	MaxHeartrate     float64   `json:"max_heartrate"`
	AverageWatts     float64   `json:"average_watts"`
	DeviceWatts      bool      `json:"device_watts"` // measured rather than estimated power
	HasHeartrate     bool      `json:"has_heartrate"`
	Trainer          bool      `json:"trainer"`
}

// Athlete represents a Strava athlete (minimal info in activity response)
type Athlete struct {
	ID int64 `json:"id"`
}

// SportName returns the most specific sport label Strava provided
func (a Activity) SportName() string {
	if a.SportType != "" {
		return a.SportType
	}
	return a.Type
}

// StreamKeys are the stream types the threshold engine consumes
const StreamKeys = "time,heartrate,watts,velocity_smooth,distance"
