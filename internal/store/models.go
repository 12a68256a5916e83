package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Activity sources
const (
	SourceStrava = "strava"
	SourceFIT    = "fit"
)

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64     `db:"athlete_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
}

// Activity is a stored activity summary. IDs are namespaced by source,
// e.g. "strava:123" or "fit:<uuid>".
type Activity struct {
	ID            string    `db:"id"`
	Source        string    `db:"source"`
	Name          string    `db:"name"`
	Type          string    `db:"type"`  // as recorded, e.g. "TrailRun"
	Sport         string    `db:"sport"` // normalized family: run, bike, swim, other
	StartDate     time.Time `db:"start_date"`
	ElapsedTime   int       `db:"elapsed_time"` // seconds
	Distance      float64   `db:"distance"`     // meters
	HasHeartrate  bool      `db:"has_heartrate"`
	StreamsSynced bool      `db:"streams_synced"`
}

// StreamPoint represents a single data point from activity streams
type StreamPoint struct {
	ActivityID     string   `db:"activity_id"`
	TimeOffset     int      `db:"time_offset"`     // seconds
	Heartrate      *int     `db:"heartrate"`       // bpm
	Watts          *int     `db:"watts"`           // W
	VelocitySmooth *float64 `db:"velocity_smooth"` // m/s
	Distance       *float64 `db:"distance"`        // cumulative meters
}

// PlanSnapshot is a computed threshold plan kept for later display
type PlanSnapshot struct {
	ID         string          `db:"id"`
	Sport      string          `db:"sport"`
	ComputedAt time.Time       `db:"computed_at"`
	Activities int             `db:"activities"` // inputs considered
	Payload    json.RawMessage `db:"payload"`
}

// StravaActivityID namespaces a Strava activity ID
func StravaActivityID(id int64) string {
	return fmt.Sprintf("%s:%d", SourceStrava, id)
}

// FITActivityID namespaces an imported file's ID
func FITActivityID(id string) string {
	return SourceFIT + ":" + id
}

// ParseStravaID extracts the numeric Strava ID from a namespaced activity ID
func ParseStravaID(id string) (int64, bool) {
	rest, ok := strings.CutPrefix(id, SourceStrava+":")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	return n, err == nil
}
