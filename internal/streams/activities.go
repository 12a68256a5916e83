package streams

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"strava-thresholds/internal/threshold"
)

// activityJSON is one element of an exported activity list
type activityJSON struct {
	ID        json.RawMessage            `json:"id"`
	Date      string                     `json:"date"`
	StartDate string                     `json:"start_date"`
	Sport     string                     `json:"sport"`
	Type      string                     `json:"type"`
	Streams   map[string]json.RawMessage `json:"streams"`
}

// DecodeActivities reads a JSON array of activities, each with an id (string
// or number), a date (RFC 3339 or YYYY-MM-DD), a sport or type and a streams
// object in any encoding Decode accepts
func DecodeActivities(r io.Reader) ([]threshold.ActivityRecord, error) {
	var raw []activityJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding activities: %w", err)
	}

	out := make([]threshold.ActivityRecord, 0, len(raw))
	for i, a := range raw {
		id, err := decodeID(a.ID)
		if err != nil {
			return nil, fmt.Errorf("activity %d: %w", i, err)
		}

		dateText := a.Date
		if dateText == "" {
			dateText = a.StartDate
		}
		date, err := ParseDate(dateText)
		if err != nil {
			return nil, fmt.Errorf("activity %s: %w", id, err)
		}

		sport := a.Sport
		if sport == "" {
			sport = a.Type
		}

		s, err := fromRaw(a.Streams)
		if err != nil {
			return nil, fmt.Errorf("activity %s: %w", id, err)
		}

		out = append(out, threshold.ActivityRecord{ID: id, Date: date, Sport: sport, Streams: s})
	}
	return out, nil
}

func decodeID(msg json.RawMessage) (string, error) {
	if isNull(msg) {
		return "", fmt.Errorf("missing id")
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(msg, &n); err != nil {
		return "", fmt.Errorf("id must be a string or number: %w", err)
	}
	return n.String(), nil
}

// ParseDate accepts RFC 3339 timestamps and plain calendar dates (UTC)
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
