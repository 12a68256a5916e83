package service

import (
	"context"
	"fmt"

	"strava-thresholds/internal/fitimport"
	"strava-thresholds/internal/monitoring"
	"strava-thresholds/internal/store"
	"strava-thresholds/internal/streams"
	"strava-thresholds/internal/threshold"
)

// ImportService stores activities read from FIT files
type ImportService struct {
	store *store.DB
}

// NewImportService creates a new import service
func NewImportService(db *store.DB) *ImportService {
	return &ImportService{store: db}
}

// ImportFile reads a FIT activity and stores it with its streams.
// Importing the same file again replaces the earlier copy.
func (s *ImportService) ImportFile(ctx context.Context, path string) (*store.Activity, error) {
	decoded, err := fitimport.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, decoded)
}

// Import stores an already decoded FIT activity
func (s *ImportService) Import(ctx context.Context, decoded *fitimport.Activity) (*store.Activity, error) {
	a := &store.Activity{
		ID:           decoded.ID,
		Source:       store.SourceFIT,
		Name:         decoded.Name,
		Type:         decoded.Sport,
		Sport:        string(threshold.ParseSport(decoded.Sport)),
		StartDate:    decoded.Date,
		ElapsedTime:  decoded.ElapsedTime,
		Distance:     decoded.Distance,
		HasHeartrate: decoded.Streams.HasHeartRate(),
	}
	if err := s.store.UpsertActivity(ctx, a); err != nil {
		return nil, err
	}

	points := streams.ToPoints(a.ID, decoded.Streams)
	if err := s.store.SaveStreams(ctx, a.ID, points); err != nil {
		return nil, fmt.Errorf("saving streams for %s: %w", a.ID, err)
	}
	if err := s.store.MarkStreamsSynced(ctx, a.ID); err != nil {
		return nil, fmt.Errorf("marking synced for %s: %w", a.ID, err)
	}
	a.StreamsSynced = true

	monitoring.Logf("import: %s %q (%s, %d points, heart rate %t)", a.ID, a.Name, a.Sport, len(points), a.HasHeartrate)
	return a, nil
}
