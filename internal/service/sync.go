package service

import (
	"context"
	"fmt"
	"time"

	"strava-thresholds/internal/monitoring"
	"strava-thresholds/internal/store"
	"strava-thresholds/internal/strava"
	"strava-thresholds/internal/streams"
	"strava-thresholds/internal/threshold"
)

// SyncService orchestrates syncing data from Strava
type SyncService struct {
	client *strava.Client
	store  *store.DB
	now    func() time.Time
}

// NewSyncService creates a new sync service
func NewSyncService(client *strava.Client, store *store.DB) *SyncService {
	return &SyncService{client: client, store: store, now: time.Now}
}

// Sync phases
const (
	PhaseActivities = "activities"
	PhaseStreams    = "streams"
)

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase           string
	Total           int
	Completed       int
	CurrentActivity string
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	ActivitiesFetched int
	ActivitiesStored  int
	StreamsFetched    int
	Errors            []error
}

// SyncAll performs a full sync: activity summaries, then streams.
// Per-activity failures are collected in the result; only failures that stop
// the whole phase are returned as errors.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{}

	if err := s.syncActivities(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing activities: %w", err)
	}

	if err := s.syncStreams(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing streams: %w", err)
	}

	monitoring.Logf("sync: %d fetched, %d stored, %d streams, %d errors",
		result.ActivitiesFetched, result.ActivitiesStored, result.StreamsFetched, len(result.Errors))
	return result, nil
}

// syncActivities fetches activities newer than the last sync and stores the
// runs and rides that recorded heart rate
func (s *SyncService) syncActivities(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	after, err := s.store.LastSync(ctx)
	if err != nil {
		monitoring.Logf("sync: ignoring unreadable last sync time: %v", err)
		after = time.Time{}
	}
	started := s.now()

	report(progress, SyncProgress{Phase: PhaseActivities})

	activities, err := s.client.GetAllActivities(ctx, after, func(fetched int) {
		report(progress, SyncProgress{Phase: PhaseActivities, Total: fetched, Completed: fetched})
	})
	if err != nil {
		return err
	}
	result.ActivitiesFetched = len(activities)

	for _, a := range activities {
		if !wanted(a) {
			continue
		}
		if err := s.store.UpsertActivity(ctx, convertActivity(a)); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("storing activity %d: %w", a.ID, err))
			continue
		}
		result.ActivitiesStored++
	}

	return s.store.SetSyncState(ctx, store.KeyLastActivitySync, started.UTC().Format(time.RFC3339))
}

// wanted reports whether an activity can feed the estimators
func wanted(a strava.Activity) bool {
	if !a.HasHeartrate {
		return false
	}
	switch threshold.ParseSport(a.SportName()) {
	case threshold.SportRun, threshold.SportBike:
		return true
	}
	return false
}

// syncStreams fetches detailed stream data for activities that need it
func (s *SyncService) syncStreams(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	activities, err := s.store.GetActivitiesNeedingStreams(ctx, StreamBatchSize)
	if err != nil {
		return fmt.Errorf("getting activities needing streams: %w", err)
	}
	if len(activities) == 0 {
		return nil
	}

	for i, activity := range activities {
		if err := ctx.Err(); err != nil {
			return err
		}

		report(progress, SyncProgress{
			Phase:           PhaseStreams,
			Total:           len(activities),
			Completed:       i,
			CurrentActivity: activity.Name,
		})

		stravaID, ok := store.ParseStravaID(activity.ID)
		if !ok {
			result.Errors = append(result.Errors, fmt.Errorf("activity %s: not a Strava activity", activity.ID))
			continue
		}

		data, err := s.client.GetActivityStreams(ctx, stravaID)
		if err != nil {
			// some activities have no streams, keep going
			result.Errors = append(result.Errors, fmt.Errorf("activity %s (%s): %w", activity.ID, activity.Name, err))
			continue
		}

		if points := streams.ToPoints(activity.ID, data); len(points) > 0 {
			if err := s.store.SaveStreams(ctx, activity.ID, points); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("saving streams for %s: %w", activity.ID, err))
				continue
			}
		}

		if err := s.store.MarkStreamsSynced(ctx, activity.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("marking synced for %s: %w", activity.ID, err))
			continue
		}
		result.StreamsFetched++
	}

	report(progress, SyncProgress{
		Phase:     PhaseStreams,
		Total:     len(activities),
		Completed: len(activities),
	})
	return nil
}

// RateLimitStatus returns the current rate limit status from the client
func (s *SyncService) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return s.client.RateLimitStatus()
}

func report(progress chan<- SyncProgress, p SyncProgress) {
	if progress != nil {
		progress <- p
	}
}

// convertActivity converts a Strava API activity to a store activity
func convertActivity(a strava.Activity) *store.Activity {
	return &store.Activity{
		ID:           store.StravaActivityID(a.ID),
		Source:       store.SourceStrava,
		Name:         a.Name,
		Type:         a.SportName(),
		Sport:        string(threshold.ParseSport(a.SportName())),
		StartDate:    a.StartDate,
		ElapsedTime:  a.ElapsedTime,
		Distance:     a.Distance,
		HasHeartrate: a.HasHeartrate,
	}
}
