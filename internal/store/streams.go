package store

import (
	"context"
	"fmt"
	"strings"
)

// SaveStreams replaces the stream data for an activity
func (db *DB) SaveStreams(ctx context.Context, activityID string, points []StreamPoint) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM streams WHERE activity_id = ?", activityID); err != nil {
		return fmt.Errorf("deleting existing streams: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO streams (activity_id, time_offset, heartrate, watts, velocity_smooth, distance)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(activity_id, time_offset) DO UPDATE SET
			heartrate = excluded.heartrate,
			watts = excluded.watts,
			velocity_smooth = excluded.velocity_smooth,
			distance = excluded.distance
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.ExecContext(ctx,
			activityID, p.TimeOffset, p.Heartrate, p.Watts, p.VelocitySmooth, p.Distance,
		)
		if err != nil {
			return fmt.Errorf("inserting stream point at %ds: %w", p.TimeOffset, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// GetStreams retrieves all stream points for an activity ordered by time
func (db *DB) GetStreams(ctx context.Context, activityID string) ([]StreamPoint, error) {
	byActivity, err := db.GetStreamsForActivities(ctx, []string{activityID})
	if err != nil {
		return nil, err
	}
	return byActivity[activityID], nil
}

// GetStreamsForActivities loads the streams of several activities in one query
func (db *DB) GetStreamsForActivities(ctx context.Context, ids []string) (map[string][]StreamPoint, error) {
	result := make(map[string][]StreamPoint, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, `
		SELECT activity_id, time_offset, heartrate, watts, velocity_smooth, distance
		FROM streams
		WHERE activity_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY activity_id, time_offset
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p StreamPoint
		if err := rows.Scan(
			&p.ActivityID, &p.TimeOffset, &p.Heartrate, &p.Watts, &p.VelocitySmooth, &p.Distance,
		); err != nil {
			return nil, err
		}
		result[p.ActivityID] = append(result[p.ActivityID], p)
	}

	return result, rows.Err()
}
