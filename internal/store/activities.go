package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const activityColumns = `id, source, name, type, sport, start_date, elapsed_time,
	distance, has_heartrate, streams_synced`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// UpsertActivity inserts or updates an activity. The streams_synced flag is
// only ever raised by MarkStreamsSynced, so re-syncing a summary keeps it.
func (db *DB) UpsertActivity(ctx context.Context, a *Activity) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			name = excluded.name,
			type = excluded.type,
			sport = excluded.sport,
			start_date = excluded.start_date,
			elapsed_time = excluded.elapsed_time,
			distance = excluded.distance,
			has_heartrate = excluded.has_heartrate,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, a.Source, a.Name, a.Type, a.Sport,
		a.StartDate.UTC().Format(time.RFC3339), a.ElapsedTime,
		a.Distance, boolToInt(a.HasHeartrate), boolToInt(a.StreamsSynced),
	)
	if err != nil {
		return fmt.Errorf("upserting activity %s: %w", a.ID, err)
	}
	return nil
}

// GetActivity retrieves an activity by ID
func (db *DB) GetActivity(ctx context.Context, id string) (*Activity, error) {
	row := db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// ListActivities returns activities starting at or after since, newest first.
// An empty sport matches every sport.
func (db *DB) ListActivities(ctx context.Context, sport string, since time.Time) ([]Activity, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE (? = '' OR sport = ?) AND start_date >= ?
		ORDER BY start_date DESC, id
	`, sport, sport, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// GetActivitiesNeedingStreams returns Strava activities with heart rate whose
// streams haven't been downloaded yet
func (db *DB) GetActivitiesNeedingStreams(ctx context.Context, limit int) ([]Activity, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE streams_synced = 0 AND has_heartrate = 1 AND source = ?
		ORDER BY start_date DESC
		LIMIT ?
	`, SourceStrava, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// MarkStreamsSynced marks an activity's streams as synced
func (db *DB) MarkStreamsSynced(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `
		UPDATE activities
		SET streams_synced = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrActivityNotFound
	}
	return nil
}

// CountActivities returns the number of stored activities per sport
func (db *DB) CountActivities(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT sport, COUNT(*) FROM activities GROUP BY sport`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var sport string
		var n int
		if err := rows.Scan(&sport, &n); err != nil {
			return nil, err
		}
		counts[sport] = n
	}
	return counts, rows.Err()
}

func scanActivity(row rowScanner) (*Activity, error) {
	var a Activity
	var startDate string
	var hasHR, streamsSynced int

	err := row.Scan(
		&a.ID, &a.Source, &a.Name, &a.Type, &a.Sport, &startDate, &a.ElapsedTime,
		&a.Distance, &hasHR, &streamsSynced,
	)
	if err != nil {
		return nil, err
	}

	a.StartDate, err = time.Parse(time.RFC3339, startDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}
	a.HasHeartrate = hasHR == 1
	a.StreamsSynced = streamsSynced == 1

	return &a, nil
}

func scanActivities(rows *sql.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
