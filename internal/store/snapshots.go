package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// computed_at is fixed width so it sorts lexically
const snapshotTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SavePlanSnapshot stores a computed plan, assigning an ID when empty
func (db *DB) SavePlanSnapshot(ctx context.Context, s *PlanSnapshot) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.ComputedAt.IsZero() {
		s.ComputedAt = time.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO plan_snapshots (id, sport, computed_at, activities, payload)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.Sport, s.ComputedAt.UTC().Format(snapshotTimeFormat), s.Activities, string(s.Payload))
	if err != nil {
		return fmt.Errorf("saving plan snapshot: %w", err)
	}
	return nil
}

// LatestPlanSnapshot returns the most recent plan for a sport
func (db *DB) LatestPlanSnapshot(ctx context.Context, sport string) (*PlanSnapshot, error) {
	var s PlanSnapshot
	var computedAt, payload string
	err := db.QueryRowContext(ctx, `
		SELECT id, sport, computed_at, activities, payload
		FROM plan_snapshots
		WHERE sport = ?
		ORDER BY computed_at DESC
		LIMIT 1
	`, sport).Scan(&s.ID, &s.Sport, &computedAt, &s.Activities, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	s.ComputedAt, err = time.Parse(snapshotTimeFormat, computedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing computed_at %q: %w", computedAt, err)
	}
	s.Payload = []byte(payload)
	return &s, nil
}

// PrunePlanSnapshots keeps the newest keep snapshots per sport
func (db *DB) PrunePlanSnapshots(ctx context.Context, keep int) (int64, error) {
	result, err := db.ExecContext(ctx, `
		DELETE FROM plan_snapshots
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY sport ORDER BY computed_at DESC) AS rn
				FROM plan_snapshots
			) WHERE rn > ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning plan snapshots: %w", err)
	}
	return result.RowsAffected()
}
