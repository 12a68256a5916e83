package store

import (
	"database/sql"
	"fmt"
)

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Activities from every source
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			sport TEXT NOT NULL,
			start_date TEXT NOT NULL,
			elapsed_time INTEGER NOT NULL,
			distance REAL NOT NULL,
			has_heartrate INTEGER NOT NULL,
			streams_synced INTEGER DEFAULT 0,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_date ON activities(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_sport ON activities(sport)`,

		// Per-second samples
		`CREATE TABLE IF NOT EXISTS streams (
			activity_id TEXT NOT NULL,
			time_offset INTEGER NOT NULL,
			heartrate INTEGER,
			watts INTEGER,
			velocity_smooth REAL,
			distance REAL,
			PRIMARY KEY (activity_id, time_offset),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		// Sync State (key-value store for sync tracking)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Computed plans, newest per sport shown in the TUI
		`CREATE TABLE IF NOT EXISTS plan_snapshots (
			id TEXT PRIMARY KEY,
			sport TEXT NOT NULL,
			computed_at TEXT NOT NULL,
			activities INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_plan_snapshots_sport ON plan_snapshots(sport, computed_at)`,
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	return nil
}
