package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Activities (summary data from the activity endpoint or FIT imports)
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			moving_time INTEGER NOT NULL,
			distance REAL NOT NULL DEFAULT 0,
			average_heartrate REAL,
			max_heartrate REAL,
			has_heartrate INTEGER NOT NULL,
			source TEXT NOT NULL DEFAULT 'remote',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_date ON activities(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_source ON activities(source)`,

		// Heart-rate samples, one row per sample in recording order
		`CREATE TABLE IF NOT EXISTS heartrate_samples (
			activity_id INTEGER NOT NULL,
			sample_index INTEGER NOT NULL,
			bpm INTEGER NOT NULL,
			PRIMARY KEY (activity_id, sample_index),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		// Sync State (key-value store for refresh tracking)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
