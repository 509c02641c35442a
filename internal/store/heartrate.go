package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// maxQueryIDs bounds the number of placeholders per IN clause
const maxQueryIDs = 500

// saveHeartrate replaces the stored samples of an activity
func saveHeartrate(ctx context.Context, tx *sql.Tx, activityID int64, samples []int) error {
	// Delete existing samples for this activity
	if _, err := tx.ExecContext(ctx, "DELETE FROM heartrate_samples WHERE activity_id = ?", activityID); err != nil {
		return fmt.Errorf("deleting existing samples: %w", err)
	}
	if len(samples) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO heartrate_samples (activity_id, sample_index, bpm)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, bpm := range samples {
		if _, err := stmt.ExecContext(ctx, activityID, i, bpm); err != nil {
			return fmt.Errorf("inserting sample %d: %w", i, err)
		}
	}
	return nil
}

// loadHeartrate returns the samples of the given activities keyed by id
func (db *DB) loadHeartrate(ctx context.Context, ids []int64) (map[int64][]int, error) {
	samples := make(map[int64][]int, len(ids))

	for start := 0; start < len(ids); start += maxQueryIDs {
		end := start + maxQueryIDs
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")

		rows, err := db.QueryContext(ctx, `
			SELECT activity_id, bpm
			FROM heartrate_samples
			WHERE activity_id IN (`+placeholders+`)
			ORDER BY activity_id, sample_index
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("querying samples: %w", err)
		}

		for rows.Next() {
			var id int64
			var bpm int
			if err := rows.Scan(&id, &bpm); err != nil {
				rows.Close()
				return nil, err
			}
			samples[id] = append(samples[id], bpm)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return samples, nil
}

// CountSamples returns the number of stored samples for an activity
func (db *DB) CountSamples(ctx context.Context, activityID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM heartrate_samples WHERE activity_id = ?", activityID).Scan(&count)
	return count, err
}
