package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrActivityNotFound is returned when an activity doesn't exist
var ErrActivityNotFound = errors.New("activity not found")

const activityColumns = `id, name, type, start_date, moving_time, distance,
	average_heartrate, max_heartrate, has_heartrate, source`

// UpsertActivity inserts or updates an activity and replaces its samples
func (db *DB) UpsertActivity(ctx context.Context, a *Activity) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertActivity(ctx, tx, a); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ReplaceRemoteActivities swaps every cached remote activity for the given
// set in one transaction. Imported activities are left alone.
func (db *DB) ReplaceRemoteActivities(ctx context.Context, activities []Activity) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM activities WHERE source = ?", SourceRemote); err != nil {
		return fmt.Errorf("deleting remote activities: %w", err)
	}

	for i := range activities {
		a := activities[i]
		a.Source = SourceRemote
		if err := upsertActivity(ctx, tx, &a); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func upsertActivity(ctx context.Context, tx *sql.Tx, a *Activity) error {
	source := a.Source
	if source == "" {
		source = SourceRemote
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO activities (
			id, name, type, start_date, moving_time, distance,
			average_heartrate, max_heartrate, has_heartrate, source, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			start_date = excluded.start_date,
			moving_time = excluded.moving_time,
			distance = excluded.distance,
			average_heartrate = excluded.average_heartrate,
			max_heartrate = excluded.max_heartrate,
			has_heartrate = excluded.has_heartrate,
			source = excluded.source,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, a.Name, a.Type, a.StartDate.UTC().Format(time.RFC3339), a.MovingTime, a.Distance,
		a.AverageHeartrate, a.MaxHeartrate, boolToInt(a.Heartrate != nil), source,
	)
	if err != nil {
		return fmt.Errorf("upserting activity %d: %w", a.ID, err)
	}

	if err := saveHeartrate(ctx, tx, a.ID, a.Heartrate); err != nil {
		return fmt.Errorf("saving samples for activity %d: %w", a.ID, err)
	}
	return nil
}

// GetActivity retrieves an activity and its samples by ID
func (db *DB) GetActivity(ctx context.Context, id int64) (*Activity, error) {
	row := db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}

	samples, err := db.loadHeartrate(ctx, []int64{a.ID})
	if err != nil {
		return nil, err
	}
	attachHeartrate(a, samples)
	return a, nil
}

// ListActivities returns every cached activity, newest first, with samples
func (db *DB) ListActivities(ctx context.Context) ([]Activity, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		ORDER BY start_date DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []Activity
	var ids []int64
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	samples, err := db.loadHeartrate(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range activities {
		attachHeartrate(&activities[i], samples)
	}

	return activities, nil
}

// DeleteActivity removes an activity; its samples cascade
func (db *DB) DeleteActivity(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id)
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

// CountActivities returns the number of cached activities
func (db *DB) CountActivities(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (*Activity, error) {
	var a Activity
	var startDate string
	var hasHR int

	err := row.Scan(
		&a.ID, &a.Name, &a.Type, &startDate, &a.MovingTime, &a.Distance,
		&a.AverageHeartrate, &a.MaxHeartrate, &hasHR, &a.Source,
	)
	if err != nil {
		return nil, err
	}

	a.StartDate, err = time.Parse(time.RFC3339, startDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}
	if hasHR == 1 {
		a.Heartrate = []int{}
	}

	return &a, nil
}

func attachHeartrate(a *Activity, samples map[int64][]int) {
	if a.Heartrate == nil {
		return
	}
	if s, ok := samples[a.ID]; ok {
		a.Heartrate = s
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
