package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

// setupTestDB creates an in-memory database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestUpsertActivity_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	a := &Activity{
		ID:               1,
		Name:             "Morning Run",
		Type:             "Run",
		StartDate:        start,
		MovingTime:       600,
		Distance:         2000,
		AverageHeartrate: floatPtr(131.5),
		Heartrate:        []int{100, 100, 130, InvalidHeartrate, 170},
	}

	if err := db.UpsertActivity(ctx, a); err != nil {
		t.Fatalf("UpsertActivity failed: %v", err)
	}

	got, err := db.GetActivity(ctx, 1)
	if err != nil {
		t.Fatalf("GetActivity failed: %v", err)
	}

	if got.Name != "Morning Run" {
		t.Errorf("Name = %q, want %q", got.Name, "Morning Run")
	}
	if !got.StartDate.Equal(start) {
		t.Errorf("StartDate = %v, want %v", got.StartDate, start)
	}
	if got.Source != SourceRemote {
		t.Errorf("Source = %q, want %q", got.Source, SourceRemote)
	}
	if got.AverageHeartrate == nil || *got.AverageHeartrate != 131.5 {
		t.Errorf("AverageHeartrate = %v, want 131.5", got.AverageHeartrate)
	}
	if got.MaxHeartrate != nil {
		t.Errorf("MaxHeartrate = %v, want nil", *got.MaxHeartrate)
	}

	want := []int{100, 100, 130, InvalidHeartrate, 170}
	if len(got.Heartrate) != len(want) {
		t.Fatalf("len(Heartrate) = %d, want %d", len(got.Heartrate), len(want))
	}
	for i := range want {
		if got.Heartrate[i] != want[i] {
			t.Errorf("Heartrate[%d] = %d, want %d", i, got.Heartrate[i], want[i])
		}
	}
}

func TestUpsertActivity_ReplacesSamples(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := &Activity{ID: 7, Name: "Ride", Type: "Ride", StartDate: time.Now(), Heartrate: []int{1, 2, 3, 4}}
	if err := db.UpsertActivity(ctx, a); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	a.Heartrate = []int{150}
	if err := db.UpsertActivity(ctx, a); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	count, err := db.CountSamples(ctx, 7)
	if err != nil {
		t.Fatalf("CountSamples failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountSamples = %d, want 1", count)
	}
}

func TestHeartrate_NilVersusEmpty(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	absent := &Activity{ID: 1, Name: "Walk", Type: "Walk", StartDate: time.Now()}
	empty := &Activity{ID: 2, Name: "Swim", Type: "Swim", StartDate: time.Now(), Heartrate: []int{}}

	for _, a := range []*Activity{absent, empty} {
		if err := db.UpsertActivity(ctx, a); err != nil {
			t.Fatalf("UpsertActivity(%d) failed: %v", a.ID, err)
		}
	}

	got, err := db.GetActivity(ctx, 1)
	if err != nil {
		t.Fatalf("GetActivity failed: %v", err)
	}
	if got.Heartrate != nil {
		t.Errorf("absent heart rate should load as nil, got %v", got.Heartrate)
	}

	got, err = db.GetActivity(ctx, 2)
	if err != nil {
		t.Fatalf("GetActivity failed: %v", err)
	}
	if got.Heartrate == nil || len(got.Heartrate) != 0 {
		t.Errorf("empty heart rate should load as empty slice, got %v", got.Heartrate)
	}
	if got.HasHeartrate() {
		t.Error("HasHeartrate should be false for an empty series")
	}
}

func TestReplaceRemoteActivities_KeepsImports(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	imported := &Activity{ID: 99, Name: "Imported", Type: "Run", StartDate: now, Source: SourceFIT, Heartrate: []int{120}}
	if err := db.UpsertActivity(ctx, imported); err != nil {
		t.Fatalf("UpsertActivity failed: %v", err)
	}

	first := []Activity{
		{ID: 1, Name: "Old", Type: "Run", StartDate: now.Add(-48 * time.Hour)},
		{ID: 2, Name: "Older", Type: "Run", StartDate: now.Add(-72 * time.Hour)},
	}
	if err := db.ReplaceRemoteActivities(ctx, first); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}

	second := []Activity{
		{ID: 3, Name: "New", Type: "Ride", StartDate: now.Add(-time.Hour), Heartrate: []int{140, 141}},
	}
	if err := db.ReplaceRemoteActivities(ctx, second); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	activities, err := db.ListActivities(ctx)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("len(activities) = %d, want 2", len(activities))
	}

	// Newest first
	if activities[0].ID != 99 || activities[1].ID != 3 {
		t.Errorf("unexpected order: %d, %d", activities[0].ID, activities[1].ID)
	}
	if activities[0].Source != SourceFIT {
		t.Errorf("imported Source = %q, want %q", activities[0].Source, SourceFIT)
	}
	if len(activities[1].Heartrate) != 2 {
		t.Errorf("len(Heartrate) = %d, want 2", len(activities[1].Heartrate))
	}
}

func TestDeleteActivity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.DeleteActivity(ctx, 42); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("DeleteActivity on missing row = %v, want ErrActivityNotFound", err)
	}

	a := &Activity{ID: 42, Name: "Run", Type: "Run", StartDate: time.Now(), Heartrate: []int{130, 131}}
	if err := db.UpsertActivity(ctx, a); err != nil {
		t.Fatalf("UpsertActivity failed: %v", err)
	}
	if err := db.DeleteActivity(ctx, 42); err != nil {
		t.Fatalf("DeleteActivity failed: %v", err)
	}

	count, err := db.CountSamples(ctx, 42)
	if err != nil {
		t.Fatalf("CountSamples failed: %v", err)
	}
	if count != 0 {
		t.Errorf("samples should cascade, got %d", count)
	}

	if _, err := db.GetActivity(ctx, 42); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("GetActivity after delete = %v, want ErrActivityNotFound", err)
	}
}

func TestLastRefresh(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	got, err := db.LastRefresh(ctx)
	if err != nil {
		t.Fatalf("LastRefresh failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("LastRefresh before any refresh = %v, want zero", got)
	}

	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	if err := db.MarkRefreshed(ctx, ts); err != nil {
		t.Fatalf("MarkRefreshed failed: %v", err)
	}

	got, err = db.LastRefresh(ctx)
	if err != nil {
		t.Fatalf("LastRefresh failed: %v", err)
	}
	if !got.Equal(ts) {
		t.Errorf("LastRefresh = %v, want %v", got, ts)
	}
}
