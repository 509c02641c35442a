package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hrzones/internal/analysis"
	"hrzones/internal/store"
)

var testNow = time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource returns fixed activities or runs fetch when set
type fakeSource struct {
	mu         sync.Mutex
	calls      int
	activities []store.Activity
	err        error
	fetch      func(ctx context.Context, call int) ([]store.Activity, error)
}

func (f *fakeSource) FetchActivities(ctx context.Context) ([]store.Activity, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	fetch := f.fetch
	f.mu.Unlock()

	if fetch != nil {
		return fetch(ctx, call)
	}
	return f.activities, f.err
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestPipeline(src ActivitySource, settings analysis.Settings, timeout time.Duration) *Pipeline {
	p := NewPipeline(src, NewZoneRegistry(settings), timeout)
	p.now = func() time.Time { return testNow }
	return p
}

func period(t *testing.T, label string) analysis.TimePeriod {
	t.Helper()
	p, ok := analysis.FindPeriod(label)
	require.True(t, ok, "unknown period %q", label)
	return p
}

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// todayActivities gives Zone 1: 2, Zone 2: 3, Zone 4: 1 for default zones
func todayActivities() []store.Activity {
	return []store.Activity{
		{
			ID:         1,
			Name:       "Morning Run",
			Type:       "Run",
			StartDate:  testNow.Add(-2 * time.Hour),
			MovingTime: 600,
			Heartrate:  []int{100, 100, 130, 130, 130, 170},
		},
		{
			ID:         2,
			Name:       "Long Run",
			Type:       "Run",
			StartDate:  testNow.AddDate(0, 0, -3),
			MovingTime: 3600,
			Heartrate:  []int{150, 150},
		},
	}
}
