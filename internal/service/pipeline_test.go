package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrzones/internal/analysis"
	"hrzones/internal/source"
	"hrzones/internal/store"
)

func TestPipeline_Run(t *testing.T) {
	src := &fakeSource{activities: todayActivities()}
	p := newTestPipeline(src, analysis.DefaultSettings, time.Second)

	report, err := p.Run(context.Background(), period(t, "This Week"))
	require.NoError(t, err)

	assert.Equal(t, testNow, report.GeneratedAt)
	assert.Equal(t, 2, report.ActivityCount)
	assert.Equal(t, 2, report.ActivitiesWithHR)
	assert.Equal(t, 4200, report.TotalMovingTime)
	assert.Equal(t, 8, report.ClassifiedSeconds)
	assert.Zero(t, report.UnclassifiedSamples)
	assert.Len(t, report.DailyMinutes, 7)
	assert.Equal(t, 10.0, report.DailyMinutes[6])

	require.Len(t, report.Zones, analysis.ZoneCount)
	assert.Equal(t, "Zone 3", report.Zones[2].Zone.Name)
	assert.Equal(t, 2, report.Zones[2].Seconds)
	// Percent uses activity moving time as the denominator
	assert.InDelta(t, 2.0/4200*100, report.Zones[2].Percent, 1e-9)
}

func TestPipeline_EmptyPeriod(t *testing.T) {
	src := &fakeSource{activities: []store.Activity{
		{ID: 1, StartDate: testNow.AddDate(0, 0, -40), MovingTime: 100, Heartrate: []int{130}},
	}}
	p := newTestPipeline(src, analysis.DefaultSettings, time.Second)

	report, err := p.Run(context.Background(), period(t, "Today"))
	require.NoError(t, err)
	assert.Zero(t, report.ActivityCount)
	assert.Zero(t, report.ClassifiedSeconds)
	for _, z := range report.Zones {
		assert.Zero(t, z.Seconds)
		assert.Zero(t, z.Percent)
	}
}

func TestPipeline_SettingsChangeApplies(t *testing.T) {
	src := &fakeSource{activities: todayActivities()}
	p := newTestPipeline(src, analysis.DefaultSettings, time.Second)

	// 130 bpm moves from Zone 2 to Zone 3 once max HR drops to 180
	// (bounds 108/126/144/162)
	require.NoError(t, p.Registry().SetSettings(analysis.Settings{RestingHR: 60, MaxHR: 180, Method: analysis.MethodPercentage}))

	report, err := p.Run(context.Background(), period(t, "Today"))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Zone 1": 2, "Zone 2": 0, "Zone 3": 3, "Zone 4": 0, "Zone 5": 1}, report.Times())
}

func TestPipeline_FetchErrors(t *testing.T) {
	t.Run("source error is a fetch failure", func(t *testing.T) {
		src := &fakeSource{err: assert.AnError}
		p := newTestPipeline(src, analysis.DefaultSettings, time.Second)
		_, err := p.Run(context.Background(), period(t, "Today"))
		assert.ErrorIs(t, err, source.ErrFetchFailed)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("malformed data keeps its cause", func(t *testing.T) {
		src := &fakeSource{err: source.ErrMalformedActivity}
		p := newTestPipeline(src, analysis.DefaultSettings, time.Second)
		_, err := p.Run(context.Background(), period(t, "Today"))
		assert.ErrorIs(t, err, source.ErrMalformedActivity)
		assert.NotErrorIs(t, err, source.ErrFetchFailed)
	})

	t.Run("caller cancellation is not a timeout", func(t *testing.T) {
		src := &fakeSource{fetch: func(ctx context.Context, _ int) ([]store.Activity, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}}
		p := newTestPipeline(src, analysis.DefaultSettings, time.Minute)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := p.Run(ctx, period(t, "Today"))
		assert.NotErrorIs(t, err, ErrFetchTimeout)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPipeline_Activities(t *testing.T) {
	src := &fakeSource{activities: todayActivities()}
	p := newTestPipeline(src, analysis.DefaultSettings, time.Second)

	activities, err := p.Activities(context.Background(), period(t, "Today"))
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, int64(1), activities[0].ID)
}

func TestZoneRegistry(t *testing.T) {
	r := NewZoneRegistry(analysis.DefaultSettings)

	zones, err := r.Zones()
	require.NoError(t, err)
	assert.Equal(t, analysis.DefaultZones(), zones)

	tests := []struct {
		name     string
		settings analysis.Settings
		ok       bool
	}{
		{"valid", analysis.Settings{RestingHR: 50, MaxHR: 185, Method: analysis.MethodPercentage}, true},
		{"lactate accepted", analysis.Settings{RestingHR: 50, MaxHR: 185, Method: analysis.MethodLactate}, true},
		{"method normalised", analysis.Settings{RestingHR: 50, MaxHR: 185, Method: "POWER"}, true},
		{"unknown method", analysis.Settings{RestingHR: 50, MaxHR: 185, Method: "karvonen"}, false},
		{"resting too low", analysis.Settings{RestingHR: 20, MaxHR: 185, Method: analysis.MethodPercentage}, false},
		{"max too high", analysis.Settings{RestingHR: 50, MaxHR: 240, Method: analysis.MethodPercentage}, false},
		{"resting not below max", analysis.Settings{RestingHR: 100, MaxHR: 100, Method: analysis.MethodPercentage}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewZoneRegistry(analysis.DefaultSettings)
			err := r.SetSettings(tt.settings)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.settings.MaxHR, r.Settings().MaxHR)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidSettings)
			assert.Equal(t, analysis.DefaultSettings, r.Settings(), "rejected settings leave the registry unchanged")
		})
	}
}

func TestZoneRegistry_LactateFailsAtDerivation(t *testing.T) {
	r := NewZoneRegistry(analysis.DefaultSettings)
	require.NoError(t, r.SetSettings(analysis.Settings{RestingHR: 60, MaxHR: 190, Method: analysis.MethodLactate}))

	_, err := r.Zones()
	assert.ErrorIs(t, err, analysis.ErrUnsupportedZoneMethod)
}

func TestNewZoneRegistry_InvalidFallsBack(t *testing.T) {
	r := NewZoneRegistry(analysis.Settings{RestingHR: 5, MaxHR: 500, Method: "x"})
	assert.Equal(t, analysis.DefaultSettings, r.Settings())
}
