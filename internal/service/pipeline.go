package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hrzones/internal/analysis"
	"hrzones/internal/observability"
	"hrzones/internal/source"
	"hrzones/internal/store"
)

// ErrFetchTimeout is returned when the activity source doesn't answer in time
var ErrFetchTimeout = errors.New("timed out waiting for activities")

// ActivitySource provides the full activity list
type ActivitySource interface {
	FetchActivities(ctx context.Context) ([]store.Activity, error)
}

// ZoneReport is the presentation-ready result of one aggregation
type ZoneReport struct {
	Period              analysis.TimePeriod    `json:"period"`
	GeneratedAt         time.Time              `json:"generated_at"`
	Zones               []analysis.ZoneSummary `json:"zones"`
	TotalMovingTime     int                    `json:"total_moving_time"`
	ClassifiedSeconds   int                    `json:"classified_seconds"`
	UnclassifiedSamples int                    `json:"unclassified_samples"`
	ActivityCount       int                    `json:"activity_count"`
	ActivitiesWithHR    int                    `json:"activities_with_hr"`
	DailyMinutes        []float64              `json:"daily_minutes"`
}

// Times returns seconds per zone name
func (r *ZoneReport) Times() map[string]int {
	times := make(map[string]int, len(r.Zones))
	for _, z := range r.Zones {
		times[z.Zone.Name] = z.Seconds
	}
	return times
}

// Pipeline runs fetch, filter, zone derivation, aggregation and summary.
// It holds no per-request state and may be shared by concurrent callers.
type Pipeline struct {
	source   ActivitySource
	registry *ZoneRegistry
	timeout  time.Duration
	now      func() time.Time
}

// NewPipeline creates a pipeline. A zero timeout uses DefaultFetchTimeout.
func NewPipeline(src ActivitySource, registry *ZoneRegistry, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Pipeline{
		source:   src,
		registry: registry,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Registry returns the zone registry the pipeline derives zones from
func (p *Pipeline) Registry() *ZoneRegistry {
	return p.registry
}

// Activities fetches activities and keeps those inside period
func (p *Pipeline) Activities(ctx context.Context, period analysis.TimePeriod) ([]store.Activity, error) {
	activities, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return analysis.FilterByPeriod(activities, period, p.now()), nil
}

// Run computes the zone report for period
func (p *Pipeline) Run(ctx context.Context, period analysis.TimePeriod) (*ZoneReport, error) {
	activities, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	now := p.now()
	filtered := analysis.FilterByPeriod(activities, period, now)

	zones, err := p.registry.Zones()
	if err != nil {
		return nil, fmt.Errorf("deriving zones: %w", err)
	}

	result, err := analysis.Aggregate(filtered, zones)
	if err != nil {
		return nil, fmt.Errorf("aggregating zones: %w", err)
	}
	observability.RecordSamples(result.Classified(), result.Unclassified)

	totalMoving := analysis.TotalMovingTime(filtered)
	return &ZoneReport{
		Period:              period,
		GeneratedAt:         now,
		Zones:               analysis.Summarize(result, zones, totalMoving),
		TotalMovingTime:     totalMoving,
		ClassifiedSeconds:   result.Classified(),
		UnclassifiedSamples: result.Unclassified,
		ActivityCount:       len(filtered),
		ActivitiesWithHR:    result.ActivitiesWithHR,
		DailyMinutes:        analysis.DailyMinutes(filtered, now, min(period.Days, MaxChartDays)),
	}, nil
}

func (p *Pipeline) fetch(ctx context.Context) ([]store.Activity, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	activities, err := p.source.FetchActivities(fetchCtx)
	observability.ObserveFetch(time.Since(start), err)
	if err != nil {
		// Only our own deadline counts as a timeout; caller cancellation doesn't
		if ctx.Err() == nil && errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrFetchTimeout, err)
		}
		if !errors.Is(err, source.ErrFetchFailed) && !errors.Is(err, source.ErrMalformedActivity) {
			err = fmt.Errorf("%w: %w", source.ErrFetchFailed, err)
		}
		return nil, fmt.Errorf("fetching activities: %w", err)
	}
	return activities, nil
}
