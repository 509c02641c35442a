package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hrzones/internal/observability"
	"hrzones/internal/store"
)

// StoreSource serves activities from the local cache only
type StoreSource struct {
	db *store.DB
}

// NewStoreSource creates an offline activity source
func NewStoreSource(db *store.DB) *StoreSource {
	return &StoreSource{db: db}
}

// FetchActivities returns every cached activity
func (s *StoreSource) FetchActivities(ctx context.Context) ([]store.Activity, error) {
	activities, err := s.db.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cached activities: %w", err)
	}
	return activities, nil
}

// CachedSource fetches from a remote source and mirrors the result into the
// local cache. Returned activities include imported FIT files.
type CachedSource struct {
	remote ActivitySource
	db     *store.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewCachedSource wraps remote with the activity cache
func NewCachedSource(remote ActivitySource, db *store.DB, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{remote: remote, db: db, logger: logger, now: time.Now}
}

// FetchActivities fetches remote activities, refreshes the cache and returns
// the cached set. If the cache can't be written the remote set is returned.
func (s *CachedSource) FetchActivities(ctx context.Context) ([]store.Activity, error) {
	remote, err := s.remote.FetchActivities(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, remote); err != nil {
		s.logger.Warn("activity cache not updated", "err", err)
		return remote, nil
	}

	activities, err := s.db.ListActivities(ctx)
	if err != nil {
		s.logger.Warn("reading activity cache", "err", err)
		return remote, nil
	}
	return activities, nil
}

// Refresh updates the cache from the remote source and reports how many
// remote activities were stored
func (s *CachedSource) Refresh(ctx context.Context) (int, error) {
	remote, err := s.remote.FetchActivities(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.save(ctx, remote); err != nil {
		return 0, err
	}
	return len(remote), nil
}

func (s *CachedSource) save(ctx context.Context, activities []store.Activity) error {
	if err := s.db.ReplaceRemoteActivities(ctx, activities); err != nil {
		return fmt.Errorf("caching activities: %w", err)
	}
	now := s.now()
	if err := s.db.MarkRefreshed(ctx, now); err != nil {
		return fmt.Errorf("recording refresh time: %w", err)
	}
	observability.RecordRefresh(now)
	return nil
}
