package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"hrzones/internal/fitfile"
	"hrzones/internal/store"
)

// ImportResult summarises an import run
type ImportResult struct {
	Imported []store.Activity
	Errors   []error
}

// Importer stores FIT activity files in the local cache
type Importer struct {
	db     *store.DB
	parse  func(path string) (store.Activity, error)
	logger *slog.Logger
}

// NewImporter creates a FIT importer
func NewImporter(db *store.DB, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{db: db, parse: fitfile.ParseFile, logger: logger}
}

// ImportFiles imports every path, continuing past files that fail
func (i *Importer) ImportFiles(ctx context.Context, paths []string) *ImportResult {
	result := &ImportResult{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, err)
			break
		}

		a, err := i.importFile(ctx, path)
		if err != nil {
			i.logger.Warn("import failed", "file", path, "err", err)
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		i.logger.Info("imported activity", "file", path, "id", a.ID, "samples", len(a.Heartrate))
		result.Imported = append(result.Imported, a)
	}
	return result
}

func (i *Importer) importFile(ctx context.Context, path string) (store.Activity, error) {
	a, err := i.parse(path)
	if err != nil {
		return store.Activity{}, err
	}
	a.Source = store.SourceFIT
	if err := i.db.UpsertActivity(ctx, &a); err != nil {
		return store.Activity{}, fmt.Errorf("storing activity: %w", err)
	}
	return a, nil
}
