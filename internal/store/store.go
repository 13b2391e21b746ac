// Package store persists run history and feed snapshots. The feed file on
// disk is the contract with downstream consumers; the store keeps the
// history behind it queryable.
package store

import (
	"context"

	"github.com/sells-group/roadmap-cli/internal/model"
)

// Store defines the persistence interface for the roadmap pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, mode string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, stats *model.FetchStats) error
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Feed snapshots
	SaveSnapshot(ctx context.Context, runID string, records []model.CanonicalRecord) (*model.FeedSnapshot, error)
	LatestSnapshot(ctx context.Context) (*model.FeedSnapshot, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
