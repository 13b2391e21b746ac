package source

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/roadmap-cli/internal/model"
)

// ErrUnavailable marks a collaborator fetch that failed (auth, network,
// rate limit). The source contributes zero records and the run proceeds.
var ErrUnavailable = eris.New("source: unavailable")

// ErrNoData is returned when every source came back empty: there is
// nothing to merge and the run must fail.
var ErrNoData = eris.New("source: no source yielded any records")

// Provider fetches and parses one source's payload into raw records.
// Implementations own all I/O; records they return are already normalized.
type Provider struct {
	Kind  model.SourceKind
	Fetch func(ctx context.Context) ([]model.RawRecord, error)
}

// Collect runs all providers concurrently and gathers their records.
// Individual source failures degrade that source, never the run; only a
// run with zero records overall fails. The returned stats carry per-source
// counts for the fetch summary.
func Collect(ctx context.Context, providers []Provider) ([]model.RawRecord, model.FetchStats, error) {
	stats := model.FetchStats{
		Sources: make(map[model.SourceKind]model.SourceStats, len(providers)),
		Started: time.Now().UTC(),
	}

	var mu sync.Mutex
	var all []model.RawRecord

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range providers {
		g.Go(func() error {
			began := time.Now()
			records, err := p.Fetch(gctx)
			elapsed := time.Since(began).Milliseconds()

			mu.Lock()
			defer mu.Unlock()
			st := model.SourceStats{Records: len(records), Duration: elapsed}
			if err != nil {
				st.Error = err.Error()
				zap.L().Warn("source: degraded, continuing without it",
					zap.String("source", string(p.Kind)),
					zap.Error(err),
				)
			} else {
				zap.L().Info("source: collected",
					zap.String("source", string(p.Kind)),
					zap.Int("records", len(records)),
					zap.Int64("duration_ms", elapsed),
				)
			}
			stats.Sources[p.Kind] = st
			all = append(all, records...)

			// Context cancellation is the only error that aborts the group.
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, eris.Wrap(err, "source: collection cancelled")
	}

	stats.Finished = time.Now().UTC()
	if len(all) == 0 {
		return nil, stats, ErrNoData
	}
	return all, stats, nil
}
