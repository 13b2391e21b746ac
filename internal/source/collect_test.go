package source

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadmap-cli/internal/model"
)

func stubProvider(kind model.SourceKind, records []model.RawRecord, err error) Provider {
	return Provider{
		Kind: kind,
		Fetch: func(context.Context) ([]model.RawRecord, error) {
			return records, err
		},
	}
}

func someRecords(id int64, source model.SourceKind) []model.RawRecord {
	return []model.RawRecord{{
		FeatureID:   id,
		Source:      source,
		Fields:      map[string]string{model.FieldTitle: "x"},
		RetrievedAt: time.Now().UTC(),
	}}
}

func TestCollectGathersAllProviders(t *testing.T) {
	records, stats, err := Collect(context.Background(), []Provider{
		stubProvider(model.SourceGraphAPI, someRecords(1, model.SourceGraphAPI), nil),
		stubProvider(model.SourcePublicScrape, someRecords(2, model.SourcePublicScrape), nil),
	})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, stats.Sources[model.SourceGraphAPI].Records)
	assert.Equal(t, 1, stats.Sources[model.SourcePublicScrape].Records)
	assert.False(t, stats.Finished.IsZero())
}

func TestCollectDegradesFailedSource(t *testing.T) {
	records, stats, err := Collect(context.Background(), []Provider{
		stubProvider(model.SourceGraphAPI, nil, eris.Wrap(ErrUnavailable, "auth failed")),
		stubProvider(model.SourcePublicScrape, someRecords(2, model.SourcePublicScrape), nil),
	})
	require.NoError(t, err, "one dead source must not fail the run")
	assert.Len(t, records, 1)
	assert.Contains(t, stats.Sources[model.SourceGraphAPI].Error, "auth failed")
	assert.Empty(t, stats.Sources[model.SourcePublicScrape].Error)
}

func TestCollectFailsWhenAllSourcesEmpty(t *testing.T) {
	_, _, err := Collect(context.Background(), []Provider{
		stubProvider(model.SourceGraphAPI, nil, eris.New("down")),
		stubProvider(model.SourcePublicScrape, nil, nil),
	})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCollectHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Collect(ctx, []Provider{
		stubProvider(model.SourceGraphAPI, someRecords(1, model.SourceGraphAPI), nil),
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}
