package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadmap-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "roadmap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "fetch")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	stats := &model.FetchStats{
		Merged:   42,
		Filtered: 7,
		Sources: map[model.SourceKind]model.SourceStats{
			model.SourceGraphAPI: {Records: 40},
		},
	}
	require.NoError(t, s.CompleteRun(ctx, run.ID, model.RunStatusComplete, stats))

	runs, err := s.ListRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	require.NotNil(t, runs[0].Stats)
	assert.Equal(t, 42, runs[0].Stats.Merged)
	assert.Equal(t, 40, runs[0].Stats.Sources[model.SourceGraphAPI].Records)
}

func TestSQLiteCompleteRunUnknownID(t *testing.T) {
	s := newTestSQLite(t)
	err := s.CompleteRun(context.Background(), "nope", model.RunStatusFailed, nil)
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteSnapshots(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "fetch")
	require.NoError(t, err)

	latest, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	first := []model.CanonicalRecord{{ID: 100001, Title: "Old"}}
	_, err = s.SaveSnapshot(ctx, run.ID, first)
	require.NoError(t, err)

	second := []model.CanonicalRecord{
		{ID: 100001, Title: "New"},
		{ID: 100002, Title: "Added", CloudInstances: []string{"GCC"}},
	}
	snap, err := s.SaveSnapshot(ctx, run.ID, second)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.RecordCount)

	latest, err = s.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Len(t, latest.Records, 2)
	assert.Equal(t, "New", latest.Records[0].Title)
	assert.Equal(t, []string{"GCC"}, latest.Records[1].CloudInstances)
}
