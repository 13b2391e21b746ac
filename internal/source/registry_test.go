package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistryMissingFileYieldsDefaults(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRegistry(), reg)
	assert.True(t, reg.Public.Enabled)
	assert.Contains(t, reg.Public.FeedURL, "releasecommunications")
}

func TestLoadRegistryPartialFileGapFills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	yaml := `
sources:
  graph:
    enabled: false
  public:
    enabled: true
  tracker:
    enabled: true
    path: tracker.xlsx
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.False(t, reg.Graph.Enabled)
	assert.Equal(t, DefaultRegistry().Public.FeedURL, reg.Public.FeedURL)
	assert.Equal(t, DefaultRegistry().MC.MirrorURL, reg.MC.MirrorURL)
	assert.Equal(t, "tracker.xlsx", reg.Tracker.Path)
}

func TestLoadRegistryMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [not: a: map"), 0o644))

	_, err := LoadRegistry(path)
	assert.Error(t, err)
}
