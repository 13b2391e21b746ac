package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadmap-cli/internal/model"
	"github.com/sells-group/roadmap-cli/internal/parse"
)

func sampleRecords() []model.CanonicalRecord {
	return []model.CanonicalRecord{
		{
			ID:             498159,
			Title:          "Copilot in Excel",
			Product:        "Excel",
			Status:         model.StatusRollingOut,
			ReleasePhase:   model.PhaseGeneralAvailability,
			TargetedDates:  "September CY2025",
			CloudInstances: []string{"GCC", "Worldwide (Standard Multi-Tenant)"},
			Description:    "Formula help.",
			OfficialLink:   model.OfficialLink(498159),
		},
		{
			ID:           700001,
			Title:        "Loop updates",
			OfficialLink: model.OfficialLink(700001),
		},
	}
}

func TestWriteCSVHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, parse.TableHeader, rows[0])
	assert.Equal(t, "498159", rows[1][0])
	assert.Equal(t, "GCC, Worldwide (Standard Multi-Tenant)", rows[1][6])
	assert.Contains(t, rows[2][8], "700001")
}

func TestWriteJSONEmptyFeedIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]", string(bytes.TrimSpace(buf.Bytes())))
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRecords()))
	// Links must survive unescaped.
	assert.Contains(t, buf.String(), "roadmap?featureid=498159")

	var decoded []model.CanonicalRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleRecords(), decoded)
}

func TestWriteFileAtomicKeepsOldFileOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	err := WriteFileAtomic(path, func(w io.Writer) error {
		return eris.New("render failed")
	})
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestWriteFileAtomicWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "feed.csv")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		return WriteCSV(w, sampleRecords())
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Copilot in Excel")
}
