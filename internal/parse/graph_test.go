package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadmap-cli/internal/model"
)

var testRetrievedAt = time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

func TestGraphJSONBareArray(t *testing.T) {
	payload := []byte(`[
		{"id": 498159, "title": "Copilot in Excel", "status": "Rolling out",
		 "releasePhase": "General Availability", "dates": "September CY2025",
		 "cloudInstance": "Worldwide, GCC", "description": "Formula help."},
		{"id": "oops", "title": "bad id"}
	]`)

	records, err := GraphJSON(payload, testRetrievedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, int64(498159), rec.FeatureID)
	assert.Equal(t, model.SourceGraphAPI, rec.Source)
	assert.Equal(t, "Copilot in Excel", rec.Fields[model.FieldTitle])
	assert.Equal(t, "Rolling out", rec.Fields[model.FieldStatus])
	assert.Equal(t, "September CY2025", rec.Fields[model.FieldTargetedDates])
	assert.Equal(t, []string{"Worldwide (Standard Multi-Tenant)", "GCC"}, rec.Instances)
	assert.Equal(t, testRetrievedAt, rec.RetrievedAt)
}

func TestGraphJSONValueEnvelope(t *testing.T) {
	payload := []byte(`{"value": [{"id": "700001", "title": "Loop updates"}], "@odata.nextLink": "next"}`)

	records, err := GraphJSON(payload, testRetrievedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(700001), records[0].FeatureID)
}

func TestGraphJSONMalformed(t *testing.T) {
	_, err := GraphJSON([]byte(`not json`), testRetrievedAt)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestGraphDropsUnmappableStatus(t *testing.T) {
	payload := []byte(`[{"id": 123456, "title": "X", "status": "Whatever Mode"}]`)

	records, err := GraphJSON(payload, testRetrievedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	_, has := records[0].Fields[model.FieldStatus]
	assert.False(t, has, "unmapped status must stay blank, never invented")
}
