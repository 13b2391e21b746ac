package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadmap-cli/internal/model"
)

func TestPublicJSONBareArray(t *testing.T) {
	payload := []byte(`[
		{"id": 388711, "title": "Microsoft Teams: Chat notes",
		 "publicRoadmapStatus": "In development",
		 "publicDisclosureAvailabilityDate": "Q4 CY2025",
		 "moreInfoLink": "https://example.com/rm/388711",
		 "tags": [{"tagName": "General Availability"}, {"tagName": "GCC"}, {"tagName": "DoD"}]}
	]`)

	records, err := PublicJSON(payload, testRetrievedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, model.SourcePublicScrape, rec.Source)
	assert.Equal(t, "Microsoft Teams", rec.Fields[model.FieldProduct])
	assert.Equal(t, "Chat notes", rec.Fields[model.FieldTitle])
	assert.Equal(t, "In development", rec.Fields[model.FieldStatus])
	assert.Equal(t, "General Availability", rec.Fields[model.FieldReleasePhase])
	assert.Equal(t, "Q4 CY2025", rec.Fields[model.FieldTargetedDates])
	assert.Equal(t, []string{"GCC", "DoD"}, rec.Instances)
}

func TestPublicJSONValueWrapper(t *testing.T) {
	payload := []byte(`{"value": [{"id": "412000", "title": "Feature"}]}`)
	records, err := PublicJSON(payload, testRetrievedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(412000), records[0].FeatureID)
}

func TestPublicIDFallsBackToLink(t *testing.T) {
	payload := []byte(`[
		{"title": "No id field", "moreInfoLink": "https://www.microsoft.com/microsoft-365/roadmap?featureid=498159"},
		{"title": "No id anywhere", "moreInfoLink": "https://example.com"}
	]`)

	records, err := PublicJSON(payload, testRetrievedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(498159), records[0].FeatureID)
}

func TestPublicJSONMalformed(t *testing.T) {
	_, err := PublicJSON([]byte(`{"value": "nope"`), testRetrievedAt)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSplitTitleProduct(t *testing.T) {
	product, title := SplitTitleProduct("Microsoft Purview: Data loss prevention for Fabric")
	assert.Equal(t, "Microsoft Purview", product)
	assert.Equal(t, "Data loss prevention for Fabric", title)

	product, title = SplitTitleProduct("Plain title")
	assert.Equal(t, "", product)
	assert.Equal(t, "Plain title", title)
}
