package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadmap-cli/internal/model"
	"github.com/sells-group/roadmap-cli/internal/parse"
)

func TestWriteMarkdownStructure(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMarkdown(&buf, sampleRecords(), MarkdownOptions{
		Title:        "Weekly Digest",
		CloudDisplay: "Worldwide (Standard Multi-Tenant)",
		GeneratedAt:  time.Date(2025, 8, 25, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	doc := buf.String()
	assert.True(t, strings.HasPrefix(doc, "# Weekly Digest\n"))
	assert.Contains(t, doc, MasterHeading)
	assert.Contains(t, doc, "| "+strings.Join(parse.TableHeader, " | ")+" |")
	assert.Contains(t, doc, "| 498159 | Copilot in Excel |")
}

func TestWriteMarkdownAnnotations(t *testing.T) {
	records := []model.CanonicalRecord{{
		ID:          910000,
		Title:       "Narrated feature",
		Status:      model.StatusPreview,
		Description: "Only the narrative knew this.",
		Provenance: map[string]model.Provenance{
			model.FieldTitle:       {Source: model.SourceLLMNarrative, Fallback: true},
			model.FieldDescription: {Source: model.SourceLLMNarrative, Fallback: true},
			model.FieldStatus:      {Source: model.SourceLLMNarrative},
		},
		OfficialLink: model.OfficialLink(910000),
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, records, MarkdownOptions{}))

	doc := buf.String()
	assert.Contains(t, doc, "Narrated feature (FALLBACK)")
	assert.Contains(t, doc, "Only the narrative knew this. (FALLBACK)")
	assert.Contains(t, doc, "In preview (INFERRED)")
	// The ID cell never carries an annotation.
	assert.NotContains(t, doc, "910000 (")
}

func TestWriteMarkdownDeepDive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, sampleRecords(), MarkdownOptions{DeepDive: true}))

	doc := buf.String()
	assert.Contains(t, doc, "## 498159 — Copilot in Excel")
	assert.Contains(t, doc, "- Cloud instances: GCC, Worldwide (Standard Multi-Tenant)")
	assert.Contains(t, doc, "## 700001 — Loop updates")
}

func TestOrderForcedPinsThenSorts(t *testing.T) {
	records := []model.CanonicalRecord{
		{ID: 3, Title: "c"}, {ID: 1, Title: "a"}, {ID: 2, Title: "b"},
	}
	out := OrderForced(records, []int64{2, 99, 2})
	require.Len(t, out, 3)
	assert.Equal(t, int64(2), out[0].ID)
	assert.Equal(t, int64(1), out[1].ID)
	assert.Equal(t, int64(3), out[2].ID)
}

func TestFilterProducts(t *testing.T) {
	records := []model.CanonicalRecord{
		{ID: 1, Product: "Microsoft Teams"},
		{ID: 2, Product: "Exchange Online"},
		{ID: 3, Product: "Teams Premium"},
	}
	out := FilterProducts(records, []string{"teams"})
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ID)
	assert.Equal(t, int64(3), out[1].ID)

	assert.Len(t, FilterProducts(records, nil), 3)
}

func TestParseForcedIDs(t *testing.T) {
	ids, err := ParseForcedIDs("498159, 700001,")
	require.NoError(t, err)
	assert.Equal(t, []int64{498159, 700001}, ids)

	_, err = ParseForcedIDs("1,two")
	assert.Error(t, err)
}

func TestWriteHTMLRendersTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleRecords(), MarkdownOptions{Title: "Digest"}))

	doc := buf.String()
	assert.Contains(t, doc, "<title>Digest</title>")
	assert.Contains(t, doc, "<td>Copilot in Excel</td>")
	assert.Contains(t, doc, "<th>Official Roadmap link</th>")
}
