package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadmap-cli/internal/model"
)

const masterTable = `# Roadmap digest

Some narrative prose up front.

## Master Summary Table (all IDs)

| ID | Title | Product/Workload | Status | Release phase | Targeted dates | Cloud instance | Short description | Official Roadmap link |
|---|---|---|---|---|---|---|---|---|
| 498159 | Copilot in Excel | Excel | Rolling out | General Availability | September CY2025 | Worldwide | Formula help. | https://example.com |
| abc | Broken row | | | | | | | |
| 700001 | Loop updates | Loop | In development | | Q3 CY2025 | GCC, DoD | | |
`

func TestMarkdownParsesMasterTable(t *testing.T) {
	records, err := Markdown(masterTable, model.SourceLLMNarrative, testRetrievedAt)
	require.NoError(t, err)
	require.Len(t, records, 2, "the bad-id row is skipped, not fatal")

	first := records[0]
	assert.Equal(t, int64(498159), first.FeatureID)
	assert.Equal(t, model.SourceLLMNarrative, first.Source)
	assert.Equal(t, "Copilot in Excel", first.Fields[model.FieldTitle])
	assert.Equal(t, "Rolling out", first.Fields[model.FieldStatus])
	assert.Equal(t, []string{"Worldwide (Standard Multi-Tenant)"}, first.Instances)

	second := records[1]
	assert.Equal(t, int64(700001), second.FeatureID)
	assert.Equal(t, []string{"GCC", "DoD"}, second.Instances)
	_, has := second.Fields[model.FieldDescription]
	assert.False(t, has)
}

func TestMarkdownRequiresExactlyOneMasterTable(t *testing.T) {
	_, err := Markdown("# No tables here\n\nJust prose.\n", model.SourceLLMNarrative, testRetrievedAt)
	assert.ErrorIs(t, err, ErrFormat)

	two := masterTable + "\n" + strings.SplitN(masterTable, "## Master", 2)[0] +
		"| ID | Title | Product/Workload | Status | Release phase | Targeted dates | Cloud instance | Short description | Official Roadmap link |\n" +
		"|---|---|---|---|---|---|---|---|---|\n" +
		"| 111111 | Dup | | | | | | | |\n"
	_, err = Markdown(two, model.SourceLLMNarrative, testRetrievedAt)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestMarkdownIgnoresOtherTables(t *testing.T) {
	doc := masterTable + `
## Appendix

| Name | Value |
|---|---|
| rows | 2 |
`
	records, err := Markdown(doc, model.SourceLLMNarrative, testRetrievedAt)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestMarkdownHeaderMustMatchExactly(t *testing.T) {
	doc := `| ID | Title | Product | Status | Release phase | Targeted dates | Cloud instance | Short description | Official Roadmap link |
|---|---|---|---|---|---|---|---|---|
| 498159 | X | | | | | | | |
`
	_, err := Markdown(doc, model.SourceLLMNarrative, testRetrievedAt)
	assert.ErrorIs(t, err, ErrFormat)
}
