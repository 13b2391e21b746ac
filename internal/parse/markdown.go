package parse

import (
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadmap-cli/internal/model"
)

// TableHeader is the fixed master-table column order. Header matching is
// exact on text and order; the same order defines the CSV feed contract.
var TableHeader = []string{
	"ID",
	"Title",
	"Product/Workload",
	"Status",
	"Release phase",
	"Targeted dates",
	"Cloud instance",
	"Short description",
	"Official Roadmap link",
}

// separatorRe matches a GFM table separator row like |---|:---:|---|.
var separatorRe = regexp.MustCompile(`^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)+\|?\s*$`)

type table struct {
	headerLine int
	header     []string
	rows       [][]string
}

// Markdown ingests a narrative report document. The document must contain
// exactly one pipe table whose header matches TableHeader exactly; zero or
// several such tables is a format error. Rows with a non-numeric ID cell are
// skipped with a warning rather than failing the whole parse.
func Markdown(doc string, source model.SourceKind, retrievedAt time.Time) ([]model.RawRecord, error) {
	var matches []table
	for _, t := range findTables(strings.Split(doc, "\n")) {
		if headerEqual(t.header, TableHeader) {
			matches = append(matches, t)
		}
	}
	switch {
	case len(matches) == 0:
		return nil, eris.Wrap(ErrFormat, "no table with the master header found")
	case len(matches) > 1:
		return nil, eris.Wrapf(ErrFormat, "%d tables with the master header found, expected exactly one", len(matches))
	}

	master := matches[0]
	out := make([]model.RawRecord, 0, len(master.rows))
	for i, row := range master.rows {
		// Tolerate short rows by padding, matching the report validator.
		for len(row) < len(TableHeader) {
			row = append(row, "")
		}
		id, err := ParseFeatureID(row[0])
		if err != nil {
			zap.L().Warn("parse: skipping table row with bad id",
				zap.Int("row", i+1),
				zap.String("id_cell", row[0]),
			)
			continue
		}
		out = append(out, newRecord(id, source, retrievedAt, map[string]string{
			model.FieldTitle:         row[1],
			model.FieldProduct:       row[2],
			model.FieldStatus:        row[3],
			model.FieldReleasePhase:  row[4],
			model.FieldTargetedDates: row[5],
			model.FieldDescription:   row[7],
			model.FieldOfficialLink:  row[8],
		}, row[6]))
	}
	return out, nil
}

// findTables locates every GFM pipe table: a header line containing '|'
// immediately followed by a separator row, then consecutive pipe rows.
func findTables(lines []string) []table {
	var out []table
	for i := 0; i < len(lines)-1; i++ {
		line := strings.TrimRight(lines[i], "\r")
		next := strings.TrimRight(lines[i+1], "\r")
		if !strings.Contains(line, "|") || !separatorRe.MatchString(next) {
			continue
		}
		t := table{headerLine: i, header: splitRow(line)}
		j := i + 2
		for ; j < len(lines); j++ {
			row := strings.TrimSpace(strings.TrimRight(lines[j], "\r"))
			if !strings.HasPrefix(row, "|") {
				break
			}
			if separatorRe.MatchString(row) {
				continue
			}
			t.rows = append(t.rows, splitRow(row))
		}
		out = append(out, t)
		i = j - 1
	}
	return out
}

// splitRow splits a pipe-table row into trimmed cells, dropping the outer
// pipes and trailing empty cells.
func splitRow(line string) []string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	parts := strings.Split(s, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func headerEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
