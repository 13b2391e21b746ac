package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sells-group/roadmap-cli/internal/parse"
)

var masterHeadingRe = regexp.MustCompile(`(?i)^##\s*Master Summary Table\s*\(all IDs\)\s*$`)
var validateSepRe = regexp.MustCompile(`^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)+\|?\s*$`)

// ValidationResult collects everything wrong with a rendered report.
type ValidationResult struct {
	Errors []string
	IDs    []string
}

// OK reports whether validation passed.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate sanity-checks a rendered Markdown report:
// exactly one master heading, exactly one pipe table in the document, the
// header matching the fixed column set exactly (text and order), a valid
// separator row, and numeric IDs in every row.
func Validate(doc string) ValidationResult {
	var res ValidationResult
	lines := strings.Split(doc, "\n")

	headings := 0
	for _, ln := range lines {
		if masterHeadingRe.MatchString(strings.TrimSpace(ln)) {
			headings++
		}
	}
	switch {
	case headings == 0:
		res.Errors = append(res.Errors, "missing 'Master Summary Table (all IDs)' heading")
	case headings > 1:
		res.Errors = append(res.Errors, fmt.Sprintf("%d master headings found, expected 1", headings))
	}

	tables := findValidateTables(lines)
	if len(tables) != 1 {
		res.Errors = append(res.Errors, fmt.Sprintf("%d pipe tables found, expected exactly 1", len(tables)))
	}
	if len(tables) == 0 {
		return res
	}

	t := tables[0]
	if !headerMatches(lines[t.header]) {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"header mismatch at line %d: expected %q",
			t.header+1, strings.Join(parse.TableHeader, " | "),
		))
	}
	if !validateSepRe.MatchString(lines[t.sep]) {
		res.Errors = append(res.Errors, fmt.Sprintf("separator row at line %d is not a valid '|---|' row", t.sep+1))
	}

	seen := make(map[string]bool)
	for i := t.firstRow; i <= t.lastRow && i < len(lines); i++ {
		cells := splitValidateRow(lines[i])
		if len(cells) == 0 {
			continue
		}
		id := cells[0]
		if !regexp.MustCompile(`^\d+$`).MatchString(id) {
			res.Errors = append(res.Errors, fmt.Sprintf("row at line %d has non-numeric id %q", i+1, id))
			continue
		}
		if seen[id] {
			res.Errors = append(res.Errors, fmt.Sprintf("duplicate id %s at line %d", id, i+1))
			continue
		}
		seen[id] = true
		res.IDs = append(res.IDs, id)
	}

	return res
}

type tableSpan struct {
	header, sep, firstRow, lastRow int
}

func findValidateTables(lines []string) []tableSpan {
	var out []tableSpan
	for i := 0; i < len(lines)-1; i++ {
		if !strings.Contains(lines[i], "|") || !validateSepRe.MatchString(lines[i+1]) {
			continue
		}
		j := i + 2
		for j < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[j]), "|") {
			j++
		}
		out = append(out, tableSpan{header: i, sep: i + 1, firstRow: i + 2, lastRow: j - 1})
		i = j - 1
	}
	return out
}

func headerMatches(line string) bool {
	cells := splitValidateRow(line)
	if len(cells) != len(parse.TableHeader) {
		return false
	}
	for i, c := range cells {
		if c != parse.TableHeader[i] {
			return false
		}
	}
	return true
}

func splitValidateRow(line string) []string {
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
