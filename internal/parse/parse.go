// Package parse extracts uniform raw records from each source's native
// payload shape. One parse function exists per source kind; all output is
// normalized before it is returned, so merge only ever sees vocabulary
// members and cleaned text.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roadmap-cli/internal/model"
	"github.com/sells-group/roadmap-cli/internal/normalize"
)

// ErrFormat marks a payload that could not be parsed into the expected
// shape. Callers skip the source with a warning; the run only fails when no
// source yields records at all.
var ErrFormat = eris.New("parse: malformed payload")

// featureIDRe matches roadmap feature IDs in prose, with or without the RM
// prefix used by Message Center posts.
var featureIDRe = regexp.MustCompile(`(?i)(?:RM)?(\d{5,7})`)

// ExtractFeatureIDs returns the distinct roadmap IDs mentioned in free text,
// in first-seen order.
func ExtractFeatureIDs(text string) []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, m := range featureIDRe.FindAllStringSubmatch(text, -1) {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ParseFeatureID validates a raw ID cell. Non-numeric IDs are rejected here
// so they never reach the merge engine.
func ParseFeatureID(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, eris.Wrapf(ErrFormat, "feature id %q is not a positive integer", raw)
	}
	return id, nil
}

// newRecord builds a RawRecord and assigns normalized field values,
// dropping any field whose normalized form is blank.
func newRecord(id int64, source model.SourceKind, retrievedAt time.Time, raw map[string]string, instances string) model.RawRecord {
	rec := model.RawRecord{
		FeatureID:   id,
		Source:      source,
		Fields:      make(map[string]string, len(raw)),
		RetrievedAt: retrievedAt,
	}
	for key, value := range raw {
		if norm := normalize.Field(key, value); norm != "" {
			rec.Fields[key] = norm
		}
	}
	rec.Instances = normalize.Instances(instances)
	return rec
}
