// Package merge reconciles raw per-source observations into exactly one
// canonical record per feature ID. Conflicts resolve by source trust rank:
// the first non-blank value in priority order wins, and the winning source
// is recorded per field for auditability.
package merge

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/roadmap-cli/internal/model"
	"github.com/sells-group/roadmap-cli/internal/normalize"
)

// Merge produces the canonical record set for a run. Input records may
// arrive in any order; output is sorted by feature ID and contains each ID
// exactly once. Merge never fails for an individual ID; missing data
// yields blank fields, not errors.
func Merge(records []model.RawRecord) []model.CanonicalRecord {
	byID := make(map[int64][]model.RawRecord)
	var order []int64
	for _, rec := range records {
		if rec.FeatureID <= 0 {
			continue
		}
		if _, seen := byID[rec.FeatureID]; !seen {
			order = append(order, rec.FeatureID)
		}
		byID[rec.FeatureID] = append(byID[rec.FeatureID], rec)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	out := make([]model.CanonicalRecord, 0, len(order))
	for _, id := range order {
		out = append(out, mergeOne(id, byID[id]))
	}

	zap.L().Info("merge: canonical set built",
		zap.Int("raw_records", len(records)),
		zap.Int("features", len(out)),
	)
	return out
}

// mergeOne resolves all observations of a single feature. Sources are
// scanned most-authoritative first; ties on trust rank break toward the
// most recently retrieved record, then input order, keeping the merge
// deterministic for identical input.
func mergeOne(id int64, records []model.RawRecord) model.CanonicalRecord {
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := records[i].Source.TrustRank(), records[j].Source.TrustRank()
		if ri != rj {
			return ri < rj
		}
		return records[i].RetrievedAt.After(records[j].RetrievedAt)
	})

	canon := model.CanonicalRecord{
		ID:         id,
		Provenance: make(map[string]model.Provenance),
	}

	for _, field := range model.MergeableFields {
		for _, rec := range records {
			value := rec.Fields[field]
			if value == "" {
				continue
			}
			canon.SetField(field, normalize.Clean(value))
			canon.Provenance[field] = model.Provenance{
				Source:   rec.Source,
				Fallback: isLLMFallback(rec.Source, field),
			}
			break
		}
	}

	// Cloud instances are unioned rather than first-wins: under-reporting by
	// one source must not suppress instances confirmed by another.
	canon.CloudInstances = unionInstances(records)

	if canon.OfficialLink == "" {
		canon.OfficialLink = model.OfficialLink(id)
	}

	return canon
}

func isLLMFallback(source model.SourceKind, field string) bool {
	if source != model.SourceLLMNarrative {
		return false
	}
	return field == model.FieldTitle || field == model.FieldDescription
}

func unionInstances(records []model.RawRecord) []string {
	seen := make(map[string]bool)
	var union []string
	for _, rec := range records {
		for _, inst := range rec.Instances {
			canon := normalize.Instance(inst)
			if canon == "" || seen[canon] {
				continue
			}
			seen[canon] = true
			union = append(union, canon)
		}
	}
	sort.Strings(union)
	return union
}
