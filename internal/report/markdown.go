package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roadmap-cli/internal/model"
	"github.com/sells-group/roadmap-cli/internal/parse"
)

// MasterHeading is the section heading the report validator requires
// exactly once per document.
const MasterHeading = "## Master Summary Table (all IDs)"

// MarkdownOptions configures the rendered report.
type MarkdownOptions struct {
	Title        string
	CloudDisplay string
	GeneratedAt  time.Time
	// Products, when non-empty, keeps only records whose product/workload
	// contains one of the given terms (case-insensitive).
	Products []string
	// ForcedIDs are pinned to the top of the table in the given order;
	// remaining records follow sorted by ID then title.
	ForcedIDs []int64
	// DeepDive appends a per-feature section after the master table.
	DeepDive bool
}

// WriteMarkdown renders the report: a preamble, the master summary table
// with provenance annotations, and optional per-feature deep dives.
func WriteMarkdown(w io.Writer, records []model.CanonicalRecord, opts MarkdownOptions) error {
	records = FilterProducts(records, opts.Products)
	records = OrderForced(records, opts.ForcedIDs)

	var b strings.Builder
	title := opts.Title
	if title == "" {
		title = "Microsoft 365 Roadmap Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	fmt.Fprintf(&b, "Generated: %s\n", generated.UTC().Format(time.RFC3339))
	if opts.CloudDisplay != "" {
		fmt.Fprintf(&b, "Cloud scope: %s\n", opts.CloudDisplay)
	}
	fmt.Fprintf(&b, "Features: %d\n\n", len(records))

	b.WriteString(MasterHeading + "\n\n")
	b.WriteString("| " + strings.Join(parse.TableHeader, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(parse.TableHeader)) + "\n")
	for _, rec := range records {
		b.WriteString("| " + strings.Join(annotatedRow(rec), " | ") + " |\n")
	}
	b.WriteString("\n")

	if opts.DeepDive {
		for _, rec := range records {
			writeDeepDive(&b, rec)
		}
	}

	_, err := io.WriteString(w, b.String())
	return eris.Wrap(err, "report: write markdown")
}

// annotatedRow is FeedRow plus provenance annotations: "(FALLBACK)" for
// title/description accepted from the LLM narrative because nothing better
// existed, "(INFERRED)" for any other LLM-sourced winner.
func annotatedRow(rec model.CanonicalRecord) []string {
	row := FeedRow(rec)
	fieldByCol := []string{
		"", // ID carries no provenance
		model.FieldTitle,
		model.FieldProduct,
		model.FieldStatus,
		model.FieldReleasePhase,
		model.FieldTargetedDates,
		"", // instances are a union, not a single-source win
		model.FieldDescription,
		model.FieldOfficialLink,
	}
	for i, field := range fieldByCol {
		if field == "" || row[i] == "" {
			continue
		}
		prov, ok := rec.Provenance[field]
		if !ok || prov.Source != model.SourceLLMNarrative {
			continue
		}
		if prov.Fallback {
			row[i] += " (FALLBACK)"
		} else {
			row[i] += " (INFERRED)"
		}
	}
	return row
}

func writeDeepDive(b *strings.Builder, rec model.CanonicalRecord) {
	title := rec.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(b, "## %d — %s\n\n", rec.ID, title)
	if rec.Product != "" {
		fmt.Fprintf(b, "- Product/Workload: %s\n", rec.Product)
	}
	if rec.Status != "" {
		fmt.Fprintf(b, "- Status: %s\n", rec.Status)
	}
	if rec.ReleasePhase != "" {
		fmt.Fprintf(b, "- Release phase: %s\n", rec.ReleasePhase)
	}
	if rec.TargetedDates != "" {
		fmt.Fprintf(b, "- Targeted dates: %s\n", rec.TargetedDates)
	}
	if len(rec.CloudInstances) > 0 {
		fmt.Fprintf(b, "- Cloud instances: %s\n", strings.Join(rec.CloudInstances, ", "))
	}
	fmt.Fprintf(b, "- Roadmap link: %s\n\n", rec.OfficialLink)
	if rec.Description != "" {
		fmt.Fprintf(b, "%s\n\n", rec.Description)
	}
}

// FilterProducts keeps records whose product/workload contains any of the
// wanted terms. An empty wanted list keeps everything.
func FilterProducts(records []model.CanonicalRecord, wanted []string) []model.CanonicalRecord {
	var terms []string
	for _, w := range wanted {
		if t := strings.ToLower(strings.TrimSpace(w)); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return records
	}
	out := make([]model.CanonicalRecord, 0, len(records))
	for _, rec := range records {
		product := strings.ToLower(rec.Product)
		for _, t := range terms {
			if strings.Contains(product, t) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// OrderForced pins the given IDs first in order, then the rest sorted by ID
// then title for a stable document.
func OrderForced(records []model.CanonicalRecord, forced []int64) []model.CanonicalRecord {
	byID := make(map[int64]model.CanonicalRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	forcedSet := make(map[int64]bool, len(forced))
	out := make([]model.CanonicalRecord, 0, len(records))
	for _, id := range forced {
		if rec, ok := byID[id]; ok && !forcedSet[id] {
			out = append(out, rec)
			forcedSet[id] = true
		}
	}
	rest := make([]model.CanonicalRecord, 0, len(records))
	for _, rec := range records {
		if !forcedSet[rec.ID] {
			rest = append(rest, rec)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].ID != rest[j].ID {
			return rest[i].ID < rest[j].ID
		}
		return rest[i].Title < rest[j].Title
	})
	return append(out, rest...)
}

// ParseForcedIDs parses a comma-separated ID list from the CLI.
func ParseForcedIDs(csv string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "report: bad forced id %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}
