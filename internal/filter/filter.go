// Package filter applies date-window and cloud-instance filters to the
// canonical record set after merging. Filters combine conjunctively and
// treat each record as a unit: a record with one in-scope instance passes
// whole, it is never split per instance.
package filter

import (
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/roadmap-cli/internal/model"
	"github.com/sells-group/roadmap-cli/internal/normalize"
)

// Options selects which records survive into the emitted feed.
type Options struct {
	// Since/Until bound the targeted date. When either is set, records
	// whose targeted date does not parse to a concrete month or quarter
	// are excluded: date-bounded views demand date precision.
	Since time.Time
	Until time.Time
	// Include keeps only records whose instances intersect the set.
	// Exclude drops records whose instances intersect the set. Both are
	// compared post-normalization so shorthand matches canonical forms.
	Include []string
	Exclude []string
}

// Window reports whether a date window is active.
func (o Options) Window() bool {
	return !o.Since.IsZero() || !o.Until.IsZero()
}

// WindowFromMonths derives a [since, until] pair covering the last n months.
func WindowFromMonths(months int, now time.Time) (time.Time, time.Time) {
	if months <= 0 {
		return time.Time{}, time.Time{}
	}
	return now.AddDate(0, -months, 0), now
}

// Apply filters records, preserving input order.
func Apply(records []model.CanonicalRecord, opts Options) []model.CanonicalRecord {
	include := canonSet(opts.Include)
	exclude := canonSet(opts.Exclude)

	out := make([]model.CanonicalRecord, 0, len(records))
	excludedVague := 0
	for _, rec := range records {
		if opts.Window() {
			t, ok := normalize.ParseTargetDate(rec.TargetedDates)
			if !ok {
				excludedVague++
				continue
			}
			if !opts.Since.IsZero() && t.Before(opts.Since) {
				continue
			}
			if !opts.Until.IsZero() && t.After(opts.Until) {
				continue
			}
		}
		if len(include) > 0 && !intersects(rec.CloudInstances, include) {
			continue
		}
		if len(exclude) > 0 && intersects(rec.CloudInstances, exclude) {
			continue
		}
		out = append(out, rec)
	}

	if excludedVague > 0 {
		zap.L().Debug("filter: excluded records with vague targeted dates from windowed view",
			zap.Int("excluded", excludedVague),
		)
	}
	return out
}

func canonSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if canon := normalize.Instance(n); canon != "" {
			set[canon] = true
		}
	}
	return set
}

func intersects(instances []string, set map[string]bool) bool {
	for _, inst := range instances {
		if set[normalize.Instance(inst)] {
			return true
		}
	}
	return false
}
