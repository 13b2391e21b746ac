package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadmap-cli/internal/model"
)

func rec(id int64, dates string, instances ...string) model.CanonicalRecord {
	return model.CanonicalRecord{ID: id, TargetedDates: dates, CloudInstances: instances}
}

func TestApplyNoFiltersKeepsEverything(t *testing.T) {
	records := []model.CanonicalRecord{rec(1, "CY2025"), rec(2, "")}
	out := Apply(records, Options{})
	assert.Equal(t, records, out)
}

func TestApplyWindowExcludesVagueDates(t *testing.T) {
	records := []model.CanonicalRecord{
		rec(1, "September CY2025"),
		rec(2, "CY2025"),
		rec(3, "H2 CY2025"),
		rec(4, ""),
	}
	opts := Options{
		Since: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Until: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}

	out := Apply(records, opts)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ID)
}

func TestApplyWindowBounds(t *testing.T) {
	records := []model.CanonicalRecord{
		rec(1, "January CY2025"),
		rec(2, "June CY2025"),
		rec(3, "December CY2025"),
	}
	opts := Options{
		Since: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Until: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	out := Apply(records, opts)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].ID)
}

func TestApplyIncludeMatchesShorthand(t *testing.T) {
	records := []model.CanonicalRecord{
		rec(1, "", "Worldwide (Standard Multi-Tenant)"),
		rec(2, "", "GCC High"),
		rec(3, "", "GCC High", "DoD"),
	}

	out := Apply(records, Options{Include: []string{"gcch"}})
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].ID)
	assert.Equal(t, int64(3), out[1].ID)
}

func TestApplyExcludeDropsIntersecting(t *testing.T) {
	records := []model.CanonicalRecord{
		rec(1, "", "Worldwide (Standard Multi-Tenant)", "DoD"),
		rec(2, "", "GCC"),
	}

	out := Apply(records, Options{Exclude: []string{"DoD"}})
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].ID)
}

func TestFilterCombinedUnitSemantics(t *testing.T) {
	// Filters are conjunctive and the record passes or fails whole; a single
	// in-scope instance keeps the entire record, instances are never split.
	records := []model.CanonicalRecord{
		rec(1, "September CY2025", "GCC", "Worldwide (Standard Multi-Tenant)"),
		rec(2, "September CY2025", "Worldwide (Standard Multi-Tenant)"),
		rec(3, "CY2026", "GCC"),
	}
	opts := Options{
		Since:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Until:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		Include: []string{"GCC"},
	}

	out := Apply(records, opts)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ID)
	// The passing record keeps all of its instances.
	assert.Equal(t, []string{"GCC", "Worldwide (Standard Multi-Tenant)"}, out[0].CloudInstances)
}

func TestWindowFromMonths(t *testing.T) {
	now := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	since, until := WindowFromMonths(6, now)
	assert.Equal(t, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), since)
	assert.Equal(t, now, until)

	since, until = WindowFromMonths(0, now)
	assert.True(t, since.IsZero())
	assert.True(t, until.IsZero())
}
