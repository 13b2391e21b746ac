package model

import "time"

// RunStatus tracks the lifecycle of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// SourceStats counts the outcome of one source's contribution to a run.
type SourceStats struct {
	Records  int    `json:"records"`
	Skipped  int    `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration int64  `json:"duration_ms"`
}

// FetchStats summarizes a full run across sources. Written alongside the
// feed so CI can surface per-source health.
type FetchStats struct {
	Sources  map[SourceKind]SourceStats `json:"sources"`
	Merged   int                        `json:"merged"`
	Filtered int                        `json:"filtered"`
	Started  time.Time                  `json:"started"`
	Finished time.Time                  `json:"finished"`
}

// Run is one pipeline invocation recorded in the store.
type Run struct {
	ID        string      `json:"id"`
	Mode      string      `json:"mode"`
	Status    RunStatus   `json:"status"`
	Stats     *FetchStats `json:"stats,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FeedSnapshot is a persisted copy of the canonical record set produced by a
// completed run. The feed file on disk is replaced in full; snapshots keep
// history queryable.
type FeedSnapshot struct {
	ID          string            `json:"id"`
	RunID       string            `json:"run_id"`
	RecordCount int               `json:"record_count"`
	Records     []CanonicalRecord `json:"records"`
	CreatedAt   time.Time         `json:"created_at"`
}
