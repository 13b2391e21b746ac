// Package model defines the record types shared across the roadmap pipeline.
package model

import (
	"fmt"
	"time"
)

// SourceKind identifies where a raw observation of a feature came from.
type SourceKind string

const (
	SourceGraphAPI      SourceKind = "graph_api"
	SourceMessageCenter SourceKind = "message_center"
	SourcePublicScrape  SourceKind = "public_scrape"
	SourceTracker       SourceKind = "third_party_tracker"
	SourceLLMNarrative  SourceKind = "llm_narrative"
)

// trustRanks orders sources by authority. Lower rank wins field conflicts.
var trustRanks = map[SourceKind]int{
	SourceGraphAPI:      0,
	SourceMessageCenter: 1,
	SourcePublicScrape:  2,
	SourceTracker:       3,
	SourceLLMNarrative:  4,
}

// TrustRank returns the fixed priority rank for a source kind.
// Unknown kinds rank below every known source.
func (k SourceKind) TrustRank() int {
	if r, ok := trustRanks[k]; ok {
		return r
	}
	return len(trustRanks)
}

// Status is the closed roadmap status vocabulary. Raw synonyms are mapped
// at parse time; an unmapped value stays blank.
type Status string

const (
	StatusInDevelopment   Status = "In development"
	StatusRollingOut      Status = "Rolling out"
	StatusLaunched        Status = "Launched"
	StatusCancelled       Status = "Cancelled"
	StatusOnHold          Status = "On hold"
	StatusFormerlyRoadmap Status = "Formerly on roadmap"
	StatusPreview         Status = "In preview"
)

// ReleasePhase is the closed release-phase vocabulary.
type ReleasePhase string

const (
	PhaseGeneralAvailability ReleasePhase = "General Availability"
	PhaseTargetedRelease     ReleasePhase = "Targeted Release"
	PhasePreview             ReleasePhase = "Preview"
	PhasePrivatePreview      ReleasePhase = "Private Preview"
	PhasePublicPreview       ReleasePhase = "Public Preview"
	PhaseRollingOut          ReleasePhase = "Rolling out"
	PhaseBeta                ReleasePhase = "Beta"
)

// Field keys used in RawRecord.Fields and CanonicalRecord.Provenance.
const (
	FieldTitle          = "title"
	FieldProduct        = "product_workload"
	FieldStatus         = "status"
	FieldReleasePhase   = "release_phase"
	FieldTargetedDates  = "targeted_dates"
	FieldCloudInstances = "cloud_instances"
	FieldDescription    = "short_description"
	FieldOfficialLink   = "official_link"
)

// MergeableFields lists the scalar fields resolved by the priority scan,
// in feed column order. Cloud instances are unioned, not scanned.
var MergeableFields = []string{
	FieldTitle,
	FieldProduct,
	FieldStatus,
	FieldReleasePhase,
	FieldTargetedDates,
	FieldDescription,
	FieldOfficialLink,
}

// OfficialLinkFormat is the canonical roadmap URL template, parameterized by
// feature ID.
const OfficialLinkFormat = "https://www.microsoft.com/microsoft-365/roadmap?featureid=%d"

// OfficialLink synthesizes the canonical roadmap URL for a feature ID.
func OfficialLink(id int64) string {
	return fmt.Sprintf(OfficialLinkFormat, id)
}

// RawRecord is one observation of a feature from one source. Raw records are
// ephemeral: constructed per run, consumed by the merge engine, never persisted.
type RawRecord struct {
	FeatureID   int64             `json:"feature_id"`
	Source      SourceKind        `json:"source_kind"`
	Fields      map[string]string `json:"fields"`
	Instances   []string          `json:"cloud_instances,omitempty"`
	RetrievedAt time.Time         `json:"retrieved_at"`
}

// Provenance records which source contributed the winning value for each
// field of a canonical record.
type Provenance struct {
	Source SourceKind `json:"source"`
	// Fallback marks values accepted from the LLM narrative source because
	// no higher-priority source supplied the field. Report emitters render
	// these with a "(FALLBACK)" annotation.
	Fallback bool `json:"fallback,omitempty"`
}

// CanonicalRecord is the single merged, normalized representation of a
// feature. At most one exists per feature ID in any output set.
type CanonicalRecord struct {
	ID             int64                 `json:"id"`
	Title          string                `json:"title"`
	Product        string                `json:"product_workload"`
	Status         Status                `json:"status"`
	ReleasePhase   ReleasePhase          `json:"release_phase"`
	TargetedDates  string                `json:"targeted_dates"`
	CloudInstances []string              `json:"cloud_instances"`
	Description    string                `json:"short_description"`
	OfficialLink   string                `json:"official_link"`
	Provenance     map[string]Provenance `json:"provenance,omitempty"`
}

// Field returns the scalar field value by key. Unknown keys return "".
func (r *CanonicalRecord) Field(key string) string {
	switch key {
	case FieldTitle:
		return r.Title
	case FieldProduct:
		return r.Product
	case FieldStatus:
		return string(r.Status)
	case FieldReleasePhase:
		return string(r.ReleasePhase)
	case FieldTargetedDates:
		return r.TargetedDates
	case FieldDescription:
		return r.Description
	case FieldOfficialLink:
		return r.OfficialLink
	}
	return ""
}

// SetField assigns a scalar field value by key. Unknown keys are ignored.
func (r *CanonicalRecord) SetField(key, value string) {
	switch key {
	case FieldTitle:
		r.Title = value
	case FieldProduct:
		r.Product = value
	case FieldStatus:
		r.Status = Status(value)
	case FieldReleasePhase:
		r.ReleasePhase = ReleasePhase(value)
	case FieldTargetedDates:
		r.TargetedDates = value
	case FieldDescription:
		r.Description = value
	case FieldOfficialLink:
		r.OfficialLink = value
	}
}
