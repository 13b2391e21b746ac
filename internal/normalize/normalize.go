// Package normalize maps raw free-text roadmap values onto the closed
// vocabularies used by the feed. Every function here is total: unrecognized
// input maps to a blank value, never an error and never a guess.
package normalize

import (
	"strings"

	"github.com/sells-group/roadmap-cli/internal/model"
)

// statusSynonyms maps lowercased, trimmed raw values to the closed status
// vocabulary. Built once at init; treated as immutable.
var statusSynonyms = map[string]model.Status{
	"in development":      model.StatusInDevelopment,
	"in dev":              model.StatusInDevelopment,
	"development":         model.StatusInDevelopment,
	"rolling out":         model.StatusRollingOut,
	"rollout":             model.StatusRollingOut,
	"launched":            model.StatusLaunched,
	"shipped":             model.StatusLaunched,
	"generally available": model.StatusLaunched,
	"cancelled":           model.StatusCancelled,
	"canceled":            model.StatusCancelled,
	"on hold":             model.StatusOnHold,
	"hold":                model.StatusOnHold,
	"formerly on roadmap": model.StatusFormerlyRoadmap,
	"formerly roadmap":    model.StatusFormerlyRoadmap,
	"archived":            model.StatusFormerlyRoadmap,
	"in preview":          model.StatusPreview,
	"preview":             model.StatusPreview,
}

var phaseSynonyms = map[string]model.ReleasePhase{
	"general availability": model.PhaseGeneralAvailability,
	"ga":                   model.PhaseGeneralAvailability,
	"general availability (worldwide)": model.PhaseGeneralAvailability,
	"targeted release":                 model.PhaseTargetedRelease,
	"targeted":                         model.PhaseTargetedRelease,
	"preview":                          model.PhasePreview,
	"private preview":                  model.PhasePrivatePreview,
	"public preview":                   model.PhasePublicPreview,
	"rolling out":                      model.PhaseRollingOut,
	"rollout":                          model.PhaseRollingOut,
	"beta":                             model.PhaseBeta,
}

// instanceSynonyms canonicalizes common cloud-instance shorthand. GCC,
// GCC High, and DoD keep their short labels; Worldwide expands to the long
// form used by the official roadmap UI.
var instanceSynonyms = map[string]string{
	"worldwide":                             "Worldwide (Standard Multi-Tenant)",
	"standard multi-tenant":                 "Worldwide (Standard Multi-Tenant)",
	"worldwide (standard multi-tenant)":     "Worldwide (Standard Multi-Tenant)",
	"general availability (worldwide)":      "Worldwide (Standard Multi-Tenant)",
	"gcc":                                   "GCC",
	"us gcc":                                "GCC",
	"government community cloud (gcc)":      "GCC",
	"gcc high":                              "GCC High",
	"gcch":                                  "GCC High",
	"government community cloud high (gcc high)": "GCC High",
	"dod":                        "DoD",
	"us dod":                     "DoD",
	"department of defense (dod)": "DoD",
}

func key(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// Status maps a raw status string to the closed vocabulary. Lookup is
// case-insensitive and whitespace-trimmed; no match yields "".
func Status(raw string) model.Status {
	if s, ok := statusSynonyms[key(raw)]; ok {
		return s
	}
	return ""
}

// Phase maps a raw release-phase string to the closed vocabulary.
func Phase(raw string) model.ReleasePhase {
	if p, ok := phaseSynonyms[key(raw)]; ok {
		return p
	}
	return ""
}

// Instance canonicalizes a single cloud-instance name. Names outside the
// synonym table are preserved trimmed rather than dropped, so novel
// instances still flow through the feed.
func Instance(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if canon, ok := instanceSynonyms[key(trimmed)]; ok {
		return canon
	}
	return trimmed
}

// Instances splits a delimited instance list and canonicalizes each entry,
// dropping blanks and duplicates while preserving first-seen order.
func Instances(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	split := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	seen := make(map[string]bool, len(split))
	var out []string
	for _, part := range split {
		canon := Instance(part)
		if canon == "" || seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, canon)
	}
	return out
}

// Clean strips zero-width characters, replaces literal pipes with slashes
// so values can never break GFM table rendering, and collapses runs of
// whitespace. Applied to every text field at the merge output boundary.
func Clean(raw string) string {
	s := strings.ReplaceAll(raw, "\u200b", "")
	s = strings.ReplaceAll(s, "|", " / ")
	return strings.Join(strings.Fields(s), " ")
}

// Field dispatches normalization by field key. Enum fields map onto their
// vocabularies, dates go through Date, everything else is cleaned text.
func Field(fieldKey, raw string) string {
	switch fieldKey {
	case model.FieldStatus:
		return string(Status(raw))
	case model.FieldReleasePhase:
		return string(Phase(raw))
	case model.FieldTargetedDates:
		return Date(raw)
	default:
		return Clean(raw)
	}
}
