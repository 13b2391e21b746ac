package parse

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadmap-cli/internal/model"
)

// GraphFeature is a roadmap feature object as returned by the authenticated
// Graph collaborator. Token acquisition and paging live in pkg/graph; this
// type is only the wire shape.
type GraphFeature struct {
	ID            json.Number `json:"id"`
	Title         string      `json:"title"`
	Status        string      `json:"status"`
	ReleasePhase  string      `json:"releasePhase"`
	Dates         string      `json:"dates"`
	CloudInstance string      `json:"cloudInstance"`
	Description   string      `json:"description"`
}

// Graph converts Graph API feature objects into raw records. Objects with a
// non-numeric ID are dropped with a warning; they never abort the parse.
func Graph(features []GraphFeature, retrievedAt time.Time) []model.RawRecord {
	out := make([]model.RawRecord, 0, len(features))
	for _, f := range features {
		id, err := ParseFeatureID(f.ID.String())
		if err != nil {
			zap.L().Warn("parse: dropping graph feature with bad id",
				zap.String("id", f.ID.String()),
			)
			continue
		}
		out = append(out, newRecord(id, model.SourceGraphAPI, retrievedAt, map[string]string{
			model.FieldTitle:         f.Title,
			model.FieldStatus:        f.Status,
			model.FieldReleasePhase:  f.ReleasePhase,
			model.FieldTargetedDates: f.Dates,
			model.FieldDescription:   f.Description,
		}, f.CloudInstance))
	}
	return out
}

// GraphJSON decodes a raw Graph payload, either a bare JSON array of
// feature objects or a paged {"value": [...]} envelope. Anything else is a
// format error.
func GraphJSON(payload []byte, retrievedAt time.Time) ([]model.RawRecord, error) {
	var features []GraphFeature
	if err := json.Unmarshal(payload, &features); err == nil {
		return Graph(features, retrievedAt), nil
	}
	var envelope struct {
		Value []GraphFeature `json:"value"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, eris.Wrapf(ErrFormat, "graph payload: %v", err)
	}
	return Graph(envelope.Value, retrievedAt), nil
}
