package parse

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadmap-cli/internal/model"
)

// trackerColumns maps the header spellings seen across community roadmap
// trackers onto canonical field keys. Matching is case-insensitive on the
// collapsed header text.
var trackerColumns = map[string]string{
	"id":                    "id",
	"feature id":            "id",
	"roadmap id":            "id",
	"featureid":             "id",
	"title":                 model.FieldTitle,
	"feature":               model.FieldTitle,
	"product":               model.FieldProduct,
	"product/workload":      model.FieldProduct,
	"product / workload":    model.FieldProduct,
	"workload":              model.FieldProduct,
	"status":                model.FieldStatus,
	"release phase":         model.FieldReleasePhase,
	"phase":                 model.FieldReleasePhase,
	"targeted dates":        model.FieldTargetedDates,
	"targeted release":      model.FieldTargetedDates,
	"release date":          model.FieldTargetedDates,
	"ga date":               model.FieldTargetedDates,
	"cloud instance":        "instances",
	"cloud instances":       "instances",
	"clouds":                "instances",
	"cloud":                 "instances",
	"description":           model.FieldDescription,
	"short description":     model.FieldDescription,
	"summary":               model.FieldDescription,
	"link":                  model.FieldOfficialLink,
	"official roadmap link": model.FieldOfficialLink,
	"url":                   model.FieldOfficialLink,
}

// Tracker converts tabular rows from a third-party tracker export (CSV or
// XLSX) into raw records. The first row is the header; unrecognized columns
// are ignored, and rows without a parseable ID are skipped with a warning.
func Tracker(rows [][]string, retrievedAt time.Time) ([]model.RawRecord, error) {
	if len(rows) == 0 {
		return nil, eris.Wrap(ErrFormat, "tracker export is empty")
	}

	colKeys := make([]string, len(rows[0]))
	idCol := -1
	for i, h := range rows[0] {
		k := strings.ToLower(strings.Join(strings.Fields(h), " "))
		if mapped, ok := trackerColumns[k]; ok {
			colKeys[i] = mapped
			if mapped == "id" {
				idCol = i
			}
		}
	}
	if idCol < 0 {
		return nil, eris.Wrap(ErrFormat, "tracker export has no id column")
	}

	out := make([]model.RawRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if idCol >= len(row) {
			continue
		}
		id, err := ParseFeatureID(row[idCol])
		if err != nil {
			zap.L().Warn("parse: skipping tracker row with bad id",
				zap.Int("row", n+2),
				zap.String("id_cell", row[idCol]),
			)
			continue
		}
		fields := make(map[string]string)
		instances := ""
		for i, cell := range row {
			if i >= len(colKeys) || colKeys[i] == "" || colKeys[i] == "id" {
				continue
			}
			if colKeys[i] == "instances" {
				instances = cell
				continue
			}
			fields[colKeys[i]] = cell
		}
		out = append(out, newRecord(id, model.SourceTracker, retrievedAt, fields, instances))
	}
	return out, nil
}
