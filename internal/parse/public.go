package parse

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadmap-cli/internal/model"
)

// PublicItem is one entry from the public release-communications roadmap
// feed. Cloud instances arrive as tags; the targeted date is prose.
type PublicItem struct {
	ID            json.Number `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Status        string      `json:"status"`
	PublicStatus  string      `json:"publicRoadmapStatus"`
	ReleasePhase  string      `json:"publicPreviewDate,omitempty"`
	TargetedDates string      `json:"publicDisclosureAvailabilityDate"`
	Link          string      `json:"moreInfoLink"`
	Tags          []PublicTag `json:"tagsContainer,omitempty"`
	TagList       []PublicTag `json:"tags,omitempty"`
}

// PublicTag labels a public feed item; cloud instances and release phases
// both travel this way.
type PublicTag struct {
	TagName string `json:"tagName"`
}

// phaseTags are tag names that describe a release phase rather than a
// cloud instance.
var phaseTags = map[string]bool{
	"general availability": true,
	"targeted release":     true,
	"preview":              true,
	"public preview":       true,
	"private preview":      true,
	"beta":                 true,
	"rolling out":          true,
}

// Public converts public roadmap feed items into raw records. The feed is
// best-effort by design: items without a usable ID are skipped, and the
// title's "Product: Feature" convention supplies the workload when present.
func Public(items []PublicItem, retrievedAt time.Time) []model.RawRecord {
	out := make([]model.RawRecord, 0, len(items))
	for _, item := range items {
		id, err := ParseFeatureID(item.ID.String())
		if err != nil {
			if ids := ExtractFeatureIDs(item.Link); len(ids) == 1 {
				id = ids[0]
			} else {
				zap.L().Warn("parse: dropping public item without feature id",
					zap.String("title", item.Title),
				)
				continue
			}
		}

		product, title := SplitTitleProduct(item.Title)
		status := item.Status
		if status == "" {
			status = item.PublicStatus
		}

		var phase string
		var clouds []string
		for _, tag := range append(item.Tags, item.TagList...) {
			name := strings.TrimSpace(tag.TagName)
			if name == "" {
				continue
			}
			if phaseTags[strings.ToLower(name)] {
				if phase == "" {
					phase = name
				}
				continue
			}
			clouds = append(clouds, name)
		}

		out = append(out, newRecord(id, model.SourcePublicScrape, retrievedAt, map[string]string{
			model.FieldTitle:         title,
			model.FieldProduct:       product,
			model.FieldStatus:        status,
			model.FieldReleasePhase:  phase,
			model.FieldTargetedDates: item.TargetedDates,
			model.FieldDescription:   item.Description,
			model.FieldOfficialLink:  item.Link,
		}, strings.Join(clouds, ",")))
	}
	return out
}

// PublicJSON decodes the public feed payload. The endpoint has shipped both
// a bare array and an object with a "value" or "items" wrapper.
func PublicJSON(payload []byte, retrievedAt time.Time) ([]model.RawRecord, error) {
	var items []PublicItem
	if err := json.Unmarshal(payload, &items); err == nil {
		return Public(items, retrievedAt), nil
	}

	var wrapper struct {
		Value []PublicItem `json:"value"`
		Items []PublicItem `json:"items"`
	}
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil, eris.Wrapf(ErrFormat, "public roadmap payload: %v", err)
	}
	items = wrapper.Value
	if len(items) == 0 {
		items = wrapper.Items
	}
	return Public(items, retrievedAt), nil
}

// SplitTitleProduct splits the "Microsoft Teams: Chat notes" title
// convention into its product and bare-title halves. Titles without a colon
// yield an empty product.
func SplitTitleProduct(title string) (product, bare string) {
	left, right, found := strings.Cut(title, ":")
	if !found {
		return "", strings.TrimSpace(title)
	}
	return strings.TrimSpace(left), strings.TrimSpace(right)
}
