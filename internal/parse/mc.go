package parse

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roadmap-cli/internal/model"
)

// MCPost is a service-announcement message from the Message Center. One post
// frequently references several roadmap features by RM id; each referenced
// feature gets its own raw record.
type MCPost struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	Services             []string `json:"services"`
	Severity             string   `json:"severity"`
	IsMajorChange        bool     `json:"isMajorChange"`
	LastModifiedDateTime string   `json:"lastModifiedDateTime"`
	Body                 MCBody   `json:"body"`
}

// MCBody carries the post content; Graph serves it as HTML.
type MCBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

var (
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)
	// releaseDateRe captures "mid-August 2025" style phrases from MC prose.
	releaseDateRe = regexp.MustCompile(`(?i)((early|mid|late)[ -–])?(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\s+(?:CY)?20\d{2}`)
)

// cloudLabels are scanned for in MC prose, longest label first so "GCC High"
// is not shadowed by "GCC".
var cloudLabels = []string{
	"Worldwide (Standard Multi-Tenant)",
	"GCC High",
	"Worldwide",
	"GCC",
	"DoD",
}

// MessageCenter converts MC posts into raw records keyed by the roadmap IDs
// the post mentions. Posts that reference no roadmap ID contribute nothing.
func MessageCenter(posts []MCPost, retrievedAt time.Time) []model.RawRecord {
	var out []model.RawRecord
	for _, post := range posts {
		text := StripHTML(post.Body.Content)
		ids := ExtractFeatureIDs(post.Title + " " + text)
		if len(ids) == 0 {
			continue
		}

		clouds := detectClouds(text)
		targeted := ""
		if m := releaseDateRe.FindString(text); m != "" {
			targeted = m
		}
		product := ""
		if len(post.Services) > 0 {
			product = post.Services[0]
		}

		for _, id := range ids {
			out = append(out, newRecord(id, model.SourceMessageCenter, retrievedAt, map[string]string{
				model.FieldTitle:         post.Title,
				model.FieldProduct:       product,
				model.FieldTargetedDates: targeted,
				model.FieldDescription:   firstSentence(text),
			}, strings.Join(clouds, ",")))
		}
	}
	return out
}

// MessageCenterJSON decodes a Graph serviceAnnouncement page ({"value": [...]})
// or a bare array of posts.
func MessageCenterJSON(payload []byte, retrievedAt time.Time) ([]model.RawRecord, error) {
	var posts []MCPost
	if err := json.Unmarshal(payload, &posts); err == nil {
		return MessageCenter(posts, retrievedAt), nil
	}
	var wrapper struct {
		Value []MCPost `json:"value"`
	}
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil, eris.Wrapf(ErrFormat, "message center payload: %v", err)
	}
	return MessageCenter(wrapper.Value, retrievedAt), nil
}

// StripHTML flattens an HTML fragment to whitespace-collapsed text. MC body
// markup is shallow; a tag-stripping pass is all the structure we need.
func StripHTML(html string) string {
	return strings.Join(strings.Fields(htmlTagRe.ReplaceAllString(html, " ")), " ")
}

func detectClouds(text string) []string {
	var found []string
	remaining := text
	for _, label := range cloudLabels {
		if idx := strings.Index(strings.ToLower(remaining), strings.ToLower(label)); idx >= 0 {
			found = append(found, label)
			// Blank out the match so "GCC High" does not also count as "GCC".
			remaining = remaining[:idx] + strings.Repeat(" ", len(label)) + remaining[idx+len(label):]
		}
	}
	return found
}

func firstSentence(text string) string {
	trimmed := strings.TrimSpace(text)
	if idx := strings.IndexAny(trimmed, ".!?"); idx > 0 && idx < 280 {
		return trimmed[:idx+1]
	}
	if len(trimmed) > 280 {
		return trimmed[:280]
	}
	return trimmed
}
