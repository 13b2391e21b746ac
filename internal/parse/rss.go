package parse

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/roadmap-cli/internal/model"
)

// rssDoc mirrors the release-communications RSS feed, the last-resort
// public fallback when the JSON feed is unavailable.
type rssDoc struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Categories  []string `xml:"category"`
}

// statusHints and phaseHints are scanned in order through item text; the
// first hit wins. The feed carries these only as prose.
var statusHints = []string{"In development", "Rolling out", "Launched", "Cancelled", "Archived"}
var phaseHints = []string{"General Availability", "Targeted Release", "Public Preview", "Private Preview", "Preview"}

// RSS decodes the RSS fallback feed into raw records. Items without a
// recoverable feature ID are skipped with a warning; declared charsets
// other than UTF-8 are honored.
func RSS(payload []byte, retrievedAt time.Time) ([]model.RawRecord, error) {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "rss: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var doc rssDoc
	if err := decoder.Decode(&doc); err != nil {
		return nil, eris.Wrapf(ErrFormat, "rss payload: %v", err)
	}

	out := make([]model.RawRecord, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		ids := ExtractFeatureIDs(item.Link)
		if len(ids) == 0 {
			ids = ExtractFeatureIDs(item.Title + " " + item.Description)
		}
		if len(ids) == 0 {
			zap.L().Warn("parse: skipping rss item without feature id",
				zap.String("title", item.Title),
			)
			continue
		}

		hay := strings.Join(append(item.Categories, item.Title, item.Description), " ")
		product, title := SplitTitleProduct(item.Title)

		out = append(out, newRecord(ids[0], model.SourcePublicScrape, retrievedAt, map[string]string{
			model.FieldTitle:         title,
			model.FieldProduct:       product,
			model.FieldStatus:        firstHint(hay, statusHints),
			model.FieldReleasePhase:  firstHint(hay, phaseHints),
			model.FieldTargetedDates: releaseDateRe.FindString(hay),
			model.FieldDescription:   StripHTML(item.Description),
			model.FieldOfficialLink:  item.Link,
		}, ""))
	}
	return out, nil
}

func firstHint(hay string, hints []string) string {
	lower := strings.ToLower(hay)
	for _, h := range hints {
		if strings.Contains(lower, strings.ToLower(h)) {
			return h
		}
	}
	return ""
}
