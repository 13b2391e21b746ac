package report

import (
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roadmap-cli/internal/model"
	"github.com/sells-group/roadmap-cli/internal/parse"
)

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Segoe UI", sans-serif; margin: 2rem; color: #222; }
h1 { border-bottom: 2px solid #0078d4; padding-bottom: .3rem; }
table { border-collapse: collapse; width: 100%; font-size: .9rem; }
th, td { border: 1px solid #ddd; padding: .4rem .6rem; text-align: left; vertical-align: top; }
th { background: #0078d4; color: #fff; position: sticky; top: 0; }
tr:nth-child(even) { background: #f6f8fa; }
.meta { color: #666; font-size: .85rem; margin-bottom: 1rem; }
.annotation { color: #a15c00; font-size: .8rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">Generated {{.Generated}} &middot; {{len .Rows}} features{{if .CloudDisplay}} &middot; {{.CloudDisplay}}{{end}}</p>
<table>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

type htmlData struct {
	Title        string
	Generated    string
	CloudDisplay string
	Header       []string
	Rows         [][]string
}

// WriteHTML renders the feed as a standalone HTML page, using the same
// column order and provenance annotations as the Markdown report.
func WriteHTML(w io.Writer, records []model.CanonicalRecord, opts MarkdownOptions) error {
	records = FilterProducts(records, opts.Products)
	records = OrderForced(records, opts.ForcedIDs)

	title := opts.Title
	if title == "" {
		title = "Microsoft 365 Roadmap Report"
	}
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, annotatedRow(rec))
	}

	data := htmlData{
		Title:        title,
		Generated:    generated.UTC().Format(time.RFC3339),
		CloudDisplay: strings.TrimSpace(opts.CloudDisplay),
		Header:       parse.TableHeader,
		Rows:         rows,
	}
	return eris.Wrap(htmlTemplate.Execute(w, data), "report: render html")
}
