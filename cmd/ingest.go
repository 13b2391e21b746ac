package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roadmap-cli/internal/merge"
	"github.com/sells-group/roadmap-cli/internal/model"
	"github.com/sells-group/roadmap-cli/internal/parse"
)

var (
	ingestAs  string
	ingestOut string
)

// ingestSources are the source kinds a local file may be attributed to.
var ingestSources = map[string]model.SourceKind{
	"graph":     model.SourceGraphAPI,
	"mc":        model.SourceMessageCenter,
	"public":    model.SourcePublicScrape,
	"tracker":   model.SourceTracker,
	"narrative": model.SourceLLMNarrative,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Merge local source exports into a canonical feed",
	Long:  "Parses local artifacts (narrative Markdown reports, tracker CSV/XLSX exports, Graph or public JSON dumps) offline and writes the merged feed, without touching the network.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		retrievedAt := time.Now().UTC()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.CreateRun(ctx, "ingest")
		if err != nil {
			return err
		}

		var all []model.RawRecord
		for _, path := range args {
			records, err := ingestFile(path, retrievedAt)
			if err != nil {
				return failRun(ctx, st, run.ID, err)
			}
			zap.L().Info("ingested file",
				zap.String("path", path),
				zap.Int("records", len(records)),
			)
			all = append(all, records...)
		}
		if len(all) == 0 {
			return failRun(ctx, st, run.ID, eris.New("no records in any input file"))
		}

		merged := merge.Merge(all)
		stats := model.FetchStats{
			Sources:  countBySource(all),
			Merged:   len(merged),
			Filtered: len(merged),
			Started:  retrievedAt,
			Finished: time.Now().UTC(),
		}

		if err := writeFeed(merged, ingestOut, []string{"json", "csv"}); err != nil {
			return failRun(ctx, st, run.ID, err)
		}
		if _, err := st.SaveSnapshot(ctx, run.ID, merged); err != nil {
			return failRun(ctx, st, run.ID, err)
		}
		return st.CompleteRun(ctx, run.ID, model.RunStatusComplete, &stats)
	},
}

// ingestFile parses one local artifact by extension. The --as flag decides
// the source attribution for Markdown and JSON inputs.
func ingestFile(path string, retrievedAt time.Time) ([]model.RawRecord, error) {
	kind, ok := ingestSources[ingestAs]
	if !ok {
		return nil, eris.Errorf("unknown --as source %q", ingestAs)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		doc, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", path)
		}
		return parse.Markdown(string(doc), kind, retrievedAt)
	case ".csv", ".xlsx":
		rows, err := readTrackerRows(path)
		if err != nil {
			return nil, err
		}
		return parse.Tracker(rows, retrievedAt)
	case ".json":
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", path)
		}
		switch kind {
		case model.SourceGraphAPI:
			return parse.GraphJSON(payload, retrievedAt)
		case model.SourceMessageCenter:
			return parse.MessageCenterJSON(payload, retrievedAt)
		default:
			return parse.PublicJSON(payload, retrievedAt)
		}
	case ".xml", ".rss":
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", path)
		}
		return parse.RSS(payload, retrievedAt)
	}
	return nil, eris.Errorf("unsupported input %s", path)
}

func countBySource(records []model.RawRecord) map[model.SourceKind]model.SourceStats {
	out := make(map[model.SourceKind]model.SourceStats)
	for _, rec := range records {
		st := out[rec.Source]
		st.Records++
		out[rec.Source] = st
	}
	return out
}

func init() {
	ingestCmd.Flags().StringVar(&ingestAs, "as", "narrative", "source attribution for markdown/json inputs: graph, mc, public, tracker, narrative")
	ingestCmd.Flags().StringVar(&ingestOut, "out", "", "output directory (default from config)")
	rootCmd.AddCommand(ingestCmd)
}
