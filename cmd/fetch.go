package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roadmap-cli/internal/fetcher"
	"github.com/sells-group/roadmap-cli/internal/filter"
	"github.com/sells-group/roadmap-cli/internal/merge"
	"github.com/sells-group/roadmap-cli/internal/model"
	"github.com/sells-group/roadmap-cli/internal/parse"
	"github.com/sells-group/roadmap-cli/internal/report"
	"github.com/sells-group/roadmap-cli/internal/source"
	"github.com/sells-group/roadmap-cli/internal/store"
	"github.com/sells-group/roadmap-cli/pkg/graph"
	"github.com/sells-group/roadmap-cli/pkg/mcmirror"
)

var (
	fetchMonths    int
	fetchSince     string
	fetchUntil     string
	fetchInclude   []string
	fetchExclude   []string
	fetchIDs       string
	fetchNoGraph   bool
	fetchNoPublic  bool
	fetchNoMC      bool
	fetchTracker   string
	fetchNarrative string
	fetchSources   string
	fetchOut       string
	fetchFormats   []string
	fetchStatsOut  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Collect all sources, merge, and write the canonical feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.CreateRun(ctx, "fetch")
		if err != nil {
			return err
		}

		sourcesFile := fetchSources
		if sourcesFile == "" {
			sourcesFile = cfg.Fetch.SourcesFile
		}
		reg, err := source.LoadRegistry(sourcesFile)
		if err != nil {
			return failRun(ctx, st, run.ID, err)
		}

		opts, err := filterOptions()
		if err != nil {
			return failRun(ctx, st, run.ID, err)
		}

		records, stats, err := source.Collect(ctx, buildProviders(reg))
		if err != nil {
			return failRun(ctx, st, run.ID, err)
		}

		merged := merge.Merge(records)
		stats.Merged = len(merged)

		filtered := filter.Apply(merged, opts)
		if fetchIDs != "" {
			ids, err := report.ParseForcedIDs(fetchIDs)
			if err != nil {
				return failRun(ctx, st, run.ID, err)
			}
			filtered = keepIDs(filtered, ids)
		}
		stats.Filtered = len(filtered)

		if err := writeFeed(filtered, fetchOut, fetchFormats); err != nil {
			return failRun(ctx, st, run.ID, err)
		}

		if fetchStatsOut != "" {
			if err := writeStats(fetchStatsOut, stats); err != nil {
				return failRun(ctx, st, run.ID, err)
			}
		}

		if _, err := st.SaveSnapshot(ctx, run.ID, filtered); err != nil {
			return failRun(ctx, st, run.ID, err)
		}
		if err := st.CompleteRun(ctx, run.ID, model.RunStatusComplete, &stats); err != nil {
			return err
		}

		zap.L().Info("fetch complete",
			zap.String("run_id", run.ID),
			zap.Int("raw_records", len(records)),
			zap.Int("merged", stats.Merged),
			zap.Int("filtered", stats.Filtered),
			zap.String("out", fetchOut),
		)
		return nil
	},
}

// buildProviders assembles the enabled source providers for one run. Each
// provider owns its own fetch and parse; Collect isolates their failures.
func buildProviders(reg source.Registry) []source.Provider {
	retrievedAt := time.Now().UTC()
	httpf := fetcher.NewHTTP(fetcher.HTTPOptions{
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.Retries,
	})

	var providers []source.Provider

	if reg.Graph.Enabled && !fetchNoGraph && cfg.Graph.ClientID != "" {
		tokens := graph.NewClientCredentials(cfg.Graph.TenantID, cfg.Graph.ClientID, cfg.Graph.ClientSecret)
		gc := graph.NewClient(tokens, graph.WithBaseURL(cfg.Graph.BaseURL))
		endpoint := reg.Graph.Endpoint
		providers = append(providers, source.Provider{
			Kind: model.SourceGraphAPI,
			Fetch: func(ctx context.Context) ([]model.RawRecord, error) {
				pages, err := gc.ListPages(ctx, endpoint)
				if err != nil {
					return nil, eris.Wrap(err, "graph source")
				}
				var out []model.RawRecord
				for _, page := range pages {
					recs, err := parse.GraphJSON(page, retrievedAt)
					if err != nil {
						return nil, err
					}
					out = append(out, recs...)
				}
				return out, nil
			},
		})
	}

	if reg.MC.Enabled && !fetchNoMC {
		mc := mcmirror.NewClient(mcmirror.WithBaseURL(reg.MC.MirrorURL))
		providers = append(providers, source.Provider{
			Kind: model.SourceMessageCenter,
			Fetch: func(ctx context.Context) ([]model.RawRecord, error) {
				body, err := mc.ListMessages(ctx)
				if err != nil {
					return nil, eris.Wrap(err, "message center source")
				}
				return parse.MessageCenterJSON(body, retrievedAt)
			},
		})
	}

	if reg.Public.Enabled && !fetchNoPublic {
		feedURL, rssURL := reg.Public.FeedURL, reg.Public.RSSURL
		providers = append(providers, source.Provider{
			Kind: model.SourcePublicScrape,
			Fetch: func(ctx context.Context) ([]model.RawRecord, error) {
				body, err := httpf.Get(ctx, feedURL)
				if err == nil {
					if recs, perr := parse.PublicJSON(body, retrievedAt); perr == nil {
						return recs, nil
					} else {
						err = perr
					}
				}
				zap.L().Warn("public feed unusable, falling back to rss",
					zap.Error(err),
				)
				rss, rerr := httpf.Get(ctx, rssURL)
				if rerr != nil {
					return nil, eris.Wrap(rerr, "public source: feed and rss both failed")
				}
				return parse.RSS(rss, retrievedAt)
			},
		})
	}

	trackerPath := fetchTracker
	if trackerPath == "" && reg.Tracker.Enabled {
		trackerPath = reg.Tracker.Path
	}
	if trackerPath != "" {
		providers = append(providers, source.Provider{
			Kind: model.SourceTracker,
			Fetch: func(ctx context.Context) ([]model.RawRecord, error) {
				rows, err := readTrackerRows(trackerPath)
				if err != nil {
					return nil, err
				}
				return parse.Tracker(rows, retrievedAt)
			},
		})
	}

	if fetchNarrative != "" {
		providers = append(providers, source.Provider{
			Kind: model.SourceLLMNarrative,
			Fetch: func(ctx context.Context) ([]model.RawRecord, error) {
				doc, err := os.ReadFile(fetchNarrative)
				if err != nil {
					return nil, eris.Wrapf(err, "read narrative %s", fetchNarrative)
				}
				return parse.Markdown(string(doc), model.SourceLLMNarrative, retrievedAt)
			},
		})
	}

	return providers
}

func readTrackerRows(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fetcher.ReadXLSXRows(path)
	}
	return fetcher.ReadCSVFile(path)
}

// filterOptions builds the post-merge filter from the CLI flags. Explicit
// --since/--until beats --months.
func filterOptions() (filter.Options, error) {
	opts := filter.Options{Include: fetchInclude, Exclude: fetchExclude}

	if fetchSince != "" {
		t, err := time.Parse("2006-01-02", fetchSince)
		if err != nil {
			return opts, eris.Wrapf(err, "bad --since %q", fetchSince)
		}
		opts.Since = t
	}
	if fetchUntil != "" {
		t, err := time.Parse("2006-01-02", fetchUntil)
		if err != nil {
			return opts, eris.Wrapf(err, "bad --until %q", fetchUntil)
		}
		opts.Until = t
	}

	months := fetchMonths
	if months == 0 {
		months = cfg.Fetch.Months
	}
	if !opts.Window() && months > 0 {
		opts.Since, opts.Until = filter.WindowFromMonths(months, time.Now().UTC())
	}
	return opts, nil
}

func keepIDs(records []model.CanonicalRecord, ids []int64) []model.CanonicalRecord {
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make([]model.CanonicalRecord, 0, len(ids))
	for _, rec := range records {
		if wanted[rec.ID] {
			out = append(out, rec)
		}
	}
	return out
}

// writeFeed emits the requested feed formats atomically into the out dir.
func writeFeed(records []model.CanonicalRecord, outDir string, formats []string) error {
	if outDir == "" {
		outDir = cfg.Report.OutDir
	}
	for _, format := range formats {
		switch strings.ToLower(strings.TrimSpace(format)) {
		case "json":
			err := report.WriteFileAtomic(filepath.Join(outDir, "feed.json"), func(w io.Writer) error {
				return report.WriteJSON(w, records)
			})
			if err != nil {
				return err
			}
		case "csv":
			err := report.WriteFileAtomic(filepath.Join(outDir, "feed.csv"), func(w io.Writer) error {
				return report.WriteCSV(w, records)
			})
			if err != nil {
				return err
			}
		case "xlsx":
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return eris.Wrapf(err, "mkdir %s", outDir)
			}
			if err := report.WriteXLSX(filepath.Join(outDir, "feed.xlsx"), records); err != nil {
				return err
			}
		default:
			return eris.Errorf("unknown feed format %q", format)
		}
	}
	return nil
}

// writeStats emits the per-source run summary for CI health checks.
func writeStats(path string, stats model.FetchStats) error {
	return report.WriteFileAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(stats), "encode fetch stats")
	})
}

func failRun(ctx context.Context, st store.Store, runID string, err error) error {
	if cerr := st.CompleteRun(ctx, runID, model.RunStatusFailed, nil); cerr != nil {
		zap.L().Error("failed to mark run failed", zap.String("run_id", runID), zap.Error(cerr))
	}
	return err
}

func init() {
	fetchCmd.Flags().IntVar(&fetchMonths, "months", 0, "only keep features targeted in the last N months")
	fetchCmd.Flags().StringVar(&fetchSince, "since", "", "only keep features targeted on or after this date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchUntil, "until", "", "only keep features targeted on or before this date (YYYY-MM-DD)")
	fetchCmd.Flags().StringSliceVar(&fetchInclude, "include", nil, "keep only features available in these cloud instances")
	fetchCmd.Flags().StringSliceVar(&fetchExclude, "exclude", nil, "drop features available in these cloud instances")
	fetchCmd.Flags().StringVar(&fetchIDs, "ids", "", "comma-separated feature IDs to keep")
	fetchCmd.Flags().BoolVar(&fetchNoGraph, "no-graph", false, "skip the authenticated Graph source")
	fetchCmd.Flags().BoolVar(&fetchNoPublic, "no-public", false, "skip the public roadmap source")
	fetchCmd.Flags().BoolVar(&fetchNoMC, "no-mc", false, "skip the Message Center mirror source")
	fetchCmd.Flags().StringVar(&fetchTracker, "tracker", "", "path to a third-party tracker export (csv or xlsx)")
	fetchCmd.Flags().StringVar(&fetchNarrative, "narrative", "", "path to an LLM narrative report to use as lowest-priority source")
	fetchCmd.Flags().StringVar(&fetchSources, "sources", "", "path to sources.yaml (default from config)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "output directory (default from config)")
	fetchCmd.Flags().StringSliceVar(&fetchFormats, "format", []string{"json", "csv"}, "feed formats to write: json, csv, xlsx")
	fetchCmd.Flags().StringVar(&fetchStatsOut, "stats-out", "", "also write per-source fetch stats to this JSON file")
	rootCmd.AddCommand(fetchCmd)
}
